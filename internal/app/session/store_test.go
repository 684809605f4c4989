package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presto-bot/internal/domain"
)

func TestStore_CreatesDefaultSession(t *testing.T) {
	s := NewStore(10)

	snap := s.Snapshot(42)
	assert.Equal(t, int64(42), snap.CustomerID)
	assert.Equal(t, domain.StepIdle, snap.Step)
	assert.Empty(t, snap.Phone)
	assert.Equal(t, domain.OrderTypeUnset, snap.OrderType)
	assert.Nil(t, snap.Location)
	assert.Empty(t, snap.Cart)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ResetFromAnyState(t *testing.T) {
	s := NewStore(10)

	s.Update(42, func(sess *domain.Session) {
		sess.Phone = "+998901234567"
		sess.OrderType = domain.OrderTypeDelivery
		sess.Location = &domain.Location{Latitude: 1, Longitude: 2}
		sess.AddressText = "somewhere"
		sess.Cart = []domain.CartItem{{Name: "Doner", Price: 25000, Quantity: 1}}
		sess.Step = domain.StepReady
	})

	s.Reset(42)

	snap := s.Snapshot(42)
	assert.Empty(t, snap.Phone)
	assert.Equal(t, domain.OrderTypeUnset, snap.OrderType)
	assert.Nil(t, snap.Location)
	assert.Empty(t, snap.AddressText)
	assert.Empty(t, snap.Cart)
	assert.Equal(t, domain.StepRegistering, snap.Step)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore(10)

	s.Update(1, func(sess *domain.Session) {
		sess.Location = &domain.Location{Latitude: 41, Longitude: 71}
		sess.Cart = []domain.CartItem{{Name: "Lavash", Price: 25000, Quantity: 1}}
	})

	snap := s.Snapshot(1)
	snap.Location.Latitude = 0
	snap.Cart[0].Price = 0

	fresh := s.Snapshot(1)
	assert.Equal(t, float64(41), fresh.Location.Latitude)
	assert.Equal(t, int64(25000), fresh.Cart[0].Price)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore(100)

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				s.Update(7, func(sess *domain.Session) {
					sess.Cart = append(sess.Cart, domain.CartItem{Name: "x", Price: 1, Quantity: 1})
				})
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot(7)
	require.Len(t, snap.Cart, goroutines*perGoroutine)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewStore(2)

	s.Update(1, func(sess *domain.Session) { sess.Phone = "one" })
	s.Update(2, func(sess *domain.Session) { sess.Phone = "two" })
	s.Snapshot(1) // touch 1 so 2 is the oldest
	s.Update(3, func(sess *domain.Session) { sess.Phone = "three" })

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "one", s.Snapshot(1).Phone)
	// customer 2 was evicted; a fresh default session comes back
	assert.Empty(t, s.Snapshot(2).Phone)
}
