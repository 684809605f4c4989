package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/domain"
)

func readySession() domain.Session {
	return domain.Session{
		CustomerID:  42,
		Phone:       "+998901234567",
		OrderType:   domain.OrderTypePickup,
		AddressText: "Filialdan olib ketish",
		Step:        domain.StepReady,
	}
}

func TestSubmit_RecomputesTotalServerSide(t *testing.T) {
	p := NewProcessor(logger.New("test"))

	// The payload carries no trustworthy aggregate; even if a client added
	// one it would be dropped by the decoder.
	raw := []byte(`[
		{"name":"Pepperoni","price":70000,"quantity":1},
		{"name":"Oddiy","price":10000,"quantity":2}
	]`)

	summary, err := p.Submit(raw, readySession(), "Otash")
	require.NoError(t, err)

	assert.Equal(t, int64(90000), summary.TotalPrice)
	assert.Equal(t, int64(42), summary.CustomerID)
	assert.Equal(t, "Otash", summary.CustomerName)
	assert.Equal(t, "+998901234567", summary.Phone)
	assert.Equal(t, domain.OrderTypePickup, summary.OrderType)
	assert.Equal(t, "Filialdan olib ketish", summary.Address)
	require.Len(t, summary.Items, 2)
	assert.Equal(t, "Pepperoni", summary.Items[0].Name)
}

func TestSubmit_ValidationLadder(t *testing.T) {
	p := NewProcessor(logger.New("test"))
	validCart := []byte(`[{"name":"Doner","price":25000,"quantity":1}]`)

	tests := []struct {
		name string
		raw  []byte
		sess func() domain.Session
		code domain.ValidationCode
	}{
		{
			name: "malformed payload",
			raw:  []byte(`not json`),
			sess: readySession,
			code: domain.ValidationMalformed,
		},
		{
			name: "empty cart",
			raw:  []byte(`[]`),
			sess: readySession,
			code: domain.ValidationEmptyCart,
		},
		{
			name: "missing phone",
			raw:  validCart,
			sess: func() domain.Session {
				s := readySession()
				s.Phone = ""
				return s
			},
			code: domain.ValidationMissingPhone,
		},
		{
			name: "missing service type",
			raw:  validCart,
			sess: func() domain.Session {
				s := readySession()
				s.OrderType = domain.OrderTypeUnset
				return s
			},
			code: domain.ValidationMissingServiceType,
		},
		{
			name: "delivery without address",
			raw:  validCart,
			sess: func() domain.Session {
				s := readySession()
				s.OrderType = domain.OrderTypeDelivery
				s.Location = nil
				s.AddressText = ""
				return s
			},
			code: domain.ValidationMissingAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := p.Submit(tt.raw, tt.sess(), "Otash")
			assert.Nil(t, summary)
			ve, ok := domain.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, ve.Code)
		})
	}
}

func TestSubmit_DeliveryWithCoordinatesOnly(t *testing.T) {
	p := NewProcessor(logger.New("test"))

	s := readySession()
	s.OrderType = domain.OrderTypeDelivery
	s.Location = &domain.Location{Latitude: 41.0, Longitude: 71.6}
	s.AddressText = "Xaritadagi lokatsiya yuborildi"

	summary, err := p.Submit([]byte(`[{"name":"Lavash","price":25000,"quantity":2}]`), s, "Otash")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), summary.TotalPrice)
}
