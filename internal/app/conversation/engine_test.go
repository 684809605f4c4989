package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/app/notify"
	"presto-bot/internal/app/order"
	"presto-bot/internal/app/session"
	"presto-bot/internal/domain"
	"presto-bot/internal/interfaces"
)

const (
	testAdminID  int64 = 999
	testCustomer int64 = 42
)

type sentText struct {
	ChatID   int64
	Text     string
	Keyboard *interfaces.Keyboard
}

type fakeChat struct {
	mu        sync.Mutex
	texts     []sentText
	locations []int64 // chat ids that received a location
	edits     []string
	answers   []string
}

func (f *fakeChat) SendText(_ context.Context, chatID int64, text string, kb *interfaces.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (f *fakeChat) SendLocation(_ context.Context, chatID int64, _, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = append(f.locations, chatID)
	return nil
}

func (f *fakeChat) EditMessageText(_ context.Context, _, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeChat) AnswerCallback(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

// sentTo returns the texts delivered to one chat.
func (f *fakeChat) sentTo(chatID int64) []sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentText
	for _, m := range f.texts {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeChat) last() sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[len(f.texts)-1]
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]domain.User
}

func (f *fakeUsers) Upsert(_ context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = make(map[int64]domain.User)
	}
	f.users[user.IdentityKey] = user
	return nil
}

func (f *fakeUsers) Find(_ context.Context, identityKey int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[identityKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type fakeCatalog struct{}

func (fakeCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "PIZZA"}, {ID: 2, Name: "HOT-DOG"}}, nil
}

func (fakeCatalog) ListProducts(_ context.Context, categoryID int) ([]domain.Product, error) {
	if categoryID == 1 {
		return []domain.Product{{ID: 10, CategoryID: 1, Name: "Pepperoni", Price: 70000}}, nil
	}
	return []domain.Product{{ID: 20, CategoryID: 2, Name: "Oddiy", Price: 10000}}, nil
}

func (fakeCatalog) FindProduct(_ context.Context, productID int) (*domain.Product, error) {
	switch productID {
	case 10:
		return &domain.Product{ID: 10, CategoryID: 1, Name: "Pepperoni", Price: 70000}, nil
	case 20:
		return &domain.Product{ID: 20, CategoryID: 2, Name: "Oddiy", Price: 10000}, nil
	}
	return nil, domain.ErrNotFound
}

type harness struct {
	engine *Engine
	chat   *fakeChat
	users  *fakeUsers
	store  *session.Store
	stats  *Stats
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	chat := &fakeChat{}
	users := &fakeUsers{}
	store := session.NewStore(100)
	stats := &Stats{}
	lgr := logger.New("test")

	engine := NewEngine(
		store, users, fakeCatalog{},
		order.NewProcessor(lgr),
		notify.NewDispatcher(chat, users, testAdminID, lgr),
		chat, lgr, stats,
		Config{
			AdminChatID:   testAdminID,
			BranchPhone:   "+998 94 677 75 90",
			BranchAddress: "Chartak sh., Alisher Navoiy ko'chasi",
			WebAppURL:     "https://example.test/menu",
		},
	)

	return &harness{engine: engine, chat: chat, users: users, store: store, stats: stats}
}

func (h *harness) handle(ev interfaces.InboundEvent) {
	h.engine.Handle(context.Background(), ev)
}

func customerEvent(kind interfaces.EventKind) interfaces.InboundEvent {
	return interfaces.InboundEvent{
		ChatID: testCustomer,
		From:   interfaces.Profile{ID: testCustomer, FirstName: "Otash"},
		Kind:   kind,
	}
}

func (h *harness) register(t *testing.T, phone string) {
	t.Helper()

	start := customerEvent(interfaces.EventCommand)
	start.Command = "start"
	h.handle(start)

	contact := customerEvent(interfaces.EventContact)
	contact.Contact = &interfaces.Contact{Phone: phone}
	h.handle(contact)
}

func (h *harness) press(data string, messageID int64) {
	cb := customerEvent(interfaces.EventCallback)
	cb.Callback = &interfaces.Callback{ID: "cb", Data: data, MessageID: messageID}
	h.engine.Handle(context.Background(), cb)
}

func TestEngine_PickupOrderScenario(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypePickup, 1)

	snap := h.store.Snapshot(testCustomer)
	assert.Equal(t, domain.OrderTypePickup, snap.OrderType)
	assert.Equal(t, pickupAddressText, snap.AddressText)
	assert.Nil(t, snap.Location)
	assert.Equal(t, domain.StepReady, snap.Step)

	submit := customerEvent(interfaces.EventWebApp)
	submit.Payload = []byte(`[
		{"name":"Pepperoni","price":70000,"quantity":1},
		{"name":"Oddiy","price":10000,"quantity":2}
	]`)
	h.handle(submit)

	adminMsgs := h.chat.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	assert.Contains(t, adminMsgs[0].Text, "Pepperoni")
	assert.Contains(t, adminMsgs[0].Text, "Oddiy")
	assert.Contains(t, adminMsgs[0].Text, "JAMI: 90 000 so'm")
	require.NotNil(t, adminMsgs[0].Keyboard)
	assert.Equal(t, "accept_42_90000", adminMsgs[0].Keyboard.Rows[0][0].Data)
	assert.Equal(t, "reject_42", adminMsgs[0].Keyboard.Rows[0][1].Data)
	assert.Equal(t, "contact_42", adminMsgs[0].Keyboard.Rows[1][0].Data)

	// Customer's own confirmation carries the recomputed total.
	last := h.chat.last()
	assert.Equal(t, testCustomer, last.ChatID)
	assert.Contains(t, last.Text, "90 000")

	assert.Equal(t, int64(1), h.stats.OrdersSubmitted.Load())
	assert.Empty(t, h.chat.locations, "pickup order sends no coordinates")
}

func TestEngine_DeliveryFreeTextAddress(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypeDelivery, 1)

	require.Equal(t, domain.StepAwaitingAddress, h.store.Snapshot(testCustomer).Step)

	addr := customerEvent(interfaces.EventText)
	addr.Text = "Chortoq, Navoiy ko'chasi, 15-uy"
	h.handle(addr)

	snap := h.store.Snapshot(testCustomer)
	assert.Equal(t, "Chortoq, Navoiy ko'chasi, 15-uy", snap.AddressText)
	assert.Nil(t, snap.Location)
	assert.Equal(t, domain.StepReady, snap.Step)
}

func TestEngine_DeliveryLocationShare(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypeDelivery, 1)

	loc := customerEvent(interfaces.EventLocation)
	loc.Location = &domain.Location{Latitude: 41.02, Longitude: 71.64}
	h.handle(loc)

	snap := h.store.Snapshot(testCustomer)
	require.NotNil(t, snap.Location)
	assert.Equal(t, mapLocationLabel, snap.AddressText)
	assert.Equal(t, domain.StepReady, snap.Step)

	// The operator gets the paired coordinate message on submission.
	submit := customerEvent(interfaces.EventWebApp)
	submit.Payload = []byte(`[{"name":"Lavash","price":25000,"quantity":1}]`)
	h.handle(submit)

	assert.Equal(t, []int64{testAdminID}, h.chat.locations)
}

func TestEngine_EmptyCartNeverReachesOperator(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypePickup, 1)

	submit := customerEvent(interfaces.EventWebApp)
	submit.Payload = []byte(`[]`)
	h.handle(submit)

	assert.Empty(t, h.chat.sentTo(testAdminID))
	last := h.chat.last()
	assert.Equal(t, testCustomer, last.ChatID)
	assert.Equal(t, replyEmptyCart, last.Text)
	assert.Equal(t, int64(0), h.stats.OrdersSubmitted.Load())
}

func TestEngine_SubmissionRePromptsMissingPrecondition(t *testing.T) {
	validCart := `[{"name":"Doner","price":25000,"quantity":1}]`

	t.Run("missing phone", func(t *testing.T) {
		h := newHarness(t)

		submit := customerEvent(interfaces.EventWebApp)
		submit.Payload = []byte(validCart)
		h.handle(submit)

		assert.Empty(t, h.chat.sentTo(testAdminID))
		assert.Equal(t, replyMissingPhone, h.chat.last().Text)
	})

	t.Run("missing service type", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, "+998901234567")

		submit := customerEvent(interfaces.EventWebApp)
		submit.Payload = []byte(validCart)
		h.handle(submit)

		assert.Equal(t, replyMissingType, h.chat.last().Text)
		// Step unchanged: still selecting the service type.
		assert.Equal(t, domain.StepSelectingServiceType, h.store.Snapshot(testCustomer).Step)
	})

	t.Run("delivery without address", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, "+998901234567")
		h.press(cbTypeDelivery, 1)

		submit := customerEvent(interfaces.EventWebApp)
		submit.Payload = []byte(validCart)
		h.handle(submit)

		assert.Empty(t, h.chat.sentTo(testAdminID))
		assert.Equal(t, replyAddressPrompt, h.chat.last().Text)
		assert.Equal(t, domain.StepAwaitingAddress, h.store.Snapshot(testCustomer).Step)
	})
}

func TestEngine_OperatorAcceptRoundTrip(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypePickup, 1)

	submit := customerEvent(interfaces.EventWebApp)
	submit.Payload = []byte(`[{"name":"Carnoso","price":85000,"quantity":1}]`)
	h.handle(submit)

	adminMsgs := h.chat.sentTo(testAdminID)
	require.Len(t, adminMsgs, 1)
	token := adminMsgs[0].Keyboard.Rows[0][0].Data
	require.Equal(t, "accept_42_85000", token)

	press := interfaces.InboundEvent{
		ChatID: testAdminID,
		From:   interfaces.Profile{ID: testAdminID, FirstName: "Operator"},
		Kind:   interfaces.EventCallback,
		Callback: &interfaces.Callback{
			ID:          "cb-admin",
			Data:        token,
			MessageID:   500,
			MessageText: adminMsgs[0].Text,
		},
	}
	h.handle(press)

	last := h.chat.last()
	assert.Equal(t, testCustomer, last.ChatID)
	assert.Contains(t, last.Text, "85 000")
	assert.Equal(t, int64(1), h.stats.OrdersAccepted.Load())
}

func TestEngine_ActionTokenOutsideOperatorChannelIgnored(t *testing.T) {
	h := newHarness(t)

	before := h.stats.EventsIgnored.Load()
	h.press("accept_42_85000", 500) // customer chat, not the operator's
	assert.Equal(t, before+1, h.stats.EventsIgnored.Load())
	assert.Empty(t, h.chat.texts)
}

func TestEngine_RestartResetsEverything(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypeDelivery, 1)

	addr := customerEvent(interfaces.EventText)
	addr.Text = "Chortoq, Navoiy ko'chasi, 15-uy"
	h.handle(addr)

	restart := customerEvent(interfaces.EventText)
	restart.Text = kwRestart
	h.handle(restart)

	snap := h.store.Snapshot(testCustomer)
	assert.Empty(t, snap.Phone)
	assert.Equal(t, domain.OrderTypeUnset, snap.OrderType)
	assert.Nil(t, snap.Location)
	assert.Empty(t, snap.AddressText)
	assert.Equal(t, domain.StepRegistering, snap.Step)

	// The directory is refreshed with a blank phone.
	u, err := h.users.Find(context.Background(), testCustomer)
	require.NoError(t, err)
	assert.Empty(t, u.Phone)

	assert.Equal(t, replyGreeting, h.chat.last().Text)
}

func TestEngine_CancelDuringAddressCaptureRestarts(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypeDelivery, 1)

	cancel := customerEvent(interfaces.EventText)
	cancel.Text = kwCancel
	h.handle(cancel)

	snap := h.store.Snapshot(testCustomer)
	assert.Equal(t, domain.StepRegistering, snap.Step)
	assert.Empty(t, snap.AddressText, "cancel keyword is not captured as an address")
}

func TestEngine_UnexpectedEventsAreCountedNoOps(t *testing.T) {
	h := newHarness(t)

	h.register(t, "+998901234567")
	h.press(cbTypePickup, 1)
	sentBefore := len(h.chat.texts)

	// Location share while Ready: silent, but observable.
	loc := customerEvent(interfaces.EventLocation)
	loc.Location = &domain.Location{Latitude: 1, Longitude: 2}
	h.handle(loc)

	// Random free text while Ready: same.
	noise := customerEvent(interfaces.EventText)
	noise.Text = "salom"
	h.handle(noise)

	assert.Equal(t, int64(2), h.stats.EventsIgnored.Load())
	assert.Len(t, h.chat.texts, sentBefore, "no reply for ignored events")
	snap := h.store.Snapshot(testCustomer)
	assert.Nil(t, snap.Location, "ignored location never touches the session")
}

func TestEngine_LegacyCatalogBrowseAndCartView(t *testing.T) {
	h := newHarness(t)
	h.register(t, "+998901234567")
	h.press(cbTypePickup, 1)

	menu := customerEvent(interfaces.EventText)
	menu.Text = kwMenu
	h.handle(menu)

	last := h.chat.last()
	assert.Equal(t, replyPickCategory, last.Text)
	require.NotNil(t, last.Keyboard)
	assert.Equal(t, "cat_1", last.Keyboard.Rows[0][0].Data)

	h.press("cat_1", 2)
	last = h.chat.last()
	assert.Equal(t, replyPickProduct, last.Text)
	assert.Equal(t, "prod_10", last.Keyboard.Rows[0][0].Data)

	h.press("prod_10", 3)
	h.press("prod_10", 3)

	cart := customerEvent(interfaces.EventText)
	cart.Text = kwCart
	h.handle(cart)

	last = h.chat.last()
	assert.Contains(t, last.Text, "1. Pepperoni - 70 000 so'm")
	assert.Contains(t, last.Text, "2. Pepperoni - 70 000 so'm")
	assert.Contains(t, last.Text, fmt.Sprintf("Jami: %s so'm", "140 000"))
}

func TestEngine_ContactInfoKeyword(t *testing.T) {
	h := newHarness(t)

	info := customerEvent(interfaces.EventText)
	info.Text = kwContact
	h.handle(info)

	last := h.chat.last()
	assert.Contains(t, last.Text, "+998 94 677 75 90")
	assert.Contains(t, last.Text, "Chartak sh.")
}
