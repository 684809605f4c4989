package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/app/notify"
	"presto-bot/internal/app/order"
	"presto-bot/internal/app/session"
	"presto-bot/internal/domain"
	"presto-bot/internal/interfaces"
)

// Config carries the fixed operator identity and branch copy.
type Config struct {
	AdminChatID   int64
	BranchPhone   string
	BranchAddress string
	WebAppURL     string
}

// Engine is the per-customer conversation state machine. Given an inbound
// event and the customer's current step it decides the transition, mutates
// the session through the store, and emits outbound messages. Session
// mutation always happens before any external send, so a failed send never
// leaves a session half-updated.
type Engine struct {
	store    *session.Store
	users    interfaces.UserRepository
	catalog  interfaces.CatalogRepository
	orders   *order.Processor
	notifier *notify.Dispatcher
	chat     interfaces.ChatSender
	logger   logger.Logger
	stats    *Stats

	adminChatID   int64
	branchPhone   string
	branchAddress string
	webAppURL     string
}

func NewEngine(
	store *session.Store,
	users interfaces.UserRepository,
	catalog interfaces.CatalogRepository,
	orders *order.Processor,
	notifier *notify.Dispatcher,
	chat interfaces.ChatSender,
	lgr logger.Logger,
	stats *Stats,
	cfg Config,
) *Engine {
	return &Engine{
		store:         store,
		users:         users,
		catalog:       catalog,
		orders:        orders,
		notifier:      notifier,
		chat:          chat,
		logger:        lgr,
		stats:         stats,
		adminChatID:   cfg.AdminChatID,
		branchPhone:   cfg.BranchPhone,
		branchAddress: cfg.BranchAddress,
		webAppURL:     cfg.WebAppURL,
	}
}

// HandleRaw decodes one gateway event and handles it in its own goroutine.
// Each event is a fault boundary: a panic or error in one handler never
// reaches the dispatch loop or another customer's session.
func (e *Engine) HandleRaw(ctx context.Context, body []byte) error {
	var ev interfaces.InboundEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		e.logger.Error("event_parse_failed", "Failed to parse inbound event", "", nil, err)
		return nil
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("handler_panic", "Event handler panicked",
					strconv.FormatInt(ev.ChatID, 10),
					map[string]interface{}{"panic": fmt.Sprint(r)}, nil)
			}
		}()
		e.Handle(ctx, ev)
	}()

	return nil
}

// Handle dispatches a single inbound event against the sender's current step.
func (e *Engine) Handle(ctx context.Context, ev interfaces.InboundEvent) {
	e.stats.EventsHandled.Add(1)

	switch ev.Kind {
	case interfaces.EventCommand:
		switch ev.Command {
		case "start":
			e.startFlow(ctx, ev)
		case "menu":
			e.showCategories(ctx, ev)
		default:
			e.ignore(ev, "unknown command")
		}

	case interfaces.EventContact:
		if ev.Contact == nil || e.store.Snapshot(ev.ChatID).Step != domain.StepRegistering {
			e.ignore(ev, "contact outside registration")
			return
		}
		e.register(ctx, ev)

	case interfaces.EventLocation:
		if ev.Location == nil || e.store.Snapshot(ev.ChatID).Step != domain.StepAwaitingAddress {
			e.ignore(ev, "location outside address capture")
			return
		}
		e.captureLocation(ctx, ev)

	case interfaces.EventWebApp:
		e.submitCart(ctx, ev)

	case interfaces.EventText:
		e.handleText(ctx, ev)

	case interfaces.EventCallback:
		if ev.Callback == nil {
			e.ignore(ev, "callback without payload")
			return
		}
		e.handleCallback(ctx, ev)

	default:
		e.ignore(ev, "unknown event kind")
	}
}

// startFlow resets the conversation and re-registers the customer: blank
// phone in the directory, fresh greeting with a contact request.
func (e *Engine) startFlow(ctx context.Context, ev interfaces.InboundEvent) {
	e.store.Reset(ev.ChatID)

	err := e.users.Upsert(ctx, domain.User{
		IdentityKey: ev.ChatID,
		Phone:       "",
		DisplayName: ev.From.FirstName,
	})
	if err != nil {
		e.logger.Error("user_upsert_failed", "Failed to reset user registration", e.requestID(ev), nil, err)
	}

	e.send(ctx, ev.ChatID, replyGreeting, contactRequestKeyboard())
}

func (e *Engine) register(ctx context.Context, ev interfaces.InboundEvent) {
	phone := ev.Contact.Phone

	e.store.Update(ev.ChatID, func(s *domain.Session) {
		s.Phone = phone
		s.Step = domain.StepSelectingServiceType
	})

	err := e.users.Upsert(ctx, domain.User{
		IdentityKey: ev.ChatID,
		Phone:       phone,
		DisplayName: ev.From.FirstName,
	})
	if err != nil {
		e.logger.Error("user_upsert_failed", "Failed to store customer phone", e.requestID(ev), nil, err)
	}

	e.send(ctx, ev.ChatID, replyRegistered, serviceTypeKeyboard())
}

func (e *Engine) captureLocation(ctx context.Context, ev interfaces.InboundEvent) {
	e.store.Update(ev.ChatID, func(s *domain.Session) {
		s.SetDeliveryLocation(*ev.Location, mapLocationLabel)
	})
	e.send(ctx, ev.ChatID, replyLocationAccepted, e.mainMenuKeyboard())
}

func (e *Engine) handleText(ctx context.Context, ev interfaces.InboundEvent) {
	text := ev.Text

	// Free text is only meaningful as input while an address is awaited; at
	// every other step it is matched against the fixed keyword vocabulary.
	if e.store.Snapshot(ev.ChatID).Step == domain.StepAwaitingAddress && text != kwCancel {
		e.store.Update(ev.ChatID, func(s *domain.Session) {
			s.SetDeliveryAddressText(text)
		})
		e.send(ctx, ev.ChatID, fmt.Sprintf(replyAddressAccepted, text), e.mainMenuKeyboard())
		return
	}

	switch text {
	case kwCart:
		e.showCart(ctx, ev)
	case kwRestart, kwCancel:
		e.startFlow(ctx, ev)
	case kwContact:
		e.send(ctx, ev.ChatID, fmt.Sprintf(replyContactInfo, e.branchPhone, e.branchAddress), nil)
	case kwMenu:
		e.showCategories(ctx, ev)
	default:
		e.ignore(ev, "unrecognized text")
	}
}

// submitCart runs the structured cart payload through the order processor.
// A failed precondition re-prompts exactly the missing piece and leaves the
// step unchanged; a valid order goes to the operator.
func (e *Engine) submitCart(ctx context.Context, ev interfaces.InboundEvent) {
	snap := e.store.Snapshot(ev.ChatID)

	summary, err := e.orders.Submit(ev.Payload, snap, ev.From.FirstName)
	if err != nil {
		e.replyValidation(ctx, ev, err)
		return
	}

	e.stats.OrdersSubmitted.Add(1)

	if err := e.notifier.Notify(ctx, summary, snap.Location); err != nil {
		e.logger.Error("operator_notify_failed", "Failed to forward order to operator", e.requestID(ev), nil, err)
		e.send(ctx, ev.ChatID, replyGenericError, nil)
		return
	}

	e.send(ctx, ev.ChatID, fmt.Sprintf(replyOrderSent, domain.FormatSum(summary.TotalPrice)), e.mainMenuKeyboard())
}

func (e *Engine) replyValidation(ctx context.Context, ev interfaces.InboundEvent, err error) {
	ve, ok := domain.AsValidation(err)
	if !ok {
		e.logger.Error("submit_failed", "Cart submission failed", e.requestID(ev), nil, err)
		e.send(ctx, ev.ChatID, replyGenericError, nil)
		return
	}

	e.logger.Debug("submit_rejected", "Cart submission rejected", e.requestID(ev),
		map[string]interface{}{"code": string(ve.Code)})

	switch ve.Code {
	case domain.ValidationEmptyCart:
		e.send(ctx, ev.ChatID, replyEmptyCart, nil)
	case domain.ValidationMissingPhone:
		e.send(ctx, ev.ChatID, replyMissingPhone, contactRequestKeyboard())
	case domain.ValidationMissingServiceType:
		e.send(ctx, ev.ChatID, replyMissingType, serviceTypeKeyboard())
	case domain.ValidationMissingAddress:
		e.send(ctx, ev.ChatID, replyAddressPrompt, locationRequestKeyboard())
	default:
		e.send(ctx, ev.ChatID, replyGenericError, nil)
	}
}

func (e *Engine) handleCallback(ctx context.Context, ev interfaces.InboundEvent) {
	cb := *ev.Callback

	// Operator action tokens are decoded structurally; anything that does not
	// parse falls through to the customer-side button vocabulary.
	if tok, err := domain.ParseToken(cb.Data); err == nil {
		if ev.ChatID != e.adminChatID {
			e.ignore(ev, "action token outside operator channel")
			return
		}
		e.resolveOperatorAction(ctx, ev, tok, cb)
		return
	}

	switch {
	case cb.Data == cbTypeDelivery:
		e.chooseDelivery(ctx, ev, cb)
	case cb.Data == cbTypePickup:
		e.choosePickup(ctx, ev, cb)
	case strings.HasPrefix(cb.Data, "cat_"):
		e.showProducts(ctx, ev, cb)
	case strings.HasPrefix(cb.Data, "prod_"):
		e.addToCart(ctx, ev, cb)
	default:
		e.ignore(ev, "unknown callback")
	}
}

func (e *Engine) resolveOperatorAction(ctx context.Context, ev interfaces.InboundEvent, tok domain.ActionToken, cb interfaces.Callback) {
	res, err := e.notifier.Resolve(ctx, tok, cb)
	if err != nil {
		e.logger.Error("resolve_failed", "Failed to resolve operator action", e.requestID(ev), nil, err)
		return
	}

	switch res {
	case notify.ResolutionAccepted:
		e.stats.OrdersAccepted.Add(1)
	case notify.ResolutionRejected:
		e.stats.OrdersRejected.Add(1)
	}
}

func (e *Engine) chooseDelivery(ctx context.Context, ev interfaces.InboundEvent, cb interfaces.Callback) {
	if e.store.Snapshot(ev.ChatID).Step != domain.StepSelectingServiceType {
		e.ignore(ev, "service choice outside selection")
		return
	}

	e.store.Update(ev.ChatID, func(s *domain.Session) {
		s.OrderType = domain.OrderTypeDelivery
		s.Step = domain.StepAwaitingAddress
	})

	e.answerCallback(ctx, cb.ID, "")
	e.editMessage(ctx, ev.ChatID, cb.MessageID, replyDeliveryChosen)
	e.send(ctx, ev.ChatID, replyAddressPrompt, locationRequestKeyboard())
}

func (e *Engine) choosePickup(ctx context.Context, ev interfaces.InboundEvent, cb interfaces.Callback) {
	if e.store.Snapshot(ev.ChatID).Step != domain.StepSelectingServiceType {
		e.ignore(ev, "service choice outside selection")
		return
	}

	e.store.Update(ev.ChatID, func(s *domain.Session) {
		s.SetPickup(pickupAddressText)
	})

	e.answerCallback(ctx, cb.ID, "")
	e.editMessage(ctx, ev.ChatID, cb.MessageID, replyPickupChosen)
	e.send(ctx, ev.ChatID, fmt.Sprintf(replyPickupAddress, e.branchAddress), e.mainMenuKeyboard())
}

func (e *Engine) showCategories(ctx context.Context, ev interfaces.InboundEvent) {
	categories, err := e.catalog.ListCategories(ctx)
	if err != nil {
		e.logger.Error("catalog_list_failed", "Failed to list categories", e.requestID(ev), nil, err)
		e.send(ctx, ev.ChatID, replyGenericError, nil)
		return
	}

	kb := &interfaces.Keyboard{Inline: true}
	for _, c := range categories {
		kb.Row(interfaces.Button{Text: c.Name, Data: fmt.Sprintf("cat_%d", c.ID)})
	}
	e.send(ctx, ev.ChatID, replyPickCategory, kb)
}

func (e *Engine) showProducts(ctx context.Context, ev interfaces.InboundEvent, cb interfaces.Callback) {
	id, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "cat_"))
	if err != nil {
		e.ignore(ev, "malformed category callback")
		return
	}

	products, err := e.catalog.ListProducts(ctx, id)
	if err != nil {
		e.logger.Error("catalog_list_failed", "Failed to list products", e.requestID(ev), nil, err)
		e.send(ctx, ev.ChatID, replyGenericError, nil)
		return
	}

	kb := &interfaces.Keyboard{Inline: true}
	for _, p := range products {
		label := fmt.Sprintf("%s — %s so'm", p.Name, domain.FormatSum(p.Price))
		kb.Row(interfaces.Button{Text: label, Data: fmt.Sprintf("prod_%d", p.ID)})
	}

	e.answerCallback(ctx, cb.ID, "")
	e.send(ctx, ev.ChatID, replyPickProduct, kb)
}

func (e *Engine) addToCart(ctx context.Context, ev interfaces.InboundEvent, cb interfaces.Callback) {
	id, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "prod_"))
	if err != nil {
		e.ignore(ev, "malformed product callback")
		return
	}

	product, err := e.catalog.FindProduct(ctx, id)
	if err != nil {
		e.logger.Error("product_lookup_failed", "Failed to look up product", e.requestID(ev), nil, err)
		e.answerCallback(ctx, cb.ID, replyGenericError)
		return
	}

	e.store.Update(ev.ChatID, func(s *domain.Session) {
		s.Cart = append(s.Cart, domain.CartItem{
			Name:     product.Name,
			Price:    product.Price,
			Quantity: 1,
		})
	})

	e.answerCallback(ctx, cb.ID, "")
	e.send(ctx, ev.ChatID, fmt.Sprintf(replyAddedToCart, product.Name, domain.FormatSum(product.Price)), nil)
}

func (e *Engine) showCart(ctx context.Context, ev interfaces.InboundEvent) {
	snap := e.store.Snapshot(ev.ChatID)
	if len(snap.Cart) == 0 {
		e.send(ctx, ev.ChatID, replyCartEmpty, nil)
		return
	}

	var b strings.Builder
	b.WriteString(replyCartHeader)
	for i, item := range snap.Cart {
		fmt.Fprintf(&b, "%d. %s - %s so'm\n", i+1, item.Name, domain.FormatSum(item.Price*int64(item.Quantity)))
	}
	fmt.Fprintf(&b, replyCartFooter, domain.FormatSum(domain.Total(snap.Cart)))

	e.send(ctx, ev.ChatID, b.String(), nil)
}

// ignore is the deliberate-leniency path: unexpected events for the current
// step signal neither success nor error, but they are counted and logged.
func (e *Engine) ignore(ev interfaces.InboundEvent, reason string) {
	e.stats.EventsIgnored.Add(1)
	e.logger.Debug("event_ignored", "Ignored unexpected event", e.requestID(ev),
		map[string]interface{}{"kind": string(ev.Kind), "reason": reason})
}

func (e *Engine) send(ctx context.Context, chatID int64, text string, kb *interfaces.Keyboard) {
	if err := e.chat.SendText(ctx, chatID, text, kb); err != nil {
		e.logger.Error("send_failed", "Failed to send message", strconv.FormatInt(chatID, 10), nil, err)
	}
}

func (e *Engine) answerCallback(ctx context.Context, callbackID, text string) {
	if err := e.chat.AnswerCallback(ctx, callbackID, text); err != nil {
		e.logger.Error("callback_answer_failed", "Failed to answer callback", "", nil, err)
	}
}

func (e *Engine) editMessage(ctx context.Context, chatID, messageID int64, text string) {
	if err := e.chat.EditMessageText(ctx, chatID, messageID, text); err != nil {
		e.logger.Error("edit_failed", "Failed to edit message", strconv.FormatInt(chatID, 10), nil, err)
	}
}

func (e *Engine) requestID(ev interfaces.InboundEvent) string {
	return strconv.FormatInt(ev.ChatID, 10)
}
