package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/domain"
	"presto-bot/internal/interfaces"
)

const (
	acceptedMarker = "\n\n✅ STATUS: QABUL QILINDI"
	rejectedMarker = "\n\n❌ STATUS: RAD ETILDI"

	acceptedReply  = "✅ Sizning buyurtmangiz qabul qilindi!\n💰 Summa: %s so'm\n⏰ Tez orada yetkazamiz."
	rejectedReply  = "❌ Kechirasiz, buyurtmangiz rad etildi."
	duplicateNote  = "⚠️ Bu buyurtma allaqachon ko'rib chiqilgan"
	contactReply   = "📞 Mijoz: %s"
	contactUnknown = "Noma'lum"
)

// Resolution is the outcome of an operator control press.
type Resolution int

const (
	ResolutionAccepted Resolution = iota
	ResolutionRejected
	ResolutionContact
	ResolutionDuplicate
)

// Dispatcher renders order summaries into the operator channel and resolves
// the operator's accept/reject/contact presses. Accept and reject are
// one-shot per operator message: the first press wins, later presses get a
// short "already handled" notice. Contact lookup stays repeatable.
type Dispatcher struct {
	chat        interfaces.ChatSender
	users       interfaces.UserRepository
	adminChatID int64
	logger      logger.Logger

	mu       sync.Mutex
	resolved map[int64]struct{} // operator message ids already acted on
}

func NewDispatcher(chat interfaces.ChatSender, users interfaces.UserRepository, adminChatID int64, lgr logger.Logger) *Dispatcher {
	return &Dispatcher{
		chat:        chat,
		users:       users,
		adminChatID: adminChatID,
		logger:      lgr,
		resolved:    make(map[int64]struct{}),
	}
}

// Notify sends the rendered order with its action controls to the operator.
// If the customer shared coordinates, a paired location message follows
// best-effort: its failure never undoes the text send.
func (d *Dispatcher) Notify(ctx context.Context, summary *domain.OrderSummary, loc *domain.Location) error {
	kb := (&interfaces.Keyboard{Inline: true}).
		Row(
			interfaces.Button{Text: "✅ Qabul qilish", Data: domain.ActionToken{Action: domain.TokenAccept, CustomerID: summary.CustomerID, TotalPrice: summary.TotalPrice}.Encode()},
			interfaces.Button{Text: "❌ Rad etish", Data: domain.ActionToken{Action: domain.TokenReject, CustomerID: summary.CustomerID}.Encode()},
		).
		Row(
			interfaces.Button{Text: "📞 Aloqa", Data: domain.ActionToken{Action: domain.TokenContact, CustomerID: summary.CustomerID}.Encode()},
		)

	if err := d.chat.SendText(ctx, d.adminChatID, RenderSummary(summary), kb); err != nil {
		return fmt.Errorf("failed to notify operator: %w", err)
	}

	if loc != nil {
		if err := d.chat.SendLocation(ctx, d.adminChatID, loc.Latitude, loc.Longitude); err != nil {
			d.logger.Error("location_send_failed", "Failed to send order location to operator",
				strconv.FormatInt(summary.CustomerID, 10), nil, err)
		}
	}

	return nil
}

// Resolve applies an operator control press identified by its decoded token.
func (d *Dispatcher) Resolve(ctx context.Context, tok domain.ActionToken, cb interfaces.Callback) (Resolution, error) {
	requestID := strconv.FormatInt(tok.CustomerID, 10)

	switch tok.Action {
	case domain.TokenAccept, domain.TokenReject:
		if !d.claim(cb.MessageID) {
			_ = d.chat.AnswerCallback(ctx, cb.ID, duplicateNote)
			return ResolutionDuplicate, nil
		}

	case domain.TokenContact:
		user, err := d.users.Find(ctx, tok.CustomerID)
		phone := contactUnknown
		switch {
		case err == nil && user.Phone != "":
			phone = user.Phone
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return ResolutionContact, fmt.Errorf("contact lookup failed: %w", err)
		}
		_ = d.chat.AnswerCallback(ctx, cb.ID, "")
		if err := d.chat.SendText(ctx, d.adminChatID, fmt.Sprintf(contactReply, phone), nil); err != nil {
			return ResolutionContact, fmt.Errorf("failed to reply contact info: %w", err)
		}
		return ResolutionContact, nil
	}

	if tok.Action == domain.TokenAccept {
		_ = d.chat.AnswerCallback(ctx, cb.ID, "✅ Tasdiqlandi")
		reply := fmt.Sprintf(acceptedReply, domain.FormatSum(tok.TotalPrice))
		if err := d.chat.SendText(ctx, tok.CustomerID, reply, nil); err != nil {
			d.logger.Error("accept_notify_failed", "Failed to send acceptance to customer", requestID, nil, err)
			return ResolutionAccepted, err
		}
		d.markOperatorMessage(ctx, cb, acceptedMarker, requestID)
		return ResolutionAccepted, nil
	}

	_ = d.chat.AnswerCallback(ctx, cb.ID, "")
	if err := d.chat.SendText(ctx, tok.CustomerID, rejectedReply, nil); err != nil {
		d.logger.Error("reject_notify_failed", "Failed to send rejection to customer", requestID, nil, err)
		return ResolutionRejected, err
	}
	d.markOperatorMessage(ctx, cb, rejectedMarker, requestID)
	return ResolutionRejected, nil
}

// claim records the first press on an operator message; later presses lose.
func (d *Dispatcher) claim(messageID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, done := d.resolved[messageID]; done {
		return false
	}
	d.resolved[messageID] = struct{}{}
	return true
}

func (d *Dispatcher) markOperatorMessage(ctx context.Context, cb interfaces.Callback, marker, requestID string) {
	if err := d.chat.EditMessageText(ctx, d.adminChatID, cb.MessageID, cb.MessageText+marker); err != nil {
		d.logger.Error("status_marker_failed", "Failed to append status marker", requestID, nil, err)
	}
}

// RenderSummary formats the operator-facing order message.
func RenderSummary(summary *domain.OrderSummary) string {
	var b strings.Builder
	b.WriteString("🚀 Yangi buyurtma!\n\n")
	fmt.Fprintf(&b, "👤 Mijoz: %s\n", summary.CustomerName)
	fmt.Fprintf(&b, "📞 Telefon: %s\n", summary.Phone)
	fmt.Fprintf(&b, "🚚 Turi: %s\n", summary.OrderType.DisplayName())
	address := summary.Address
	if address == "" {
		address = "Ko'rsatilmagan"
	}
	fmt.Fprintf(&b, "📍 Manzil: %s\n\n", address)

	for i, item := range summary.Items {
		fmt.Fprintf(&b, "%d. %s | %d ta = %s so'm\n",
			i+1, item.Name, item.Quantity, domain.FormatSum(item.Price*int64(item.Quantity)))
	}

	fmt.Fprintf(&b, "\n💰 JAMI: %s so'm", domain.FormatSum(summary.TotalPrice))
	return b.String()
}
