package order

import (
	"strconv"

	"presto-bot/internal/adapter/logger"
	"presto-bot/internal/domain"
)

// Processor validates a submitted cart payload against the customer's session
// and prices it. The total is always recomputed here from the item lines; a
// client-claimed aggregate is never trusted.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(lgr logger.Logger) *Processor {
	return &Processor{logger: lgr}
}

// Submit parses raw as the structured cart payload and checks the submission
// preconditions in order: payload shape, non-empty cart, registered phone,
// chosen service type, captured address (delivery only). On success it
// returns an immutable order summary.
func (p *Processor) Submit(raw []byte, sess domain.Session, displayName string) (*domain.OrderSummary, error) {
	items, err := domain.DecodeCartPayload(raw)
	if err != nil {
		return nil, err
	}

	if sess.Phone == "" {
		return nil, &domain.ValidationError{Code: domain.ValidationMissingPhone}
	}
	if sess.OrderType == domain.OrderTypeUnset {
		return nil, &domain.ValidationError{Code: domain.ValidationMissingServiceType}
	}
	if sess.OrderType == domain.OrderTypeDelivery && !sess.HasAddress() {
		return nil, &domain.ValidationError{Code: domain.ValidationMissingAddress}
	}

	summary := &domain.OrderSummary{
		CustomerID:   sess.CustomerID,
		CustomerName: displayName,
		Phone:        sess.Phone,
		OrderType:    sess.OrderType,
		Address:      sess.AddressText,
		Items:        items,
		TotalPrice:   domain.Total(items),
	}

	p.logger.Debug("order_validated", "Cart submission validated", strconv.FormatInt(sess.CustomerID, 10), map[string]interface{}{
		"items":       len(summary.Items),
		"total_price": summary.TotalPrice,
		"order_type":  string(summary.OrderType),
	})

	return summary, nil
}
