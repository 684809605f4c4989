package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// CartItem is one line of a cart: either a legacy inline-catalog pick or an
// entry of the structured payload sent by the ordering web view.
type CartItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderSummary is the validated, server-priced result of a cart submission.
// It is ephemeral: it lives as an operator message, never as a stored record.
type OrderSummary struct {
	CustomerID   int64
	CustomerName string
	Phone        string
	OrderType    OrderType
	Address      string
	Items        []CartItem
	TotalPrice   int64
}

// ValidationCode identifies which submission precondition failed.
type ValidationCode string

const (
	ValidationMalformed          ValidationCode = "malformed"
	ValidationEmptyCart          ValidationCode = "empty_cart"
	ValidationMissingPhone       ValidationCode = "missing_phone"
	ValidationMissingServiceType ValidationCode = "missing_service_type"
	ValidationMissingAddress     ValidationCode = "missing_address"
)

// ValidationError is recovered locally by re-prompting the missing
// precondition; it is never surfaced to chat as a raw error.
type ValidationError struct {
	Code ValidationCode
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cart validation failed: %s", e.Code)
}

// AsValidation unwraps err into a ValidationError, if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// DecodeCartPayload parses the opaque blob produced by the ordering web view:
// a JSON array of {name, price, quantity}. Any shape or field-level violation
// is reported as Malformed; an empty array as EmptyCart.
func DecodeCartPayload(raw []byte) ([]CartItem, error) {
	var items []CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ValidationError{Code: ValidationMalformed}
	}
	if len(items) == 0 {
		return nil, &ValidationError{Code: ValidationEmptyCart}
	}
	for _, it := range items {
		if it.Name == "" || it.Price < 0 || it.Quantity < 1 {
			return nil, &ValidationError{Code: ValidationMalformed}
		}
	}
	return items, nil
}

// Total is the item-level arithmetic the whole system trusts. Client-supplied
// aggregates are never used.
func Total(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// FormatSum renders an amount with thousands separators, e.g. 85000 -> "85 000".
func FormatSum(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) > 3 {
		var out []byte
		lead := len(s) % 3
		if lead > 0 {
			out = append(out, s[:lead]...)
		}
		for i := lead; i < len(s); i += 3 {
			if len(out) > 0 {
				out = append(out, ' ')
			}
			out = append(out, s[i:i+3]...)
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}
