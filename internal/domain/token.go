package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TokenAction is what an operator control does when pressed.
type TokenAction string

const (
	TokenAccept  TokenAction = "accept"
	TokenReject  TokenAction = "reject"
	TokenContact TokenAction = "contact"
)

// ActionToken is the opaque string attached to each operator control, decoded
// at the transport boundary. It is the only persistence of "which order does
// this button belong to" — there is no order table.
//
// Wire forms: "accept_<customerID>_<total>", "reject_<customerID>",
// "contact_<customerID>".
type ActionToken struct {
	Action     TokenAction
	CustomerID int64
	TotalPrice int64 // set for accept only
}

var ErrBadToken = errors.New("malformed action token")

func (t ActionToken) Encode() string {
	switch t.Action {
	case TokenAccept:
		return fmt.Sprintf("accept_%d_%d", t.CustomerID, t.TotalPrice)
	default:
		return fmt.Sprintf("%s_%d", t.Action, t.CustomerID)
	}
}

// ParseToken decodes an operator control payload. Payloads that are not
// action tokens (service-type choices, catalog picks) return ErrBadToken and
// are routed elsewhere by the caller.
func ParseToken(data string) (ActionToken, error) {
	parts := strings.Split(data, "_")
	if len(parts) < 2 {
		return ActionToken{}, ErrBadToken
	}

	action := TokenAction(parts[0])
	switch action {
	case TokenAccept:
		if len(parts) != 3 {
			return ActionToken{}, ErrBadToken
		}
	case TokenReject, TokenContact:
		if len(parts) != 2 {
			return ActionToken{}, ErrBadToken
		}
	default:
		return ActionToken{}, ErrBadToken
	}

	customerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ActionToken{}, ErrBadToken
	}

	tok := ActionToken{Action: action, CustomerID: customerID}
	if action == TokenAccept {
		total, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return ActionToken{}, ErrBadToken
		}
		tok.TotalPrice = total
	}
	return tok, nil
}
