package interfaces

import "context"

// Button is one cell of a keyboard. Data marks an inline button; the request
// and web-app fields mark special reply-keyboard buttons.
type Button struct {
	Text            string `json:"text"`
	Data            string `json:"data,omitempty"`
	RequestContact  bool   `json:"request_contact,omitempty"`
	RequestLocation bool   `json:"request_location,omitempty"`
	WebAppURL       string `json:"web_app_url,omitempty"`
}

// Keyboard is either an inline keyboard (attached to a message) or a reply
// keyboard (replacing the customer's input panel).
type Keyboard struct {
	Inline  bool       `json:"inline,omitempty"`
	OneTime bool       `json:"one_time,omitempty"`
	Rows    [][]Button `json:"rows"`
}

func (k *Keyboard) Row(buttons ...Button) *Keyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// OutboundKind classifies a message published to the gateway.
type OutboundKind string

const (
	OutboundText           OutboundKind = "text"
	OutboundLocation       OutboundKind = "location"
	OutboundEdit           OutboundKind = "edit"
	OutboundCallbackAnswer OutboundKind = "callback_answer"
)

// OutboundMessage is the gateway wire format for everything the core sends.
type OutboundMessage struct {
	Kind       OutboundKind `json:"kind"`
	ChatID     int64        `json:"chat_id,omitempty"`
	Text       string       `json:"text,omitempty"`
	Keyboard   *Keyboard    `json:"keyboard,omitempty"`
	Latitude   float64      `json:"latitude,omitempty"`
	Longitude  float64      `json:"longitude,omitempty"`
	MessageID  int64        `json:"message_id,omitempty"`
	CallbackID string       `json:"callback_id,omitempty"`
}

// ChatSender is the outbound half of the messaging channel. The production
// implementation publishes to the gateway queue; tests substitute a fake.
type ChatSender interface {
	SendText(ctx context.Context, chatID int64, text string, kb *Keyboard) error
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// EventHandler processes one raw inbound event body.
type EventHandler func(ctx context.Context, body []byte) error

// EventConsumer feeds inbound chat events from the transport to a handler.
type EventConsumer interface {
	ConsumeEvents(ctx context.Context, handler EventHandler) error
}
