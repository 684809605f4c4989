package interfaces

import "presto-bot/internal/domain"

// EventKind classifies an inbound chat event as delivered by the gateway.
type EventKind string

const (
	EventCommand  EventKind = "command"   // slash command, e.g. "start"
	EventText     EventKind = "text"      // free text
	EventContact  EventKind = "contact"   // shared phone number
	EventLocation EventKind = "location"  // shared coordinates
	EventWebApp   EventKind = "web_app"   // structured cart payload blob
	EventCallback EventKind = "callback"  // inline button press
)

// Profile is the sender identity attached to every inbound event.
type Profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

// Contact is a shared phone number.
type Contact struct {
	Phone string `json:"phone"`
}

// Callback is an inline button press. MessageID/MessageText reference the
// message the button was attached to, so a status marker can be appended.
type Callback struct {
	ID          string `json:"id"`
	Data        string `json:"data"`
	MessageID   int64  `json:"message_id"`
	MessageText string `json:"message_text"`
}

// InboundEvent is the gateway wire format for everything a customer or the
// operator sends. Exactly one of the kind-specific fields is set.
type InboundEvent struct {
	ChatID   int64            `json:"chat_id"`
	From     Profile          `json:"from"`
	Kind     EventKind        `json:"kind"`
	Command  string           `json:"command,omitempty"`
	Text     string           `json:"text,omitempty"`
	Contact  *Contact         `json:"contact,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
	Payload  []byte           `json:"payload,omitempty"`
	Callback *Callback        `json:"callback,omitempty"`
}
