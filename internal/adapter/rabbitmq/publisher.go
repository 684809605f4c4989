package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"presto-bot/internal/interfaces"
)

// publisher implements the outbound half of the messaging channel by
// publishing gateway messages to the chat_outbound exchange. The bot edge
// process consumes them and talks to the actual chat platform.
type publisher struct {
	conn Connection
}

func NewPublisher(conn Connection) interfaces.ChatSender {
	return &publisher{conn: conn}
}

func (p *publisher) SendText(ctx context.Context, chatID int64, text string, kb *interfaces.Keyboard) error {
	return p.publish(ctx, interfaces.OutboundMessage{
		Kind:     interfaces.OutboundText,
		ChatID:   chatID,
		Text:     text,
		Keyboard: kb,
	})
}

func (p *publisher) SendLocation(ctx context.Context, chatID int64, latitude, longitude float64) error {
	return p.publish(ctx, interfaces.OutboundMessage{
		Kind:      interfaces.OutboundLocation,
		ChatID:    chatID,
		Latitude:  latitude,
		Longitude: longitude,
	})
}

func (p *publisher) EditMessageText(ctx context.Context, chatID, messageID int64, text string) error {
	return p.publish(ctx, interfaces.OutboundMessage{
		Kind:      interfaces.OutboundEdit,
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
}

func (p *publisher) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return p.publish(ctx, interfaces.OutboundMessage{
		Kind:       interfaces.OutboundCallbackAnswer,
		CallbackID: callbackID,
		Text:       text,
	})
}

func (p *publisher) publish(ctx context.Context, msg interfaces.OutboundMessage) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(outboundExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.Publish(outboundExchange, "", false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
