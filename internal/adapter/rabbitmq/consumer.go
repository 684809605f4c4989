package rabbitmq

import (
	"context"
	"fmt"
	"log"
	"time"

	"presto-bot/internal/interfaces"
)

const (
	eventsQueue      = "chat_events"
	outboundExchange = "chat_outbound"
)

type consumer struct {
	conn     Connection
	prefetch int
}

func NewConsumer(conn Connection, prefetch int) interfaces.EventConsumer {
	return &consumer{conn: conn, prefetch: prefetch}
}

// ConsumeEvents delivers inbound chat events to the handler until the context
// is cancelled, reconnecting with a fixed backoff when the channel drops.
func (c *consumer) ConsumeEvents(ctx context.Context, handler interfaces.EventHandler) error {
	for {
		err := c.consumeWithReconnect(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		log.Printf("Chat events consumer disconnected: %v. Reconnecting in 5 seconds...", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (c *consumer) consumeWithReconnect(ctx context.Context, handler interfaces.EventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(eventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// Each event is acked on receipt: a handler failure is the
			// handler's problem (it replies to the initiating side), not a
			// reason to redeliver a stale chat event.
			msg.Ack(false)
			_ = handler(ctx, msg.Body)
		}
	}
}

func setupTopology(ch Channel) error {
	if _, err := ch.QueueDeclare(eventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare events queue: %w", err)
	}

	if err := ch.ExchangeDeclare(outboundExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare outbound exchange: %w", err)
	}

	return nil
}
