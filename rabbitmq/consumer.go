package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/logger"
	"github.com/AVVKavvk/plivo-ivr/models"
)

// Handler processes one delivered event.
type Handler func(ctx context.Context, event models.CallEvent) error

// Consume binds an exclusive queue to the exchange and feeds every event to
// handler until ctx is done or the broker closes the channel.
func Consume(ctx context.Context, conn *amqp.Connection, exchange string, handler Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, exchange); err != nil {
		return err
	}

	q, err := ch.QueueDeclare("", false, false, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	logger.Log.Info("waiting for call events", zap.String("queue", q.Name))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq: delivery channel closed")
			}
			Dispatch(ctx, d.Body, handler)
		}
	}
}

// Dispatch decodes one delivery body and hands it to handler. Bad payloads
// and handler failures are logged and skipped.
func Dispatch(ctx context.Context, body []byte, handler Handler) {
	var event models.CallEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Log.Error("discarding malformed call event", zap.ByteString("body", body), zap.Error(err))
		return
	}
	if err := handler(ctx, event); err != nil {
		logger.Log.Error("handling call event",
			zap.String("call_uuid", event.CallUUID),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}
}
