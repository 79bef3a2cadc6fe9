package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const eventQueueName = "attendee.events"

// StartAuditConsumer connects to RabbitMQ, declares the attendee.events
// queue (durable) and appends each mutation event to logs/attendee.log as a
// single human-readable line. It keeps a reconnect loop with capped backoff
// and returns only when ctx is cancelled. With an empty URL it returns
// immediately; the audit trail is optional.
func StartAuditConsumer(ctx context.Context, url string, log *zap.Logger) {
	if url == "" {
		return
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("audit consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(ctx, conn, log); err != nil {
			log.Warn("audit consume loop ended", zap.Error(err))
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("audit consumer set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(eventQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(eventQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendAuditLine(d.Body); err != nil {
				log.Warn("audit write failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendAuditLine(body []byte) error {
	var ev AttendeeChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join("logs", "attendee.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	line := fmt.Sprintf("%s action=%s", ev.OccurredAt, ev.Action)
	if ev.AttendeeID != 0 {
		line += fmt.Sprintf(" id=%d", ev.AttendeeID)
	}
	if ev.Serial != "" {
		line += " serial=" + ev.Serial
	}
	if ev.Action == "import" {
		line += fmt.Sprintf(" inserted=%d updated=%d", ev.Inserted, ev.Updated)
	}
	_, err = fmt.Fprintln(f, line)
	return err
}
