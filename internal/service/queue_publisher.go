// Package service holds outbound integrations that mutating handlers call
// after commit. Publishing is fire and forget: errors are logged and
// returned, but callers never fail a request over them.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/khlin/ticket-registration/internal/queue"
)

const eventQueueName = "attendee.events"

// Publisher writes attendee mutation events to RabbitMQ. A Publisher with an
// empty URL is a no-op, so wiring stays unconditional in the handlers.
type Publisher struct {
	url string
	log *zap.Logger
}

// NewPublisher constructs a Publisher. url may be empty to disable publishing.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// Publish sends one AttendeeChangedEvent to the attendee.events queue.
// Messages are persistent; the queue is declared idempotently. Any error is
// logged and returned so the caller can ignore it without losing the signal.
func (p *Publisher) Publish(ctx context.Context, event q.AttendeeChangedEvent) error {
	if p.url == "" {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		eventQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		p.log.Warn("rabbitmq queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",             // default exchange
		eventQueueName, // routing key = queue name
		false,          // mandatory
		false,          // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.Error(err))
		return err
	}
	return nil
}
