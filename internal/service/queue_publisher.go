// Package queue_publisher publishes catalog events to RabbitMQ.  Publish
// failures are logged and handed to a local fallback so cached pages are
// still dropped when the broker is down.
package queue_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	q "github.com/iliyamo/cinema-showtimes/internal/queue"
)

// Publisher sends catalog.changed events.  The zero Fallback does nothing.
type Publisher struct {
	URL      string
	Fallback q.Handler
	Log      zerolog.Logger
	Timeout  time.Duration
}

// New returns a Publisher for url.
func New(url string, fallback q.Handler, log zerolog.Logger) *Publisher {
	return &Publisher{URL: url, Fallback: fallback, Log: log, Timeout: 5 * time.Second}
}

// CatalogChanged publishes a catalog.changed event.  It never fails the
// caller: errors are logged and the fallback runs instead.
func (p *Publisher) CatalogChanged(ctx context.Context, reason string, affected int64) {
	ev := q.NewCatalogEvent(reason, affected)
	ctx = context.WithoutCancel(ctx)
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	err := p.Publish(ctx, ev)
	if err == nil {
		return
	}
	p.Log.Warn().Err(err).Str("reason", reason).Msg("catalog event not published")
	if p.Fallback != nil {
		if ferr := p.Fallback(ctx, ev); ferr != nil {
			p.Log.Error().Err(ferr).Str("reason", reason).Msg("local invalidation failed")
		}
	}
}

// Publish sends ev to the durable catalog.changed queue as a persistent
// message.
func (p *Publisher) Publish(ctx context.Context, ev q.CatalogEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		q.EventCatalogChanged, // name
		true,                  // durable
		false,                 // autoDelete
		false,                 // exclusive
		false,                 // noWait
		nil,                   // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    ev.At,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.EventCatalogChanged, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
