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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const maxBackoff = 30 * time.Second

// Handler reacts to one catalog event.
type Handler func(ctx context.Context, ev CatalogEvent) error

// Invalidator purges cached listing responses and records each event in
// a plain log file.
type Invalidator struct {
	Redis   *redis.Client // nil skips the purge
	Prefix  string        // response cache key prefix
	LogPath string        // defaults to logs/catalog.log
}

// Handle deletes every "<Prefix>:*" key and appends a line for ev.
func (iv Invalidator) Handle(ctx context.Context, ev CatalogEvent) error {
	purged, err := iv.purge(ctx)
	if err != nil {
		return err
	}
	return iv.record(ev, purged)
}

func (iv Invalidator) purge(ctx context.Context) (int, error) {
	if iv.Redis == nil || iv.Prefix == "" {
		return 0, nil
	}
	var (
		cursor uint64
		purged int
	)
	for {
		keys, next, err := iv.Redis.Scan(ctx, cursor, iv.Prefix+":*", 200).Result()
		if err != nil {
			return purged, fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := iv.Redis.Del(ctx, keys...).Err(); err != nil {
				return purged, fmt.Errorf("delete cache keys: %w", err)
			}
			purged += len(keys)
		}
		if next == 0 {
			return purged, nil
		}
		cursor = next
	}
}

func (iv Invalidator) record(ev CatalogEvent, purged int) error {
	path := iv.LogPath
	if path == "" {
		path = filepath.Join("logs", "catalog.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Catalog changed | id=%s | reason=%s | affected=%d | purged=%d\n",
		ev.At.Format(time.RFC3339), ev.ID, ev.Reason, ev.Affected, purged)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// StartCatalogConsumer consumes the catalog.changed queue and passes each
// event to h.  It reconnects with a doubling backoff capped at 30s and
// returns only when ctx is cancelled.
func StartCatalogConsumer(ctx context.Context, url string, h Handler, log zerolog.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, h, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, h Handler, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(EventCatalogChanged, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EventCatalogChanged, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, h); err != nil {
				log.Error().Err(err).Msg("handle catalog event failed")
				_ = d.Nack(false, false) // no requeue, avoids a tight loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, h Handler) error {
	var ev CatalogEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type != EventCatalogChanged {
		return fmt.Errorf("unexpected event type %q", ev.Type)
	}
	return h(ctx, ev)
}
