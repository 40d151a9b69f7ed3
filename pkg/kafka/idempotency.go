package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which event ids were handled.
type IdempotencyStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkSeen(ctx context.Context, eventID string) error
}

// RedisIdempotencyStore keeps handled event ids in Redis under prefix, each
// expiring after ttl, so every consumer instance shares the record.
type RedisIdempotencyStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a store writing prefix+eventID keys.
func NewRedisIdempotencyStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

// Seen reports whether eventID was marked.
func (s *RedisIdempotencyStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("lookup event %s: %w", eventID, err)
	}
	return n == 1, nil
}

// MarkSeen records eventID.
func (s *RedisIdempotencyStore) MarkSeen(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.prefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("mark event %s: %w", eventID, err)
	}
	return nil
}

// IdempotentHandler skips events whose id the store has already seen and
// marks an id only after next succeeds. A store failure falls through to
// next, so a flaky store degrades to at-least-once handling.
func IdempotentHandler(store IdempotencyStore, next Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, evt *Event) error {
		if evt.EventID == "" {
			return next(ctx, evt)
		}

		seen, err := store.Seen(ctx, evt.EventID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency lookup failed",
				slog.String("event_id", evt.EventID),
				slog.String("error", err.Error()),
			)
		}
		if seen {
			duplicatesTotal.WithLabelValues(evt.EventType).Inc()
			logger.DebugContext(ctx, "duplicate event skipped", slog.String("event_id", evt.EventID))
			return nil
		}

		if err := next(ctx, evt); err != nil {
			return err
		}
		if err := store.MarkSeen(ctx, evt.EventID); err != nil {
			logger.WarnContext(ctx, "idempotency mark failed",
				slog.String("event_id", evt.EventID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}
