package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

const (
	IdentityStream = "user_events"
	ResourceStream = "resource_events"
)

// EventStream appends domain events to capped Redis streams. Each entry
// carries a ULID so consumers can deduplicate redeliveries.
type EventStream struct {
	client    *redis.Client
	maxLen    int64
	timeout   time.Duration
	onFailure func(stream string)
}

func NewEventStream(client *redis.Client, maxLen int64, timeout time.Duration, onFailure func(stream string)) *EventStream {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if onFailure == nil {
		onFailure = func(string) {}
	}
	return &EventStream{client: client, maxLen: maxLen, timeout: timeout, onFailure: onFailure}
}

func (s *EventStream) PublishIdentityEvent(ctx context.Context, ev domain.IdentityEvent) error {
	return s.add(ctx, IdentityStream, map[string]any{
		"id":        ulid.Make().String(),
		"event":     string(ev.Name),
		"user":      ev.Email,
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

func (s *EventStream) PublishResourceEvent(ctx context.Context, ev domain.ResourceEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return s.add(ctx, ResourceStream, map[string]any{
		"id":          ulid.Make().String(),
		"event":       string(ev.Type),
		"resource_id": ev.ResourceID.String(),
		"owner":       ev.OwnerID.String(),
		"timestamp":   ev.Timestamp.UTC().Format(time.RFC3339Nano),
		"payload":     string(body),
	})
}

func (s *EventStream) add(ctx context.Context, stream string, values map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := &redis.XAddArgs{Stream: stream, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.onFailure(stream)
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}
