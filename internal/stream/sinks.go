package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/social-apps/backend/internal/storage/models"
	"github.com/social-apps/backend/internal/websocket"
)

// BroadcastSink pushes items to connected WebSocket clients.
type BroadcastSink struct {
	b *websocket.EventBroadcaster
}

// NewBroadcastSink creates a WebSocket sink.
func NewBroadcastSink(b *websocket.EventBroadcaster) *BroadcastSink {
	return &BroadcastSink{b: b}
}

func (s *BroadcastSink) Name() string { return "websocket" }

func (s *BroadcastSink) Write(_ context.Context, item models.StreamItem) error {
	s.b.BroadcastStreamItem(item)
	return nil
}

// RedisSink appends items to a Redis stream for external consumers.
type RedisSink struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisSink creates a Redis stream sink. A positive maxLen trims the
// stream approximately to that length.
func NewRedisSink(client redis.Cmdable, stream string, maxLen int64) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, item models.StreamItem) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":         item.ID,
			"actor_id":   item.ActorID,
			"context":    item.Context,
			"context_id": item.ContextID,
			"verb":       item.Verb,
			"created_at": item.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
