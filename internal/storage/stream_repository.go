package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/social-apps/backend/internal/storage/models"
)

// StreamRepository persists activity stream items.
type StreamRepository struct {
	BaseRepository
}

// NewStreamRepository creates a new stream repository.
func NewStreamRepository(q Queryable) *StreamRepository {
	return &StreamRepository{
		BaseRepository: NewBaseRepository(q),
	}
}

// Create inserts item, assigning an ID and timestamp when they are unset.
func (r *StreamRepository) Create(ctx context.Context, item *models.StreamItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.Now()
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO stream_items (id, actor_id, context, context_id, verb, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ID, item.ActorID, item.Context, item.ContextID, item.Verb, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting stream item: %w", err)
	}

	return nil
}

// ListByActor returns the newest items created by an actor.
func (r *StreamRepository) ListByActor(ctx context.Context, actorID int64, limit int) ([]models.StreamItem, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, actor_id, context, context_id, verb, created_at
		FROM stream_items
		WHERE actor_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stream items: %w", err)
	}
	defer rows.Close()

	var items []models.StreamItem
	for rows.Next() {
		var it models.StreamItem
		if err := rows.Scan(&it.ID, &it.ActorID, &it.Context, &it.ContextID, &it.Verb, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning stream item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stream items: %w", err)
	}

	return items, nil
}
