package storage

import (
	"context"
	"fmt"

	"github.com/social-apps/backend/internal/storage/models"
)

// SearchRepository stores the indexed content of searchable profile fields.
type SearchRepository struct {
	BaseRepository
}

// NewSearchRepository creates a new search index repository.
func NewSearchRepository(q Queryable) *SearchRepository {
	return &SearchRepository{
		BaseRepository: NewBaseRepository(q),
	}
}

// ReplaceForUser swaps the user's indexed fields for items.
func (r *SearchRepository) ReplaceForUser(ctx context.Context, userID int64, items map[string]string) error {
	now := r.Now()
	return r.Transaction(ctx, func(q Queryable) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM search_index WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clearing search index: %w", err)
		}

		for key, content := range items {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO search_index (user_id, field_key, content, updated_at)
				VALUES (?, ?, ?, ?)
			`, userID, key, content, now); err != nil {
				return fmt.Errorf("inserting search index item: %w", err)
			}
		}

		return nil
	})
}

// Candidates returns indexed rows whose content contains keywords.
// SQLite LIKE ignores ASCII case only, so callers re-check each row.
func (r *SearchRepository) Candidates(ctx context.Context, keywords string, limit int) ([]models.SearchIndexItem, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT user_id, field_key, content, updated_at
		FROM search_index
		WHERE content LIKE ? ESCAPE '\'
		ORDER BY user_id, field_key
		LIMIT ?
	`, likePattern(keywords), limit)
	if err != nil {
		return nil, fmt.Errorf("querying search index: %w", err)
	}
	defer rows.Close()

	var items []models.SearchIndexItem
	for rows.Next() {
		var it models.SearchIndexItem
		if err := rows.Scan(&it.UserID, &it.FieldKey, &it.Content, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning search index item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search index: %w", err)
	}

	return items, nil
}
