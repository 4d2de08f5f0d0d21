package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/social-apps/backend/internal/storage/models"
)

// PrivacyRepository stores per-field privacy settings.
type PrivacyRepository struct {
	BaseRepository
}

// NewPrivacyRepository creates a new privacy repository.
func NewPrivacyRepository(q Queryable) *PrivacyRepository {
	return &PrivacyRepository{
		BaseRepository: NewBaseRepository(q),
	}
}

// Get returns the privacy value of a user's field. A missing row means public.
func (r *PrivacyRepository) Get(ctx context.Context, userID int64, fieldKey string) (string, error) {
	var value string
	err := r.DB().QueryRowContext(ctx, `
		SELECT value FROM field_privacy WHERE user_id = ? AND field_key = ?
	`, userID, fieldKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PrivacyPublic, nil
	}
	if err != nil {
		return "", fmt.Errorf("querying field privacy: %w", err)
	}
	return value, nil
}

// Set stores the privacy value of a user's field.
func (r *PrivacyRepository) Set(ctx context.Context, userID int64, fieldKey, value string) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO field_privacy (user_id, field_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, field_key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, userID, fieldKey, value, r.Now())
	if err != nil {
		return fmt.Errorf("saving field privacy: %w", err)
	}
	return nil
}

// ListByUser returns every explicit privacy setting of a user keyed by field.
func (r *PrivacyRepository) ListByUser(ctx context.Context, userID int64) (map[string]string, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT field_key, value FROM field_privacy WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying field privacy: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning field privacy: %w", err)
		}
		out[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field privacy: %w", err)
	}

	return out, nil
}
