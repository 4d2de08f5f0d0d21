// Package privacy decides whether a viewer may see a user's profile field.
package privacy

import (
	"context"
	"fmt"

	"github.com/social-apps/backend/internal/storage/models"
)

// RuleView is the capability checked before a field value is shown or searched.
const RuleView = "core.view"

// Store reads stored privacy values.
type Store interface {
	Get(ctx context.Context, userID int64, fieldKey string) (string, error)
}

// Service evaluates privacy rules over a Store.
type Service struct {
	store Store
}

// NewService creates a privacy service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Allowed reports whether viewerID may exercise rule on ownerID's field.
// A viewerID of zero is a guest. Owners always see their own fields.
func (s *Service) Allowed(ctx context.Context, viewerID, ownerID int64, fieldKey, rule string) (bool, error) {
	if rule != RuleView {
		return false, fmt.Errorf("unknown privacy rule %q", rule)
	}
	if viewerID != 0 && viewerID == ownerID {
		return true, nil
	}

	value, err := s.store.Get(ctx, ownerID, fieldKey)
	if err != nil {
		return false, fmt.Errorf("loading privacy for %s: %w", fieldKey, err)
	}

	switch value {
	case models.PrivacyPublic:
		return true, nil
	case models.PrivacyMember:
		return viewerID != 0, nil
	default:
		return false, nil
	}
}
