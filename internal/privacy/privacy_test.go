package privacy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/storage/models"
)

type mapStore map[int64]string

func (m mapStore) Get(_ context.Context, userID int64, _ string) (string, error) {
	if v, ok := m[userID]; ok {
		return v, nil
	}
	return models.PrivacyPublic, nil
}

type failingStore struct{}

func (failingStore) Get(context.Context, int64, string) (string, error) {
	return "", errors.New("db closed")
}

func TestService_Allowed(t *testing.T) {
	svc := NewService(mapStore{
		1: models.PrivacyPublic,
		2: models.PrivacyMember,
		3: models.PrivacyOnlyMe,
		4: "garbage",
	})

	tests := []struct {
		name     string
		viewer   int64
		owner    int64
		expected bool
	}{
		{"public to guest", 0, 1, true},
		{"member to guest", 0, 2, false},
		{"member to member", 9, 2, true},
		{"only me to member", 9, 3, false},
		{"only me to owner", 3, 3, true},
		{"unknown value denies", 9, 4, false},
		{"missing row is public", 0, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.Allowed(context.Background(), tt.viewer, tt.owner, "email", RuleView)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestService_AllowedErrors(t *testing.T) {
	_, err := NewService(mapStore{}).Allowed(context.Background(), 1, 2, "email", "core.edit")
	assert.Error(t, err)

	_, err = NewService(failingStore{}).Allowed(context.Background(), 1, 2, "email", RuleView)
	assert.ErrorContains(t, err, "db closed")
}
