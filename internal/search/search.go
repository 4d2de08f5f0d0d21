// Package search maintains the profile keyword index and answers searches
// through the field dispatcher.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/social-apps/backend/internal/fields"
	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/storage/models"
)

// IndexStore persists indexed field content.
type IndexStore interface {
	ReplaceForUser(ctx context.Context, userID int64, items map[string]string) error
	Candidates(ctx context.Context, keywords string, limit int) ([]models.SearchIndexItem, error)
}

// UserLister lists every account for a full reindex.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// Result is one matched profile field.
type Result struct {
	UserID   int64  `json:"user_id"`
	FieldKey string `json:"field_key"`
	Content  string `json:"content"`
}

// Service indexes profiles and runs keyword searches.
type Service struct {
	dispatcher *fields.Dispatcher
	index      IndexStore
	users      UserLister
	maxResults int
	lggr       logger.Logger
}

// NewService creates a search service.
func NewService(dispatcher *fields.Dispatcher, index IndexStore, users UserLister, maxResults int, lggr logger.Logger) *Service {
	if maxResults <= 0 {
		maxResults = 50
	}
	return &Service{
		dispatcher: dispatcher,
		index:      index,
		users:      users,
		maxResults: maxResults,
		lggr:       lggr.Named("search"),
	}
}

// IndexUser replaces the user's indexed fields with their current values.
func (s *Service) IndexUser(ctx context.Context, user *models.User) error {
	items := s.dispatcher.Index(user)
	if err := s.index.ReplaceForUser(ctx, user.ID, items); err != nil {
		return fmt.Errorf("indexing user %d: %w", user.ID, err)
	}
	return nil
}

// ReindexAll rebuilds the index for every user and returns how many were indexed.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}

	for i := range users {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.IndexUser(ctx, &users[i]); err != nil {
			return i, err
		}
	}

	return len(users), nil
}

// Search returns the fields matching keywords that viewerID may see.
func (s *Service) Search(ctx context.Context, viewerID int64, keywords string) ([]Result, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nil
	}

	items, err := s.index.Candidates(ctx, keywords, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]Result, 0, len(items))
	denied := 0
	for _, item := range items {
		res, err := s.dispatcher.Search(ctx, viewerID, item, keywords)
		if err != nil {
			return nil, fmt.Errorf("searching field %s of user %d: %w", item.FieldKey, item.UserID, err)
		}

		switch res.Outcome {
		case fields.Matched:
			results = append(results, Result{UserID: item.UserID, FieldKey: item.FieldKey, Content: res.Content})
		case fields.Denied:
			denied++
		}
	}

	s.lggr.Debugw("search finished", "candidates", len(items), "matched", len(results), "denied", denied)
	return results, nil
}
