package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/storage/models"
)

func TestStreamRepository_CreateAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStreamRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stream_items")).
		WithArgs(sqlmock.AnyArg(), int64(7), "calendar", int64(3), models.VerbCreate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	item := &models.StreamItem{ActorID: 7, Context: "calendar", ContextID: 3, Verb: models.VerbCreate}
	require.NoError(t, repo.Create(context.Background(), item))
	assert.Len(t, item.ID, 36)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestStreamRepository_ListByActor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStreamRepository(db)

	mock.ExpectQuery(`FROM stream_items\s+WHERE actor_id = \?`).
		WithArgs(int64(7), 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "context", "context_id", "verb", "created_at"}).
			AddRow("a", int64(7), "calendar", int64(3), "update", time.Now()))

	items, err := repo.ListByActor(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.VerbUpdate, items[0].Verb)
}
