// Package stream publishes activity stream items to storage and live sinks.
package stream

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/storage/models"
)

// ContextCalendar tags items created by the calendar app.
const ContextCalendar = "calendar"

// Event describes an action to publish.
type Event struct {
	ActorID   int64
	Context   string
	ContextID int64
	Verb      string
}

// Publisher publishes activity events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) (models.StreamItem, error)
}

// Store persists stream items.
type Store interface {
	Create(ctx context.Context, item *models.StreamItem) error
}

// Sink receives items after they are stored. Sink failures are logged and
// do not fail the publish.
type Sink interface {
	Name() string
	Write(ctx context.Context, item models.StreamItem) error
}

// Service stores events and fans them out to sinks.
type Service struct {
	store Store
	sinks []Sink
	lggr  logger.Logger
}

var _ Publisher = (*Service)(nil)

// NewService creates a stream service.
func NewService(store Store, lggr logger.Logger, sinks ...Sink) *Service {
	return &Service{
		store: store,
		sinks: sinks,
		lggr:  lggr.Named("stream"),
	}
}

// Publish stores ev as a stream item and forwards it to every sink.
func (s *Service) Publish(ctx context.Context, ev Event) (models.StreamItem, error) {
	switch ev.Verb {
	case models.VerbCreate, models.VerbUpdate:
	default:
		return models.StreamItem{}, fmt.Errorf("unsupported stream verb %q", ev.Verb)
	}

	item := models.StreamItem{
		ID:        uuid.NewString(),
		ActorID:   ev.ActorID,
		Context:   ev.Context,
		ContextID: ev.ContextID,
		Verb:      ev.Verb,
	}
	if err := s.store.Create(ctx, &item); err != nil {
		return models.StreamItem{}, fmt.Errorf("storing stream item: %w", err)
	}

	for _, sink := range s.sinks {
		if err := sink.Write(ctx, item); err != nil {
			s.lggr.Warnw("stream sink failed", "sink", sink.Name(), "item", item.ID, "err", err)
		}
	}

	s.lggr.Debugw("stream item published", "item", item.ID, "context", item.Context, "verb", item.Verb)
	return item, nil
}
