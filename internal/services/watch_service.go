package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

// WatchService maintains users' watch lists
type WatchService struct {
	items   ItemStore
	watches WatchStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewWatchService creates a new WatchService
func NewWatchService(items ItemStore, watches WatchStore, logger *slog.Logger) *WatchService {
	return &WatchService{
		items:   items,
		watches: watches,
		logger:  loggerOrDefault(logger),
		now:     utcNow,
	}
}

// Watch adds an existing item to actor's watch list
func (s *WatchService) Watch(ctx context.Context, itemID int64, actor models.Actor) (*models.Watch, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound("item not found")
	}

	watch := &models.Watch{UserID: actor.ID, ItemID: itemID, CreatedAt: s.now()}
	if err := s.watches.AddWatch(ctx, watch); err != nil {
		return nil, duplicate(err, apperror.Duplicate("item is already watched").With("item_id", itemID))
	}

	s.logger.Debug("item watched", "item_id", itemID, "user_id", actor.ID)
	return watch, nil
}

// Unwatch removes an item from actor's watch list
func (s *WatchService) Unwatch(ctx context.Context, itemID int64, actor models.Actor) error {
	if err := s.watches.RemoveWatch(ctx, actor.ID, itemID); err != nil {
		return notFound(err, "watch not found")
	}

	s.logger.Debug("item unwatched", "item_id", itemID, "user_id", actor.ID)
	return nil
}

// List retrieves actor's watch list, most recent first
func (s *WatchService) List(ctx context.Context, actor models.Actor) ([]models.Watch, error) {
	return s.watches.ListWatches(ctx, actor.ID)
}
