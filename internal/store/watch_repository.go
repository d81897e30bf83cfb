package store

import (
	"context"
	"fmt"

	"github.com/satonic/auction-api/internal/models"
)

// WatchRepository handles database operations related to watch lists
type WatchRepository struct {
	db *Database
}

// NewWatchRepository creates a new WatchRepository
func NewWatchRepository(db *Database) *WatchRepository {
	return &WatchRepository{
		db: db,
	}
}

// AddWatch records that a user watches an item. Watching the same item
// twice yields ErrDuplicate.
func (r *WatchRepository) AddWatch(ctx context.Context, watch *models.Watch) error {
	query := r.db.rebind(`INSERT INTO watches (user_id, item_id, created_at) VALUES (?, ?, ?)`)

	_, err := r.db.GetDB().ExecContext(ctx, query, watch.UserID, watch.ItemID, watch.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert watch: %w", r.db.translate(err))
	}
	return nil
}

// RemoveWatch deletes a watch, returning ErrNotFound when there is none
func (r *WatchRepository) RemoveWatch(ctx context.Context, userID, itemID int64) error {
	res, err := r.db.GetDB().ExecContext(ctx,
		r.db.rebind(`DELETE FROM watches WHERE user_id = ? AND item_id = ?`), userID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWatches retrieves a user's watches, most recent first
func (r *WatchRepository) ListWatches(ctx context.Context, userID int64) ([]models.Watch, error) {
	watches := []models.Watch{}
	query := r.db.rebind(`SELECT user_id, item_id, created_at FROM watches WHERE user_id = ?
			  ORDER BY created_at DESC, item_id DESC`)
	if err := r.db.GetDB().SelectContext(ctx, &watches, query, userID); err != nil {
		return nil, err
	}
	return watches, nil
}
