package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/auction-api/internal/models"
)

const bidColumns = `id, item_id, bidder_id, amount, created_at`

// BidRepository handles database operations related to bids
type BidRepository struct {
	db *Database
}

// NewBidRepository creates a new BidRepository
func NewBidRepository(db *Database) *BidRepository {
	return &BidRepository{
		db: db,
	}
}

// PlaceBid locks the item, reads its current top bid and hands both to fn.
// The bid fn returns is inserted before the lock is released, so no other
// bid on the same item can be accepted against a stale top bid.
func (r *BidRepository) PlaceBid(ctx context.Context, itemID int64, fn func(item *models.Item, top *models.Bid) (*models.Bid, error)) (*models.Bid, error) {
	var placed *models.Bid
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, r.db, tx, itemID)
		if err != nil {
			return err
		}

		top, err := topBid(ctx, tx, itemID)
		if err != nil {
			return err
		}

		bid, err := fn(item, top)
		if err != nil {
			return err
		}

		query := tx.Rebind(`INSERT INTO bids (item_id, bidder_id, amount, created_at)
				 VALUES (?, ?, ?, ?)
				 RETURNING id`)
		err = tx.QueryRowxContext(ctx, query, bid.ItemID, bid.BidderID, bid.Amount, bid.CreatedAt).Scan(&bid.ID)
		if err != nil {
			return fmt.Errorf("insert bid: %w", r.db.translate(err))
		}

		placed = bid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// TopBid retrieves the highest bid on an item, earliest first on ties.
// It returns nil when the item has no bids.
func (r *BidRepository) TopBid(ctx context.Context, itemID int64) (*models.Bid, error) {
	return topBid(ctx, r.db.GetDB(), itemID)
}

// ListBids retrieves one page of an item's bids and the item's bid count
func (r *BidRepository) ListBids(ctx context.Context, itemID int64, q models.BidQuery) ([]models.Bid, int, error) {
	var total int
	countQuery := r.db.rebind(`SELECT COUNT(*) FROM bids WHERE item_id = ?`)
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, itemID); err != nil {
		return nil, 0, err
	}

	bids := []models.Bid{}
	selectQuery := r.db.rebind(`SELECT ` + bidColumns + ` FROM bids WHERE item_id = ?` +
		orderBy(q.Sort) + ` LIMIT ? OFFSET ?`)
	if err := r.db.GetDB().SelectContext(ctx, &bids, selectQuery, itemID, q.Size, q.Offset()); err != nil {
		return nil, 0, err
	}

	return bids, total, nil
}

// ListBidsByBidder retrieves one page of a bidder's bids joined with the
// items they were placed on, and the bidder's bid count.
func (r *BidRepository) ListBidsByBidder(ctx context.Context, q models.BidderBidQuery) ([]models.BidderBid, int, error) {
	var total int
	countQuery := r.db.rebind(`SELECT COUNT(*) FROM bids WHERE bidder_id = ?`)
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, q.BidderID); err != nil {
		return nil, 0, err
	}

	bids := []models.BidderBid{}
	selectQuery := r.db.rebind(`SELECT b.id AS bid_id, b.item_id, b.amount, b.created_at,
			 i.title AS item_title, i.status AS item_status
			 FROM bids b JOIN items i ON i.id = b.item_id
			 WHERE b.bidder_id = ?` + orderByOn("b.", q.Sort) + ` LIMIT ? OFFSET ?`)
	if err := r.db.GetDB().SelectContext(ctx, &bids, selectQuery, q.BidderID, q.Size, q.Offset()); err != nil {
		return nil, 0, err
	}

	return bids, total, nil
}

// TopBidCounts retrieves the items with the most bids, ties broken by the
// lowest item id.
func (r *BidRepository) TopBidCounts(ctx context.Context, limit int) ([]models.ItemBidCount, error) {
	counts := []models.ItemBidCount{}
	query := r.db.rebind(`SELECT item_id, COUNT(*) AS bid_count FROM bids
			 GROUP BY item_id
			 ORDER BY bid_count DESC, item_id ASC
			 LIMIT ?`)
	if err := r.db.GetDB().SelectContext(ctx, &counts, query, limit); err != nil {
		return nil, err
	}
	return counts, nil
}

func topBid(ctx context.Context, q sqlx.ExtContext, itemID int64) (*models.Bid, error) {
	bid := &models.Bid{}
	query := q.Rebind(`SELECT ` + bidColumns + ` FROM bids WHERE item_id = ?
			 ORDER BY amount DESC, id ASC
			 LIMIT 1`)

	err := sqlx.GetContext(ctx, q, bid, query, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("top bid for item %d: %w", itemID, err)
	}
	return bid, nil
}
