package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/auction-api/internal/models"
)

const itemColumns = `id, seller_id, category_id, title, description, start_price, bid_unit,
	status, starts_at, ends_at, created_at, updated_at`

// ItemRepository handles database operations related to items
type ItemRepository struct {
	db *Database
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *Database) *ItemRepository {
	return &ItemRepository{
		db: db,
	}
}

// CreateItem inserts item and sets its ID
func (r *ItemRepository) CreateItem(ctx context.Context, item *models.Item) error {
	query := r.db.rebind(`INSERT INTO items (seller_id, category_id, title, description, start_price,
			  bid_unit, status, starts_at, ends_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  RETURNING id`)

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		item.SellerID, item.CategoryID, item.Title, item.Description, item.StartPrice,
		item.BidUnit, item.Status, item.StartsAt, item.EndsAt, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert item: %w", r.db.translate(err))
	}
	return nil
}

// GetItem retrieves an item by ID, returning nil when it does not exist
func (r *ItemRepository) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	item := &models.Item{}
	query := r.db.rebind(`SELECT ` + itemColumns + ` FROM items WHERE id = ?`)

	err := r.db.GetDB().GetContext(ctx, item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// ListItems retrieves one page of items matching q and the total match count
func (r *ItemRepository) ListItems(ctx context.Context, q models.ItemQuery) ([]models.Item, int, error) {
	w := &where{}
	if q.Keyword != "" {
		w.add(`LOWER(title) LIKE ?`, "%"+strings.ToLower(q.Keyword)+"%")
	}
	if q.CategoryID != nil {
		w.add(`category_id = ?`, *q.CategoryID)
	}
	if q.Status != "" {
		w.add(`status = ?`, q.Status)
	}
	if q.MinPrice != nil {
		w.add(`start_price >= ?`, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		w.add(`start_price <= ?`, *q.MaxPrice)
	}

	var total int
	countQuery := r.db.rebind(`SELECT COUNT(*) FROM items` + w.String())
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, err
	}

	items := []models.Item{}
	selectQuery := r.db.rebind(`SELECT ` + itemColumns + ` FROM items` + w.String() +
		orderBy(q.Sort) + ` LIMIT ? OFFSET ?`)
	args := append(w.args, q.Size, q.Offset())
	if err := r.db.GetDB().SelectContext(ctx, &items, selectQuery, args...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// UpdateItem locks the item, lets fn modify it and persists the result.
// An error from fn aborts the update and is returned unchanged.
func (r *ItemRepository) UpdateItem(ctx context.Context, id int64, fn func(*models.Item) error) (*models.Item, error) {
	var updated *models.Item
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, r.db, tx, id)
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}

		query := tx.Rebind(`UPDATE items SET category_id = ?, title = ?, description = ?,
				 start_price = ?, bid_unit = ?, status = ?, starts_at = ?, ends_at = ?, updated_at = ?
				 WHERE id = ?`)
		_, err = tx.ExecContext(ctx, query,
			item.CategoryID, item.Title, item.Description, item.StartPrice, item.BidUnit,
			item.Status, item.StartsAt, item.EndsAt, item.UpdatedAt, item.ID)
		if err != nil {
			return fmt.Errorf("update item %d: %w", id, err)
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem locks the item, lets fn veto the removal and deletes it
func (r *ItemRepository) DeleteItem(ctx context.Context, id int64, fn func(*models.Item) error) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, r.db, tx, id)
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM watches WHERE item_id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete watches of item %d: %w", id, err)
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM items WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete item %d: %w", id, err)
		}
		return nil
	})
}

// lockItem reads an item inside tx, holding its row lock until commit
func lockItem(ctx context.Context, db *Database, tx *sqlx.Tx, id int64) (*models.Item, error) {
	item := &models.Item{}
	query := tx.Rebind(`SELECT ` + itemColumns + ` FROM items WHERE id = ?` + db.forUpdate())

	err := tx.GetContext(ctx, item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock item %d: %w", id, err)
	}
	return item, nil
}
