package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/auction-api/internal/models"
)

const orderColumns = `id, item_id, buyer_id, total_price, address, status, created_at`

// OrderRepository handles database operations related to orders
type OrderRepository struct {
	db *Database
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *Database) *OrderRepository {
	return &OrderRepository{
		db: db,
	}
}

// SettleItem locks the item, resolves its winning bid and whether an order
// already exists, and inserts the order fn returns. Concurrent settlements
// of one item are serialized on the item lock; the unique item_id index
// rejects anything that slips past it with ErrDuplicate.
func (r *OrderRepository) SettleItem(ctx context.Context, itemID int64, fn func(item *models.Item, winner *models.Bid, settled bool) (*models.Order, error)) (*models.Order, error) {
	var created *models.Order
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		item, err := lockItem(ctx, r.db, tx, itemID)
		if err != nil {
			return err
		}

		winner, err := topBid(ctx, tx, itemID)
		if err != nil {
			return err
		}

		var existing int
		err = tx.GetContext(ctx, &existing, tx.Rebind(`SELECT COUNT(*) FROM orders WHERE item_id = ?`), itemID)
		if err != nil {
			return fmt.Errorf("check order for item %d: %w", itemID, err)
		}

		order, err := fn(item, winner, existing > 0)
		if err != nil {
			return err
		}

		query := tx.Rebind(`INSERT INTO orders (item_id, buyer_id, total_price, address, status, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 RETURNING id`)
		err = tx.QueryRowxContext(ctx, query,
			order.ItemID, order.BuyerID, order.TotalPrice, order.Address, order.Status, order.CreatedAt,
		).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", r.db.translate(err))
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetOrder retrieves an order by ID, returning nil when it does not exist
func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	query := r.db.rebind(`SELECT ` + orderColumns + ` FROM orders WHERE id = ?`)

	err := r.db.GetDB().GetContext(ctx, order, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// ListOrders retrieves one page of a buyer's orders and the total match count
func (r *OrderRepository) ListOrders(ctx context.Context, q models.OrderQuery) ([]models.Order, int, error) {
	w := &where{}
	w.add(`buyer_id = ?`, q.BuyerID)
	if q.Status != "" {
		w.add(`status = ?`, q.Status)
	}

	var total int
	countQuery := r.db.rebind(`SELECT COUNT(*) FROM orders` + w.String())
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, err
	}

	orders := []models.Order{}
	selectQuery := r.db.rebind(`SELECT ` + orderColumns + ` FROM orders` + w.String() +
		orderBy(q.Sort) + ` LIMIT ? OFFSET ?`)
	args := append(w.args, q.Size, q.Offset())
	if err := r.db.GetDB().SelectContext(ctx, &orders, selectQuery, args...); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListOrdersSince retrieves every order created at or after since whose
// status is one of statuses, newest first.
func (r *OrderRepository) ListOrdersSince(ctx context.Context, since time.Time, statuses ...models.OrderStatus) ([]models.Order, error) {
	orders := []models.Order{}
	if len(statuses) == 0 {
		return orders, nil
	}

	query, args, err := sqlx.In(`SELECT `+orderColumns+` FROM orders
			 WHERE created_at >= ? AND status IN (?)
			 ORDER BY created_at DESC, id DESC`, since, statuses)
	if err != nil {
		return nil, err
	}
	if err := r.db.GetDB().SelectContext(ctx, &orders, r.db.rebind(query), args...); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrder locks the order, lets fn modify it and persists its status
// and address.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id int64, fn func(*models.Order) error) (*models.Order, error) {
	var updated *models.Order
	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		order := &models.Order{}
		query := tx.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE id = ?` + r.db.forUpdate())
		if err := tx.GetContext(ctx, order, query, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock order %d: %w", id, err)
		}

		if err := fn(order); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE orders SET status = ?, address = ? WHERE id = ?`),
			order.Status, order.Address, order.ID)
		if err != nil {
			return fmt.Errorf("update order %d: %w", id, err)
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
