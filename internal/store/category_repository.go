package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/auction-api/internal/models"
)

// CategoryRepository handles database operations related to categories
type CategoryRepository struct {
	db *Database
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *Database) *CategoryRepository {
	return &CategoryRepository{
		db: db,
	}
}

// CreateCategory inserts category and sets its ID. A taken name yields
// ErrDuplicate.
func (r *CategoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := r.db.rebind(`INSERT INTO categories (name) VALUES (?) RETURNING id`)

	err := r.db.GetDB().QueryRowxContext(ctx, query, category.Name).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", r.db.translate(err))
	}
	return nil
}

// GetCategory retrieves a category by ID, returning nil when it does not exist
func (r *CategoryRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	query := r.db.rebind(`SELECT id, name FROM categories WHERE id = ?`)

	err := r.db.GetDB().GetContext(ctx, category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return category, nil
}

// ListCategories retrieves every category ordered by name
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.GetDB().SelectContext(ctx, &categories, `SELECT id, name FROM categories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// RenameCategory changes a category's name
func (r *CategoryRepository) RenameCategory(ctx context.Context, id int64, name string) error {
	res, err := r.db.GetDB().ExecContext(ctx, r.db.rebind(`UPDATE categories SET name = ? WHERE id = ?`), name, id)
	if err != nil {
		return fmt.Errorf("rename category %d: %w", id, r.db.translate(err))
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

// DeleteCategory removes a category no item refers to. A category that
// still has items yields ErrInUse.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var items int
		err := tx.GetContext(ctx, &items, tx.Rebind(`SELECT COUNT(*) FROM items WHERE category_id = ?`), id)
		if err != nil {
			return fmt.Errorf("count items of category %d: %w", id, err)
		}
		if items > 0 {
			return ErrInUse
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
