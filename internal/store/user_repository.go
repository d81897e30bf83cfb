package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/satonic/auction-api/internal/models"
)

const userColumns = `id, email, nickname, password_hash, role, status, created_at, updated_at`

// UserRepository handles database operations related to users
type UserRepository struct {
	db *Database
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// GetUser retrieves a user by ID, returning nil when it does not exist
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := r.db.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	err := r.db.GetDB().GetContext(ctx, user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address, returning nil when it
// does not exist
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := r.db.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	err := r.db.GetDB().GetContext(ctx, user, query, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CreateUser inserts user and sets its ID. A taken email yields ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	query := r.db.rebind(`INSERT INTO users (email, nickname, password_hash, role, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  RETURNING id`)

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		user.Email, user.Nickname, user.PasswordHash, user.Role, user.Status, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("insert user: %w", r.db.translate(err))
	}
	return nil
}

// SetUserStatus activates or deactivates a user
func (r *UserRepository) SetUserStatus(ctx context.Context, id int64, status models.UserStatus) error {
	res, err := r.db.GetDB().ExecContext(ctx,
		r.db.rebind(`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`), status, time.Now().UTC(), id)
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

// UpdateUser persists a user's nickname and password hash
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	query := r.db.rebind(`UPDATE users SET nickname = ?, password_hash = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.GetDB().ExecContext(ctx, query, user.Nickname, user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
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

// ListUsers retrieves one page of users whose email or nickname contains
// the keyword, and the total match count.
func (r *UserRepository) ListUsers(ctx context.Context, q models.UserQuery) ([]models.User, int, error) {
	w := &where{}
	if q.Keyword != "" {
		pattern := "%" + strings.ToLower(q.Keyword) + "%"
		w.conds = append(w.conds, `(LOWER(email) LIKE ? OR LOWER(nickname) LIKE ?)`)
		w.args = append(w.args, pattern, pattern)
	}

	var total int
	countQuery := r.db.rebind(`SELECT COUNT(*) FROM users` + w.String())
	if err := r.db.GetDB().GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, err
	}

	users := []models.User{}
	selectQuery := r.db.rebind(`SELECT ` + userColumns + ` FROM users` + w.String() +
		orderBy(q.Sort) + ` LIMIT ? OFFSET ?`)
	args := append(w.args, q.Size, q.Offset())
	if err := r.db.GetDB().SelectContext(ctx, &users, selectQuery, args...); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
