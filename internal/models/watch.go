package models

import (
	"time"
)

// Watch marks an item on a user's watch list. A user watches an item at
// most once.
type Watch struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	CreatedAt time.Time `json:"watched_at" db:"created_at"`
}
