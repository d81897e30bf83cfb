package models

import (
	"time"
)

// ItemStatus represents the lifecycle state of an auction item
type ItemStatus string

const (
	ItemStatusDraft     ItemStatus = "DRAFT"
	ItemStatusOpen      ItemStatus = "OPEN"
	ItemStatusClosed    ItemStatus = "CLOSED"
	ItemStatusCancelled ItemStatus = "CANCELLED"
)

// Valid reports whether s is one of the known item statuses
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusOpen, ItemStatusClosed, ItemStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s ItemStatus) Terminal() bool {
	return s == ItemStatusClosed || s == ItemStatusCancelled
}

// Item represents an auction listing. The current price is never stored on
// the item; it is derived from the item's bids.
type Item struct {
	ID          int64      `json:"id" db:"id"`
	SellerID    int64      `json:"seller_id" db:"seller_id"`
	CategoryID  int64      `json:"category_id" db:"category_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	StartPrice  int64      `json:"start_price" db:"start_price"`
	BidUnit     int64      `json:"bid_unit" db:"bid_unit"`
	Status      ItemStatus `json:"status" db:"status"`
	StartsAt    *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateItemRequest represents a request to list a new item
type CreateItemRequest struct {
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartPrice  int64  `json:"start_price"`
	BidUnit     int64  `json:"bid_unit"`
}

// UpdateItemRequest represents a partial update of a draft item.
// Nil fields are left unchanged.
type UpdateItemRequest struct {
	CategoryID  *int64  `json:"category_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	BidUnit     *int64  `json:"bid_unit,omitempty"`
}

// ItemParams represents the parameters for filtering items
type ItemParams struct {
	Keyword    string
	CategoryID *int64
	Status     ItemStatus
	MinPrice   *int64
	MaxPrice   *int64
	Page       int
	Size       int
	Sort       string
}

// ItemQuery is the validated form of ItemParams handed to the store
type ItemQuery struct {
	Keyword    string
	CategoryID *int64
	Status     ItemStatus
	MinPrice   *int64
	MaxPrice   *int64
	PageRequest
	Sort Sort
}

// StatusResponse is returned by lifecycle transitions
type StatusResponse struct {
	Status string     `json:"status"`
	EndsAt *time.Time `json:"ends_at,omitempty"`
}
