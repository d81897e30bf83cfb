package models

import (
	"time"
)

// Bid represents an offer against an item. Bids are immutable once stored.
type Bid struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	BidderID  int64     `json:"bidder_id" db:"bidder_id"`
	Amount    int64     `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PlaceBidRequest represents a request to place a bid on an item
type PlaceBidRequest struct {
	Amount int64 `json:"amount"`
}

// BidParams represents the parameters for listing an item's bids
type BidParams struct {
	Page int
	Size int
	Sort string
}

// BidQuery is the validated form of BidParams
type BidQuery struct {
	PageRequest
	Sort Sort
}

// HighestBidResponse reports the current price of an item
type HighestBidResponse struct {
	ItemID     int64 `json:"item_id"`
	HighestBid int64 `json:"highest_bid"`
}

// WinnerResponse reports the settlement outcome of a closed item.
// WinnerUserID is nil when the auction received no bids.
type WinnerResponse struct {
	ItemID       int64  `json:"item_id"`
	WinnerUserID *int64 `json:"winner_user_id"`
	Price        int64  `json:"price"`
}

// BidderBid is one of a user's bids joined with the item it was placed on
type BidderBid struct {
	BidID      int64      `json:"bid_id" db:"bid_id"`
	ItemID     int64      `json:"item_id" db:"item_id"`
	Amount     int64      `json:"amount" db:"amount"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ItemTitle  string     `json:"item_title" db:"item_title"`
	ItemStatus ItemStatus `json:"item_status" db:"item_status"`
}

// BidderBidQuery selects one page of a bidder's history
type BidderBidQuery struct {
	BidderID int64
	PageRequest
	Sort Sort
}
