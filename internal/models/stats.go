package models

import (
	"time"
)

// ItemBidCount is the number of bids one item received
type ItemBidCount struct {
	ItemID   int64 `json:"item_id" db:"item_id"`
	BidCount int   `json:"bid_count" db:"bid_count"`
}

// DailySales aggregates settled orders created on one UTC day
type DailySales struct {
	Day    string `json:"day"`
	Sales  int64  `json:"sales"`
	Orders int    `json:"orders"`
}

// SalesReport lists daily sales, newest day first
type SalesReport struct {
	Since   time.Time    `json:"since"`
	Content []DailySales `json:"content"`
}
