package models

import (
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether s is one of the known order statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is the settlement record of a closed auction. At most one order
// exists per item.
type Order struct {
	ID         int64       `json:"id" db:"id"`
	ItemID     int64       `json:"item_id" db:"item_id"`
	BuyerID    int64       `json:"buyer_id" db:"buyer_id"`
	TotalPrice int64       `json:"total_price" db:"total_price"`
	Address    *string     `json:"address" db:"address"`
	Status     OrderStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// CreateOrderRequest represents a request to settle a closed item
type CreateOrderRequest struct {
	Address *string `json:"address,omitempty"`
}

// UpdateOrderStatusRequest represents an admin request to advance an order
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderParams represents the parameters for listing a buyer's orders
type OrderParams struct {
	Status OrderStatus
	Page   int
	Size   int
	Sort   string
}

// OrderQuery is the validated form of OrderParams
type OrderQuery struct {
	BuyerID int64
	Status  OrderStatus
	PageRequest
	Sort Sort
}
