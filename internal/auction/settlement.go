package auction

import (
	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

// Winner resolves the settlement outcome of item. top is the highest bid
// (ties broken by the smallest bid id) or nil if no bids were placed.
func Winner(item *models.Item, top *models.Bid) (*models.WinnerResponse, error) {
	if item.Status != models.ItemStatusClosed {
		return nil, apperror.StateConflict("winner is only defined for CLOSED items").
			With("status", item.Status)
	}

	res := &models.WinnerResponse{ItemID: item.ID, Price: item.StartPrice}
	if top != nil {
		bidder := top.BidderID
		res.WinnerUserID = &bidder
		res.Price = top.Amount
	}
	return res, nil
}

// CheckSettlement validates that actor may create the order for item.
// settled reports whether an order already exists for the item.
func CheckSettlement(item *models.Item, winner *models.Bid, actor models.Actor, settled bool) error {
	if item.Status != models.ItemStatusClosed {
		return apperror.StateConflict("orders can only be created for CLOSED items").
			With("status", item.Status)
	}
	if winner == nil {
		return apperror.Unprocessable("the auction received no bids and has no winner")
	}
	if winner.BidderID != actor.ID {
		return apperror.Forbidden("only the winning bidder may create the order")
	}
	if settled {
		return apperror.StateConflict("an order already exists for this item")
	}
	return nil
}

var orderFlow = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusPending: models.OrderStatusPaid,
	models.OrderStatusPaid:    models.OrderStatusShipped,
	models.OrderStatusShipped: models.OrderStatusCompleted,
}

// CheckCancel validates that order may be cancelled
func CheckCancel(order *models.Order) error {
	switch order.Status {
	case models.OrderStatusPending, models.OrderStatusPaid:
		return nil
	}
	return apperror.StateConflict("order can no longer be cancelled").With("status", order.Status)
}

// CheckAdvance validates a forward step along PENDING→PAID→SHIPPED→COMPLETED
func CheckAdvance(order *models.Order, to models.OrderStatus) error {
	next, ok := orderFlow[order.Status]
	if !ok || next != to {
		return apperror.StateConflict("invalid order status transition").
			With("status", order.Status).
			With("requested_status", to)
	}
	return nil
}
