package services

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/auction"
	"github.com/satonic/auction-api/internal/events"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/store"
)

const maxAddressLength = 255

var orderSortFields = []string{"createdAt"}

// OrderService settles closed auctions into orders
type OrderService struct {
	items     ItemStore
	bids      BidStore
	orders    OrderStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(items ItemStore, bids BidStore, orders OrderStore, publisher events.Publisher, logger *slog.Logger) *OrderService {
	return &OrderService{
		items:     items,
		bids:      bids,
		orders:    orders,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
		now:       utcNow,
	}
}

// Winner reports the winning bidder and price of a CLOSED item
func (s *OrderService) Winner(ctx context.Context, itemID int64) (*models.WinnerResponse, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound("item not found")
	}

	top, err := s.bids.TopBid(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return auction.Winner(item, top)
}

// CreateOrder settles a CLOSED item into a PENDING order for its winner
func (s *OrderService) CreateOrder(ctx context.Context, itemID int64, actor models.Actor, req models.CreateOrderRequest) (*models.Order, error) {
	if req.Address != nil && utf8.RuneCountInString(*req.Address) > maxAddressLength {
		return nil, apperror.Unprocessable("address must be at most 255 characters")
	}

	order, err := s.orders.SettleItem(ctx, itemID, func(item *models.Item, winner *models.Bid, settled bool) (*models.Order, error) {
		if err := auction.CheckSettlement(item, winner, actor, settled); err != nil {
			return nil, err
		}
		return &models.Order{
			ItemID:     item.ID,
			BuyerID:    actor.ID,
			TotalPrice: winner.Amount,
			Address:    req.Address,
			Status:     models.OrderStatusPending,
			CreatedAt:  s.now(),
		}, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.StateConflict("an order already exists for this item")
		}
		return nil, notFound(err, "item not found")
	}

	s.logger.Info("order created", "order_id", order.ID, "item_id", itemID, "buyer_id", actor.ID, "total_price", order.TotalPrice)
	publish(ctx, s.publisher, s.logger, events.New(events.OrderCreated, itemID, actor.ID, order))
	return order, nil
}

// GetOrder retrieves one of actor's orders. Orders of other buyers are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, id int64, actor models.Actor) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.BuyerID != actor.ID {
		return nil, apperror.NotFound("order not found")
	}
	return order, nil
}

// ListOrders retrieves one page of actor's orders
func (s *OrderService) ListOrders(ctx context.Context, actor models.Actor, params models.OrderParams) (*models.Page[models.Order], error) {
	page, err := pageRequest(params.Page, params.Size)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(params.Sort, "createdAt,DESC", orderSortFields)
	if err != nil {
		return nil, err
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, apperror.InvalidQuery("invalid status").With("status", params.Status)
	}

	orders, total, err := s.orders.ListOrders(ctx, models.OrderQuery{
		BuyerID:     actor.ID,
		Status:      params.Status,
		PageRequest: page,
		Sort:        sort,
	})
	if err != nil {
		return nil, err
	}

	result := models.NewPage(orders, page, total, sort)
	return &result, nil
}

// CancelOrder cancels one of actor's PENDING or PAID orders
func (s *OrderService) CancelOrder(ctx context.Context, id int64, actor models.Actor) (*models.StatusResponse, error) {
	order, err := s.orders.UpdateOrder(ctx, id, func(order *models.Order) error {
		if order.BuyerID != actor.ID {
			return apperror.NotFound("order not found")
		}
		if err := auction.CheckCancel(order); err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, notFound(err, "order not found")
	}

	s.logger.Info("order cancelled", "order_id", id, "buyer_id", actor.ID)
	publish(ctx, s.publisher, s.logger, events.New(events.OrderStatusChanged, order.ItemID, actor.ID, order))
	return &models.StatusResponse{Status: string(order.Status)}, nil
}

// AdvanceOrder moves an order one step along PENDING→PAID→SHIPPED→COMPLETED
// on behalf of an admin
func (s *OrderService) AdvanceOrder(ctx context.Context, id int64, admin models.Actor, to models.OrderStatus) (*models.Order, error) {
	if !admin.IsAdmin() {
		return nil, apperror.Forbidden("admin capability required")
	}
	if !to.Valid() {
		return nil, apperror.Unprocessable("unknown order status").With("status", to)
	}

	order, err := s.orders.UpdateOrder(ctx, id, func(order *models.Order) error {
		if err := auction.CheckAdvance(order, to); err != nil {
			return err
		}
		order.Status = to
		return nil
	})
	if err != nil {
		return nil, notFound(err, "order not found")
	}

	s.logger.Info("order advanced", "order_id", id, "status", to, "admin_id", admin.ID)
	publish(ctx, s.publisher, s.logger, events.New(events.OrderStatusChanged, order.ItemID, admin.ID, order))
	return order, nil
}
