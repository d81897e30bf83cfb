package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/store"
)

// ItemStore persists items. UpdateItem and DeleteItem run fn while the item
// is locked and abort with fn's error.
type ItemStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ListItems(ctx context.Context, q models.ItemQuery) ([]models.Item, int, error)
	UpdateItem(ctx context.Context, id int64, fn func(*models.Item) error) (*models.Item, error)
	DeleteItem(ctx context.Context, id int64, fn func(*models.Item) error) error
}

// BidStore persists bids. PlaceBid runs fn with the locked item and its
// current top bid and inserts the bid fn returns.
type BidStore interface {
	PlaceBid(ctx context.Context, itemID int64, fn func(item *models.Item, top *models.Bid) (*models.Bid, error)) (*models.Bid, error)
	TopBid(ctx context.Context, itemID int64) (*models.Bid, error)
	ListBids(ctx context.Context, itemID int64, q models.BidQuery) ([]models.Bid, int, error)
	ListBidsByBidder(ctx context.Context, q models.BidderBidQuery) ([]models.BidderBid, int, error)
}

// OrderStore persists orders. SettleItem runs fn with the locked item, its
// winning bid and whether an order already exists.
type OrderStore interface {
	SettleItem(ctx context.Context, itemID int64, fn func(item *models.Item, winner *models.Bid, settled bool) (*models.Order, error)) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, q models.OrderQuery) ([]models.Order, int, error)
	UpdateOrder(ctx context.Context, id int64, fn func(*models.Order) error) (*models.Order, error)
}

// UserStore persists users
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SetUserStatus(ctx context.Context, id int64, status models.UserStatus) error
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, q models.UserQuery) ([]models.User, int, error)
}

// CategoryStore persists categories. Names are unique; a category that items
// still refer to cannot be deleted.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64) error
}

// WatchStore persists users' watch lists
type WatchStore interface {
	AddWatch(ctx context.Context, watch *models.Watch) error
	RemoveWatch(ctx context.Context, userID, itemID int64) error
	ListWatches(ctx context.Context, userID int64) ([]models.Watch, error)
}

// StatsStore serves the aggregate reads behind the statistics endpoints
type StatsStore interface {
	TopBidCounts(ctx context.Context, limit int) ([]models.ItemBidCount, error)
	ListOrdersSince(ctx context.Context, since time.Time, statuses ...models.OrderStatus) ([]models.Order, error)
}

// notFound maps store.ErrNotFound onto a RESOURCE_NOT_FOUND error
func notFound(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound(message)
	}
	return err
}

// duplicate maps store.ErrDuplicate onto dup
func duplicate(err error, dup *apperror.Error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return dup
	}
	return err
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// pageRequest validates a 0-based page window. A zero size selects the
// default size.
func pageRequest(page, size int) (models.PageRequest, error) {
	if page < 0 {
		return models.PageRequest{}, apperror.InvalidQuery("page must not be negative").With("page", page)
	}
	if size == 0 {
		size = models.DefaultPageSize
	}
	if size < 1 || size > models.MaxPageSize {
		return models.PageRequest{}, apperror.InvalidQuery(
			fmt.Sprintf("size must be between 1 and %d", models.MaxPageSize)).With("size", size)
	}
	return models.PageRequest{Page: page, Size: size}, nil
}

// parseSort parses raw, falling back to def when raw is empty, and accepts
// only the listed "field,DIRECTION" combinations when exact is non-empty.
func parseSort(raw, def string, fields []string, exact ...string) (models.Sort, error) {
	if raw == "" {
		raw = def
	}

	sort, err := models.ParseSort(raw, fields...)
	if err != nil {
		return models.Sort{}, apperror.InvalidQuery("invalid sort").With("sort", raw)
	}

	if len(exact) > 0 {
		for _, e := range exact {
			if e == sort.String() {
				return sort, nil
			}
		}
		return models.Sort{}, apperror.InvalidQuery("invalid sort").With("sort", raw)
	}
	return sort, nil
}
