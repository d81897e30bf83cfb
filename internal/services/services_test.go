package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/events"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/store"
)

var (
	seller  = models.Actor{ID: 1, Role: models.RoleUser}
	bidderA = models.Actor{ID: 2, Role: models.RoleUser}
	bidderB = models.Actor{ID: 3, Role: models.RoleUser}
	admin   = models.Actor{ID: 99, Role: models.RoleAdmin}
)

type fixture struct {
	store    *store.MemoryStore
	recorder *events.Recorder
	items    *ItemService
	bids     *BidService
	orders   *OrderService
	catalog  *CategoryService
	watches  *WatchService
	stats    *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemoryStore()
	rec := &events.Recorder{}
	require.NoError(t, mem.CreateCategory(context.Background(), &models.Category{Name: "Keyboards"}))

	return &fixture{
		store:    mem,
		recorder: rec,
		items:    NewItemService(mem, mem, rec, 72*time.Hour, logger),
		bids:     NewBidService(mem, mem, rec, logger),
		orders:   NewOrderService(mem, mem, mem, rec, logger),
		catalog:  NewCategoryService(mem, logger),
		watches:  NewWatchService(mem, mem, logger),
		stats:    NewStatsService(mem),
	}
}

func (f *fixture) draft(t *testing.T, startPrice, bidUnit int64) *models.Item {
	t.Helper()

	item, err := f.items.Create(context.Background(), seller, models.CreateItemRequest{
		CategoryID:  1,
		Title:       "Mechanical keyboard",
		Description: "Brown switches",
		StartPrice:  startPrice,
		BidUnit:     bidUnit,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) open(t *testing.T, startPrice, bidUnit int64) *models.Item {
	t.Helper()

	item := f.draft(t, startPrice, bidUnit)
	_, err := f.items.Publish(context.Background(), item.ID, seller)
	require.NoError(t, err)
	return item
}

// placed is a bid to make before closing an auction
type placed struct {
	actor  models.Actor
	amount int64
}

func (f *fixture) closed(t *testing.T, bids ...placed) *models.Item {
	t.Helper()

	item := f.open(t, 0, 100)
	for _, b := range bids {
		_, err := f.bids.PlaceBid(context.Background(), item.ID, b.actor, b.amount)
		require.NoError(t, err)
	}
	_, err := f.items.Close(context.Background(), item.ID, seller)
	require.NoError(t, err)
	return item
}

func assertCode(t *testing.T, err error, code apperror.Code) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, code, apperror.CodeOf(err), "error: %v", err)
}

func TestAuctionScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	item := f.draft(t, 0, 100)
	status, err := f.items.Publish(ctx, item.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", status.Status)
	require.NotNil(t, status.EndsAt)

	_, err = f.bids.PlaceBid(ctx, item.ID, bidderA, 100)
	require.NoError(t, err)

	_, err = f.bids.PlaceBid(ctx, item.ID, bidderB, 150)
	assertCode(t, err, apperror.CodeUnprocessable)
	appErr, _ := apperror.As(err)
	assert.Equal(t, int64(200), appErr.Details["min_bid"])

	_, err = f.bids.PlaceBid(ctx, item.ID, bidderB, 250)
	assertCode(t, err, apperror.CodeUnprocessable)
	appErr, _ = apperror.As(err)
	assert.Equal(t, int64(100), appErr.Details["bid_unit"])

	_, err = f.bids.PlaceBid(ctx, item.ID, bidderB, 300)
	require.NoError(t, err)

	highest, err := f.bids.HighestBid(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), highest.HighestBid)

	status, err = f.items.Close(ctx, item.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", status.Status)

	winner, err := f.orders.Winner(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, winner.WinnerUserID)
	assert.Equal(t, bidderB.ID, *winner.WinnerUserID)
	assert.Equal(t, int64(300), winner.Price)

	order, err := f.orders.CreateOrder(ctx, item.ID, bidderB, models.CreateOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(300), order.TotalPrice)

	assert.Equal(t, []events.Type{
		events.ItemPublished,
		events.BidPlaced,
		events.BidPlaced,
		events.ItemClosed,
		events.OrderCreated,
	}, f.recorder.Types())
}

func TestEventFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	item := f.open(t, 0, 10)

	f.recorder.Err = assert.AnError
	bid, err := f.bids.PlaceBid(context.Background(), item.ID, bidderA, 10)
	require.NoError(t, err)
	assert.NotZero(t, bid.ID)
}
