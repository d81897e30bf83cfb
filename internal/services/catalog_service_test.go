package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

func TestCategoryAdministration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.Create(ctx, seller, models.CategoryRequest{Name: "Lamps"})
	assertCode(t, err, apperror.CodeForbidden)

	_, err = f.catalog.Create(ctx, admin, models.CategoryRequest{Name: "  "})
	assertCode(t, err, apperror.CodeUnprocessable)
	_, err = f.catalog.Create(ctx, admin, models.CategoryRequest{Name: strings.Repeat("x", 51)})
	assertCode(t, err, apperror.CodeUnprocessable)

	lamps, err := f.catalog.Create(ctx, admin, models.CategoryRequest{Name: " Lamps "})
	require.NoError(t, err)
	assert.Equal(t, "Lamps", lamps.Name)

	_, err = f.catalog.Create(ctx, admin, models.CategoryRequest{Name: "Lamps"})
	assertCode(t, err, apperror.CodeDuplicate)
	appErr, _ := apperror.As(err)
	assert.Equal(t, "duplicate", appErr.Details["name"])

	_, err = f.catalog.Rename(ctx, lamps.ID, admin, models.CategoryRequest{Name: "Keyboards"})
	assertCode(t, err, apperror.CodeDuplicate)
	_, err = f.catalog.Rename(ctx, 404, admin, models.CategoryRequest{Name: "Clocks"})
	assertCode(t, err, apperror.CodeNotFound)
	_, err = f.catalog.Rename(ctx, lamps.ID, bidderA, models.CategoryRequest{Name: "Clocks"})
	assertCode(t, err, apperror.CodeForbidden)

	renamed, err := f.catalog.Rename(ctx, lamps.ID, admin, models.CategoryRequest{Name: "Clocks"})
	require.NoError(t, err)
	assert.Equal(t, "Clocks", renamed.Name)

	all, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Clocks", all[0].Name)
	assert.Equal(t, "Keyboards", all[1].Name)

	f.draft(t, 0, 100)
	err = f.catalog.Delete(ctx, 1, admin)
	assertCode(t, err, apperror.CodeStateConflict)

	assertCode(t, f.catalog.Delete(ctx, lamps.ID, seller), apperror.CodeForbidden)
	require.NoError(t, f.catalog.Delete(ctx, lamps.ID, admin))
	assertCode(t, f.catalog.Delete(ctx, lamps.ID, admin), apperror.CodeNotFound)
}

func TestWatchList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	f.watches.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := f.open(t, 0, 100)
	second := f.draft(t, 0, 100)

	_, err := f.watches.Watch(ctx, 404, bidderA)
	assertCode(t, err, apperror.CodeNotFound)

	_, err = f.watches.Watch(ctx, first.ID, bidderA)
	require.NoError(t, err)
	watch, err := f.watches.Watch(ctx, second.ID, bidderA)
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Minute), watch.CreatedAt)

	_, err = f.watches.Watch(ctx, first.ID, bidderA)
	assertCode(t, err, apperror.CodeDuplicate)

	watches, err := f.watches.List(ctx, bidderA)
	require.NoError(t, err)
	require.Len(t, watches, 2)
	assert.Equal(t, second.ID, watches[0].ItemID)
	assert.Equal(t, first.ID, watches[1].ItemID)

	require.NoError(t, f.watches.Unwatch(ctx, first.ID, bidderA))
	assertCode(t, f.watches.Unwatch(ctx, first.ID, bidderA), apperror.CodeNotFound)

	require.NoError(t, f.items.Delete(ctx, second.ID, seller))
	watches, err = f.watches.List(ctx, bidderA)
	require.NoError(t, err)
	assert.Empty(t, watches)
}

func TestTopBidCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiet := f.open(t, 0, 100)
	busy := f.open(t, 0, 100)

	_, err := f.bids.PlaceBid(ctx, quiet.ID, bidderA, 100)
	require.NoError(t, err)
	for i, actor := range []models.Actor{bidderA, bidderB, bidderA} {
		_, err := f.bids.PlaceBid(ctx, busy.ID, actor, int64(100*(i+1)))
		require.NoError(t, err)
	}

	counts, err := f.stats.TopBidCounts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.ItemBidCount{ItemID: busy.ID, BidCount: 3}, counts[0])

	counts, err = f.stats.TopBidCounts(ctx, -3)
	require.NoError(t, err)
	assert.Len(t, counts, 1)
}

func TestDailySales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	f.stats.now = func() time.Time { return now }

	sell := func(status models.OrderStatus, created time.Time, price int64) {
		item := f.closed(t)
		order, err := f.store.SettleItem(ctx, item.ID, func(item *models.Item, _ *models.Bid, _ bool) (*models.Order, error) {
			return &models.Order{ItemID: item.ID, BuyerID: bidderA.ID, TotalPrice: price, Status: status, CreatedAt: created}, nil
		})
		require.NoError(t, err)
		require.NotZero(t, order.ID)
	}
	sell(models.OrderStatusPaid, now.Add(-time.Hour), 1000)
	sell(models.OrderStatusCompleted, now.Add(-2*time.Hour), 500)
	sell(models.OrderStatusShipped, now.Add(-26*time.Hour), 700)
	sell(models.OrderStatusPending, now.Add(-time.Hour), 9999)
	sell(models.OrderStatusCancelled, now.Add(-time.Hour), 9999)
	sell(models.OrderStatusPaid, now.Add(-10*24*time.Hour), 9999)

	_, err := f.stats.DailySales(ctx, seller, 7)
	assertCode(t, err, apperror.CodeForbidden)

	report, err := f.stats.DailySales(ctx, admin, 0)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), report.Since)
	assert.Equal(t, []models.DailySales{
		{Day: "2026-05-10", Sales: 1500, Orders: 2},
		{Day: "2026-05-09", Sales: 700, Orders: 1},
	}, report.Content)

	report, err = f.stats.DailySales(ctx, admin, 90)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), report.Since)
	assert.Len(t, report.Content, 3)
}
