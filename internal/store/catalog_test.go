package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satonic/auction-api/internal/models"
)

func TestCategories(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			books := &models.Category{Name: "Books"}
			require.NoError(t, l.CreateCategory(ctx, books))
			assert.NotZero(t, books.ID)

			assert.ErrorIs(t, l.CreateCategory(ctx, &models.Category{Name: "Books"}), ErrDuplicate)

			all, err := l.ListCategories(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "Books", all[0].Name)
			assert.Equal(t, "Cameras", all[1].Name)

			assert.ErrorIs(t, l.RenameCategory(ctx, books.ID, "Cameras"), ErrDuplicate)
			require.NoError(t, l.RenameCategory(ctx, books.ID, "Books"))
			require.NoError(t, l.RenameCategory(ctx, books.ID, "Audio"))
			assert.ErrorIs(t, l.RenameCategory(ctx, books.ID+1000, "Toys"), ErrNotFound)

			got, err := l.GetCategory(ctx, books.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Audio", got.Name)

			missing, err := l.GetCategory(ctx, books.ID+1000)
			require.NoError(t, err)
			assert.Nil(t, missing)

			newItem(t, l, models.ItemStatusDraft)
			assert.ErrorIs(t, l.DeleteCategory(ctx, 1), ErrInUse)

			require.NoError(t, l.DeleteCategory(ctx, books.ID))
			assert.ErrorIs(t, l.DeleteCategory(ctx, books.ID), ErrNotFound)
		})
	}
}

func TestWatches(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			first := newItem(t, l, models.ItemStatusOpen)
			second := newItem(t, l, models.ItemStatusDraft)
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			require.NoError(t, l.AddWatch(ctx, &models.Watch{UserID: 7, ItemID: first.ID, CreatedAt: base}))
			require.NoError(t, l.AddWatch(ctx, &models.Watch{UserID: 7, ItemID: second.ID, CreatedAt: base.Add(time.Minute)}))
			require.NoError(t, l.AddWatch(ctx, &models.Watch{UserID: 8, ItemID: first.ID, CreatedAt: base}))

			err := l.AddWatch(ctx, &models.Watch{UserID: 7, ItemID: first.ID, CreatedAt: base.Add(time.Hour)})
			assert.ErrorIs(t, err, ErrDuplicate)

			watches, err := l.ListWatches(ctx, 7)
			require.NoError(t, err)
			require.Len(t, watches, 2)
			assert.Equal(t, second.ID, watches[0].ItemID)
			assert.Equal(t, first.ID, watches[1].ItemID)
			assert.WithinDuration(t, base, watches[1].CreatedAt, time.Millisecond)

			require.NoError(t, l.DeleteItem(ctx, second.ID, func(*models.Item) error { return nil }))
			watches, err = l.ListWatches(ctx, 7)
			require.NoError(t, err)
			require.Len(t, watches, 1)

			require.NoError(t, l.RemoveWatch(ctx, 7, first.ID))
			assert.ErrorIs(t, l.RemoveWatch(ctx, 7, first.ID), ErrNotFound)

			watches, err = l.ListWatches(ctx, 7)
			require.NoError(t, err)
			assert.Empty(t, watches)

			watches, err = l.ListWatches(ctx, 8)
			require.NoError(t, err)
			assert.Len(t, watches, 1)
		})
	}
}

func TestListBidsByBidder(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			lamp := newItem(t, l, models.ItemStatusOpen)
			clock := newItem(t, l, models.ItemStatusOpen)
			_, err := l.UpdateItem(ctx, clock.ID, func(it *models.Item) error {
				it.Title = "Wall clock"
				return nil
			})
			require.NoError(t, err)

			_, err = l.PlaceBid(ctx, lamp.ID, acceptAbove(2, 100))
			require.NoError(t, err)
			_, err = l.PlaceBid(ctx, clock.ID, acceptAbove(2, 500))
			require.NoError(t, err)
			_, err = l.PlaceBid(ctx, lamp.ID, acceptAbove(3, 200))
			require.NoError(t, err)
			last, err := l.PlaceBid(ctx, lamp.ID, acceptAbove(2, 300))
			require.NoError(t, err)

			bids, total, err := l.ListBidsByBidder(ctx, models.BidderBidQuery{
				BidderID:    2,
				PageRequest: models.PageRequest{Page: 0, Size: 20},
				Sort:        models.Sort{Field: "createdAt", Desc: true},
			})
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			require.Len(t, bids, 3)
			assert.Equal(t, last.ID, bids[0].BidID)
			assert.Equal(t, lamp.ID, bids[0].ItemID)
			assert.Equal(t, "Vintage camera", bids[0].ItemTitle)
			assert.Equal(t, models.ItemStatusOpen, bids[0].ItemStatus)

			bids, _, err = l.ListBidsByBidder(ctx, models.BidderBidQuery{
				BidderID:    2,
				PageRequest: models.PageRequest{Page: 0, Size: 2},
				Sort:        models.Sort{Field: "amount", Desc: true},
			})
			require.NoError(t, err)
			require.Len(t, bids, 2)
			assert.Equal(t, int64(500), bids[0].Amount)
			assert.Equal(t, "Wall clock", bids[0].ItemTitle)
			assert.Equal(t, int64(300), bids[1].Amount)

			counts, err := l.TopBidCounts(ctx, 1)
			require.NoError(t, err)
			require.Len(t, counts, 1)
			assert.Equal(t, lamp.ID, counts[0].ItemID)
			assert.Equal(t, 3, counts[0].BidCount)
		})
	}
}

func TestListOrdersSince(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now().UTC()
			settle := func(buyer int64, status models.OrderStatus, created time.Time) *models.Order {
				item := newItem(t, l, models.ItemStatusClosed)
				order, err := l.SettleItem(ctx, item.ID, func(item *models.Item, _ *models.Bid, _ bool) (*models.Order, error) {
					return &models.Order{
						ItemID:     item.ID,
						BuyerID:    buyer,
						TotalPrice: 1000,
						Status:     status,
						CreatedAt:  created,
					}, nil
				})
				require.NoError(t, err)
				return order
			}

			old := settle(2, models.OrderStatusPaid, now.Add(-48*time.Hour))
			recent := settle(2, models.OrderStatusShipped, now.Add(-time.Hour))
			settle(3, models.OrderStatusPending, now.Add(-time.Hour))
			newest := settle(3, models.OrderStatusPaid, now.Add(-time.Minute))

			orders, err := l.ListOrdersSince(ctx, now.Add(-24*time.Hour), models.OrderStatusPaid, models.OrderStatusShipped)
			require.NoError(t, err)
			require.Len(t, orders, 2)
			assert.Equal(t, newest.ID, orders[0].ID)
			assert.Equal(t, recent.ID, orders[1].ID)

			orders, err = l.ListOrdersSince(ctx, now.Add(-72*time.Hour), models.OrderStatusPaid)
			require.NoError(t, err)
			require.Len(t, orders, 2)
			assert.Equal(t, old.ID, orders[1].ID)

			orders, err = l.ListOrdersSince(ctx, now.Add(-72*time.Hour))
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestUpdateAndListUsers(t *testing.T) {
	ctx := context.Background()
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			var created []*models.User
			for i, nick := range []string{"alice", "bob", "Alicia"} {
				at := base.Add(time.Duration(i) * time.Minute)
				user := &models.User{
					Email:        nick + "@example.com",
					Nickname:     nick,
					PasswordHash: "x",
					Role:         models.RoleUser,
					Status:       models.UserStatusActive,
					CreatedAt:    at,
					UpdatedAt:    at,
				}
				require.NoError(t, l.CreateUser(ctx, user))
				created = append(created, user)
			}

			users, total, err := l.ListUsers(ctx, models.UserQuery{
				Keyword:     "ALI",
				PageRequest: models.PageRequest{Page: 0, Size: 20},
				Sort:        models.Sort{Field: "createdAt", Desc: true},
			})
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			require.Len(t, users, 2)
			assert.Equal(t, created[2].ID, users[0].ID)
			assert.Equal(t, created[0].ID, users[1].ID)

			users, total, err = l.ListUsers(ctx, models.UserQuery{
				PageRequest: models.PageRequest{Page: 0, Size: 1},
				Sort:        models.Sort{Field: "createdAt"},
			})
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			require.Len(t, users, 1)
			assert.Equal(t, created[0].ID, users[0].ID)

			alice := *created[0]
			alice.Nickname = "alice2"
			alice.PasswordHash = "y"
			alice.UpdatedAt = base.Add(time.Hour)
			require.NoError(t, l.UpdateUser(ctx, &alice))

			got, err := l.GetUser(ctx, alice.ID)
			require.NoError(t, err)
			assert.Equal(t, "alice2", got.Nickname)
			assert.Equal(t, "y", got.PasswordHash)
			assert.Equal(t, "alice@example.com", got.Email)

			alice.ID += 1000
			assert.ErrorIs(t, l.UpdateUser(ctx, &alice), ErrNotFound)
		})
	}
}
