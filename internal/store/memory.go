package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/satonic/auction-api/internal/models"
)

// MemoryStore is an in-process ledger with the same contracts as the SQL
// repositories. Read-modify-write operations on one item hold that item's
// mutex for their whole duration; mu only guards the maps themselves.
type MemoryStore struct {
	mu    sync.RWMutex
	locks map[int64]*sync.Mutex

	items       map[int64]models.Item
	bids        map[int64][]models.Bid
	orders      map[int64]models.Order
	orderByItem map[int64]int64
	users       map[int64]models.User
	categories  map[int64]models.Category
	watches     map[watchKey]models.Watch

	nextItemID     int64
	nextBidID      int64
	nextOrderID    int64
	nextUserID     int64
	nextCategoryID int64
}

type watchKey struct {
	userID, itemID int64
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:       make(map[int64]*sync.Mutex),
		items:       make(map[int64]models.Item),
		bids:        make(map[int64][]models.Bid),
		orders:      make(map[int64]models.Order),
		orderByItem: make(map[int64]int64),
		users:       make(map[int64]models.User),
		categories:  make(map[int64]models.Category),
		watches:     make(map[watchKey]models.Watch),
	}
}

func (s *MemoryStore) itemLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// CreateItem stores item and sets its ID
func (s *MemoryStore) CreateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	s.items[item.ID] = *item
	return nil
}

// GetItem returns a copy of the item, or nil when it does not exist
func (s *MemoryStore) GetItem(_ context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// ListItems returns one page of items matching q and the total match count
func (s *MemoryStore) ListItems(_ context.Context, q models.ItemQuery) ([]models.Item, int, error) {
	s.mu.RLock()
	matched := make([]models.Item, 0, len(s.items))
	for _, item := range s.items {
		if matchItem(item, q) {
			matched = append(matched, item)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Item) int {
		var c int
		switch q.Sort.Field {
		case "endsAt":
			c = compareTimes(a.EndsAt, b.EndsAt)
		case "startPrice":
			c = cmp.Compare(a.StartPrice, b.StartPrice)
		case "title":
			c = cmp.Compare(a.Title, b.Title)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Sort.Desc {
			return -c
		}
		return c
	})

	return window(matched, q.PageRequest), len(matched), nil
}

func matchItem(item models.Item, q models.ItemQuery) bool {
	if q.Keyword != "" && !containsFold(item.Title, q.Keyword) {
		return false
	}
	if q.CategoryID != nil && item.CategoryID != *q.CategoryID {
		return false
	}
	if q.Status != "" && item.Status != q.Status {
		return false
	}
	if q.MinPrice != nil && item.StartPrice < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && item.StartPrice > *q.MaxPrice {
		return false
	}
	return true
}

// UpdateItem holds the item's lock while fn modifies a copy, then stores it
func (s *MemoryStore) UpdateItem(ctx context.Context, id int64, fn func(*models.Item) error) (*models.Item, error) {
	l := s.itemLock(id)
	l.Lock()
	defer l.Unlock()

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if err := fn(item); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.items[id] = *item
	s.mu.Unlock()

	updated := *item
	return &updated, nil
}

// DeleteItem holds the item's lock while fn decides whether it may go
func (s *MemoryStore) DeleteItem(ctx context.Context, id int64, fn func(*models.Item) error) error {
	l := s.itemLock(id)
	l.Lock()
	defer l.Unlock()

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	if err := fn(item); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.items, id)
	delete(s.bids, id)
	for k := range s.watches {
		if k.itemID == id {
			delete(s.watches, k)
		}
	}
	s.mu.Unlock()
	return nil
}

// PlaceBid holds the item's lock across reading the top bid, fn and the
// append.
func (s *MemoryStore) PlaceBid(ctx context.Context, itemID int64, fn func(item *models.Item, top *models.Bid) (*models.Bid, error)) (*models.Bid, error) {
	l := s.itemLock(itemID)
	l.Lock()
	defer l.Unlock()

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	top, err := s.TopBid(ctx, itemID)
	if err != nil {
		return nil, err
	}

	bid, err := fn(item, top)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.nextBidID++
	bid.ID = s.nextBidID
	s.bids[itemID] = append(s.bids[itemID], *bid)
	s.mu.Unlock()

	placed := *bid
	return &placed, nil
}

// TopBid returns the highest bid on an item, earliest first on ties, or nil
func (s *MemoryStore) TopBid(_ context.Context, itemID int64) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var top *models.Bid
	for _, b := range s.bids[itemID] {
		if top == nil || b.Amount > top.Amount || (b.Amount == top.Amount && b.ID < top.ID) {
			bid := b
			top = &bid
		}
	}
	return top, nil
}

// ListBids returns one page of an item's bids and the item's bid count
func (s *MemoryStore) ListBids(_ context.Context, itemID int64, q models.BidQuery) ([]models.Bid, int, error) {
	s.mu.RLock()
	bids := slices.Clone(s.bids[itemID])
	s.mu.RUnlock()

	slices.SortFunc(bids, func(a, b models.Bid) int {
		if q.Sort.Field == "amount" {
			c := cmp.Compare(a.Amount, b.Amount)
			if q.Sort.Desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(a.ID, b.ID)
			}
			return c
		}
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Sort.Desc {
			return -c
		}
		return c
	})

	return window(bids, q.PageRequest), len(bids), nil
}

// SettleItem holds the item's lock while fn decides on the order
func (s *MemoryStore) SettleItem(ctx context.Context, itemID int64, fn func(item *models.Item, winner *models.Bid, settled bool) (*models.Order, error)) (*models.Order, error) {
	l := s.itemLock(itemID)
	l.Lock()
	defer l.Unlock()

	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	winner, err := s.TopBid(ctx, itemID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	_, settled := s.orderByItem[itemID]
	s.mu.RUnlock()

	order, err := fn(item, winner, settled)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orderByItem[itemID]; ok {
		return nil, ErrDuplicate
	}
	s.nextOrderID++
	order.ID = s.nextOrderID
	s.orders[order.ID] = *order
	s.orderByItem[itemID] = order.ID

	created := *order
	return &created, nil
}

// GetOrder returns a copy of the order, or nil when it does not exist
func (s *MemoryStore) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

// ListOrders returns one page of a buyer's orders and the total match count
func (s *MemoryStore) ListOrders(_ context.Context, q models.OrderQuery) ([]models.Order, int, error) {
	s.mu.RLock()
	var matched []models.Order
	for _, o := range s.orders {
		if o.BuyerID != q.BuyerID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		matched = append(matched, o)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Order) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Sort.Desc {
			return -c
		}
		return c
	})

	return window(matched, q.PageRequest), len(matched), nil
}

// UpdateOrder holds the lock of the order's item while fn modifies a copy
func (s *MemoryStore) UpdateOrder(ctx context.Context, id int64, fn func(*models.Order) error) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}

	l := s.itemLock(order.ItemID)
	l.Lock()
	defer l.Unlock()

	// Re-read under the lock.
	order, err = s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders[id] = *order
	s.mu.Unlock()

	updated := *order
	return &updated, nil
}

// GetUser returns a copy of the user, or nil when it does not exist
func (s *MemoryStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetUserByEmail returns a copy of the user with email, or nil
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// CreateUser stores user and sets its ID. A taken email yields ErrDuplicate.
func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = *user
	return nil
}

// SetUserStatus activates or deactivates a user
func (s *MemoryStore) SetUserStatus(_ context.Context, id int64, status models.UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Status = status
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return nil
}

// ListBidsByBidder returns one page of a bidder's bids joined with their
// items, and the bidder's bid count.
func (s *MemoryStore) ListBidsByBidder(_ context.Context, q models.BidderBidQuery) ([]models.BidderBid, int, error) {
	s.mu.RLock()
	var matched []models.BidderBid
	for itemID, bids := range s.bids {
		item := s.items[itemID]
		for _, b := range bids {
			if b.BidderID != q.BidderID {
				continue
			}
			matched = append(matched, models.BidderBid{
				BidID:      b.ID,
				ItemID:     b.ItemID,
				Amount:     b.Amount,
				CreatedAt:  b.CreatedAt,
				ItemTitle:  item.Title,
				ItemStatus: item.Status,
			})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.BidderBid) int {
		if q.Sort.Field == "amount" {
			c := cmp.Compare(a.Amount, b.Amount)
			if q.Sort.Desc {
				c = -c
			}
			if c == 0 {
				c = cmp.Compare(a.BidID, b.BidID)
			}
			return c
		}
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.BidID, b.BidID)
		}
		if q.Sort.Desc {
			return -c
		}
		return c
	})

	return window(matched, q.PageRequest), len(matched), nil
}

// TopBidCounts returns the items with the most bids, ties broken by the
// lowest item id.
func (s *MemoryStore) TopBidCounts(_ context.Context, limit int) ([]models.ItemBidCount, error) {
	s.mu.RLock()
	counts := make([]models.ItemBidCount, 0, len(s.bids))
	for itemID, bids := range s.bids {
		if len(bids) > 0 {
			counts = append(counts, models.ItemBidCount{ItemID: itemID, BidCount: len(bids)})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(counts, func(a, b models.ItemBidCount) int {
		if c := cmp.Compare(b.BidCount, a.BidCount); c != 0 {
			return c
		}
		return cmp.Compare(a.ItemID, b.ItemID)
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// ListOrdersSince returns every order created at or after since whose
// status is one of statuses, newest first.
func (s *MemoryStore) ListOrdersSince(_ context.Context, since time.Time, statuses ...models.OrderStatus) ([]models.Order, error) {
	s.mu.RLock()
	orders := []models.Order{}
	for _, o := range s.orders {
		if !o.CreatedAt.Before(since) && slices.Contains(statuses, o.Status) {
			orders = append(orders, o)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(orders, func(a, b models.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return orders, nil
}

// UpdateUser stores a user's nickname and password hash
func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Nickname = user.Nickname
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = user.UpdatedAt
	s.users[user.ID] = stored
	return nil
}

// ListUsers returns one page of users whose email or nickname contains the
// keyword, and the total match count.
func (s *MemoryStore) ListUsers(_ context.Context, q models.UserQuery) ([]models.User, int, error) {
	s.mu.RLock()
	var matched []models.User
	for _, u := range s.users {
		if q.Keyword == "" || containsFold(u.Email, q.Keyword) || containsFold(u.Nickname, q.Keyword) {
			matched = append(matched, u)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.User) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Sort.Desc {
			return -c
		}
		return c
	})

	return window(matched, q.PageRequest), len(matched), nil
}

// CreateCategory stores category and sets its ID. A taken name yields
// ErrDuplicate.
func (s *MemoryStore) CreateCategory(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Name == category.Name {
			return ErrDuplicate
		}
	}

	s.nextCategoryID++
	category.ID = s.nextCategoryID
	s.categories[category.ID] = *category
	return nil
}

// GetCategory returns a copy of the category, or nil when it does not exist
func (s *MemoryStore) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	return &category, nil
}

// ListCategories returns every category ordered by name
func (s *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	s.mu.RUnlock()

	slices.SortFunc(categories, func(a, b models.Category) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return categories, nil
}

// RenameCategory changes a category's name
func (s *MemoryStore) RenameCategory(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.categories[id]
	if !ok {
		return ErrNotFound
	}
	for _, c := range s.categories {
		if c.ID != id && c.Name == name {
			return ErrDuplicate
		}
	}
	category.Name = name
	s.categories[id] = category
	return nil
}

// DeleteCategory removes a category no item refers to
func (s *MemoryStore) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	for _, item := range s.items {
		if item.CategoryID == id {
			return ErrInUse
		}
	}
	delete(s.categories, id)
	return nil
}

// AddWatch records that a user watches an item
func (s *MemoryStore) AddWatch(_ context.Context, watch *models.Watch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := watchKey{watch.UserID, watch.ItemID}
	if _, ok := s.watches[k]; ok {
		return ErrDuplicate
	}
	s.watches[k] = *watch
	return nil
}

// RemoveWatch deletes a watch, returning ErrNotFound when there is none
func (s *MemoryStore) RemoveWatch(_ context.Context, userID, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := watchKey{userID, itemID}
	if _, ok := s.watches[k]; !ok {
		return ErrNotFound
	}
	delete(s.watches, k)
	return nil
}

// ListWatches returns a user's watches, most recent first
func (s *MemoryStore) ListWatches(_ context.Context, userID int64) ([]models.Watch, error) {
	s.mu.RLock()
	watches := []models.Watch{}
	for k, w := range s.watches {
		if k.userID == userID {
			watches = append(watches, w)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(watches, func(a, b models.Watch) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ItemID, a.ItemID)
	})
	return watches, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// compareTimes orders nil before any time
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func window[T any](all []T, req models.PageRequest) []T {
	start := req.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := min(start+req.Size, len(all))
	return all[start:end]
}
