package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/auction"
	"github.com/satonic/auction-api/internal/events"
	"github.com/satonic/auction-api/internal/models"
)

var bidSortFields = []string{"amount", "createdAt"}

// BidService accepts bids and serves an item's bid history
type BidService struct {
	items     ItemStore
	bids      BidStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewBidService creates a new BidService
func NewBidService(items ItemStore, bids BidStore, publisher events.Publisher, logger *slog.Logger) *BidService {
	return &BidService{
		items:     items,
		bids:      bids,
		publisher: publisher,
		logger:    loggerOrDefault(logger),
		now:       utcNow,
	}
}

// PlaceBid records a bid of amount by actor on an OPEN item. The item's
// state, ownership and price ladder are checked against the top bid read
// under the item lock, so concurrent bids on one item are accepted in a
// strictly increasing sequence.
func (s *BidService) PlaceBid(ctx context.Context, itemID int64, actor models.Actor, amount int64) (*models.Bid, error) {
	var previous int64
	bid, err := s.bids.PlaceBid(ctx, itemID, func(item *models.Item, top *models.Bid) (*models.Bid, error) {
		if item.Status != models.ItemStatusOpen {
			return nil, apperror.StateConflict("only OPEN items accept bids").With("status", item.Status)
		}
		if item.SellerID == actor.ID {
			return nil, apperror.Forbidden("sellers may not bid on their own items")
		}
		if err := auction.CheckBid(item, top, amount); err != nil {
			return nil, err
		}

		previous = auction.CurrentPrice(item, top)
		return &models.Bid{
			ItemID:    item.ID,
			BidderID:  actor.ID,
			Amount:    amount,
			CreatedAt: s.now(),
		}, nil
	})
	if err != nil {
		return nil, notFound(err, "item not found")
	}

	s.logger.Info("bid placed", "item_id", itemID, "bid_id", bid.ID, "bidder_id", actor.ID, "amount", amount)
	publish(ctx, s.publisher, s.logger, events.New(events.BidPlaced, itemID, actor.ID, map[string]int64{
		"bid_id":         bid.ID,
		"amount":         bid.Amount,
		"previous_price": previous,
	}))
	return bid, nil
}

// HighestBid reports an item's current price
func (s *BidService) HighestBid(ctx context.Context, itemID int64) (*models.HighestBidResponse, error) {
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

	return &models.HighestBidResponse{
		ItemID:     itemID,
		HighestBid: auction.CurrentPrice(item, top),
	}, nil
}

// ListBids retrieves one page of an item's bids, sorted by "amount,DESC"
// (the default) or "createdAt,DESC"
func (s *BidService) ListBids(ctx context.Context, itemID int64, params models.BidParams) (*models.Page[models.Bid], error) {
	page, err := pageRequest(params.Page, params.Size)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(params.Sort, "amount,DESC", bidSortFields, "amount,DESC", "createdAt,DESC")
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound("item not found")
	}

	bids, total, err := s.bids.ListBids(ctx, itemID, models.BidQuery{PageRequest: page, Sort: sort})
	if err != nil {
		return nil, err
	}

	result := models.NewPage(bids, page, total, sort)
	return &result, nil
}

// ListMyBids retrieves one page of actor's own bids with the title and
// status of each bid's item, sorted by "createdAt,DESC" (the default),
// "createdAt,ASC" or "amount,DESC"
func (s *BidService) ListMyBids(ctx context.Context, actor models.Actor, params models.BidParams) (*models.Page[models.BidderBid], error) {
	page, err := pageRequest(params.Page, params.Size)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(params.Sort, "createdAt,DESC", bidSortFields, "createdAt,DESC", "createdAt,ASC", "amount,DESC")
	if err != nil {
		return nil, err
	}

	bids, total, err := s.bids.ListBidsByBidder(ctx, models.BidderBidQuery{
		BidderID:    actor.ID,
		PageRequest: page,
		Sort:        sort,
	})
	if err != nil {
		return nil, err
	}

	result := models.NewPage(bids, page, total, sort)
	return &result, nil
}
