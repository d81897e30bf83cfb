package auction

import (
	"math"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

// MaxPrice bounds start prices and bid amounts. It leaves room for any
// bid unit on top of the highest price without overflowing int64.
const MaxPrice int64 = 1_000_000_000_000_000

// CurrentPrice returns the highest accepted bid amount for item, or its
// start price when top is nil. top must be the item's highest bid as read
// from the authoritative bid set.
func CurrentPrice(item *models.Item, top *models.Bid) int64 {
	if top == nil {
		return item.StartPrice
	}
	return top.Amount
}

// MinNextBid returns the smallest amount the next bid may carry. It
// saturates at math.MaxInt64 instead of wrapping.
func MinNextBid(item *models.Item, top *models.Bid) int64 {
	current := CurrentPrice(item, top)
	if current > math.MaxInt64-item.BidUnit {
		return math.MaxInt64
	}
	return current + item.BidUnit
}

// CheckBid validates amount against the item's price ladder
func CheckBid(item *models.Item, top *models.Bid, amount int64) error {
	minBid := MinNextBid(item, top)
	if amount < minBid {
		return apperror.Unprocessable("bid amount is too low").With("min_bid", minBid)
	}
	if amount > MaxPrice {
		return apperror.Unprocessable("bid amount exceeds the maximum price").With("max_bid", MaxPrice)
	}

	if (amount-item.StartPrice)%item.BidUnit != 0 {
		return apperror.Unprocessable("bid amount is not aligned to the bid unit").
			With("bid_unit", item.BidUnit).
			With("start_price", item.StartPrice)
	}

	return nil
}
