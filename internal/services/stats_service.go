package services

import (
	"context"
	"time"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

const (
	defaultTopBidLimit = 10
	maxTopBidLimit     = 50
	defaultSalesDays   = 7
	maxSalesDays       = 30
)

// settledStatuses are the order states counted as sales
var settledStatuses = []models.OrderStatus{
	models.OrderStatusPaid,
	models.OrderStatusShipped,
	models.OrderStatusCompleted,
}

// StatsService computes marketplace statistics
type StatsService struct {
	stats StatsStore
	now   func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(stats StatsStore) *StatsService {
	return &StatsService{
		stats: stats,
		now:   utcNow,
	}
}

// TopBidCounts lists the items with the most bids. limit is clamped to
// 1..50; zero selects 10.
func (s *StatsService) TopBidCounts(ctx context.Context, limit int) ([]models.ItemBidCount, error) {
	if limit == 0 {
		limit = defaultTopBidLimit
	}
	return s.stats.TopBidCounts(ctx, clamp(limit, 1, maxTopBidLimit))
}

// DailySales totals settled orders per UTC day over the last days days,
// newest day first. days is clamped to 1..30; zero selects 7.
func (s *StatsService) DailySales(ctx context.Context, admin models.Actor, days int) (*models.SalesReport, error) {
	if !admin.IsAdmin() {
		return nil, apperror.Forbidden("admin capability required")
	}
	if days == 0 {
		days = defaultSalesDays
	}
	since := s.now().Add(-time.Duration(clamp(days, 1, maxSalesDays)) * 24 * time.Hour)

	orders, err := s.stats.ListOrdersSince(ctx, since, settledStatuses...)
	if err != nil {
		return nil, err
	}

	// orders arrive newest first, so each day's orders are contiguous
	report := &models.SalesReport{Since: since, Content: []models.DailySales{}}
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format(time.DateOnly)
		n := len(report.Content)
		if n == 0 || report.Content[n-1].Day != day {
			report.Content = append(report.Content, models.DailySales{Day: day})
			n++
		}
		report.Content[n-1].Sales += o.TotalPrice
		report.Content[n-1].Orders++
	}
	return report, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
