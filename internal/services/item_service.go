package services

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/auction"
	"github.com/satonic/auction-api/internal/events"
	"github.com/satonic/auction-api/internal/models"
)

const (
	maxTitleLength = 100
	maxBidUnit     = 1_000_000
)

var itemSortFields = []string{"createdAt", "endsAt", "startPrice", "title"}

// ItemService handles item listing and lifecycle operations
type ItemService struct {
	items      ItemStore
	categories CategoryStore
	publisher events.Publisher
	duration  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewItemService creates a new ItemService. duration is how long a
// published auction stays open.
func NewItemService(items ItemStore, categories CategoryStore, publisher events.Publisher, duration time.Duration, logger *slog.Logger) *ItemService {
	return &ItemService{
		items:      items,
		categories: categories,
		publisher:  publisher,
		duration:   duration,
		logger:     loggerOrDefault(logger),
		now:        utcNow,
	}
}

// Create lists a new item in DRAFT owned by actor
func (s *ItemService) Create(ctx context.Context, actor models.Actor, req models.CreateItemRequest) (*models.Item, error) {
	if err := validateItemFields(&req.Title, &req.Description, &req.BidUnit); err != nil {
		return nil, err
	}
	if req.StartPrice < 0 {
		return nil, apperror.Unprocessable("start_price must not be negative").With("start_price", req.StartPrice)
	}
	if req.StartPrice > auction.MaxPrice {
		return nil, apperror.Unprocessable("start_price exceeds the maximum price").With("max_price", auction.MaxPrice)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	now := s.now()
	item := &models.Item{
		SellerID:    actor.ID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		StartPrice:  req.StartPrice,
		BidUnit:     req.BidUnit,
		Status:      models.ItemStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("item created", "item_id", item.ID, "seller_id", actor.ID)
	return item, nil
}

// Get retrieves an item by ID
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound("item not found")
	}
	return item, nil
}

// List retrieves items based on filter parameters
func (s *ItemService) List(ctx context.Context, params models.ItemParams) (*models.Page[models.Item], error) {
	page, err := pageRequest(params.Page, params.Size)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(params.Sort, "createdAt,DESC", itemSortFields)
	if err != nil {
		return nil, err
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, apperror.InvalidQuery("invalid status").With("status", params.Status)
	}

	q := models.ItemQuery{
		Keyword:     params.Keyword,
		CategoryID:  params.CategoryID,
		Status:      params.Status,
		MinPrice:    params.MinPrice,
		MaxPrice:    params.MaxPrice,
		PageRequest: page,
		Sort:        sort,
	}
	items, total, err := s.items.ListItems(ctx, q)
	if err != nil {
		return nil, err
	}

	result := models.NewPage(items, page, total, sort)
	return &result, nil
}

// Update applies a partial update to a DRAFT item owned by actor
func (s *ItemService) Update(ctx context.Context, id int64, actor models.Actor, req models.UpdateItemRequest) (*models.Item, error) {
	if err := validateItemFields(req.Title, req.Description, req.BidUnit); err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	item, err := s.items.UpdateItem(ctx, id, func(item *models.Item) error {
		if err := auction.Apply(item, actor, auction.ActionUpdate, s.now(), s.duration); err != nil {
			return err
		}
		if req.CategoryID != nil {
			item.CategoryID = *req.CategoryID
		}
		if req.Title != nil {
			item.Title = *req.Title
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.BidUnit != nil {
			item.BidUnit = *req.BidUnit
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, "item not found")
	}
	return item, nil
}

func (s *ItemService) checkCategory(ctx context.Context, id int64) error {
	category, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return apperror.Unprocessable("category does not exist").With("category_id", id)
	}
	return nil
}

// Delete removes a DRAFT item owned by actor
func (s *ItemService) Delete(ctx context.Context, id int64, actor models.Actor) error {
	err := s.items.DeleteItem(ctx, id, func(item *models.Item) error {
		return auction.Authorize(item, actor, auction.ActionDelete)
	})
	if err != nil {
		return notFound(err, "item not found")
	}

	s.logger.Info("item deleted", "item_id", id, "seller_id", actor.ID)
	return nil
}

// Publish opens the auction on a DRAFT item owned by actor
func (s *ItemService) Publish(ctx context.Context, id int64, actor models.Actor) (*models.StatusResponse, error) {
	item, err := s.transition(ctx, id, actor, auction.ActionPublish, events.ItemPublished)
	if err != nil {
		return nil, err
	}
	return &models.StatusResponse{Status: string(item.Status), EndsAt: item.EndsAt}, nil
}

// Close ends the auction on an OPEN item owned by actor
func (s *ItemService) Close(ctx context.Context, id int64, actor models.Actor) (*models.StatusResponse, error) {
	item, err := s.transition(ctx, id, actor, auction.ActionClose, events.ItemClosed)
	if err != nil {
		return nil, err
	}
	return &models.StatusResponse{Status: string(item.Status)}, nil
}

// ForceClose ends any OPEN auction on behalf of an admin
func (s *ItemService) ForceClose(ctx context.Context, id int64, admin models.Actor) (*models.StatusResponse, error) {
	item, err := s.transition(ctx, id, admin, auction.ActionForceClose, events.ItemClosed)
	if err != nil {
		return nil, err
	}
	return &models.StatusResponse{Status: string(item.Status)}, nil
}

func (s *ItemService) transition(ctx context.Context, id int64, actor models.Actor, action auction.Action, eventType events.Type) (*models.Item, error) {
	item, err := s.items.UpdateItem(ctx, id, func(item *models.Item) error {
		return auction.Apply(item, actor, action, s.now(), s.duration)
	})
	if err != nil {
		return nil, notFound(err, "item not found")
	}

	s.logger.Info("item transitioned", "item_id", id, "action", action, "status", item.Status, "actor_id", actor.ID)
	publish(ctx, s.publisher, s.logger, events.New(eventType, id, actor.ID, models.StatusResponse{
		Status: string(item.Status),
		EndsAt: item.EndsAt,
	}))
	return item, nil
}

// validateItemFields checks the mutable item fields that are present
func validateItemFields(title, description *string, bidUnit *int64) error {
	if title != nil {
		n := utf8.RuneCountInString(*title)
		if n < 1 || n > maxTitleLength {
			return apperror.Unprocessable("title must be between 1 and 100 characters").With("title", *title)
		}
	}
	if description != nil && *description == "" {
		return apperror.Unprocessable("description must not be empty")
	}
	if bidUnit != nil && (*bidUnit < 1 || *bidUnit > maxBidUnit) {
		return apperror.Unprocessable("bid_unit must be between 1 and 1000000").With("bid_unit", *bidUnit)
	}
	return nil
}

// publish delivers e after the state change committed. Failures are logged
// and never reach the caller.
func publish(ctx context.Context, p events.Publisher, logger *slog.Logger, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish event", "type", e.Type, "event_id", e.EventID, "error", err)
	}
}
