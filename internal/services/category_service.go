package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/store"
)

const maxCategoryNameLength = 50

// CategoryService manages the category catalogue. Anyone may read it; only
// admins may change it.
type CategoryService struct {
	categories CategoryStore
	logger     *slog.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories CategoryStore, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		logger:     loggerOrDefault(logger),
	}
}

// List retrieves every category ordered by name
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListCategories(ctx)
}

// Create adds a category on behalf of an admin
func (s *CategoryService) Create(ctx context.Context, admin models.Actor, req models.CategoryRequest) (*models.Category, error) {
	if !admin.IsAdmin() {
		return nil, apperror.Forbidden("admin capability required")
	}
	name, err := categoryName(req.Name)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		return nil, duplicate(err, errDuplicateCategory())
	}

	s.logger.Info("category created", "category_id", category.ID, "admin_id", admin.ID)
	return category, nil
}

// Rename changes a category's name on behalf of an admin
func (s *CategoryService) Rename(ctx context.Context, id int64, admin models.Actor, req models.CategoryRequest) (*models.Category, error) {
	if !admin.IsAdmin() {
		return nil, apperror.Forbidden("admin capability required")
	}
	name, err := categoryName(req.Name)
	if err != nil {
		return nil, err
	}

	if err := s.categories.RenameCategory(ctx, id, name); err != nil {
		return nil, notFound(duplicate(err, errDuplicateCategory()), "category not found")
	}

	s.logger.Info("category renamed", "category_id", id, "admin_id", admin.ID)
	return &models.Category{ID: id, Name: name}, nil
}

// Delete removes a category no item belongs to, on behalf of an admin
func (s *CategoryService) Delete(ctx context.Context, id int64, admin models.Actor) error {
	if !admin.IsAdmin() {
		return apperror.Forbidden("admin capability required")
	}

	err := s.categories.DeleteCategory(ctx, id)
	if errors.Is(err, store.ErrInUse) {
		return apperror.StateConflict("category still has items").With("category_id", id)
	}
	if err != nil {
		return notFound(err, "category not found")
	}

	s.logger.Info("category deleted", "category_id", id, "admin_id", admin.ID)
	return nil
}

func categoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxCategoryNameLength {
		return "", apperror.Unprocessable("name must be between 1 and 50 characters").With("name", raw)
	}
	return name, nil
}

func errDuplicateCategory() *apperror.Error {
	return apperror.Duplicate("category already exists").With("name", "duplicate")
}
