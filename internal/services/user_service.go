package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

var userSortFields = []string{"createdAt"}

// UserService serves account profiles and the admin user directory
type UserService struct {
	users  UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: loggerOrDefault(logger),
		now:    utcNow,
	}
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes actor's nickname
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, req models.UpdateProfileRequest) (*models.User, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 30 {
		return nil, apperror.Unprocessable("nickname must be between 2 and 30 characters").With("nickname", req.Nickname)
	}

	user, err := s.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	user.Nickname = nickname
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", user.ID)
	return user, nil
}

// ChangePassword replaces actor's password after verifying the current one
func (s *UserService) ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) error {
	if n := len(req.NewPassword); n < 8 || n > 72 {
		return apperror.Unprocessable("password must be between 8 and 72 bytes")
	}

	user, err := s.Get(ctx, actor.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperror.Unauthorized("current password is incorrect")
	}
	if req.CurrentPassword == req.NewPassword {
		return apperror.Unprocessable("new password must differ from the current one")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// List retrieves one page of users for an admin, optionally filtered by a
// keyword matched against email and nickname
func (s *UserService) List(ctx context.Context, admin models.Actor, params models.UserParams) (*models.Page[models.User], error) {
	if !admin.IsAdmin() {
		return nil, apperror.Forbidden("admin capability required")
	}
	page, err := pageRequest(params.Page, params.Size)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(params.Sort, "createdAt,DESC", userSortFields, "createdAt,DESC", "createdAt,ASC")
	if err != nil {
		return nil, err
	}

	users, total, err := s.users.ListUsers(ctx, models.UserQuery{
		Keyword:     strings.TrimSpace(params.Keyword),
		PageRequest: page,
		Sort:        sort,
	})
	if err != nil {
		return nil, err
	}

	result := models.NewPage(users, page, total, sort)
	return &result, nil
}
