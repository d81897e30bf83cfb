package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/config"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/store"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	issuer           = "auction-api"
)

// Claims represents the JWT claims. The subject is the user ID.
type Claims struct {
	Role models.Role `json:"role"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// AuthService handles authentication operations
type AuthService struct {
	users  UserStore
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, cfg config.AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		cfg:    cfg,
		logger: loggerOrDefault(logger),
		now:    utcNow,
	}
}

// Register creates an ACTIVE user with the user role and signs it in
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthToken, error) {
	if !isEmailValid(req.Email) {
		return nil, apperror.Unprocessable("invalid email address").With("email", req.Email)
	}
	if n := len(req.Password); n < 8 || n > 72 {
		return nil, apperror.Unprocessable("password must be between 8 and 72 bytes")
	}
	if n := utf8.RuneCountInString(req.Nickname); n < 2 || n > 30 {
		return nil, apperror.Unprocessable("nickname must be between 2 and 30 characters").With("nickname", req.Nickname)
	}

	user, err := s.CreateUser(ctx, req.Email, req.Password, req.Nickname, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.IssueTokens(user)
}

// CreateUser hashes password and stores a new ACTIVE user
func (s *AuthService) CreateUser(ctx context.Context, email, password, nickname string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Email:        strings.TrimSpace(email),
		Nickname:     nickname,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Duplicate("email is already registered").With("email", "duplicate")
		}
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "role", role)
	return user, nil
}

// Login verifies email and password and issues a token pair
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthToken, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if user.Status != models.UserStatusActive {
		return nil, apperror.Forbidden("account is deactivated")
	}
	return s.IssueTokens(user)
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthToken, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil || claims.Type != tokenTypeRefresh {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.lookup(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.IssueTokens(user)
}

// Authenticate resolves an access token to an active user
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperror.Unauthorized("authentication token is required")
	}

	claims, err := s.ValidateToken(accessToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid token")
	}
	if claims.Type != tokenTypeAccess {
		return nil, apperror.Unauthorized("not an access token")
	}
	return s.lookup(ctx, claims)
}

func (s *AuthService) lookup(ctx context.Context, claims *Claims) (*models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, apperror.Unauthorized("invalid token subject")
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound
	}
	if user.Status != models.UserStatusActive {
		return nil, apperror.Forbidden("account is deactivated")
	}
	return user, nil
}

// Deactivate marks a user DEACTIVATED on behalf of an admin
func (s *AuthService) Deactivate(ctx context.Context, id int64, admin models.Actor) error {
	if !admin.IsAdmin() {
		return apperror.Forbidden("admin capability required")
	}
	if err := s.users.SetUserStatus(ctx, id, models.UserStatusDeactivated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.ErrUserNotFound
		}
		return err
	}

	s.logger.Info("user deactivated", "user_id", id, "admin_id", admin.ID)
	return nil
}

// IssueTokens creates an access and refresh token for user
func (s *AuthService) IssueTokens(user *models.User) (*models.AuthToken, error) {
	access, expiresAt, err := s.generateToken(user, tokenTypeAccess, s.cfg.TokenTTL())
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.generateToken(user, tokenTypeRefresh, s.cfg.RefreshTTL())
	if err != nil {
		return nil, err
	}

	return &models.AuthToken{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// ValidateToken validates a JWT token
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// generateToken generates a JWT token for a user
func (s *AuthService) generateToken(user *models.User, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		Role: user.Role,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// isEmailValid checks for a local part, an @ and a dotted domain
func isEmailValid(email string) bool {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}

	domainParts := strings.Split(parts[1], ".")
	return len(domainParts) >= 2 && domainParts[0] != "" && domainParts[len(domainParts)-1] != ""
}
