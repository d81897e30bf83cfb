package handlers

import (
	"context"

	"github.com/satonic/auction-api/internal/models"
)

// Context keys
type contextKey string

const (
	// UserKey is the key for the authenticated user in the context
	UserKey contextKey = "user"
)

// NewContextWithUser adds the authenticated user to the context
func NewContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext extracts the authenticated user from the context
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// ActorFromContext returns the acting identity of the authenticated user
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return models.Actor{}, false
	}
	return user.Actor(), true
}
