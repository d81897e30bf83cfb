package handlers

import (
	"net/http"

	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
)

// Register handles sign-up and returns a token pair
func Register(authService *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		token, err := authService.Register(r.Context(), req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, token)
	}
}

// Login handles a password login
func Login(authService *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		token, err := authService.Login(r.Context(), req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, token)
	}
}

// RefreshToken exchanges a refresh token for a new pair
func RefreshToken(authService *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RefreshRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		token, err := authService.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, token)
	}
}

// GetMe returns the authenticated user
func GetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			requireActor(w, r)
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}

// DeactivateUser lets an admin lock a user out
func DeactivateUser(authService *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := authService.Deactivate(r.Context(), id, actor); err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, models.StatusResponse{Status: string(models.UserStatusDeactivated)})
	}
}
