package handlers

import (
	"net/http"

	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
)

// ListCategories handles the request to list every category
func ListCategories(categoryService *services.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := categoryService.List(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, categories)
	}
}

// CreateCategory handles the request to add a category
func CreateCategory(categoryService *services.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req models.CategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		category, err := categoryService.Create(r.Context(), actor, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, category)
	}
}

// RenameCategory handles the request to rename a category
func RenameCategory(categoryService *services.CategoryService) http.HandlerFunc {
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

		var req models.CategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		category, err := categoryService.Rename(r.Context(), id, actor, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, category)
	}
}

// DeleteCategory handles the request to remove an unused category
func DeleteCategory(categoryService *services.CategoryService) http.HandlerFunc {
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

		if err := categoryService.Delete(r.Context(), id, actor); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
