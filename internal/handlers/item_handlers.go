package handlers

import (
	"context"
	"net/http"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
)

// requireActor returns the authenticated actor or writes a 401
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		respondError(w, r, apperror.Unauthorized("authentication required"))
	}
	return actor, ok
}

// ListItems handles the request to list items
func ListItems(itemService *services.ItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseItemParams(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		page, err := itemService.List(r.Context(), params)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
	}
}

// GetItem handles the request to get an item by ID
func GetItem(itemService *services.ItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		item, err := itemService.Get(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, item)
	}
}

// CreateItem handles the request to list a new item as a draft
func CreateItem(itemService *services.ItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req models.CreateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		item, err := itemService.Create(r.Context(), actor, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, item)
	}
}

// UpdateItem handles a partial update of a draft item
func UpdateItem(itemService *services.ItemService) http.HandlerFunc {
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

		var req models.UpdateItemRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		item, err := itemService.Update(r.Context(), id, actor, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, item)
	}
}

// DeleteItem handles the removal of a draft item
func DeleteItem(itemService *services.ItemService) http.HandlerFunc {
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

		if err := itemService.Delete(r.Context(), id, actor); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PublishItem opens bidding on a draft item
func PublishItem(itemService *services.ItemService) http.HandlerFunc {
	return itemTransition(itemService.Publish)
}

// CloseItem ends bidding on an open item
func CloseItem(itemService *services.ItemService) http.HandlerFunc {
	return itemTransition(itemService.Close)
}

// ForceCloseItem lets an admin close any open item
func ForceCloseItem(itemService *services.ItemService) http.HandlerFunc {
	return itemTransition(itemService.ForceClose)
}

type transitionFunc func(ctx context.Context, id int64, actor models.Actor) (*models.StatusResponse, error)

func itemTransition(fn transitionFunc) http.HandlerFunc {
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

		resp, err := fn(r.Context(), id, actor)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
