package handlers

import (
	"net/http"

	"github.com/satonic/auction-api/internal/services"
)

// WatchItem handles the request to add an item to the caller's watch list
func WatchItem(watchService *services.WatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		itemID, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		watch, err := watchService.Watch(r.Context(), itemID, actor)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, watch)
	}
}

// UnwatchItem handles the request to drop an item from the watch list
func UnwatchItem(watchService *services.WatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		itemID, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := watchService.Unwatch(r.Context(), itemID, actor); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListMyWatches handles the request to read the caller's watch list
func ListMyWatches(watchService *services.WatchService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		watches, err := watchService.List(r.Context(), actor)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, watches)
	}
}
