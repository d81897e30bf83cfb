package handlers

import (
	"net/http"

	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
)

// PlaceBid handles the request to bid on an open item
func PlaceBid(bidService *services.BidService) http.HandlerFunc {
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

		var req models.PlaceBidRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		bid, err := bidService.PlaceBid(r.Context(), itemID, actor, req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, bid)
	}
}

// ListBids handles the request to page through an item's bids
func ListBids(bidService *services.BidService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}
		params, err := parseBidParams(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		page, err := bidService.ListBids(r.Context(), itemID, params)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
	}
}

// GetHighestBid reports the current price of an item
func GetHighestBid(bidService *services.BidService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		resp, err := bidService.HighestBid(r.Context(), itemID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// ListMyBids handles the request to page through the caller's own bids
func ListMyBids(bidService *services.BidService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		params, err := parseBidParams(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		page, err := bidService.ListMyBids(r.Context(), actor, params)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
	}
}
