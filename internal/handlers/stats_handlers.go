package handlers

import (
	"net/http"

	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
)

// TopBidCounts handles the request for the most bid-on items
func TopBidCounts(statsService *services.StatsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit")
		if err != nil {
			respondError(w, r, err)
			return
		}

		counts, err := statsService.TopBidCounts(r.Context(), limit)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string][]models.ItemBidCount{"content": counts})
	}
}

// DailySales handles the admin request for per-day sales totals
func DailySales(statsService *services.StatsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		days, err := queryInt(r, "days")
		if err != nil {
			respondError(w, r, err)
			return
		}

		report, err := statsService.DailySales(r.Context(), actor, days)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, report)
	}
}
