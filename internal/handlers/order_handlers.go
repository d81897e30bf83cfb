package handlers

import (
	"net/http"

	"github.com/satonic/auction-api/internal/models"
	"github.com/satonic/auction-api/internal/services"
)

// GetWinner reports the settlement outcome of a closed item
func GetWinner(orderService *services.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, err)
			return
		}

		resp, err := orderService.Winner(r.Context(), itemID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// CreateOrder settles a closed item for its winner
func CreateOrder(orderService *services.OrderService) http.HandlerFunc {
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

		var req models.CreateOrderRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		order, err := orderService.CreateOrder(r.Context(), itemID, actor, req)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, order)
	}
}

// ListMyOrders pages through the caller's orders
func ListMyOrders(orderService *services.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		params, err := parseOrderParams(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		page, err := orderService.ListOrders(r.Context(), actor, params)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
	}
}

func GetMyOrder(orderService *services.OrderService) http.HandlerFunc {
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

		order, err := orderService.GetOrder(r.Context(), id, actor)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, order)
	}
}

func CancelOrder(orderService *services.OrderService) http.HandlerFunc {
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

		resp, err := orderService.CancelOrder(r.Context(), id, actor)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// UpdateOrderStatus lets an admin advance an order along its lifecycle
func UpdateOrderStatus(orderService *services.OrderService) http.HandlerFunc {
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

		var req models.UpdateOrderStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		order, err := orderService.AdvanceOrder(r.Context(), id, actor, req.Status)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, order)
	}
}
