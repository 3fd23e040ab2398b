package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rbxstore-api/internal/model"
	"rbxstore-api/internal/service"
	"rbxstore-api/pkg/apierror"
	"rbxstore-api/pkg/response"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 100
)

// OrderHandler serves persisted orders to operators.
type OrderHandler struct {
	checkout *service.CheckoutService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(checkout *service.CheckoutService) *OrderHandler {
	return &OrderHandler{checkout: checkout}
}

// GetOrder handles GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		response.Error(w, toAPIError(err))
		return
	}
	response.OK(w, order)
}

// ListOrders handles GET /api/v1/orders?status=&limit=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultOrderLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(w, apierror.BadRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, maxOrderLimit)
	}

	status := q.Get("status")
	switch status {
	case "", model.OrderStatusPendingPayment, model.OrderStatusExpired:
	default:
		response.Error(w, apierror.BadRequest("unknown status"))
		return
	}

	orders, err := h.checkout.ListOrders(r.Context(), status, limit)
	if err != nil {
		response.Error(w, toAPIError(err))
		return
	}
	response.List(w, orders, limit, len(orders))
}
