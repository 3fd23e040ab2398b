package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"rbxstore-api/internal/service"
	"rbxstore-api/pkg/apierror"
	"rbxstore-api/pkg/response"
)

// CheckoutHandler serves the checkout page's side of the handoff.
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Claim handles POST /api/v1/checkout/handoffs/{token}/claim
func (h *CheckoutHandler) Claim(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.Error(w, apierror.BadRequest("token is required"))
		return
	}

	order, err := h.checkout.Claim(r.Context(), token)
	if err != nil {
		response.Error(w, toAPIError(err))
		return
	}
	response.Created(w, order)
}
