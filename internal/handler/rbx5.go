package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"rbxstore-api/internal/model"
	"rbxstore-api/internal/service"
	"rbxstore-api/internal/session"
	"rbxstore-api/internal/workflow"
	"rbxstore-api/pkg/apierror"
	"rbxstore-api/pkg/response"
)

const maxBodyBytes = 64 << 10

// RBX5Handler exposes the RBX5 checkout form as session resources.
type RBX5Handler struct {
	sessions *session.Manager
	pricing  *service.PricingService
	logger   *zap.Logger
}

// NewRBX5Handler creates a new RBX5 handler.
func NewRBX5Handler(sessions *session.Manager, pricing *service.PricingService, logger *zap.Logger) *RBX5Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RBX5Handler{
		sessions: sessions,
		pricing:  pricing,
		logger:   logger.Named("rbx5"),
	}
}

// SessionResponse wraps a session's form state.
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	State     workflow.View `json:"state"`
}

// UsernameRequest is the body of PUT .../username.
type UsernameRequest struct {
	Username string `json:"username"`
}

// QuantityRequest is the body of PUT .../quantity. Exactly one of Robux or
// Package must be set.
type QuantityRequest struct {
	Robux   *int64 `json:"robux"`
	Package string `json:"package"`
}

// PlaceRequest is the body of PUT .../place.
type PlaceRequest struct {
	PlaceID int64 `json:"place_id"`
}

// CheckoutResponse carries the handoff token the checkout page claims.
type CheckoutResponse struct {
	HandoffToken string             `json:"handoff_token"`
	Item         model.CheckoutItem `json:"item"`
}

// Packages handles GET /api/v1/rbx5/packages
func (h *RBX5Handler) Packages(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.sessions.Packages())
}

// Quote handles GET /api/v1/rbx5/quote?robux=
func (h *RBX5Handler) Quote(w http.ResponseWriter, r *http.Request) {
	robux, err := strconv.ParseInt(r.URL.Query().Get("robux"), 10, 64)
	if err != nil || robux <= 0 {
		response.Error(w, apierror.ValidationError("robux must be a positive integer",
			apierror.FieldError{Field: "robux", Message: "must be a positive integer"}))
		return
	}
	if limit := h.sessions.MaxRobux(); robux > limit {
		msg := fmt.Sprintf("must not exceed %d", limit)
		response.Error(w, apierror.ValidationError("robux quantity out of range",
			apierror.FieldError{Field: "robux", Message: msg}))
		return
	}

	q, err := h.pricing.Quote(r.Context(), robux)
	if err != nil {
		h.logger.Warn("quote failed", zap.Int64("robux", robux), zap.Error(err))
		response.Error(w, toAPIError(err))
		return
	}
	response.OK(w, q)
}

// CreateSession handles POST /api/v1/rbx5/sessions
func (h *RBX5Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	response.Created(w, SessionResponse{SessionID: s.ID, State: s.Snapshot()})
}

// GetSession handles GET /api/v1/rbx5/sessions/{session_id}
func (h *RBX5Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	response.OK(w, SessionResponse{SessionID: s.ID, State: s.Snapshot()})
}

// DeleteSession handles DELETE /api/v1/rbx5/sessions/{session_id}
func (h *RBX5Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "session_id")); err != nil {
		response.Error(w, toAPIError(err))
		return
	}
	response.NoContent(w)
}

// SetUsername handles PUT /api/v1/rbx5/sessions/{session_id}/username
func (h *RBX5Handler) SetUsername(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UsernameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, s.ID)(s.SetUsername(req.Username))
}

// SetQuantity handles PUT /api/v1/rbx5/sessions/{session_id}/quantity
func (h *RBX5Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req QuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch {
	case req.Robux != nil && req.Package != "":
		response.Error(w, apierror.BadRequest("set either robux or package, not both"))
	case req.Package != "":
		h.respond(w, s.ID)(s.SelectPackage(req.Package))
	case req.Robux != nil:
		h.respond(w, s.ID)(s.SetQuantity(*req.Robux))
	default:
		response.Error(w, apierror.BadRequest("robux or package is required"))
	}
}

// SelectPlace handles PUT /api/v1/rbx5/sessions/{session_id}/place
func (h *RBX5Handler) SelectPlace(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PlaceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.respond(w, s.ID)(s.SelectPlace(req.PlaceID))
}

// Verify handles POST /api/v1/rbx5/sessions/{session_id}/verify.
// A failed check is a 200 whose state carries verify_error.
func (h *RBX5Handler) Verify(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s.ID)(s.Verify(r.Context()))
}

// Checkout handles POST /api/v1/rbx5/sessions/{session_id}/checkout
func (h *RBX5Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	token, item, err := s.Checkout(r.Context())
	if err != nil {
		apiErr := toAPIError(err)
		if apiErr.StatusCode >= http.StatusInternalServerError {
			h.logger.Error("checkout failed", zap.String("session_id", s.ID), zap.Error(err))
		}
		response.Error(w, apiErr)
		return
	}
	response.OK(w, CheckoutResponse{HandoffToken: token, Item: item})
}

func (h *RBX5Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "session_id"))
	if err != nil {
		response.Error(w, toAPIError(err))
		return nil, false
	}
	return s, true
}

// respond writes the view returned by a session action, or its error.
func (h *RBX5Handler) respond(w http.ResponseWriter, id string) func(workflow.View, error) {
	return func(v workflow.View, err error) {
		if err != nil {
			response.Error(w, toAPIError(err))
			return
		}
		response.OK(w, SessionResponse{SessionID: id, State: v})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read request body"))
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return false
	}
	return true
}
