package handler

import (
	"errors"

	"rbxstore-api/internal/outbox"
	"rbxstore-api/internal/pricing"
	"rbxstore-api/internal/repository"
	"rbxstore-api/internal/roblox"
	"rbxstore-api/internal/session"
	"rbxstore-api/internal/workflow"
	"rbxstore-api/pkg/apierror"
)

// toAPIError maps domain errors onto the HTTP error envelope.
// Unknown errors become a 500.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		switch wfErr.Kind {
		case workflow.KindValidation:
			return apierror.ValidationError(wfErr.Message).WithReasons(wfErr.Reasons...)
		case workflow.KindNotFound:
			return apierror.NotFound(wfErr.Message)
		case workflow.KindTransient:
			return apierror.ServiceUnavailable(wfErr.Message)
		case workflow.KindStateInvalidated:
			return apierror.StateInvalidated(wfErr.Message)
		}
	}

	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		return apierror.NotFound("Session not found")
	case errors.Is(err, pricing.ErrOutOfRange):
		return apierror.ValidationError("robux quantity out of range")
	case errors.Is(err, outbox.ErrHandoffNotFound):
		return apierror.NotFound("Checkout handoff not found or already claimed")
	case errors.Is(err, repository.ErrOrderNotFound):
		return apierror.NotFound("Order not found")
	case errors.Is(err, repository.ErrDuplicateOrder):
		return apierror.Conflict("Order already exists for this handoff")
	case errors.Is(err, roblox.ErrNotFound):
		return apierror.NotFound("")
	case errors.Is(err, roblox.ErrUnavailable):
		return apierror.ServiceUnavailable("Storefront pricing is unavailable")
	}
	return apierror.InternalError("")
}
