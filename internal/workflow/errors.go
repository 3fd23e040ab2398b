package workflow

import (
	"errors"
	"strings"
)

// Kind classifies workflow errors and notices.
type Kind string

const (
	// KindValidation is missing or invalid local input; shown inline.
	KindValidation Kind = "validation"
	// KindNotFound is a remote lookup that found nothing; recoverable by changing input.
	KindNotFound Kind = "not_found"
	// KindTransient is a network or parse failure; recoverable by retrying.
	KindTransient Kind = "transient"
	// KindStateInvalidated means the quantity changed after verification.
	KindStateInvalidated Kind = "state_invalidated"
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrTransient        = errors.New("transient failure")
	ErrStateInvalidated = errors.New("state invalidated")
)

// Error is a user-visible workflow failure.
type Error struct {
	Kind    Kind     `json:"kind"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Reasons) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Reasons, "; ")
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrTransient:
		return e.Kind == KindTransient
	case ErrStateInvalidated:
		return e.Kind == KindStateInvalidated
	}
	return false
}

func validation(msg string, reasons ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Reasons: reasons}
}

// NewError builds a notice of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}
