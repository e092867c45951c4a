package services

import (
	"errors"

	"spandi-backend/internal/conversation"
	"spandi-backend/internal/flows"
)

// AIErrorMessage is the only text a user ever sees for a failed model call.
const AIErrorMessage = "Ayyoo, daivame! Ente signal poyi. Onnu koode try cheyyamo?"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type NotConfiguredError struct{}

func (e *NotConfiguredError) Error() string { return "model provider is not configured" }

// AIError is a failed flow call. Composer carries the text restored to the
// chat input after a rollback.
type AIError struct {
	Kind     string
	Composer string
	Err      error
}

func (e *AIError) Error() string { return "ai flow failed: " + e.Err.Error() }

func (e *AIError) Unwrap() error { return e.Err }

// translate maps package errors onto the service error types.
func translate(err error) error {
	var ve *flows.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return &ValidationError{Fields: ve.Fields}
	case errors.Is(err, conversation.ErrEmptyInput):
		return &ValidationError{Fields: map[string]string{"text": "must not be empty"}}
	case errors.Is(err, conversation.ErrBusy):
		return &ConflictError{Message: "Spandi is still answering your last message"}
	case errors.Is(err, conversation.ErrNotFound):
		return &NotFoundError{Message: "Session not found"}
	case flows.IsFlowFailure(err):
		return &AIError{Kind: flows.Kind(err), Err: err}
	default:
		return err
	}
}
