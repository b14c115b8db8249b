package shared

import (
	"errors"
	"net/http"
)

// Taxonomy kinds. InvalidState and ConcurrencyConflict both map to 409,
// so classification goes through Kind, never through the status code.
const (
	KindBadRequest             = "bad_request"
	KindNotFound               = "not_found"
	KindInternal               = "internal"
	KindInvalidState           = "invalid_state"
	KindUnknownEntity          = "unknown_entity"
	KindPersistenceUnavailable = "persistence_unavailable"
	KindConcurrencyConflict    = "concurrency_conflict"
)

// AppError is the error shape every service returns upward. StatusCode
// drives the HTTP mapping, Kind the taxonomy class, Message is safe to
// show the caller, Err keeps the internal cause for logs.
type AppError struct {
	StatusCode int
	Kind       string
	Message    string
	Err        error
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func newAppError(statusCode int, kind string, err error, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Kind:       kind,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, KindBadRequest, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, KindNotFound, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, KindInternal, err, message)
}

// NewInvalidStateError signals an operation against a session outside
// the state it requires (answer after Ended, tick before start). It is
// a caller bug, not a retryable condition.
func NewInvalidStateError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, KindInvalidState, err, message)
}

// NewUnknownEntityError signals a reference to a question, tier or user
// with no matching configuration. Never silently defaulted.
func NewUnknownEntityError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, KindUnknownEntity, err, message)
}

// NewPersistenceUnavailableError signals the backing store cannot be
// reached. RecordOutcome propagates it; callers retry or queue.
func NewPersistenceUnavailableError(err error, message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, KindPersistenceUnavailable, err, message)
}

// NewConcurrencyConflictError signals a per-key read-modify-write lost
// its race past the retry budget. The whole operation is recomputed on
// retry; partial application would break the interval/ease invariants.
func NewConcurrencyConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, KindConcurrencyConflict, err, message)
}

func isKind(err error, kind string) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Kind == kind
}

func IsInvalidState(err error) bool {
	return isKind(err, KindInvalidState)
}

func IsConcurrencyConflict(err error) bool {
	return isKind(err, KindConcurrencyConflict)
}

func IsPersistenceUnavailable(err error) bool {
	return isKind(err, KindPersistenceUnavailable)
}
