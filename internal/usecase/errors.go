package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

// ValidationErrors is returned when one or more input fields are missing or
// malformed.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// TransitionRejectedError is a refused lead status change. Allowed lists the
// statuses that would have been accepted.
type TransitionRejectedError struct {
	*entity.TransitionError
}

func (e *TransitionRejectedError) Unwrap() error {
	return e.TransitionError
}

// RateLimitedError is an intake or verification request refused by an abuse
// check. RetryAfter is in minutes; zero means retrying later will not help.
type RateLimitedError struct {
	Reason     string
	Message    string
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return e.Message
}

// ConflictError is a request that contradicts the stored state, e.g. a quote
// that was already answered. Gone marks conflicts caused by expiry.
type ConflictError struct {
	Code    string
	Message string
	Gone    bool
}

func (e *ConflictError) Error() string {
	return e.Message
}

// TechnicalError wraps store or broker failures the caller cannot fix.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func technical(code, msg string, err error) error {
	return &TechnicalError{Code: code, Message: msg, Err: err}
}

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsDomainError reports whether err is one of the recoverable errors above.
func IsDomainError(err error) bool {
	var (
		ve ValidationErrors
		nf *NotFoundError
		tr *TransitionRejectedError
		rl *RateLimitedError
		ce *ConflictError
	)
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &tr) ||
		errors.As(err, &rl) || errors.As(err, &ce)
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
