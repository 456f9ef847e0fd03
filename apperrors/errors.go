package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Domain error kinds. Every business-rule failure in the services and
// selectors wraps exactly one of these so handlers can translate them
// uniformly with errors.Is.
var (
	// ErrNotFound marks a referenced exam/session/question/answer/result
	// that does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrNotEligible marks an actor lacking enrollment or role permission
	// for the requested operation.
	ErrNotEligible = errors.New("not eligible")

	// ErrInvalidState marks an operation attempted against a session or
	// result whose current state forbids it.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidAnswer marks a malformed answer payload.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrDuplicateConstraint marks a create that collides with a
	// uniqueness invariant.
	ErrDuplicateConstraint = errors.New("duplicate record")
)

// Error couples a domain error kind with a human-readable message that is
// safe to return to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func NotEligible(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotEligible, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InvalidAnswer(format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidAnswer, Message: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...interface{}) error {
	return &Error{Kind: ErrDuplicateConstraint, Message: fmt.Sprintf(format, args...)}
}

// StatusCode maps a domain error to its HTTP status. Unrecognized errors
// map to 500 so unexpected failures are never presented as client faults.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNotEligible):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidAnswer):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrDuplicateConstraint):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// IsDomain reports whether err belongs to the domain taxonomy, i.e. it is
// safe to echo its message to the client.
func IsDomain(err error) bool {
	return StatusCode(err) != fiber.StatusInternalServerError
}
