// Package service implements the authentication flow and the event and
// comment use cases on top of the repositories.  Every failure a caller
// is expected to handle is one of the values below; handlers map them to
// HTTP statuses with errors.Is / errors.As.
package service

import (
	"errors"
	"strings"

	"github.com/iliyamo/eventos-api/internal/utils"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrAuthentication    = errors.New("invalid credentials")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("forbidden")

	// ErrInvalidToken is shared with the token service so that both
	// layers match the same sentinel.
	ErrInvalidToken = utils.ErrInvalidToken
)

// ValidationError carries one message per offending field or rule.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, "; ")
}

func newValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}
