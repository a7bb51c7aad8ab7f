// Package domain contains the core business entities for Marquee.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Error Kinds
	// ===========================================

	// ErrValidation indicates bad or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuthentication indicates the caller could not be authenticated.
	ErrAuthentication = errors.New("authentication failed")

	// ErrAuthorization indicates the caller lacks the required role.
	ErrAuthorization = errors.New("insufficient permissions")

	// ErrConflict indicates a uniqueness rule was violated.
	ErrConflict = errors.New("conflict")

	// ErrStorage indicates the backing store is unreachable or faulted.
	ErrStorage = errors.New("storage failure")

	// ===========================================
	// Manager Errors
	// ===========================================

	// ErrManagerNotFound indicates the requested manager account does not exist.
	ErrManagerNotFound = fmt.Errorf("manager %w", ErrNotFound)

	// ErrManagerAlreadyExists indicates a manager with the same username or email exists.
	ErrManagerAlreadyExists = fmt.Errorf("manager already exists: %w", ErrConflict)

	// ErrInvalidCredentials indicates the username/password pair did not verify.
	// The same error is returned for unknown, inactive and wrong-password cases.
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", ErrAuthentication)

	// ErrMissingCredentials indicates the username or password field was empty.
	ErrMissingCredentials = fmt.Errorf("username and password are required: %w", ErrValidation)

	// ErrInvalidToken indicates a bearer token was malformed, expired or badly signed.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", ErrAuthentication)

	// ===========================================
	// Movie Errors
	// ===========================================

	// ErrMovieNotFound indicates the requested movie does not exist.
	ErrMovieNotFound = fmt.Errorf("movie %w", ErrNotFound)
)

// Kind classifies an error into the taxonomy used at the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindConflict
	KindStorage
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Errors outside the taxonomy are reported as KindUnknown
// and should be treated like storage faults by callers.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}

// ValidationError reports every missing required field and every field-level
// constraint violation found in a candidate record.
type ValidationError struct {
	// Missing lists required fields that were absent or empty, in declaration order.
	Missing []string

	// Fields maps a field name to its constraint violation.
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// AddMissing records a missing required field.
func (e *ValidationError) AddMissing(field string) {
	e.Missing = append(e.Missing, field)
}

// AddField records a constraint violation. The first violation per field wins.
func (e *ValidationError) AddField(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors returns true if any problem was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Fields) > 0
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Please fill in all required fields: "+strings.Join(e.Missing, ", "))
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}

	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns ErrValidation so errors.Is works against the kind.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., movie id, username).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapStorage marks err as a storage fault unless it already belongs to the taxonomy.
func WrapStorage(err error, message string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &DomainError{
		Err:     fmt.Errorf("%w: %v", ErrStorage, err),
		Message: message,
	}
}
