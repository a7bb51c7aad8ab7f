package auth

import (
	"errors"
	"fmt"

	"github.com/prn-tf/marquee/internal/domain"
)

// Token errors. All of them classify as domain.ErrAuthentication.
var (
	// ErrMissingToken indicates no Authorization header was sent.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrMalformedHeader indicates the Authorization header is not "Bearer <token>".
	ErrMalformedHeader = fmt.Errorf("malformed authorization header: %w", domain.ErrInvalidToken)

	// ErrWeakSecret indicates the signing secret is too short.
	ErrWeakSecret = errors.New("token secret must be at least 32 bytes")
)
