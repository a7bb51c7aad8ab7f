package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"missing credentials", ErrMissingCredentials, KindValidation},
		{"validation error", NewValidationError(), KindValidation},
		{"movie not found", ErrMovieNotFound, KindNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", ErrManagerNotFound), KindNotFound},
		{"invalid credentials", ErrInvalidCredentials, KindAuthentication},
		{"invalid token", ErrInvalidToken, KindAuthentication},
		{"authorization", ErrAuthorization, KindAuthorization},
		{"conflict", ErrManagerAlreadyExists, KindConflict},
		{"storage", WrapStorage(errors.New("disk"), "failed to read"), KindStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestWrapStorage(t *testing.T) {
	assert.NoError(t, WrapStorage(nil, "ignored"))

	// Errors already in the taxonomy pass through untouched.
	assert.Same(t, ErrMovieNotFound, WrapStorage(ErrMovieNotFound, "ignored"))

	err := WrapStorage(errors.New("connection refused"), "failed to list movies")
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "failed to list movies")
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	assert.False(t, v.HasErrors())
	assert.Equal(t, ErrValidation.Error(), v.Error())

	v.AddMissing("title")
	v.AddMissing("director")
	v.AddField("rating", "must be one of I, IIA, IIB, III")

	assert.True(t, v.HasErrors())
	assert.Equal(t, "Please fill in all required fields: title, director; rating: must be one of I, IIA, IIB, III", v.Error())
	assert.ErrorIs(t, v, ErrValidation)
}

func TestDomainError(t *testing.T) {
	err := NewDomainError(ErrMovieNotFound, "lookup failed", "42")
	assert.Equal(t, "movie not found: lookup failed (42)", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "movie not found", NewDomainError(ErrMovieNotFound, "", "").Error())
}
