package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/prn-tf/marquee/internal/domain"
)

// Password length bounds. bcrypt only accepts up to 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// ValidateManager checks the account rules on an already normalized manager.
func ValidateManager(m *domain.Manager) error {
	verr := domain.NewValidationError()

	if err := validate.Struct(m); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				verr.AddMissing(fe.Field())
				continue
			}
			verr.AddField(fe.Field(), fieldMessage(fe))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if password == "" {
		verr := domain.NewValidationError()
		verr.AddMissing("password")
		return verr
	}
	if len(password) < MinPasswordLength {
		verr := domain.NewValidationError()
		verr.AddField("password", "must be at least 6 characters")
		return verr
	}
	if len(password) > MaxPasswordBytes {
		verr := domain.NewValidationError()
		verr.AddField("password", "must be at most 72 bytes")
		return verr
	}
	return nil
}
