// Package service provides business logic services for Marquee.
package service

import (
	"fmt"

	"github.com/prn-tf/marquee/internal/domain"
)

// storageError wraps a repository failure as domain.ErrStorage. Errors that
// already belong to the taxonomy pass through unchanged.
func storageError(err error, action string) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, action, err)
}
