package services

import (
	"errors"
	"fmt"

	"github.com/routinely/routinely-server/internal/model"
)

// wrapStore normalizes store failures. Domain sentinels pass through so
// handlers can map them; anything else is reported as ErrUnavailable rather
// than leaking driver details to callers.
func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrConflict) ||
		errors.Is(err, model.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
}
