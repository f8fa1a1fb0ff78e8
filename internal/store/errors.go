package store

import (
	"errors"
	"strings"

	"github.com/diewo77/billing-core/internal/apperr"
	"gorm.io/gorm"
)

// translate maps driver errors onto the stable error kinds. Unique-index
// violations have no portable error type across sqlite and postgres, so the
// match is on the driver message.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "%s not found", entity)
	case isUniqueViolation(err):
		return apperr.Wrap(err, apperr.KindConflict, "%s already exists", entity)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
