package mysql

import (
	"errors"

	"edufund-backend/internal/domain/apperr"

	"gorm.io/gorm"
)

// fromGorm maps driver errors into the workflow taxonomy.
func fromGorm(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(entity, id)
	default:
		return apperr.Dependency(entity+" store", err)
	}
}
