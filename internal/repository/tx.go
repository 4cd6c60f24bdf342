package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Baaaki/role-admin/internal/apperr"
	"gorm.io/gorm"
)

// inTx runs fn in one transaction. On PostgreSQL the acting username is
// stored in the transaction-local app.changed_by setting read by the audit triggers.
func inTx(ctx context.Context, db *gorm.DB, actor string, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if actor != "" && tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT set_config('app.changed_by', ?, true)", actor).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// translate maps gorm and driver errors onto the apperr taxonomy.
// Errors already in the taxonomy pass through unchanged.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isTaxonomy(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrConstraintViolation, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrStorageUnavailable, err)
	}
}

func isTaxonomy(err error) bool {
	return apperr.IsBusiness(err) ||
		errors.Is(err, apperr.ErrConstraintViolation) ||
		errors.Is(err, apperr.ErrStorageUnavailable)
}
