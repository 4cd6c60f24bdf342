package repository

import (
	"context"

	"github.com/Baaaki/role-admin/internal/models"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns all roles ordered by id.
func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, translate(err, "list roles")
	}
	return roles, nil
}

// Create inserts a role. A duplicate name fails with apperr.ErrConstraintViolation.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		return tx.Create(role).Error
	})
	return translate(err, "create role")
}
