package database

import (
	"github.com/Baaaki/role-admin/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultRoles are created by SeedDefaults.
var DefaultRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Full access: users, roles, statuses, audit log"},
	{Name: models.RoleEditor, Description: "Sees all users and orders, manages order status"},
	{Name: models.RoleViewer, Description: "Sees and edits only own data"},
}

// DefaultOrderStatuses is the initial order status vocabulary.
var DefaultOrderStatuses = []string{"CREATED", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED"}

// SeedDefaults inserts the base roles and order statuses, skipping existing names.
func SeedDefaults(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, r := range DefaultRoles {
			role := r
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "role_name"}},
				DoNothing: true,
			}).Create(&role).Error
			if err != nil {
				return err
			}
		}

		for _, name := range DefaultOrderStatuses {
			status := models.OrderStatus{Name: name}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoNothing: true,
			}).Create(&status).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
