package repository

import (
	"context"
	"fmt"

	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserUpdate holds the fields an administrator may change on a user.
type UserUpdate struct {
	FirstName string
	LastName  string
	Status    models.UserStatus
	Metadata  map[string]interface{}
}

// MetadataPatch computes the new metadata from the stored one.
type MetadataPatch func(stored map[string]interface{}) map[string]interface{}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user and assigns roleNames in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User, roleNames []string, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		return replaceRoles(tx, user.ID, roleNames)
	})
	return translate(err, "create user")
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err, "get user by username")
	}
	return &user, nil
}

// GetByID loads a user with its roles.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error
	if err != nil {
		return nil, translate(err, "get user by id")
	}
	return &user, nil
}

// List returns users ordered by id. A non-nil ownerID restricts the result to that user.
func (r *UserRepository) List(ctx context.Context, ownerID *uint) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Preload("Roles").Order("id")
	if ownerID != nil {
		q = q.Where("id = ?", *ownerID)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

// RoleNames returns the current role names of a user, fresh from storage.
func (r *UserRepository) RoleNames(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.role_name").
		Pluck("roles.role_name", &names).Error
	if err != nil {
		return nil, translate(err, "load user roles")
	}
	return names, nil
}

// UpdateWithRoles updates the user fields and replaces the full role set.
// Both happen in one transaction; any failure rolls back everything.
func (r *UserRepository) UpdateWithRoles(ctx context.Context, id uint, upd UserUpdate, roleNames []string, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		if err := mustExist(tx, id); err != nil {
			return err
		}
		err := tx.Model(&models.User{ID: id}).Updates(map[string]interface{}{
			"first_name": upd.FirstName,
			"last_name":  upd.LastName,
			"status":     upd.Status,
			"metadata":   datatypes.JSONMap(nonNilMap(upd.Metadata)),
		}).Error
		if err != nil {
			return err
		}
		return replaceRoles(tx, id, roleNames)
	})
	return translate(err, "update user")
}

// SetStatus sets the account status. Setting the current status again is a no-op success.
func (r *UserRepository) SetStatus(ctx context.Context, id uint, status models.UserStatus, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		if err := mustExist(tx, id); err != nil {
			return err
		}
		return tx.Model(&models.User{ID: id}).Update("status", status).Error
	})
	return translate(err, "set user status")
}

// PatchMetadata rewrites the metadata of a user under a row lock.
func (r *UserRepository) PatchMetadata(ctx context.Context, id uint, patch MetadataPatch, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		user, err := lockUser(tx, id)
		if err != nil {
			return err
		}
		meta := patch(map[string]interface{}(user.Metadata))
		return tx.Model(&models.User{ID: id}).Update("metadata", datatypes.JSONMap(nonNilMap(meta))).Error
	})
	return translate(err, "patch user metadata")
}

// UpdateProfile changes the owner-editable fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, firstName, lastName string, patch MetadataPatch, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		user, err := lockUser(tx, id)
		if err != nil {
			return err
		}
		meta := patch(map[string]interface{}(user.Metadata))
		return tx.Model(&models.User{ID: id}).Updates(map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"metadata":   datatypes.JSONMap(nonNilMap(meta)),
		}).Error
	})
	return translate(err, "update profile")
}

// replaceRoles makes the user's role set exactly roleNames.
// Unknown role names fail with apperr.ErrNotFound.
func replaceRoles(tx *gorm.DB, userID uint, roleNames []string) error {
	names := uniqueNames(roleNames)

	var roles []models.Role
	if len(names) > 0 {
		if err := tx.Where("role_name IN ?", names).Find(&roles).Error; err != nil {
			return err
		}
		if len(roles) != len(names) {
			return fmt.Errorf("role in %v: %w", names, apperr.ErrNotFound)
		}
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}

	links := make([]models.UserRole, 0, len(roles))
	for _, role := range roles {
		links = append(links, models.UserRole{UserID: userID, RoleID: role.ID})
	}
	return tx.Create(&links).Error
}

func mustExist(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func lockUser(tx *gorm.DB, id uint) (*models.User, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user models.User
	if err := q.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func nonNilMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
