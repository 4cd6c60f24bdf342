package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserStatus string

const (
	StatusActive UserStatus = "ACTIVE"
	StatusBanned UserStatus = "BANNED"
)

// Base role names. The roles table may hold more, these are the ones the
// access rules refer to.
const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
	RoleViewer = "VIEWER"
)

// MetadataVIP is the only metadata key with meaning to the application.
// Only administrators may set or clear it; every other key is passed through untouched.
const MetadataVIP = "vip"

type User struct {
	ID           uint              `gorm:"primaryKey" json:"user_id"`
	Username     string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string            `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	FirstName    string            `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string            `gorm:"type:varchar(100)" json:"last_name"`
	Status       UserStatus        `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	Metadata     datatypes.JSONMap `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
	LastModified time.Time         `gorm:"autoUpdateTime" json:"last_modified"`

	Roles []Role `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

// IsVIP reports whether the vip metadata flag is set.
func (u *User) IsVIP() bool {
	if u.Metadata == nil {
		return false
	}
	switch v := u.Metadata[MetadataVIP].(type) {
	case bool:
		return v
	case string:
		// rows written by the legacy jsonb_set patch hold the string "true"
		return v == "true"
	default:
		return false
	}
}

// RoleNames returns the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

type Role struct {
	ID          uint   `gorm:"primaryKey" json:"role_id"`
	Name        string `gorm:"column:role_name;type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description"`
}

// UserRole is the user_roles join table. The composite primary key keeps a
// user's roles a set.
type UserRole struct {
	UserID uint `gorm:"primaryKey"`
	RoleID uint `gorm:"primaryKey"`
}
