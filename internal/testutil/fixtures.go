package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/internal/utils"
	"gorm.io/gorm"
)

// TestPassword is the password of every fixture user.
const TestPassword = "Test123456"

// cheap argon2 parameters; fixtures are created far more often than they are verified
var fixtureHashParams = utils.HashParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// CreateTestUser inserts an ACTIVE user with the given roles and TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()
	return CreateTestUserWithStatus(t, db, username, models.StatusActive, roles...)
}

// CreateTestUserWithStatus inserts a user with the given status and roles.
func CreateTestUserWithStatus(t *testing.T, db *gorm.DB, username string, status models.UserStatus, roles ...string) *models.User {
	t.Helper()

	hash, err := utils.HashPasswordWith(TestPassword, fixtureHashParams)
	if err != nil {
		t.Fatalf("Failed to hash fixture password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     username,
		Status:       status,
		Metadata:     map[string]interface{}{},
	}
	if err := repository.NewUserRepository(db).Create(context.Background(), user, roles, "fixture"); err != nil {
		t.Fatalf("Failed to create fixture user %s: %v", username, err)
	}
	return user
}

// CreateTestOrder inserts an order owned by userID, optionally with a status name.
func CreateTestOrder(t *testing.T, db *gorm.DB, userID uint, totalPrice float64, statusName string) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:     userID,
		OrderDate:  time.Now().UTC(),
		TotalPrice: totalPrice,
	}
	if statusName != "" {
		var status models.OrderStatus
		if err := db.Where("name = ?", statusName).First(&status).Error; err != nil {
			t.Fatalf("Failed to find order status %s: %v", statusName, err)
		}
		order.StatusID = &status.ID
	}
	if err := db.Omit("User", "Status").Create(order).Error; err != nil {
		t.Fatalf("Failed to create fixture order: %v", err)
	}
	return order
}

// PrincipalFor builds the principal a login by user would produce.
func PrincipalFor(user *models.User, roles ...string) access.Principal {
	return access.NewPrincipal(user.ID, user.Username, roles)
}
