package main

import (
	"context"
	"errors"
	"log"

	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/config"
	"github.com/Baaaki/role-admin/internal/database"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/internal/utils"
)

// seed creates the schema, the base roles and order statuses, and the
// initial administrator. Running it again changes nothing.
func main() {
	cfg := config.Load()
	database.Connect(cfg)

	if err := database.Migrate(database.DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	if err := database.SeedDefaults(database.DB); err != nil {
		log.Fatal("Failed to seed roles and order statuses:", err)
	}
	log.Println("✅ Roles and order statuses are in place")

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Fatal("Missing environment variables: ADMIN_USERNAME, ADMIN_PASSWORD")
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(database.DB)

	existing, err := userRepo.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		log.Println("✅ Admin user already exists:", existing.Username)
		return
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		log.Fatal("Failed to look up admin user:", err)
	}

	passwordHash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := &models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: passwordHash,
		FirstName:    "System",
		LastName:     "Administrator",
		Status:       models.StatusActive,
		Metadata:     map[string]interface{}{},
	}
	if err := userRepo.Create(ctx, admin, []string{models.RoleAdmin}, "seed"); err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("✅ Admin user created successfully!")
	log.Println("   Username:", admin.Username)
	log.Println("   Roles:", models.RoleAdmin)
}
