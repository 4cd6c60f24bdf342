package database

import (
	"fmt"
	"log"

	"github.com/Baaaki/role-admin/internal/config"
	"github.com/Baaaki/role-admin/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open opens a gorm handle for driver "postgres", "mysql" or "sqlite".
// Driver errors are translated to gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Open(driver, dsn string, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
}

func Connect(cfg *config.Config) {
	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	var err error
	DB, err = Open(cfg.DatabaseDriver, cfg.DatabaseURL, level)
	if err != nil {
		log.Fatal("Failed to connect database:", err)
	}

	log.Println("Database connect successfully")
}

// Migrate creates the schema. On PostgreSQL it also installs the audit triggers.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.User{}, "Roles", &models.UserRole{}); err != nil {
		return fmt.Errorf("setup user_roles join table: %w", err)
	}

	err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.UserRole{},
		&models.OrderStatus{},
		&models.Order{},
		&models.AuditLogEntry{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := installAuditTriggers(db); err != nil {
			return fmt.Errorf("install audit triggers: %w", err)
		}
	}

	return nil
}
