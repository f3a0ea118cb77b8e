package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"overtimepay/config"
	"overtimepay/models"
)

// Open connects to the configured database. SQLite is served through a
// single connection so that in-memory databases and transactions share it.
func Open(driver, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if driver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// OpenInMemory opens a private in-memory SQLite database named name and
// migrates it. Used by tests and local experiments.
func OpenInMemory(name string) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := Open(config.DriverSQLite, dsn, logger.Silent)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Team{},
		&models.User{},
		&models.Project{},
		&models.TimeEntry{},
		&models.DailyOvertime{},
	)
}

// GormLogLevel maps a LOG_LEVEL value onto the gorm logger.
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Info
	case "warn", "warning":
		return logger.Warn
	case "error":
		return logger.Error
	}
	return logger.Silent
}

const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin"
)

// SeedDefaultAdmin creates the initial administrator when no user with the
// default email exists. The password must be changed on first login.
func SeedDefaultAdmin(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", DefaultAdminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		FirstName:          "System",
		LastName:           "Administrator",
		Email:              DefaultAdminEmail,
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleAdministrator,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}

	log.Info("default administrator created", slog.String("email", DefaultAdminEmail))
	return nil
}
