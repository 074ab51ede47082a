package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
//
// TranslateError is required: the workflow relies on gorm.ErrDuplicatedKey to
// detect a second open modification request on the same inspection.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate applies the schema for all registry models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Group{},
		&models.User{},
		&models.Region{},
		&models.Province{},
		&models.Commune{},
		&models.Patrimoine{},
		&models.Inspection{},
		&models.InspectionModificationRequest{},
		&models.Intervention{},
		&models.Document{},
		&models.AuditLog{},
	)
}
