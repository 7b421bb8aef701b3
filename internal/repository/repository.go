package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/salyq-kz/declaration-service/internal/models"
)

// Open connects to PostgreSQL with the given DSN
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Taxpayer{},
		&models.SourceRecord{},
		&models.TaxEvent{},
		&models.TaxMapping{},
		&models.TaxEventType{},
		&models.LogicalField{},
		&models.TaxRule{},
		&models.XmlFieldMap{},
		&models.Declaration{},
		&models.DeclarationItem{},
		&models.ValidationReport{},
		&models.XmlExport{},
	)
}
