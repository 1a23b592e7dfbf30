package migrations

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tailor_tracker/internal/models"
)

func allModels() []any {
	return []any{
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.PriceRevision{},
		&models.Notification{},
	}
}

// RunMigrations creates or updates the schema. Existing data is kept.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}

// Reset drops every table and migrates again. Used by the init script only.
func Reset(db *gorm.DB, log *zap.Logger) error {
	log.Warn("dropping all tables")
	if err := db.Migrator().DropTable(allModels()...); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return RunMigrations(db, log)
}
