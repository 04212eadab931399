// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/datamodel"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh in-memory database. The pool holds a single
// connection so every statement sees the same memory database.
func Open() (*gorm.DB, error) {
	db, err := database.Open(internal.DatabaseConfig{
		Driver: database.DriverSQLite,
		Source: ":memory:",
	}, nil)
	if err != nil {
		return nil, err
	}
	db.Logger = logger.Default.LogMode(logger.Silent)

	if err := datamodel.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
