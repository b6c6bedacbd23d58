// Package testutil provides a throwaway database for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"

	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	deviceDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/device"
	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
	purchaseDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/purchase"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLite opens a private in-memory database with every table migrated.
// The pool is pinned to one connection so transactions and async writers
// all see the same memory database.
func NewSQLite() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&userDatamodel.User{},
		&itemDatamodel.Item{},
		&purchaseDatamodel.PurchaseRequest{},
		&purchaseDatamodel.RequestHistory{},
		&deviceDatamodel.MedicalDevice{},
		&auditDatamodel.DbRequestHistory{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the database so its memory is freed.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
