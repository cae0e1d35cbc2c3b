// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"budgeting/internal/models"
)

// allModels is the list of all GORM models to auto-migrate in tests.
var allModels = []interface{}{
	&models.CategoryGroup{},
	&models.Category{},
	&models.CategoryMapping{},
	&models.Wallet{},
	&models.Transaction{},
	&models.Budget{},
	&models.TaskNote{},
}

// dbCounter gives every test database its own in-memory file.
var dbCounter atomic.Int64

// SetupTestDB creates an isolated in-memory SQLite database with all models
// migrated and the two default categories seeded.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	seedDefaults(t, db)
	return db
}

// seedDefaults mirrors the seed migration: one system group and an "others"
// category per direction.
func seedDefaults(t *testing.T, db *gorm.DB) {
	t.Helper()

	group := &models.CategoryGroup{Name: "Other", Order: 99}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to seed category group: %v", err)
	}
	for _, d := range models.Directions {
		cat := &models.Category{
			Name:      "Others",
			Code:      models.CategoryCodeOthers,
			Direction: d,
			Order:     99,
			GroupID:   &group.ID,
		}
		if err := db.Create(cat).Error; err != nil {
			t.Fatalf("failed to seed default %s category: %v", d, err)
		}
	}
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
