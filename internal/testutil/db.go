// Package testutil opens throwaway databases for integration tests.
package testutil

import (
	"path/filepath"
	"testing"

	"money-layer/internal/config"
	"money-layer/internal/database"

	"gorm.io/gorm"
)

// OpenDB creates a migrated sqlite database in a temporary directory. It is
// closed and removed when the test ends.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "money_layer_test.db")
	db, err := database.Init(config.DatabaseConfig{URL: path})
	if err != nil {
		t.Fatalf("init test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
