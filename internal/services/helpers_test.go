package services

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/gitcord/internal/repo"
	"github.com/tbourn/gitcord/internal/secrets"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newProfiles(t *testing.T) *ProfileService {
	t.Helper()
	sealer, err := secrets.NewSealer(testKey)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return NewProfileService(newTestDB(t), sealer)
}

func ptr[T any](v T) *T { return &v }
