package testutil

import (
	"testing"

	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory database with the full schema.
// Every call returns a fresh database, so tests never share state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ProjectPost{},
		&models.JoinRequest{},
		&models.GroupChat{},
		&models.ChatMember{},
		&models.ChatMessage{},
		&models.RequestDM{},
		&models.DMMessage{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}
