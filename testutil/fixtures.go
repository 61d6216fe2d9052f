package testutil

import (
	"testing"

	"github.com/TeamUpApp/teamup_backend/models"
	"gorm.io/gorm"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *gorm.DB
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *gorm.DB {
	return f.db
}

// CreateUser creates a test user with a fixed password.
func (f *Fixtures) CreateUser(username, displayName, email string) models.User {
	f.t.Helper()

	user := models.User{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		Password:    "password123",
	}
	if err := f.db.Create(&user).Error; err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreatePost creates a project posting owned by the given user.
func (f *Fixtures) CreatePost(owner models.User, title string) models.ProjectPost {
	f.t.Helper()

	post := models.ProjectPost{
		Title:       title,
		Tags:        "test",
		Description: "A test project",
		OwnerID:     owner.ID,
	}
	if err := f.db.Create(&post).Error; err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return post
}
