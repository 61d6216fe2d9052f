package models_test

import (
	"testing"

	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/TeamUpApp/teamup_backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashedOnCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)

	user := models.User{
		Username:    "alice",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		Password:    "password123",
	}
	require.NoError(t, db.Create(&user).Error)

	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, user.ValidatePassword("password123"))
	assert.Error(t, user.ValidatePassword("wrong"))
}

func TestPasswordNotRehashedOnUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)

	user := models.User{
		Username:    "bob",
		DisplayName: "Bob",
		Email:       "bob@example.com",
		Password:    "password123",
	}
	require.NoError(t, db.Create(&user).Error)
	hashed := user.Password

	user.Tags = "unity,design"
	require.NoError(t, db.Save(&user).Error)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, hashed, reloaded.Password)
	assert.NoError(t, reloaded.ValidatePassword("password123"))
}
