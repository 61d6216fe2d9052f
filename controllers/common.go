package controllers

import (
	"errors"
	"net/http"

	"github.com/TeamUpApp/teamup_backend/database"
	"github.com/TeamUpApp/teamup_backend/managers"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/gin-gonic/gin"
)

var (
	requests *managers.RequestManager
	chats    *managers.ChatManager
	dms      *managers.DMManager
)

// Setup wires the managers into the controller package. Called once from
// main after the database and broker exist.
func Setup(r *managers.RequestManager, c *managers.ChatManager, d *managers.DMManager) {
	requests = r
	chats = c
	dms = d
}

// currentUser loads the authenticated user set by the JWT middleware.
func currentUser(c *gin.Context) (models.User, bool) {
	userID := c.MustGet("userID").(uint)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
		return models.User{}, false
	}
	return user, true
}

// respondError maps a manager error onto an HTTP status with a stable
// message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, managers.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, managers.ErrUnauthorized), errors.Is(err, managers.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, managers.ErrAlreadyResolved), errors.Is(err, managers.ErrConversationClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, managers.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, managers.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
