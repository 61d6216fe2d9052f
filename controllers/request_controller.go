package controllers

import (
	"net/http"
	"strconv"

	"github.com/TeamUpApp/teamup_backend/database"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/gin-gonic/gin"
)

type CreateRequestInput struct {
	ProjectID uint   `json:"project_id" binding:"required" example:"1"`
	Message   string `json:"message" example:"I know Unity."`
}

// CreateRequest godoc
// @Summary Request to join a project
// @Description Files a join request to the project's owner; repeated requests while one is pending return the existing request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequestInput true "Request Creation"
// @Success 201 {object} map[string]interface{} "Request filed"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Project not found"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /api/requests [post]
func CreateRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Self-requests are rejected here, before the lifecycle manager.
	var post models.ProjectPost
	if err := database.DB.First(&post, input.ProjectID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}
	if post.OwnerID == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot request to join your own project"})
		return
	}

	req, err := requests.Create(user, input.ProjectID, input.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Request filed",
		"request": req,
	})
}

// GetPendingRequests godoc
// @Summary Get pending requests addressed to the authenticated user
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of requests"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /api/requests/pending [get]
func GetPendingRequests(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	reqs, err := requests.PendingFor(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// GetSentRequests godoc
// @Summary Get pending requests the authenticated user has sent
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of requests"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /api/requests/sent [get]
func GetSentRequests(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	reqs, err := requests.SentBy(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// AcceptRequest godoc
// @Summary Accept a join request
// @Description Accepts the request, closes any negotiation DM, and admits the requester to the project's group chat
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Request accepted"
// @Failure 400 {object} map[string]string "Invalid request ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 409 {object} map[string]string "Already resolved"
// @Router /api/requests/{id}/accept [post]
func AcceptRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	req, acceptErr := requests.Accept(uint(requestID), userID)
	if acceptErr != nil {
		respondError(c, acceptErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Request accepted",
		"request": req,
	})
}

// DeclineRequest godoc
// @Summary Decline a join request
// @Description Declines the request and closes any negotiation DM
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} map[string]interface{} "Request declined"
// @Failure 400 {object} map[string]string "Invalid request ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 409 {object} map[string]string "Already resolved"
// @Router /api/requests/{id}/decline [post]
func DeclineRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	req, declineErr := requests.Decline(uint(requestID), userID)
	if declineErr != nil {
		respondError(c, declineErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Request declined",
		"request": req,
	})
}
