package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type OpenDMInput struct {
	RequestID uint `json:"request_id" binding:"required" example:"1"`
}

type CreateDMMessageInput struct {
	Content string `json:"content" binding:"required" example:"Can you tell me more about the project?"`
}

// OpenDM godoc
// @Summary Open the negotiation DM for a pending join request
// @Description Idempotent: returns the existing DM if one is already open for the request
// @Tags dms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dm body OpenDMInput true "Parent request"
// @Success 201 {object} map[string]interface{} "DM open"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Request not found"
// @Failure 409 {object} map[string]string "Request already resolved"
// @Router /api/dms [post]
func OpenDM(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input OpenDMInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dm, err := dms.Open(input.RequestID, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "DM open",
		"dm":      dm,
	})
}

// GetDMs godoc
// @Summary Get the authenticated user's active DMs
// @Tags dms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of DMs"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /api/dms [get]
func GetDMs(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	list, err := dms.ActiveFor(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dms": list})
}

// GetDM godoc
// @Summary Get one DM by id
// @Description Closed DMs stay readable by their participants
// @Tags dms
// @Produce json
// @Security BearerAuth
// @Param id path int true "DM ID"
// @Success 200 {object} map[string]interface{} "DM details"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "DM not found"
// @Router /api/dms/{id} [get]
func GetDM(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	dmID, ok := pathID(c, "id")
	if !ok {
		return
	}

	dm, err := dms.ByID(dmID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !dm.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this DM"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dm": dm})
}

// GetDMMessages godoc
// @Summary Get messages in a DM
// @Tags dms
// @Produce json
// @Security BearerAuth
// @Param id path int true "DM ID"
// @Param limit query int false "Window size"
// @Success 200 {object} map[string]interface{} "List of messages"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "DM not found"
// @Router /api/dms/{id}/messages [get]
func GetDMMessages(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	dmID, ok := pathID(c, "id")
	if !ok {
		return
	}

	dm, err := dms.ByID(dmID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !dm.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this DM"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := dms.Messages(dmID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CreateDMMessage godoc
// @Summary Send a message in a DM
// @Description Fails once the parent request has been resolved and the DM closed
// @Tags dms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "DM ID"
// @Param message body CreateDMMessageInput true "Message"
// @Success 201 {object} map[string]interface{} "Message sent"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "DM closed"
// @Router /api/dms/{id}/messages [post]
func CreateDMMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	dmID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input CreateDMMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := dms.SendMessage(dmID, user, input.Content, "")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    msg,
	})
}
