package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CreateChatMessageInput struct {
	Content string `json:"content" binding:"required" example:"Hello, everyone!"`
	Type    string `json:"type" binding:"omitempty,oneof=text image file" example:"text"`
}

type EditChatMessageInput struct {
	Content string `json:"content" binding:"required"`
}

type MarkReadInput struct {
	MessageID uint `json:"message_id" binding:"required" example:"42"`
}

// GetChats godoc
// @Summary Get the authenticated user's group chats
// @Description Returns active chats the user belongs to with unread counts, newest activity first
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of chats"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 503 {object} map[string]string "Store unavailable"
// @Router /api/chats [get]
func GetChats(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	entries, err := chats.MyChats(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": entries})
}

// GetChat godoc
// @Summary Get one group chat with its roster
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]interface{} "Chat details"
// @Failure 400 {object} map[string]string "Invalid chat ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Chat not found"
// @Router /api/chats/{id} [get]
func GetChat(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if !requireMembership(c, chatID, userID) {
		return
	}

	chat, err := chats.ByID(chatID)
	if err != nil {
		respondError(c, err)
		return
	}

	count, err := chats.Unread().CountForChatMember(chatID, userID)
	if err != nil {
		count = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"chat":         chat,
		"unread_count": count,
	})
}

// GetChatMessages godoc
// @Summary Get messages in a group chat
// @Description Returns a bounded window of the newest messages in chronological order
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param limit query int false "Window size"
// @Success 200 {object} map[string]interface{} "List of messages"
// @Failure 400 {object} map[string]string "Invalid chat ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/chats/{id}/messages [get]
func GetChatMessages(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if !requireMembership(c, chatID, userID) {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := chats.Messages(chatID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CreateChatMessage godoc
// @Summary Send a message to a group chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param message body CreateChatMessageInput true "Message"
// @Success 201 {object} map[string]interface{} "Message sent"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/chats/{id}/messages [post]
func CreateChatMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input CreateChatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := chats.SendMessage(chatID, user, input.Content, input.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    msg,
	})
}

// EditChatMessage godoc
// @Summary Edit a message
// @Description Allowed for the sender and the chat owner
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param message_id path int true "Message ID"
// @Param message body EditChatMessageInput true "New content"
// @Success 200 {object} map[string]interface{} "Message updated"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/chats/{id}/messages/{message_id} [put]
func EditChatMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	var input EditChatMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := chats.EditMessage(messageID, userID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message updated",
		"data":    msg,
	})
}

// DeleteChatMessage godoc
// @Summary Delete a message
// @Description Allowed for the sender and the chat owner
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param message_id path int true "Message ID"
// @Success 200 {object} map[string]string "Message deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/chats/{id}/messages/{message_id} [delete]
func DeleteChatMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	if err := chats.DeleteMessage(messageID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// MarkChatRead godoc
// @Summary Advance the authenticated user's read cursor
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param cursor body MarkReadInput true "Newest read message"
// @Success 200 {object} map[string]string "Cursor advanced"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/chats/{id}/read [post]
func MarkChatRead(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input MarkReadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := chats.MarkRead(chatID, userID, input.MessageID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cursor advanced"})
}

// LeaveChat godoc
// @Summary Leave a group chat
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]string "Left chat"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/chats/{id}/leave [post]
func LeaveChat(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := chats.RemoveMember(chatID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left chat"})
}

// GetUnreadCount godoc
// @Summary Get the unread message count for a chat
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {object} map[string]int64 "Unread message count"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/chats/{id}/unread [get]
func GetUnreadCount(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	chatID, ok := pathID(c, "id")
	if !ok {
		return
	}

	count, err := chats.Unread().CountForChatMember(chatID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func requireMembership(c *gin.Context, chatID, userID uint) bool {
	ok, err := chats.IsMember(chatID, userID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this chat"})
		return false
	}
	return true
}
