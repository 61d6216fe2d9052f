package controllers

import (
	"net/http"

	"github.com/TeamUpApp/teamup_backend/database"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/gin-gonic/gin"
)

type CreatePostInput struct {
	Title       string `json:"title" binding:"required" example:"VR Study"`
	Tags        string `json:"tags" example:"unity,vr"`
	Description string `json:"description" example:"Looking for Unity devs"`
}

// CreatePost godoc
// @Summary Create a project posting
// @Description Publishes a project posting to the feed; posts are immutable afterwards
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post body CreatePostInput true "Post Creation"
// @Success 201 {object} map[string]interface{} "Post created successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/posts [post]
func CreatePost(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.ProjectPost{
		Title:       input.Title,
		Tags:        input.Tags,
		Description: input.Description,
		OwnerID:     userID,
	}

	if err := database.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	database.DB.Preload("Owner").First(&post, post.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

// GetFeed godoc
// @Summary Get the project feed
// @Description Returns project postings, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of posts"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/posts [get]
func GetFeed(c *gin.Context) {
	var posts []models.ProjectPost
	if err := database.DB.Preload("Owner").
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetMyPosts godoc
// @Summary Get the authenticated user's postings
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of posts"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/posts/mine [get]
func GetMyPosts(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var posts []models.ProjectPost
	if err := database.DB.Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
