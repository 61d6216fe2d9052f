package main

import (
	"log"
	"os"

	"github.com/TeamUpApp/teamup_backend/controllers"
	"github.com/TeamUpApp/teamup_backend/database"
	"github.com/TeamUpApp/teamup_backend/docs"
	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/logger"
	"github.com/TeamUpApp/teamup_backend/managers"
	"github.com/TeamUpApp/teamup_backend/middleware"
	"github.com/TeamUpApp/teamup_backend/reconcile"
	"github.com/TeamUpApp/teamup_backend/websocket"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           TeamUp API
// @version         1.0
// @description     API Server for the TeamUp project-matching app
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zlog := logger.Init()
	defer zlog.Sync()

	// Initialize database
	database.Connect()
	database.Migrate()

	// Wire the core: one broker, the three managers, the websocket hub,
	// and the background reconciler.
	broker := livequery.NewBroker()
	chatMgr := managers.NewChatManager(database.DB, broker)
	dmMgr := managers.NewDMManager(database.DB, broker)
	requestMgr := managers.NewRequestManager(database.DB, broker, chatMgr, dmMgr)

	controllers.Setup(requestMgr, chatMgr, dmMgr)
	websocket.InitHub(websocket.Deps{
		Broker:   broker,
		Requests: requestMgr,
		Chats:    chatMgr,
		DMs:      dmMgr,
	})

	sweeper := reconcile.New(database.DB, chatMgr, dmMgr)
	if err := sweeper.Start(); err != nil {
		zlog.Fatal("failed to start reconciler", zap.Error(err))
	}
	defer sweeper.Stop()

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + os.Getenv("PORT")
	if docs.SwaggerInfo.Host == "localhost:" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}

	// Set up router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// Project feed
		api.GET("/posts", controllers.GetFeed)
		api.POST("/posts", controllers.CreatePost)
		api.GET("/posts/mine", controllers.GetMyPosts)

		// Join requests
		api.POST("/requests", controllers.CreateRequest)
		api.GET("/requests/pending", controllers.GetPendingRequests)
		api.GET("/requests/sent", controllers.GetSentRequests)
		api.POST("/requests/:id/accept", controllers.AcceptRequest)
		api.POST("/requests/:id/decline", controllers.DeclineRequest)

		// Group chats
		api.GET("/chats", controllers.GetChats)
		api.GET("/chats/:id", controllers.GetChat)
		api.GET("/chats/:id/unread", controllers.GetUnreadCount)
		api.GET("/chats/:id/messages", controllers.GetChatMessages)
		api.POST("/chats/:id/messages", controllers.CreateChatMessage)
		api.PUT("/chats/:id/messages/:message_id", controllers.EditChatMessage)
		api.DELETE("/chats/:id/messages/:message_id", controllers.DeleteChatMessage)
		api.POST("/chats/:id/read", controllers.MarkChatRead)
		api.POST("/chats/:id/leave", controllers.LeaveChat)

		// Temporary request DMs
		api.POST("/dms", controllers.OpenDM)
		api.GET("/dms", controllers.GetDMs)
		api.GET("/dms/:id", controllers.GetDM)
		api.GET("/dms/:id/messages", controllers.GetDMMessages)
		api.POST("/dms/:id/messages", controllers.CreateDMMessage)
	}

	// WebSocket route
	router.GET("/ws", websocket.HandleConnection)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info("server running", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
