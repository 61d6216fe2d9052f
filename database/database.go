package database

import (
	"fmt"
	"os"

	"github.com/TeamUpApp/teamup_backend/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect establishes a connection to the database
func Connect() {
	var err error

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("DB_PASS")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "teamup"
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, user, password, dbname, port)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}

	zap.L().Info("database connection established")
}

// Migrate automatically migrates the database schema
func Migrate() {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.ProjectPost{},
		&models.JoinRequest{},
		&models.GroupChat{},
		&models.ChatMember{},
		&models.ChatMessage{},
		&models.RequestDM{},
		&models.DMMessage{},
	); err != nil {
		zap.L().Fatal("database migration failed", zap.Error(err))
	}
	zap.L().Info("database migration completed")
}
