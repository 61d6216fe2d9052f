package models

import (
	"time"
)

// Chat membership roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// GroupChat is the persistent multi-member conversation for one project.
// Keyed by project id (unique), not by display name: two projects may share
// a title.
type GroupChat struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ProjectID   uint   `gorm:"uniqueIndex" json:"project_id"`
	ProjectName string `gorm:"size:255;not null" json:"project_name"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint   `gorm:"index" json:"owner_id"`
	Active      bool   `gorm:"default:true" json:"active"`

	LastMessageText       string     `gorm:"size:512" json:"last_message_text"`
	LastMessageSenderName string     `gorm:"size:255" json:"last_message_sender_name"`
	LastMessageAt         *time.Time `json:"last_message_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []ChatMember `gorm:"foreignKey:ChatID" json:"members,omitempty"`
}

// ChatMember is one row per (chat, user). Name and email are snapshots taken
// when the member joined. The last-read cursor drives unread counts.
type ChatMember struct {
	ChatID uint `gorm:"primaryKey" json:"chat_id"`
	UserID uint `gorm:"primaryKey" json:"user_id"`

	Name  string `gorm:"size:255" json:"name"`
	Email string `gorm:"size:255" json:"email"`
	Role  string `gorm:"size:20;default:'member'" json:"role"`

	JoinedAt          time.Time  `json:"joined_at"`
	LastReadMessageID uint       `json:"last_read_message_id"`
	LastReadAt        *time.Time `json:"last_read_at,omitempty"`
}
