package models

import (
	"time"
)

// Message types. System messages are server-generated (DM opener notice)
// and never replace the conversation's last-message preview.
const (
	MessageText   = "text"
	MessageImage  = "image"
	MessageFile   = "file"
	MessageSystem = "system"
)

// ChatMessage lives under exactly one GroupChat. Append-only except for
// edit/delete by the sender or the chat owner.
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ChatID     uint      `gorm:"index" json:"chat_id"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `gorm:"size:255" json:"sender_name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Type       string    `gorm:"size:20;default:'text'" json:"type"`
	Edited     bool      `json:"edited"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
