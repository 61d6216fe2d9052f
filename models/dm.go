package models

import (
	"time"
)

// RequestDM is the temporary two-party conversation tied to exactly one
// join request. Participants are stored sorted (UserAID < UserBID) for a
// canonical identity. Participant names/emails are snapshots taken at
// creation and are not refreshed if a profile changes later; DMs are
// short-lived, so the staleness window is accepted.
//
// A DM is deactivated (one-way) when its parent request resolves. Closed
// DMs keep their messages but drop out of all listing queries.
type RequestDM struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	RequestID uint        `gorm:"uniqueIndex" json:"request_id"`
	Request   JoinRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`

	UserAID    uint   `gorm:"index" json:"user_a_id"`
	UserAName  string `gorm:"size:255" json:"user_a_name"`
	UserAEmail string `gorm:"size:255" json:"user_a_email"`
	UserBID    uint   `gorm:"index" json:"user_b_id"`
	UserBName  string `gorm:"size:255" json:"user_b_name"`
	UserBEmail string `gorm:"size:255" json:"user_b_email"`

	ProjectID   uint   `json:"project_id"`
	ProjectName string `gorm:"size:255" json:"project_name"`

	Active bool `gorm:"default:true" json:"active"`

	LastMessageText       string     `gorm:"size:512" json:"last_message_text"`
	LastMessageSenderName string     `gorm:"size:255" json:"last_message_sender_name"`
	LastMessageAt         *time.Time `json:"last_message_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two parties.
func (d *RequestDM) HasParticipant(userID uint) bool {
	return d.UserAID == userID || d.UserBID == userID
}

// DMMessage lives under exactly one RequestDM.
type DMMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DMID       uint      `gorm:"index" json:"dm_id"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `gorm:"size:255" json:"sender_name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Type       string    `gorm:"size:20;default:'text'" json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}
