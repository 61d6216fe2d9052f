package models

import (
	"time"
)

// ProjectPost is a feed posting looking for collaborators. Posts are
// immutable after creation; the owner is the recipient of join requests.
type ProjectPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Tags        string    `gorm:"size:512" json:"tags"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint      `gorm:"index" json:"owner_id"`
	Owner       User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
