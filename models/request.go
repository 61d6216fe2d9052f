package models

import (
	"time"
)

// Join request status values. Transitions are one-way: pending -> accepted
// or pending -> declined. Terminal states are final.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// JoinRequest is a user's ask to be admitted to a project's group chat.
// Requester name/email and the project name are snapshots taken at creation
// so the recipient's inbox renders without joins.
type JoinRequest struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ProjectID   uint        `gorm:"index" json:"project_id"`
	Project     ProjectPost `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ProjectName string      `gorm:"size:255" json:"project_name"`

	RequesterID    uint   `gorm:"index" json:"requester_id"`
	Requester      User   `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	RequesterName  string `gorm:"size:255" json:"requester_name"`
	RequesterEmail string `gorm:"size:255" json:"requester_email"`

	RecipientID uint `gorm:"index" json:"recipient_id"`
	Recipient   User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	Message string `gorm:"type:text" json:"message"`
	Status  string `gorm:"size:20;default:'pending'" json:"status"`

	// HasDM is set once a negotiation DM has been opened for this request.
	HasDM bool `json:"has_dm"`

	// MembershipApplied records that the accept side effect (group chat
	// admission) committed. The reconciler retries accepted requests where
	// this is still false.
	MembershipApplied bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resolved reports whether the request reached a terminal state.
func (r *JoinRequest) Resolved() bool {
	return r.Status == RequestAccepted || r.Status == RequestDeclined
}
