package managers

import (
	"errors"

	"github.com/TeamUpApp/teamup_backend/models"
	"gorm.io/gorm"
)

// UnreadCounter derives unread counts from a member's last-read cursor
// versus the message log. It holds no state of its own; every call
// recomputes from the store, so it is safe to invoke from any subscription
// callback.
type UnreadCounter struct {
	db *gorm.DB
}

func NewUnreadCounter(db *gorm.DB) *UnreadCounter {
	return &UnreadCounter{db: db}
}

// CountForChatMember returns the number of messages the member has not read:
// messages newer than their last-read time, or every message if they have
// never read any.
func (u *UnreadCounter) CountForChatMember(chatID, userID uint) (int64, error) {
	var member models.ChatMember
	if err := u.db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotParticipant
		}
		return 0, ErrStoreUnavailable
	}

	q := u.db.Model(&models.ChatMessage{}).Where("chat_id = ?", chatID)
	if member.LastReadAt != nil {
		q = q.Where("created_at > ?", *member.LastReadAt)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, ErrStoreUnavailable
	}
	return count, nil
}

// CountForDM is always zero: request DMs are short-lived and single-topic,
// so unread tracking for them is an accepted simplification.
func (u *UnreadCounter) CountForDM(dmID, userID uint) int64 {
	return 0
}
