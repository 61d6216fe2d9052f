package managers

import (
	"time"

	"gorm.io/gorm"
)

// Group chats and request DMs share the same conversation mechanics: an
// append-only message log plus a denormalized last-message preview on the
// parent document. The helpers here are that shared half; the two managers
// specialize membership (N members vs. a fixed pair) and lifecycle
// (persistent vs. closable).

// defaultMessageWindow bounds message listings when the caller does not ask
// for a specific window.
const defaultMessageWindow = 50

const lastMessagePreviewMax = 512

func previewOf(content string) string {
	if len(content) > lastMessagePreviewMax {
		return content[:lastMessagePreviewMax]
	}
	return content
}

// updateLastMessage refreshes the last-message summary and the update
// timestamp on a conversation row (GroupChat or RequestDM).
func updateLastMessage(db *gorm.DB, model any, id uint, content, senderName string, at time.Time) error {
	return db.Model(model).Where("id = ?", id).Updates(map[string]any{
		"last_message_text":        previewOf(content),
		"last_message_sender_name": senderName,
		"last_message_at":          at,
		"updated_at":               at,
	}).Error
}

// reverseMessages flips a newest-first page into chronological order.
func reverseMessages[T any](msgs []T) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

func normalizeWindow(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultMessageWindow
	}
	return limit
}
