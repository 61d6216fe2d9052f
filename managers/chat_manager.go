package managers

import (
	"errors"
	"time"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChatManager owns project-scoped group conversations: the membership
// roster, the message log, and per-member read cursors.
type ChatManager struct {
	db     *gorm.DB
	broker *livequery.Broker
	unread *UnreadCounter
}

func NewChatManager(db *gorm.DB, broker *livequery.Broker) *ChatManager {
	return &ChatManager{db: db, broker: broker, unread: NewUnreadCounter(db)}
}

// ChatListEntry is one row of a user's chat list: the chat plus that user's
// unread state.
type ChatListEntry struct {
	Chat        models.GroupChat `json:"chat"`
	UnreadCount int64            `json:"unread_count"`
	LastReadAt  *time.Time       `json:"last_read_at,omitempty"`
}

// Create inserts a new group chat whose only member is the owner.
func (m *ChatManager) Create(projectID uint, projectName, description string, owner models.User) (*models.GroupChat, error) {
	now := time.Now().UTC()
	chat := models.GroupChat{
		ProjectID:   projectID,
		ProjectName: projectName,
		Description: description,
		OwnerID:     owner.ID,
		Active:      true,
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&chat).Error; err != nil {
			return err
		}
		member := models.ChatMember{
			ChatID:   chat.ID,
			UserID:   owner.ID,
			Name:     owner.DisplayName,
			Email:    owner.Email,
			Role:     models.RoleOwner,
			JoinedAt: now,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		zap.L().Error("failed to create group chat", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	m.broker.Publish(livequery.UserChats(owner.ID))
	return &chat, nil
}

// FindOrCreateForProject returns the project's chat, creating one owned by
// the project owner if none exists. Two near-simultaneous first calls can
// race; the unique index on project_id makes the loser retry the lookup.
func (m *ChatManager) FindOrCreateForProject(post models.ProjectPost, owner models.User) (*models.GroupChat, error) {
	var chat models.GroupChat
	err := m.db.Where("project_id = ?", post.ID).First(&chat).Error
	if err == nil {
		return &chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Error("failed to look up chat by project", zap.Uint("project_id", post.ID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	created, err := m.Create(post.ID, post.Title, post.Description, owner)
	if err == nil {
		return created, nil
	}
	// Lost the creation race: the chat should exist now.
	if lookupErr := m.db.Where("project_id = ?", post.ID).First(&chat).Error; lookupErr == nil {
		return &chat, nil
	}
	return nil, err
}

// ByID loads a chat with its member roster.
func (m *ChatManager) ByID(chatID uint) (*models.GroupChat, error) {
	var chat models.GroupChat
	if err := m.db.Preload("Members").First(&chat, chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to load chat", zap.Uint("chat_id", chatID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	return &chat, nil
}

// ByProject looks a chat up by its project id.
func (m *ChatManager) ByProject(projectID uint) (*models.GroupChat, error) {
	var chat models.GroupChat
	if err := m.db.Preload("Members").Where("project_id = ?", projectID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to load chat by project", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	return &chat, nil
}

// AddMember admits a user with role member. Adding an existing member is a
// no-op that preserves the original joined_at, role, and read cursor.
func (m *ChatManager) AddMember(chatID uint, user models.User) error {
	var existing models.ChatMember
	err := m.db.Where("chat_id = ? AND user_id = ?", chatID, user.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Error("failed to check membership", zap.Uint("chat_id", chatID), zap.Error(err))
		return ErrStoreUnavailable
	}

	member := models.ChatMember{
		ChatID:   chatID,
		UserID:   user.ID,
		Name:     user.DisplayName,
		Email:    user.Email,
		Role:     models.RoleMember,
		JoinedAt: time.Now().UTC(),
	}
	if err := m.db.Create(&member).Error; err != nil {
		zap.L().Error("failed to add member", zap.Uint("chat_id", chatID), zap.Uint("user_id", user.ID), zap.Error(err))
		return ErrStoreUnavailable
	}

	m.publishRosterChange(chatID)
	return nil
}

// RemoveMember drops a user from the roster. Their read cursor goes with
// the row.
func (m *ChatManager) RemoveMember(chatID, userID uint) error {
	res := m.db.Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&models.ChatMember{})
	if res.Error != nil {
		zap.L().Error("failed to remove member", zap.Uint("chat_id", chatID), zap.Uint("user_id", userID), zap.Error(res.Error))
		return ErrStoreUnavailable
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	m.broker.Publish(livequery.UserChats(userID))
	m.publishRosterChange(chatID)
	return nil
}

// IsMember reports roster membership.
func (m *ChatManager) IsMember(chatID, userID uint) (bool, error) {
	var count int64
	if err := m.db.Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&count).Error; err != nil {
		return false, ErrStoreUnavailable
	}
	return count > 0, nil
}

// SendMessage appends a message and refreshes the chat's last-message
// summary. Sends from non-members are rejected.
func (m *ChatManager) SendMessage(chatID uint, sender models.User, content, msgType string) (*models.ChatMessage, error) {
	if content == "" {
		return nil, ErrInvalidInput
	}
	if msgType == "" {
		msgType = models.MessageText
	}

	ok, err := m.IsMember(chatID, sender.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	now := time.Now().UTC()
	msg := models.ChatMessage{
		ChatID:     chatID,
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Content:    content,
		Type:       msgType,
		CreatedAt:  now,
	}
	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return updateLastMessage(tx, &models.GroupChat{}, chatID, content, sender.DisplayName, now)
	})
	if err != nil {
		zap.L().Error("failed to send chat message", zap.Uint("chat_id", chatID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	m.broker.Publish(livequery.ChatMessages(chatID))
	m.publishRosterChange(chatID)
	return &msg, nil
}

// EditMessage rewrites a message's content. Allowed for the sender and the
// chat owner.
func (m *ChatManager) EditMessage(messageID, actorID uint, content string) (*models.ChatMessage, error) {
	if content == "" {
		return nil, ErrInvalidInput
	}
	msg, err := m.authorizeMessageChange(messageID, actorID)
	if err != nil {
		return nil, err
	}

	if err := m.db.Model(msg).Updates(map[string]any{
		"content": content,
		"edited":  true,
	}).Error; err != nil {
		zap.L().Error("failed to edit message", zap.Uint("message_id", messageID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	msg.Content = content
	msg.Edited = true

	m.broker.Publish(livequery.ChatMessages(msg.ChatID))
	return msg, nil
}

// DeleteMessage removes a message. Allowed for the sender and the chat owner.
func (m *ChatManager) DeleteMessage(messageID, actorID uint) error {
	msg, err := m.authorizeMessageChange(messageID, actorID)
	if err != nil {
		return err
	}
	if err := m.db.Delete(msg).Error; err != nil {
		zap.L().Error("failed to delete message", zap.Uint("message_id", messageID), zap.Error(err))
		return ErrStoreUnavailable
	}
	m.broker.Publish(livequery.ChatMessages(msg.ChatID))
	return nil
}

func (m *ChatManager) authorizeMessageChange(messageID, actorID uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := m.db.First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrStoreUnavailable
	}
	if msg.SenderID == actorID {
		return &msg, nil
	}
	var chat models.GroupChat
	if err := m.db.First(&chat, msg.ChatID).Error; err != nil {
		return nil, ErrStoreUnavailable
	}
	if chat.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	return &msg, nil
}

// MarkRead advances the member's last-read cursor. The watermark is the
// acknowledged message's own timestamp, not the acknowledgement time, so a
// message that lands while the acknowledgement is in flight stays unread.
// The cursor only moves forward in practice (last-write-wins is fine for a
// monotonically advancing pointer); the call never rejects a stale cursor.
func (m *ChatManager) MarkRead(chatID, userID, messageID uint) error {
	var msg models.ChatMessage
	if err := m.db.Where("id = ? AND chat_id = ?", messageID, chatID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		zap.L().Error("failed to load cursor message", zap.Uint("chat_id", chatID), zap.Uint("message_id", messageID), zap.Error(err))
		return ErrStoreUnavailable
	}

	res := m.db.Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Updates(map[string]any{
			"last_read_message_id": messageID,
			"last_read_at":         msg.CreatedAt,
		})
	if res.Error != nil {
		zap.L().Error("failed to mark read", zap.Uint("chat_id", chatID), zap.Uint("user_id", userID), zap.Error(res.Error))
		return ErrStoreUnavailable
	}
	if res.RowsAffected == 0 {
		return ErrNotParticipant
	}
	m.broker.Publish(livequery.UserChats(userID))
	return nil
}

// MyChats lists the active chats the user belongs to, newest activity first,
// with the user's unread count for each.
func (m *ChatManager) MyChats(userID uint) ([]ChatListEntry, error) {
	var memberships []models.ChatMember
	if err := m.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		zap.L().Error("failed to fetch memberships", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	if len(memberships) == 0 {
		return []ChatListEntry{}, nil
	}

	chatIDs := lo.Map(memberships, func(mem models.ChatMember, _ int) uint { return mem.ChatID })
	byChat := lo.KeyBy(memberships, func(mem models.ChatMember) uint { return mem.ChatID })

	var chats []models.GroupChat
	if err := m.db.Preload("Members").
		Where("id IN ? AND active = ?", chatIDs, true).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		zap.L().Error("failed to fetch chats", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	entries := make([]ChatListEntry, 0, len(chats))
	for _, chat := range chats {
		mem := byChat[chat.ID]
		count, err := m.unread.CountForChatMember(chat.ID, userID)
		if err != nil {
			zap.L().Warn("failed to count unread", zap.Uint("chat_id", chat.ID), zap.Uint("user_id", userID), zap.Error(err))
			count = 0
		}
		entries = append(entries, ChatListEntry{
			Chat:        chat,
			UnreadCount: count,
			LastReadAt:  mem.LastReadAt,
		})
	}
	return entries, nil
}

// Messages returns a bounded window of the newest messages in chronological
// order.
func (m *ChatManager) Messages(chatID uint, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	if err := m.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(normalizeWindow(limit)).
		Find(&msgs).Error; err != nil {
		zap.L().Error("failed to fetch chat messages", zap.Uint("chat_id", chatID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	reverseMessages(msgs)
	return msgs, nil
}

// Unread exposes the counter to callers that only have the manager.
func (m *ChatManager) Unread() *UnreadCounter {
	return m.unread
}

// publishRosterChange refreshes every member's chat list.
func (m *ChatManager) publishRosterChange(chatID uint) {
	var members []models.ChatMember
	if err := m.db.Where("chat_id = ?", chatID).Find(&members).Error; err != nil {
		zap.L().Warn("failed to load roster for publish", zap.Uint("chat_id", chatID), zap.Error(err))
		return
	}
	topics := lo.Map(members, func(mem models.ChatMember, _ int) livequery.Topic {
		return livequery.UserChats(mem.UserID)
	})
	m.broker.Publish(topics...)
}
