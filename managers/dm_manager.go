package managers

import (
	"errors"
	"fmt"
	"time"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DMManager owns the temporary two-party conversations tied to pending join
// requests. A DM is created lazily when either party opts to negotiate and
// is deactivated (never deleted) when the parent request resolves.
type DMManager struct {
	db     *gorm.DB
	broker *livequery.Broker
}

func NewDMManager(db *gorm.DB, broker *livequery.Broker) *DMManager {
	return &DMManager{db: db, broker: broker}
}

// Open returns the active DM for the request, creating it if absent. The
// caller must be one of the two parties and the request must still be
// pending. On creation the parent request is flagged has_dm and a system
// message describing the DM's temporary nature is seeded.
func (m *DMManager) Open(requestID uint, opener models.User) (*models.RequestDM, error) {
	var req models.JoinRequest
	if err := m.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to load request for DM", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	if opener.ID != req.RequesterID && opener.ID != req.RecipientID {
		return nil, ErrUnauthorized
	}
	if req.Resolved() {
		return nil, ErrAlreadyResolved
	}

	var recipient models.User
	if err := m.db.First(&recipient, req.RecipientID).Error; err != nil {
		zap.L().Error("failed to load recipient for DM", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	var dm models.RequestDM
	err := m.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("request_id = ?", requestID).First(&dm).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		dm = newRequestDM(req, recipient)
		if err := tx.Create(&dm).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.JoinRequest{}).Where("id = ?", requestID).
			Update("has_dm", true).Error; err != nil {
			return err
		}

		seed := models.DMMessage{
			DMID:       dm.ID,
			SenderName: "system",
			Content:    fmt.Sprintf("This is a temporary chat for the join request to %q. It closes when the request is resolved.", req.ProjectName),
			Type:       models.MessageSystem,
			CreatedAt:  time.Now().UTC(),
		}
		return tx.Create(&seed).Error
	})
	if err != nil {
		zap.L().Error("failed to open DM", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	m.broker.Publish(livequery.UserDMs(dm.UserAID), livequery.UserDMs(dm.UserBID))
	return &dm, nil
}

// newRequestDM builds the DM document with sorted participants and
// denormalized participant snapshots.
func newRequestDM(req models.JoinRequest, recipient models.User) models.RequestDM {
	dm := models.RequestDM{
		RequestID:   req.ID,
		ProjectID:   req.ProjectID,
		ProjectName: req.ProjectName,
		Active:      true,
	}
	if req.RequesterID < req.RecipientID {
		dm.UserAID, dm.UserAName, dm.UserAEmail = req.RequesterID, req.RequesterName, req.RequesterEmail
		dm.UserBID, dm.UserBName, dm.UserBEmail = recipient.ID, recipient.DisplayName, recipient.Email
	} else {
		dm.UserAID, dm.UserAName, dm.UserAEmail = recipient.ID, recipient.DisplayName, recipient.Email
		dm.UserBID, dm.UserBName, dm.UserBEmail = req.RequesterID, req.RequesterName, req.RequesterEmail
	}
	return dm
}

// SendMessage appends a message to an active DM. System-typed messages do
// not touch the last-message summary, so the conversation preview is never
// the boilerplate opener.
func (m *DMManager) SendMessage(dmID uint, sender models.User, content, msgType string) (*models.DMMessage, error) {
	if content == "" {
		return nil, ErrInvalidInput
	}
	if msgType == "" {
		msgType = models.MessageText
	}

	var dm models.RequestDM
	if err := m.db.First(&dm, dmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to load DM", zap.Uint("dm_id", dmID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	if !dm.Active {
		return nil, ErrConversationClosed
	}
	if !dm.HasParticipant(sender.ID) {
		return nil, ErrNotParticipant
	}

	now := time.Now().UTC()
	msg := models.DMMessage{
		DMID:       dmID,
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Content:    content,
		Type:       msgType,
		CreatedAt:  now,
	}
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if msgType == models.MessageSystem {
			return nil
		}
		return updateLastMessage(tx, &models.RequestDM{}, dmID, content, sender.DisplayName, now)
	})
	if err != nil {
		zap.L().Error("failed to send DM message", zap.Uint("dm_id", dmID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	m.broker.Publish(livequery.DMMessages(dmID), livequery.UserDMs(dm.UserAID), livequery.UserDMs(dm.UserBID))
	return &msg, nil
}

// CloseForRequest deactivates the DM tied to a request. No DM is a
// successful no-op; deactivation is one-way. Message history is retained
// and stays reachable by direct id lookup.
func (m *DMManager) CloseForRequest(requestID uint) error {
	var dm models.RequestDM
	err := m.db.Where("request_id = ? AND active = ?", requestID, true).First(&dm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		zap.L().Error("failed to look up DM for close", zap.Uint("request_id", requestID), zap.Error(err))
		return ErrStoreUnavailable
	}

	if err := m.db.Model(&dm).Update("active", false).Error; err != nil {
		zap.L().Error("failed to close DM", zap.Uint("dm_id", dm.ID), zap.Error(err))
		return ErrStoreUnavailable
	}

	m.broker.Publish(livequery.UserDMs(dm.UserAID), livequery.UserDMs(dm.UserBID))
	return nil
}

// ActiveFor lists the user's active DMs, newest activity first. Closed DMs
// never appear here.
func (m *DMManager) ActiveFor(userID uint) ([]models.RequestDM, error) {
	var dms []models.RequestDM
	if err := m.db.
		Where("(user_a_id = ? OR user_b_id = ?) AND active = ?", userID, userID, true).
		Order("updated_at DESC").
		Find(&dms).Error; err != nil {
		zap.L().Error("failed to list DMs", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	return dms, nil
}

// ByID loads a DM regardless of its active flag (closed DMs stay readable
// for audit by their participants).
func (m *DMManager) ByID(dmID uint) (*models.RequestDM, error) {
	var dm models.RequestDM
	if err := m.db.First(&dm, dmID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrStoreUnavailable
	}
	return &dm, nil
}

// ByRequest loads the DM tied to a request, active or not.
func (m *DMManager) ByRequest(requestID uint) (*models.RequestDM, error) {
	var dm models.RequestDM
	if err := m.db.Where("request_id = ?", requestID).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrStoreUnavailable
	}
	return &dm, nil
}

// Messages returns a bounded window of the newest messages in chronological
// order.
func (m *DMManager) Messages(dmID uint, limit int) ([]models.DMMessage, error) {
	var msgs []models.DMMessage
	if err := m.db.Where("dm_id = ?", dmID).
		Order("created_at DESC").
		Limit(normalizeWindow(limit)).
		Find(&msgs).Error; err != nil {
		zap.L().Error("failed to fetch DM messages", zap.Uint("dm_id", dmID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	reverseMessages(msgs)
	return msgs, nil
}
