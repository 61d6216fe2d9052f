package managers

import (
	"errors"
	"time"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestManager owns the join-request state machine:
//
//	pending -> accepted (terminal)
//	pending -> declined (terminal)
//
// Terminal transitions use a status-guarded update so a second accept or
// decline on the same request never changes anything. Acceptance carries
// best-effort side effects (close the negotiation DM, admit the requester
// to the project's group chat); the accepted status is the durable outcome
// and a membership_applied marker lets the reconciler retry the admission
// if it failed here.
type RequestManager struct {
	db     *gorm.DB
	broker *livequery.Broker
	chats  *ChatManager
	dms    *DMManager
}

func NewRequestManager(db *gorm.DB, broker *livequery.Broker, chats *ChatManager, dms *DMManager) *RequestManager {
	return &RequestManager{db: db, broker: broker, chats: chats, dms: dms}
}

// Create files a join request from requester to the project's owner. If an
// identical pending request already exists it is returned unchanged, so
// double-taps on the client create nothing. The check and the insert run in
// one transaction; duplicates arriving through separate server instances
// are merged by the reconciler.
func (m *RequestManager) Create(requester models.User, projectID uint, message string) (*models.JoinRequest, error) {
	var post models.ProjectPost
	if err := m.db.First(&post, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to load project", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	var req models.JoinRequest
	err := m.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("requester_id = ? AND recipient_id = ? AND project_id = ? AND status = ?",
			requester.ID, post.OwnerID, post.ID, models.RequestPending).
			First(&req).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		req = models.JoinRequest{
			ProjectID:      post.ID,
			ProjectName:    post.Title,
			RequesterID:    requester.ID,
			RequesterName:  requester.DisplayName,
			RequesterEmail: requester.Email,
			RecipientID:    post.OwnerID,
			Message:        message,
			Status:         models.RequestPending,
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		zap.L().Error("failed to create join request", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	m.broker.Publish(livequery.RequestInbox(post.OwnerID), livequery.RequestsSent(requester.ID))
	return &req, nil
}

// Accept transitions the request to accepted. Only the recipient may accept.
// Side effects after the terminal update, each best-effort: the negotiation
// DM is closed, the project's group chat is found or created, and the
// requester is admitted as a member. A side-effect failure is logged and
// left for the reconciler; it does not roll back the accepted status.
func (m *RequestManager) Accept(requestID, actorID uint) (*models.JoinRequest, error) {
	req, err := m.resolve(requestID, actorID, models.RequestAccepted)
	if err != nil {
		return nil, err
	}

	if err := m.dms.CloseForRequest(requestID); err != nil {
		zap.L().Warn("accept: failed to close DM", zap.Uint("request_id", requestID), zap.Error(err))
	}

	m.applyMembership(req)

	m.broker.Publish(
		livequery.RequestInbox(req.RecipientID),
		livequery.RequestsSent(req.RequesterID),
		livequery.UserChats(req.RequesterID),
	)
	return req, nil
}

// Decline transitions the request to declined and closes any negotiation
// DM. No membership side effects.
func (m *RequestManager) Decline(requestID, actorID uint) (*models.JoinRequest, error) {
	req, err := m.resolve(requestID, actorID, models.RequestDeclined)
	if err != nil {
		return nil, err
	}

	if err := m.dms.CloseForRequest(requestID); err != nil {
		zap.L().Warn("decline: failed to close DM", zap.Uint("request_id", requestID), zap.Error(err))
	}

	m.broker.Publish(livequery.RequestInbox(req.RecipientID), livequery.RequestsSent(req.RequesterID))
	return req, nil
}

// resolve performs the guarded terminal transition shared by Accept and
// Decline.
func (m *RequestManager) resolve(requestID, actorID uint, terminal string) (*models.JoinRequest, error) {
	var req models.JoinRequest
	if err := m.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		zap.L().Error("failed to load request", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	if req.RecipientID != actorID {
		return nil, ErrUnauthorized
	}
	if req.Resolved() {
		return nil, ErrAlreadyResolved
	}

	now := time.Now().UTC()
	res := m.db.Model(&models.JoinRequest{}).
		Where("id = ? AND status = ?", requestID, models.RequestPending).
		Updates(map[string]any{
			"status":     terminal,
			"updated_at": now,
		})
	if res.Error != nil {
		zap.L().Error("failed to update request status", zap.Uint("request_id", requestID), zap.Error(res.Error))
		return nil, ErrStoreUnavailable
	}
	if res.RowsAffected == 0 {
		// Lost a race with another resolution; the terminal state stands.
		return nil, ErrAlreadyResolved
	}

	req.Status = terminal
	req.UpdatedAt = now
	return &req, nil
}

// applyMembership runs the accept side effect: find or create the project's
// chat and admit the requester. On success the request is marked
// membership_applied so the reconciler knows there is nothing left to do.
func (m *RequestManager) applyMembership(req *models.JoinRequest) {
	var post models.ProjectPost
	if err := m.db.First(&post, req.ProjectID).Error; err != nil {
		zap.L().Warn("accept: failed to load project for chat admission",
			zap.Uint("request_id", req.ID), zap.Error(err))
		return
	}
	var owner models.User
	if err := m.db.First(&owner, req.RecipientID).Error; err != nil {
		zap.L().Warn("accept: failed to load owner for chat admission",
			zap.Uint("request_id", req.ID), zap.Error(err))
		return
	}

	chat, err := m.chats.FindOrCreateForProject(post, owner)
	if err != nil {
		zap.L().Warn("accept: failed to find or create chat",
			zap.Uint("request_id", req.ID), zap.Error(err))
		return
	}

	requester := models.User{
		ID:          req.RequesterID,
		DisplayName: req.RequesterName,
		Email:       req.RequesterEmail,
	}
	if err := m.chats.AddMember(chat.ID, requester); err != nil {
		zap.L().Warn("accept: failed to add member",
			zap.Uint("request_id", req.ID), zap.Uint("chat_id", chat.ID), zap.Error(err))
		return
	}

	if err := m.db.Model(&models.JoinRequest{}).Where("id = ?", req.ID).
		Update("membership_applied", true).Error; err != nil {
		zap.L().Warn("accept: failed to mark membership applied",
			zap.Uint("request_id", req.ID), zap.Error(err))
		return
	}
	req.MembershipApplied = true
}

// ByID loads a request.
func (m *RequestManager) ByID(requestID uint) (*models.JoinRequest, error) {
	var req models.JoinRequest
	if err := m.db.Preload("Project").First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrStoreUnavailable
	}
	return &req, nil
}

// PendingFor lists pending requests addressed to the user, newest first.
// The result set is unbounded; accounts with many pending requests get them
// all, which is acceptable at the target scale.
func (m *RequestManager) PendingFor(userID uint) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	if err := m.db.Where("recipient_id = ? AND status = ?", userID, models.RequestPending).
		Order("created_at DESC").
		Preload("Requester").Preload("Project").
		Find(&reqs).Error; err != nil {
		zap.L().Error("failed to fetch inbox", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	return reqs, nil
}

// SentBy lists pending requests the user has sent, newest first.
func (m *RequestManager) SentBy(userID uint) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	if err := m.db.Where("requester_id = ? AND status = ?", userID, models.RequestPending).
		Order("created_at DESC").
		Preload("Recipient").Preload("Project").
		Find(&reqs).Error; err != nil {
		zap.L().Error("failed to fetch sent requests", zap.Uint("user_id", userID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	return reqs, nil
}
