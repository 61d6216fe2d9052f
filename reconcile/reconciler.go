package reconcile

import (
	"os"

	"github.com/TeamUpApp/teamup_backend/managers"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler is the periodic repair pass behind the best-effort parts of
// the request lifecycle. The cross-client races it cleans up:
//
//   - accepted requests whose group chat admission failed mid-accept
//     (membership_applied still false)
//   - DMs still active although their parent request resolved
//   - duplicate pending requests created by near-simultaneous submissions
//     through different server instances
//
// Each sweep is idempotent, so overlapping or repeated runs are harmless.
type Reconciler struct {
	db    *gorm.DB
	chats *managers.ChatManager
	dms   *managers.DMManager
	cron  *cron.Cron
}

func New(db *gorm.DB, chats *managers.ChatManager, dms *managers.DMManager) *Reconciler {
	return &Reconciler{db: db, chats: chats, dms: dms, cron: cron.New()}
}

// Start schedules the sweep. The interval comes from RECONCILE_INTERVAL
// (cron spec, default every minute).
func (r *Reconciler) Start() error {
	spec := os.Getenv("RECONCILE_INTERVAL")
	if spec == "" {
		spec = "@every 1m"
	}
	if _, err := r.cron.AddFunc(spec, r.Sweep); err != nil {
		return err
	}
	r.cron.Start()
	zap.L().Info("reconciler started", zap.String("interval", spec))
	return nil
}

// Stop halts the schedule; an in-flight sweep finishes.
func (r *Reconciler) Stop() {
	r.cron.Stop()
}

// Sweep runs all repair passes once.
func (r *Reconciler) Sweep() {
	r.applyMissingMemberships()
	r.closeStaleDMs()
	r.mergeDuplicatePendingRequests()
}

// applyMissingMemberships retries the accept side effect for requests that
// committed the accepted status but never got their requester admitted.
func (r *Reconciler) applyMissingMemberships() {
	var reqs []models.JoinRequest
	if err := r.db.Where("status = ? AND membership_applied = ?", models.RequestAccepted, false).
		Find(&reqs).Error; err != nil {
		zap.L().Error("reconcile: failed to list unapplied acceptances", zap.Error(err))
		return
	}

	for _, req := range reqs {
		var post models.ProjectPost
		if err := r.db.First(&post, req.ProjectID).Error; err != nil {
			zap.L().Warn("reconcile: project gone, skipping admission", zap.Uint("request_id", req.ID))
			continue
		}
		var owner models.User
		if err := r.db.First(&owner, req.RecipientID).Error; err != nil {
			zap.L().Warn("reconcile: owner gone, skipping admission", zap.Uint("request_id", req.ID))
			continue
		}

		chat, err := r.chats.FindOrCreateForProject(post, owner)
		if err != nil {
			zap.L().Warn("reconcile: failed to find or create chat", zap.Uint("request_id", req.ID), zap.Error(err))
			continue
		}

		requester := models.User{
			ID:          req.RequesterID,
			DisplayName: req.RequesterName,
			Email:       req.RequesterEmail,
		}
		if err := r.chats.AddMember(chat.ID, requester); err != nil {
			zap.L().Warn("reconcile: failed to add member", zap.Uint("request_id", req.ID), zap.Error(err))
			continue
		}

		if err := r.db.Model(&models.JoinRequest{}).Where("id = ?", req.ID).
			Update("membership_applied", true).Error; err != nil {
			zap.L().Warn("reconcile: failed to mark membership applied", zap.Uint("request_id", req.ID), zap.Error(err))
			continue
		}
		zap.L().Info("reconcile: applied missing membership",
			zap.Uint("request_id", req.ID), zap.Uint("chat_id", chat.ID))
	}
}

// closeStaleDMs deactivates DMs whose parent request reached a terminal
// state without the DM being closed.
func (r *Reconciler) closeStaleDMs() {
	var dms []models.RequestDM
	if err := r.db.
		Joins("JOIN join_requests ON join_requests.id = request_dms.request_id").
		Where("request_dms.active = ? AND join_requests.status <> ?", true, models.RequestPending).
		Find(&dms).Error; err != nil {
		zap.L().Error("reconcile: failed to list stale DMs", zap.Error(err))
		return
	}

	for _, dm := range dms {
		if err := r.dms.CloseForRequest(dm.RequestID); err != nil {
			zap.L().Warn("reconcile: failed to close stale DM", zap.Uint("dm_id", dm.ID), zap.Error(err))
			continue
		}
		zap.L().Info("reconcile: closed stale DM", zap.Uint("dm_id", dm.ID), zap.Uint("request_id", dm.RequestID))
	}
}

// requestKey identifies a logical pending request.
type requestKey struct {
	RequesterID uint
	RecipientID uint
	ProjectID   uint
}

// mergeDuplicatePendingRequests keeps the oldest of any identical pending
// requests and deletes the rest. Duplicates can only arise across server
// instances, where the create transaction does not serialize.
func (r *Reconciler) mergeDuplicatePendingRequests() {
	var pending []models.JoinRequest
	if err := r.db.Where("status = ?", models.RequestPending).
		Order("created_at ASC").
		Find(&pending).Error; err != nil {
		zap.L().Error("reconcile: failed to list pending requests", zap.Error(err))
		return
	}

	groups := lo.GroupBy(pending, func(req models.JoinRequest) requestKey {
		return requestKey{RequesterID: req.RequesterID, RecipientID: req.RecipientID, ProjectID: req.ProjectID}
	})

	for _, reqs := range groups {
		if len(reqs) < 2 {
			continue
		}
		// reqs is ordered oldest-first; the head survives.
		for _, dup := range reqs[1:] {
			if err := r.db.Delete(&models.JoinRequest{}, dup.ID).Error; err != nil {
				zap.L().Warn("reconcile: failed to delete duplicate request", zap.Uint("request_id", dup.ID), zap.Error(err))
				continue
			}
			zap.L().Info("reconcile: merged duplicate pending request",
				zap.Uint("kept", reqs[0].ID), zap.Uint("deleted", dup.ID))
		}
	}
}
