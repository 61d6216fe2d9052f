package reconcile_test

import (
	"testing"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/managers"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/TeamUpApp/teamup_backend/reconcile"
	"github.com/TeamUpApp/teamup_backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	fixtures *testutil.Fixtures
	requests *managers.RequestManager
	chats    *managers.ChatManager
	dms      *managers.DMManager
	sweeper  *reconcile.Reconciler
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	broker := livequery.NewBroker()
	chats := managers.NewChatManager(db, broker)
	dms := managers.NewDMManager(db, broker)
	return &env{
		db:       db,
		fixtures: testutil.NewFixtures(t, db),
		requests: managers.NewRequestManager(db, broker, chats, dms),
		chats:    chats,
		dms:      dms,
		sweeper:  reconcile.New(db, chats, dms),
	}
}

func TestSweepAppliesMissingMembership(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	// An accept whose chat admission never landed.
	req := models.JoinRequest{
		ProjectID:      post.ID,
		ProjectName:    post.Title,
		RequesterID:    alice.ID,
		RequesterName:  alice.DisplayName,
		RequesterEmail: alice.Email,
		RecipientID:    bob.ID,
		Status:         models.RequestAccepted,
	}
	require.NoError(t, e.db.Create(&req).Error)

	e.sweeper.Sweep()

	chat, err := e.chats.ByProject(post.ID)
	require.NoError(t, err)
	require.Len(t, chat.Members, 2)

	ok, err := e.chats.IsMember(chat.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var stored models.JoinRequest
	require.NoError(t, e.db.First(&stored, req.ID).Error)
	assert.True(t, stored.MembershipApplied)

	// A second sweep finds nothing left to repair.
	e.sweeper.Sweep()
	refreshed, err := e.chats.ByProject(post.ID)
	require.NoError(t, err)
	assert.Len(t, refreshed.Members, 2)
}

func TestSweepClosesStaleDMs(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)
	dm, err := e.dms.Open(req.ID, alice)
	require.NoError(t, err)

	// Resolve behind the manager's back so the DM close never ran.
	require.NoError(t, e.db.Model(&models.JoinRequest{}).Where("id = ?", req.ID).
		Updates(map[string]any{"status": models.RequestDeclined, "membership_applied": true}).Error)

	e.sweeper.Sweep()

	closed, err := e.dms.ByID(dm.ID)
	require.NoError(t, err)
	assert.False(t, closed.Active)
}

func TestSweepMergesDuplicatePendingRequests(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	oldest, err := e.requests.Create(alice, post.ID, "first")
	require.NoError(t, err)

	// Simulate a near-simultaneous submission through another instance by
	// inserting a second identical pending row directly.
	dup := models.JoinRequest{
		ProjectID:      post.ID,
		ProjectName:    post.Title,
		RequesterID:    alice.ID,
		RequesterName:  alice.DisplayName,
		RequesterEmail: alice.Email,
		RecipientID:    bob.ID,
		Message:        "second",
		Status:         models.RequestPending,
	}
	require.NoError(t, e.db.Create(&dup).Error)

	e.sweeper.Sweep()

	var remaining []models.JoinRequest
	require.NoError(t, e.db.Where("requester_id = ? AND project_id = ?", alice.ID, post.ID).
		Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, oldest.ID, remaining[0].ID)

	// Requests to different projects are never merged.
	other := e.fixtures.CreatePost(bob, "Rust Game")
	_, err = e.requests.Create(alice, other.ID, "")
	require.NoError(t, err)
	e.sweeper.Sweep()

	var count int64
	e.db.Model(&models.JoinRequest{}).Where("requester_id = ? AND status = ?", alice.ID, models.RequestPending).Count(&count)
	assert.EqualValues(t, 2, count)
}
