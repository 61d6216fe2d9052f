package managers_test

import (
	"testing"
	"time"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/managers"
	"github.com/TeamUpApp/teamup_backend/models"
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
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	broker := livequery.NewBroker()
	chats := managers.NewChatManager(db, broker)
	dms := managers.NewDMManager(db, broker)
	requests := managers.NewRequestManager(db, broker, chats, dms)
	return &env{
		db:       db,
		fixtures: testutil.NewFixtures(t, db),
		requests: requests,
		chats:    chats,
		dms:      dms,
	}
}

func TestCreateRequestIdempotent(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	first, err := e.requests.Create(alice, post.ID, "I'd love to help")
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Equal(t, models.RequestPending, first.Status)
	assert.Equal(t, bob.ID, first.RecipientID)
	assert.Equal(t, "VR Study", first.ProjectName)
	assert.Equal(t, "Alice", first.RequesterName)

	second, err := e.requests.Create(alice, post.ID, "sent again by accident")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	e.db.Model(&models.JoinRequest{}).Where("requester_id = ? AND project_id = ?", alice.ID, post.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateRequestProjectNotFound(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")

	_, err := e.requests.Create(alice, 9999, "hello")
	assert.ErrorIs(t, err, managers.ErrNotFound)
}

func TestAcceptAdmitsRequesterToProjectChat(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "count me in")
	require.NoError(t, err)

	accepted, err := e.requests.Accept(req.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, accepted.Status)

	chat, err := e.chats.ByProject(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "VR Study", chat.ProjectName)
	assert.Equal(t, bob.ID, chat.OwnerID)
	require.Len(t, chat.Members, 2)

	roles := map[uint]string{}
	for _, mem := range chat.Members {
		roles[mem.UserID] = mem.Role
	}
	assert.Equal(t, models.RoleOwner, roles[bob.ID])
	assert.Equal(t, models.RoleMember, roles[alice.ID])

	var stored models.JoinRequest
	require.NoError(t, e.db.First(&stored, req.ID).Error)
	assert.True(t, stored.MembershipApplied)

	// The new member can post right away and the chat summary reflects it.
	_, err = e.chats.SendMessage(chat.ID, alice, "Thanks for having me!", "")
	require.NoError(t, err)

	refreshed, err := e.chats.ByID(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thanks for having me!", refreshed.LastMessageText)
	assert.Equal(t, "Alice", refreshed.LastMessageSenderName)
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	mallory := e.fixtures.CreateUser("mallory", "Mallory", "mallory@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)

	_, err = e.requests.Accept(req.ID, mallory.ID)
	assert.ErrorIs(t, err, managers.ErrUnauthorized)
	_, err = e.requests.Accept(req.ID, alice.ID)
	assert.ErrorIs(t, err, managers.ErrUnauthorized)

	var stored models.JoinRequest
	require.NoError(t, e.db.First(&stored, req.ID).Error)
	assert.Equal(t, models.RequestPending, stored.Status)
}

func TestTerminalStateIsFinal(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)

	_, err = e.requests.Accept(req.ID, bob.ID)
	require.NoError(t, err)

	_, err = e.requests.Decline(req.ID, bob.ID)
	assert.ErrorIs(t, err, managers.ErrAlreadyResolved)
	_, err = e.requests.Accept(req.ID, bob.ID)
	assert.ErrorIs(t, err, managers.ErrAlreadyResolved)

	var stored models.JoinRequest
	require.NoError(t, e.db.First(&stored, req.ID).Error)
	assert.Equal(t, models.RequestAccepted, stored.Status)
}

func TestResolveRefreshesUpdatedAt(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	declined, err := e.requests.Decline(req.ID, bob.ID)
	require.NoError(t, err)

	// The returned request carries the transition time, not the creation time.
	assert.True(t, declined.UpdatedAt.After(declined.CreatedAt))

	var stored models.JoinRequest
	require.NoError(t, e.db.First(&stored, req.ID).Error)
	assert.WithinDuration(t, stored.UpdatedAt, declined.UpdatedAt, time.Millisecond)
}

func TestDeclineClosesNegotiationDM(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "can we talk first?")
	require.NoError(t, err)

	dm, err := e.dms.Open(req.ID, bob)
	require.NoError(t, err)
	_, err = e.dms.SendMessage(dm.ID, bob, "what's your availability?", "")
	require.NoError(t, err)
	_, err = e.dms.SendMessage(dm.ID, alice, "evenings mostly", "")
	require.NoError(t, err)

	_, err = e.requests.Decline(req.ID, bob.ID)
	require.NoError(t, err)

	closed, err := e.dms.ByRequest(req.ID)
	require.NoError(t, err)
	assert.False(t, closed.Active)

	for _, u := range []models.User{alice, bob} {
		active, err := e.dms.ActiveFor(u.ID)
		require.NoError(t, err)
		assert.Empty(t, active)
	}

	// History stays readable after the close.
	msgs, err := e.dms.Messages(dm.ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 3) // system seed plus the two exchanged

	// Declining never creates a chat membership.
	_, err = e.chats.ByProject(post.ID)
	assert.ErrorIs(t, err, managers.ErrNotFound)
}

func TestAcceptReusesExistingProjectChat(t *testing.T) {
	e := setup(t)
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	carol := e.fixtures.CreateUser("carol", "Carol", "carol@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	reqA, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)
	reqC, err := e.requests.Create(carol, post.ID, "")
	require.NoError(t, err)

	_, err = e.requests.Accept(reqA.ID, bob.ID)
	require.NoError(t, err)
	_, err = e.requests.Accept(reqC.ID, bob.ID)
	require.NoError(t, err)

	var chatCount int64
	e.db.Model(&models.GroupChat{}).Where("project_id = ?", post.ID).Count(&chatCount)
	assert.EqualValues(t, 1, chatCount)

	chat, err := e.chats.ByProject(post.ID)
	require.NoError(t, err)
	assert.Len(t, chat.Members, 3)
}

func TestPendingAndSentListings(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	postOne := e.fixtures.CreatePost(bob, "VR Study")
	postTwo := e.fixtures.CreatePost(bob, "Rust Game")

	reqOne, err := e.requests.Create(alice, postOne.ID, "")
	require.NoError(t, err)
	reqTwo, err := e.requests.Create(alice, postTwo.ID, "")
	require.NoError(t, err)

	inbox, err := e.requests.PendingFor(bob.ID)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)

	sent, err := e.requests.SentBy(alice.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 2)

	// Resolved requests drop out of both listings.
	_, err = e.requests.Accept(reqOne.ID, bob.ID)
	require.NoError(t, err)

	inbox, err = e.requests.PendingFor(bob.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, reqTwo.ID, inbox[0].ID)

	sent, err = e.requests.SentBy(alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, reqTwo.ID, sent[0].ID)
}
