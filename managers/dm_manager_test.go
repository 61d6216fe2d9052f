package managers_test

import (
	"testing"

	"github.com/TeamUpApp/teamup_backend/managers"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDMIdempotent(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "quick question first")
	require.NoError(t, err)

	first, err := e.dms.Open(req.ID, alice)
	require.NoError(t, err)
	assert.True(t, first.Active)
	assert.Equal(t, "VR Study", first.ProjectName)

	// Either party reopening gets the same conversation.
	second, err := e.dms.Open(req.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	e.db.Model(&models.RequestDM{}).Where("request_id = ?", req.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var stored models.JoinRequest
	require.NoError(t, e.db.First(&stored, req.ID).Error)
	assert.True(t, stored.HasDM)
}

func TestOpenDMParticipantsSorted(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(alice, "Rust Game")

	// Requester has the higher id here, so they land in slot B.
	req, err := e.requests.Create(bob, post.ID, "")
	require.NoError(t, err)

	dm, err := e.dms.Open(req.ID, bob)
	require.NoError(t, err)
	assert.Less(t, dm.UserAID, dm.UserBID)
	assert.Equal(t, alice.ID, dm.UserAID)
	assert.Equal(t, bob.ID, dm.UserBID)
	assert.Equal(t, "Bob", dm.UserBName)
}

func TestOpenDMAccessControl(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	mallory := e.fixtures.CreateUser("mallory", "Mallory", "mallory@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)

	_, err = e.dms.Open(req.ID, mallory)
	assert.ErrorIs(t, err, managers.ErrUnauthorized)

	_, err = e.dms.Open(9999, alice)
	assert.ErrorIs(t, err, managers.ErrNotFound)

	// A resolved request can no longer grow a DM.
	_, err = e.requests.Decline(req.ID, bob.ID)
	require.NoError(t, err)
	_, err = e.dms.Open(req.ID, alice)
	assert.ErrorIs(t, err, managers.ErrAlreadyResolved)
}

func TestDMSystemSeedSkipsSummary(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)
	dm, err := e.dms.Open(req.ID, alice)
	require.NoError(t, err)

	// The seeded system message is in the log but not the preview.
	msgs, err := e.dms.Messages(dm.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageSystem, msgs[0].Type)
	assert.Empty(t, dm.LastMessageText)

	_, err = e.dms.SendMessage(dm.ID, alice, "hi Bob!", "")
	require.NoError(t, err)

	refreshed, err := e.dms.ByID(dm.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi Bob!", refreshed.LastMessageText)
	assert.Equal(t, "Alice", refreshed.LastMessageSenderName)
}

func TestDMSendRejectsOutsiderAndClosed(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	mallory := e.fixtures.CreateUser("mallory", "Mallory", "mallory@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)
	dm, err := e.dms.Open(req.ID, alice)
	require.NoError(t, err)

	_, err = e.dms.SendMessage(dm.ID, mallory, "hello?", "")
	assert.ErrorIs(t, err, managers.ErrNotParticipant)

	require.NoError(t, e.dms.CloseForRequest(req.ID))
	_, err = e.dms.SendMessage(dm.ID, alice, "still there?", "")
	assert.ErrorIs(t, err, managers.ErrConversationClosed)
}

func TestCloseForRequestIdempotent(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	post := e.fixtures.CreatePost(bob, "VR Study")

	req, err := e.requests.Create(alice, post.ID, "")
	require.NoError(t, err)

	// No DM yet: closing is a quiet no-op.
	require.NoError(t, e.dms.CloseForRequest(req.ID))

	dm, err := e.dms.Open(req.ID, alice)
	require.NoError(t, err)
	require.NoError(t, e.dms.CloseForRequest(req.ID))
	require.NoError(t, e.dms.CloseForRequest(req.ID))

	closed, err := e.dms.ByID(dm.ID)
	require.NoError(t, err)
	assert.False(t, closed.Active)

	// Unread tracking is deliberately off for DMs.
	assert.Zero(t, e.chats.Unread().CountForDM(dm.ID, alice.ID))
}

func TestActiveForExcludesClosed(t *testing.T) {
	e := setup(t)
	alice := e.fixtures.CreateUser("alice", "Alice", "alice@example.com")
	bob := e.fixtures.CreateUser("bob", "Bob", "bob@example.com")
	postOne := e.fixtures.CreatePost(bob, "VR Study")
	postTwo := e.fixtures.CreatePost(bob, "Rust Game")

	reqOne, err := e.requests.Create(alice, postOne.ID, "")
	require.NoError(t, err)
	reqTwo, err := e.requests.Create(alice, postTwo.ID, "")
	require.NoError(t, err)

	dmOne, err := e.dms.Open(reqOne.ID, alice)
	require.NoError(t, err)
	_, err = e.dms.Open(reqTwo.ID, alice)
	require.NoError(t, err)

	require.NoError(t, e.dms.CloseForRequest(reqOne.ID))

	for _, u := range []models.User{alice, bob} {
		active, err := e.dms.ActiveFor(u.ID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, reqTwo.ID, active[0].RequestID)
	}

	// The closed one stays reachable by id for its history.
	_, err = e.dms.ByID(dmOne.ID)
	require.NoError(t, err)
}
