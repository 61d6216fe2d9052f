package websocket

import (
	"errors"
	"strconv"
	"strings"

	"github.com/TeamUpApp/teamup_backend/livequery"
)

// Client-facing topic names:
//
//	requests:inbox        pending requests addressed to me
//	requests:sent         pending requests I sent
//	chats                 my group chats with unread counts
//	dms                   my active DMs
//	chat_messages:<id>    message window of one chat (members only)
//	dm_messages:<id>      message window of one DM (participants only)
//
// Every delivery is the full current result set for the topic, re-queried
// on each change notification.

var errUnknownTopic = errors.New("unknown topic")

// snapshotFunc re-runs the live query and returns its full result set.
type snapshotFunc func() (interface{}, error)

// resolveTopic maps a client-facing topic name onto the broker topic and
// the query that feeds it, enforcing access along the way.
func resolveTopic(c *Client, name string) (livequery.Topic, snapshotFunc, error) {
	deps := c.hub.deps
	userID := c.user.ID

	switch {
	case name == "requests:inbox":
		return livequery.RequestInbox(userID), func() (interface{}, error) {
			return deps.Requests.PendingFor(userID)
		}, nil

	case name == "requests:sent":
		return livequery.RequestsSent(userID), func() (interface{}, error) {
			return deps.Requests.SentBy(userID)
		}, nil

	case name == "chats":
		return livequery.UserChats(userID), func() (interface{}, error) {
			return deps.Chats.MyChats(userID)
		}, nil

	case name == "dms":
		return livequery.UserDMs(userID), func() (interface{}, error) {
			return deps.DMs.ActiveFor(userID)
		}, nil

	case strings.HasPrefix(name, "chat_messages:"):
		chatID, err := parseTopicID(name)
		if err != nil {
			return "", nil, err
		}
		ok, err := deps.Chats.IsMember(chatID, userID)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, errors.New("you don't have access to this chat")
		}
		return livequery.ChatMessages(chatID), func() (interface{}, error) {
			return deps.Chats.Messages(chatID, 0)
		}, nil

	case strings.HasPrefix(name, "dm_messages:"):
		dmID, err := parseTopicID(name)
		if err != nil {
			return "", nil, err
		}
		dm, err := deps.DMs.ByID(dmID)
		if err != nil {
			return "", nil, err
		}
		if !dm.HasParticipant(userID) {
			return "", nil, errors.New("you don't have access to this DM")
		}
		return livequery.DMMessages(dmID), func() (interface{}, error) {
			return deps.DMs.Messages(dmID, 0)
		}, nil
	}

	return "", nil, errUnknownTopic
}

// subscribe starts a live query for the client: one immediate snapshot,
// then one on every change notification until unsubscribed.
func subscribe(c *Client, name string) {
	topic, snap, err := resolveTopic(c, name)
	if err != nil {
		sendError(c, err.Error())
		return
	}

	deliver := func(livequery.Topic) {
		data, err := snap()
		if err != nil {
			return
		}
		c.sendFrame(Message{Type: "snapshot", Payload: snapshotPayload{Topic: name, Data: data}})
	}

	handle := c.hub.deps.Broker.Subscribe(topic, deliver)
	c.addSubscription(name, topic, handle)
	deliver(topic)
}

type snapshotPayload struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

func parseTopicID(name string) (uint, error) {
	idx := strings.LastIndexByte(name, ':')
	id, err := strconv.ParseUint(name[idx+1:], 10, 32)
	if err != nil {
		return 0, errors.New("invalid topic id")
	}
	return uint(id), nil
}
