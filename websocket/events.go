package websocket

import (
	"encoding/json"

	"go.uber.org/zap"
)

// TopicPayload names a subscription topic
type TopicPayload struct {
	Topic string `json:"topic"`
}

// ChatMessagePayload is an inbound chat send
type ChatMessagePayload struct {
	ChatID  uint   `json:"chat_id"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// DMMessagePayload is an inbound DM send
type DMMessagePayload struct {
	DMID    uint   `json:"dm_id"`
	Content string `json:"content"`
}

// MarkReadPayload advances a read cursor
type MarkReadPayload struct {
	ChatID    uint `json:"chat_id"`
	MessageID uint `json:"message_id"`
}

// OpenDMPayload opens the negotiation DM for a request
type OpenDMPayload struct {
	RequestID uint `json:"request_id"`
}

// HandleIncomingFrame processes one inbound WebSocket frame. Mutations go
// through the managers; the results reach this and every other interested
// client through snapshot deliveries, never through a direct reply.
func HandleIncomingFrame(client *Client, frameBytes []byte) {
	var msg Message
	if err := json.Unmarshal(frameBytes, &msg); err != nil {
		zap.L().Warn("unparseable websocket frame", zap.Uint("user_id", client.user.ID), zap.Error(err))
		return
	}

	switch msg.Type {
	case "subscribe":
		var payload TopicPayload
		if !decodePayload(client, msg.Payload, &payload) {
			return
		}
		subscribe(client, payload.Topic)

	case "unsubscribe":
		var payload TopicPayload
		if !decodePayload(client, msg.Payload, &payload) {
			return
		}
		client.dropSubscription(payload.Topic)

	case "message":
		var payload ChatMessagePayload
		if !decodePayload(client, msg.Payload, &payload) {
			return
		}
		if _, err := client.hub.deps.Chats.SendMessage(payload.ChatID, client.user, payload.Content, payload.Type); err != nil {
			sendError(client, err.Error())
		}

	case "dm_message":
		var payload DMMessagePayload
		if !decodePayload(client, msg.Payload, &payload) {
			return
		}
		if _, err := client.hub.deps.DMs.SendMessage(payload.DMID, client.user, payload.Content, ""); err != nil {
			sendError(client, err.Error())
		}

	case "mark_read":
		var payload MarkReadPayload
		if !decodePayload(client, msg.Payload, &payload) {
			return
		}
		if err := client.hub.deps.Chats.MarkRead(payload.ChatID, client.user.ID, payload.MessageID); err != nil {
			sendError(client, err.Error())
		}

	case "open_dm":
		var payload OpenDMPayload
		if !decodePayload(client, msg.Payload, &payload) {
			return
		}
		if _, err := client.hub.deps.DMs.Open(payload.RequestID, client.user); err != nil {
			sendError(client, err.Error())
		}

	default:
		sendError(client, "unknown frame type")
	}
}

// decodePayload round-trips the loosely-typed payload into its concrete
// shape, reporting a frame error to the client on mismatch.
func decodePayload(client *Client, payload interface{}, out interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		sendError(client, "invalid payload")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		sendError(client, "invalid payload")
		return false
	}
	return true
}

func sendError(client *Client, message string) {
	client.sendFrame(Message{Type: "error", Payload: message})
}
