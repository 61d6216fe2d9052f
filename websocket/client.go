package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/TeamUpApp/teamup_backend/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 10000
)

// Client represents a connected websocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	user models.User

	// Active live-query subscriptions keyed by the client-facing topic
	// name. Resubscribing to the same name replaces the old handle.
	subs    map[string]subscription
	subsMux sync.Mutex
}

type subscription struct {
	topic  livequery.Topic
	handle uuid.UUID
}

// Message represents a websocket frame in both directions
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// readPump pumps frames from the websocket connection into the dispatcher
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read error", zap.Uint("user_id", c.user.ID), zap.Error(err))
			}
			break
		}

		HandleIncomingFrame(c, message)
	}
}

// writePump pumps frames from the send channel to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued frames to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendFrame marshals and queues a frame, dropping it if the client's buffer
// is full (the next snapshot carries the full state anyway).
func (c *Client) sendFrame(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		zap.L().Error("failed to marshal frame", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// addSubscription records a broker handle, replacing (and cancelling) any
// previous subscription under the same name.
func (c *Client) addSubscription(name string, topic livequery.Topic, handle uuid.UUID) {
	c.subsMux.Lock()
	defer c.subsMux.Unlock()

	if old, ok := c.subs[name]; ok {
		c.hub.deps.Broker.Unsubscribe(old.topic, old.handle)
	}
	c.subs[name] = subscription{topic: topic, handle: handle}
}

// dropSubscription cancels one subscription by name.
func (c *Client) dropSubscription(name string) {
	c.subsMux.Lock()
	defer c.subsMux.Unlock()

	if sub, ok := c.subs[name]; ok {
		c.hub.deps.Broker.Unsubscribe(sub.topic, sub.handle)
		delete(c.subs, name)
	}
}

// clearSubscriptions cancels everything; called when the client unregisters
// so no notification handlers leak past the connection.
func (c *Client) clearSubscriptions() {
	c.subsMux.Lock()
	defer c.subsMux.Unlock()

	for name, sub := range c.subs {
		c.hub.deps.Broker.Unsubscribe(sub.topic, sub.handle)
		delete(c.subs, name)
	}
}
