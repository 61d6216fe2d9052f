package livequery

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Topic names one live query surface. Managers publish a topic after every
// mutation that can change its result set; subscribers re-run their query
// and deliver the full current snapshot (never a diff).
type Topic string

func RequestInbox(userID uint) Topic  { return Topic(fmt.Sprintf("requests:inbox:%d", userID)) }
func RequestsSent(userID uint) Topic  { return Topic(fmt.Sprintf("requests:sent:%d", userID)) }
func UserChats(userID uint) Topic     { return Topic(fmt.Sprintf("chats:%d", userID)) }
func ChatMessages(chatID uint) Topic  { return Topic(fmt.Sprintf("chat_messages:%d", chatID)) }
func UserDMs(userID uint) Topic       { return Topic(fmt.Sprintf("dms:%d", userID)) }
func DMMessages(dmID uint) Topic      { return Topic(fmt.Sprintf("dm_messages:%d", dmID)) }

// Broker is an in-process change notifier: the store-mediated propagation
// path between managers and connected clients. Callbacks receive no payload;
// they are expected to re-query and push a snapshot, so a missed or
// reordered notification is self-healing on the next one.
type Broker struct {
	mu   sync.RWMutex
	subs map[Topic]map[uuid.UUID]func(Topic)
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[Topic]map[uuid.UUID]func(Topic))}
}

// Subscribe registers fn for t and returns a handle used to cancel it.
func (b *Broker) Subscribe(t Topic, fn func(Topic)) uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New()
	if b.subs[t] == nil {
		b.subs[t] = make(map[uuid.UUID]func(Topic))
	}
	b.subs[t][id] = fn
	return id
}

// Unsubscribe removes the handle. Unknown handles are a no-op.
func (b *Broker) Unsubscribe(t Topic, id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.subs[t]; ok {
		delete(m, id)
		if len(m) == 0 {
			delete(b.subs, t)
		}
	}
}

// Publish invokes every callback registered for the topics. Callbacks run
// on their own goroutines so a slow subscriber cannot stall a mutation path.
func (b *Broker) Publish(topics ...Topic) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, t := range topics {
		for _, fn := range b.subs[t] {
			go fn(t)
		}
	}
}
