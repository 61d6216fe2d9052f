package livequery_test

import (
	"testing"
	"time"

	"github.com/TeamUpApp/teamup_backend/livequery"
	"github.com/stretchr/testify/assert"
)

func TestSubscribePublish(t *testing.T) {
	b := livequery.NewBroker()
	topic := livequery.UserChats(42)

	got := make(chan livequery.Topic, 1)
	b.Subscribe(topic, func(tp livequery.Topic) { got <- tp })

	b.Publish(topic)

	select {
	case tp := <-got:
		assert.Equal(t, topic, tp)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestPublishOnlyMatchingTopic(t *testing.T) {
	b := livequery.NewBroker()

	got := make(chan livequery.Topic, 1)
	b.Subscribe(livequery.ChatMessages(1), func(tp livequery.Topic) { got <- tp })

	b.Publish(livequery.ChatMessages(2), livequery.DMMessages(1))

	select {
	case tp := <-got:
		t.Fatalf("unexpected delivery for %s", tp)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := livequery.NewBroker()
	topic := livequery.RequestInbox(7)

	got := make(chan livequery.Topic, 4)
	id := b.Subscribe(topic, func(tp livequery.Topic) { got <- tp })

	b.Publish(topic)
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	b.Unsubscribe(topic, id)
	b.Publish(topic)

	select {
	case <-got:
		t.Fatal("delivery after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMultipleSubscribersEachNotified(t *testing.T) {
	b := livequery.NewBroker()
	topic := livequery.UserDMs(3)

	first := make(chan livequery.Topic, 1)
	second := make(chan livequery.Topic, 1)
	b.Subscribe(topic, func(tp livequery.Topic) { first <- tp })
	b.Subscribe(topic, func(tp livequery.Topic) { second <- tp })

	b.Publish(topic)

	for _, ch := range []chan livequery.Topic{first, second} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("a subscriber was never notified")
		}
	}
}
