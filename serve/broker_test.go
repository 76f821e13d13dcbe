package serve

import (
	"testing"

	worksona "github.com/worksona/worksona-go"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewEventBroker()

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}
	defer b.Unsubscribe(ch)

	b.Publish(worksona.Event{Type: worksona.EventChatStart, AgentID: "a1"})

	select {
	case e := <-ch:
		if e.Type != worksona.EventChatStart || e.AgentID != "a1" {
			t.Errorf("event = %+v", e)
		}
	default:
		t.Fatal("no event received")
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewEventBroker()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Overfill the buffer; extra events are dropped, not blocked on.
	for i := 0; i < cap(ch)+10; i++ {
		b.Publish(worksona.Event{Type: worksona.EventError})
	}

	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want %d", len(ch), cap(ch))
	}
}

func TestBrokerSubscriberLimit(t *testing.T) {
	b := NewEventBroker()

	for i := 0; i < maxSubscribers; i++ {
		if b.Subscribe() == nil {
			t.Fatalf("Subscribe() = nil at %d subscribers", i)
		}
	}
	if b.Subscribe() != nil {
		t.Error("Subscribe() should refuse past the limit")
	}
}

func TestBrokerUnsubscribeCloses(t *testing.T) {
	b := NewEventBroker()

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	// A second Unsubscribe for the same channel is harmless.
	b.Unsubscribe(ch)
}

func TestBrokerClose(t *testing.T) {
	b := NewEventBroker()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	b.Close()

	if _, ok := <-ch1; ok {
		t.Error("ch1 should be closed")
	}
	if _, ok := <-ch2; ok {
		t.Error("ch2 should be closed")
	}
}
