package bus

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	sub := b.Subscribe("dashboard.")
	defer b.Unsubscribe(sub)

	b.Publish(TopicTeamUpdated, "payload")

	select {
	case event := <-sub.Ch():
		if event.Topic != TopicTeamUpdated {
			t.Fatalf("topic = %q, want %q", event.Topic, TopicTeamUpdated)
		}
		if event.Payload != "payload" {
			t.Fatalf("payload = %v, want %q", event.Payload, "payload")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_PrefixMatching(t *testing.T) {
	b := New()

	taskSub := b.Subscribe("dashboard.task.")
	defer b.Unsubscribe(taskSub)

	allSub := b.Subscribe("")
	defer b.Unsubscribe(allSub)

	b.Publish(TopicTaskUpdated, nil)
	b.Publish(TopicSparkStateChanged, nil)

	select {
	case event := <-taskSub.Ch():
		if event.Topic != TopicTaskUpdated {
			t.Fatalf("topic = %q, want %q", event.Topic, TopicTaskUpdated)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for task event")
	}

	// taskSub must not see the spark event.
	select {
	case event := <-taskSub.Ch():
		t.Fatalf("unexpected event on taskSub: %v", event)
	case <-time.After(50 * time.Millisecond):
	}

	received := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allSub.Ch():
			received++
		case <-time.After(time.Second):
			t.Fatal("timeout waiting on allSub")
		}
	}
	if received != 2 {
		t.Fatalf("allSub received %d events, want 2", received)
	}
}

func TestBus_NonBlockingDrop(t *testing.T) {
	b := New()
	sub := b.Subscribe("dashboard.")
	defer b.Unsubscribe(sub)

	// Overflow the buffer; publishes must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+50; i++ {
			b.Publish(TopicMessageReceived, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on full subscriber")
	}

	drained := 0
	for {
		select {
		case <-sub.Ch():
			drained++
		default:
			if drained != subscriberBuffer {
				t.Fatalf("drained %d events, want %d (overflow dropped)", drained, subscriberBuffer)
			}
			return
		}
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe("")
	b.Unsubscribe(sub)

	if _, ok := <-sub.Ch(); ok {
		t.Fatal("channel open after unsubscribe")
	}
	if n := b.SubscriberCount(); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}

	// Double unsubscribe is safe.
	b.Unsubscribe(sub)
}
