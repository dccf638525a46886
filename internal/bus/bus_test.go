package bus

import (
	"sync"
	"testing"
	"time"
)

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	b := New()

	var got []string
	b.Subscribe("plugin.state", func(e Event) {
		got = append(got, e.Source)
	})
	b.Subscribe("layer.added", func(e Event) {
		t.Errorf("layer.added handler received %q", e.Topic)
	})

	b.Publish(Event{Topic: "plugin.state", Source: "p1"})
	b.Publish(Event{Topic: "plugin.state", Source: "p2"})

	if len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
		t.Errorf("handler received %v, want [p1 p2] in order", got)
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New()

	var topics []string
	b.Subscribe(TopicAll, func(e Event) {
		topics = append(topics, e.Topic)
	})

	b.Publish(Event{Topic: "a"})
	b.Publish(Event{Topic: "b"})

	if len(topics) != 2 || topics[0] != "a" || topics[1] != "b" {
		t.Errorf("wildcard handler received %v, want [a b]", topics)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	calls := 0
	unsub := b.Subscribe("t", func(Event) { calls++ })

	b.Publish(Event{Topic: "t"})
	unsub()
	unsub() // second call is safe
	b.Publish(Event{Topic: "t"})

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	b := New()
	unsub := b.Subscribe("t", nil)
	unsub()

	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
}

type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func TestHandlerPanicIsolated(t *testing.T) {
	b := New()
	logger := &captureLogger{}
	b.SetLogger(logger)

	b.Subscribe("t", func(Event) { panic("boom") })

	delivered := false
	b.Subscribe("t", func(Event) { delivered = true })

	b.Publish(Event{Topic: "t"})

	if !delivered {
		t.Error("panic in one handler blocked delivery to the next")
	}
	if len(logger.msgs) != 1 {
		t.Errorf("panic logged %d times, want 1", len(logger.msgs))
	}
}

func TestPublishFillsTime(t *testing.T) {
	b := New()
	b.Subscribe("t", func(e Event) {
		if e.Time.IsZero() {
			t.Error("event delivered with zero time")
		}
	})
	b.Publish(Event{Topic: "t"})
}

func TestPublishFromHandlerDoesNotDeadlock(t *testing.T) {
	b := New()

	var topics []string
	b.Subscribe(TopicAll, func(e Event) {
		topics = append(topics, e.Topic)
	})
	b.Subscribe("plugin.state", func(Event) {
		b.Publish(Event{Topic: "analysis.done"})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Publish(Event{Topic: "plugin.state"})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish from inside a handler did not return")
	}

	if len(topics) != 2 || topics[0] != "plugin.state" || topics[1] != "analysis.done" {
		t.Errorf("wildcard handler received %v, want [plugin.state analysis.done]", topics)
	}
}

func TestConcurrentPublishOrderObserved(t *testing.T) {
	b := New()

	var mu sync.Mutex
	var seen []int
	b.Subscribe("t", func(e Event) {
		mu.Lock()
		seen = append(seen, e.Payload.(int))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Publish(Event{Topic: "t", Payload: n})
		}(i)
	}
	wg.Wait()

	if len(seen) != 20 {
		t.Errorf("delivered %d events, want 20", len(seen))
	}
}
