package layer

import (
	"errors"
	"testing"

	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/feature"
)

func TestCollectionAddGetRemove(t *testing.T) {
	c := NewCollection()

	l, err := c.Add("roads", feature.NewStore())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !l.Visible {
		t.Error("new layer not visible")
	}

	if _, err := c.Add("roads", feature.NewStore()); !errors.Is(err, ErrLayerExists) {
		t.Errorf("duplicate Add() error = %v, want ErrLayerExists", err)
	}
	if _, err := c.Add("", feature.NewStore()); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty-name Add() error = %v, want ErrEmptyName", err)
	}
	if _, err := c.Add("rivers", nil); !errors.Is(err, ErrNilStore) {
		t.Errorf("nil-store Add() error = %v, want ErrNilStore", err)
	}

	got, ok := c.Get("roads")
	if !ok || got != l {
		t.Error("Get(roads) did not return the added layer")
	}

	if !c.Remove("roads") {
		t.Error("Remove(roads) = false, want true")
	}
	if c.Remove("roads") {
		t.Error("second Remove(roads) = true, want false")
	}
}

func TestCollectionListOrder(t *testing.T) {
	c := NewCollection()
	names := []string{"base", "roads", "rivers"}
	for _, n := range names {
		if _, err := c.Add(n, feature.NewStore()); err != nil {
			t.Fatalf("Add(%q) error = %v", n, err)
		}
	}

	c.Remove("roads")
	_, _ = c.Add("poi", feature.NewStore())

	want := []string{"base", "rivers", "poi"}
	got := c.List()
	if len(got) != len(want) {
		t.Fatalf("List() returned %d layers, want %d", len(got), len(want))
	}
	for i, l := range got {
		if l.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, l.Name, want[i])
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestCollectionPublishesChangeEvents(t *testing.T) {
	c := NewCollection()
	b := bus.New()
	c.SetBus(b)

	var events []bus.Event
	unsubscribe := b.Subscribe(bus.TopicAll, func(e bus.Event) {
		events = append(events, e)
	})
	defer unsubscribe()

	if _, err := c.Add("roads", feature.NewStore()); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	c.Remove("roads")
	c.Remove("roads") // no-op must not publish

	if len(events) != 2 {
		t.Fatalf("received %d events, want 2", len(events))
	}
	if events[0].Topic != TopicLayerAdded {
		t.Errorf("events[0].Topic = %q, want %q", events[0].Topic, TopicLayerAdded)
	}
	if events[1].Topic != TopicLayerRemoved {
		t.Errorf("events[1].Topic = %q, want %q", events[1].Topic, TopicLayerRemoved)
	}
	for i, ev := range events {
		payload, ok := ev.Payload.(ChangeEvent)
		if !ok || payload.Name != "roads" {
			t.Errorf("events[%d].Payload = %v, want ChangeEvent{roads}", i, ev.Payload)
		}
	}
}

func TestCollectionWithoutBusDoesNotPanic(t *testing.T) {
	c := NewCollection()
	if _, err := c.Add("roads", feature.NewStore()); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	c.Remove("roads")
}
