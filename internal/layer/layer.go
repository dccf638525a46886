package layer

import (
	"errors"
	"sync"
	"time"

	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/feature"
)

// Bus topics published by the collection.
const (
	TopicLayerAdded   = "layer.added"
	TopicLayerRemoved = "layer.removed"
)

// ChangeEvent is the payload of TopicLayerAdded and TopicLayerRemoved
// events.
type ChangeEvent struct {
	Name string
}

// Domain errors for the layer package.
var (
	// ErrLayerExists is returned when adding a layer whose name is taken.
	ErrLayerExists = errors.New("layer: already exists")

	// ErrEmptyName is returned when a layer name is empty.
	ErrEmptyName = errors.New("layer: empty name")

	// ErrNilStore is returned when a layer is created without a store.
	ErrNilStore = errors.New("layer: nil feature store")
)

// Layer associates a name with a feature store.
type Layer struct {
	Name    string
	Store   *feature.Store
	Visible bool
}

// Collection is an ordered, name-indexed set of layers.
type Collection struct {
	mu     sync.RWMutex
	order  []string
	layers map[string]*Layer
	bus    *bus.Bus
}

// NewCollection creates an empty layer collection.
func NewCollection() *Collection {
	return &Collection{
		order:  make([]string, 0),
		layers: make(map[string]*Layer),
	}
}

// Add appends a layer. Names are unique; ErrLayerExists is returned for a
// taken name, ErrEmptyName for an empty one and ErrNilStore for a missing
// store. New layers start visible.
func (c *Collection) Add(name string, store *feature.Store) (*Layer, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if store == nil {
		return nil, ErrNilStore
	}

	c.mu.Lock()
	if _, exists := c.layers[name]; exists {
		c.mu.Unlock()
		return nil, ErrLayerExists
	}
	l := &Layer{Name: name, Store: store, Visible: true}
	c.layers[name] = l
	c.order = append(c.order, name)
	b := c.bus
	c.mu.Unlock()

	publishChange(b, TopicLayerAdded, name)
	return l, nil
}

// SetBus attaches an event bus; Add and Remove publish layer change
// events to it. A nil bus disables publishing.
func (c *Collection) SetBus(b *bus.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = b
}

// publishChange emits a layer change event. It runs outside the
// collection lock so handlers may call back into the collection.
func publishChange(b *bus.Bus, topic, name string) {
	if b == nil {
		return
	}
	b.Publish(bus.Event{
		Topic:   topic,
		Source:  "engine",
		Time:    time.Now(),
		Payload: ChangeEvent{Name: name},
	})
}

// Get returns the layer with the given name. ok is false when absent.
func (c *Collection) Get(name string) (*Layer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.layers[name]
	return l, ok
}

// Remove deletes a layer by name. Returns whether anything was removed.
func (c *Collection) Remove(name string) bool {
	c.mu.Lock()
	if _, ok := c.layers[name]; !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.layers, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	b := c.bus
	c.mu.Unlock()

	publishChange(b, TopicLayerRemoved, name)
	return true
}

// List returns the layers in insertion order.
func (c *Collection) List() []*Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Layer, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.layers[name])
	}
	return out
}

// Len returns the number of layers.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
