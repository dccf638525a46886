// Package mqttbridge implements the built-in MQTT bridge service plugin.
//
// The bridge subscribes to the engine event bus and republishes every
// event as JSON to an external MQTT broker under
// <prefix>/events/<topic>. It is one-way: inbound control stays on the
// HTTP API.
//
// # Thread Safety
//
// Lifecycle calls are serialised by the plugin manager. The forwarding
// goroutine owns the publisher between Start and Stop.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidefall/geocore/internal/bus"
	"github.com/tidefall/geocore/internal/infrastructure/config"
	"github.com/tidefall/geocore/internal/infrastructure/mqtt"
	"github.com/tidefall/geocore/internal/plugin"
)

// PluginID is the bridge's stable plugin id.
const PluginID = "geocore.bridge.mqtt"

// queueSize bounds the event buffer between the bus and the broker.
// The bus handler must not block, so overflow drops the newest event.
const queueSize = 256

// ErrNoBus is returned when the bridge starts without a host context.
var ErrNoBus = errors.New("mqtt bridge: no event bus in plugin context")

// Publisher is the broker-facing surface the bridge needs. Satisfied by
// *mqtt.Client; tests substitute a recorder.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Close() error
}

// DialFunc connects to the broker. Replaced in tests.
type DialFunc func(cfg config.MQTTConfig) (Publisher, error)

// wireEvent is the JSON shape of a bridged event.
type wireEvent struct {
	Topic   string    `json:"topic"`
	Source  string    `json:"source"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload,omitempty"`
}

// Bridge republishes bus events to MQTT.
type Bridge struct {
	cfg  config.MQTTConfig
	dial DialFunc

	mu          sync.Mutex
	settings    plugin.Settings
	pc          *plugin.Context
	pub         Publisher
	unsubscribe func()
	events      chan bus.Event
	done        chan struct{}
	wg          sync.WaitGroup
}

// New creates an unstarted bridge for the given broker configuration.
func New(cfg config.MQTTConfig) *Bridge {
	return &Bridge{
		cfg:      cfg,
		settings: plugin.Settings{},
		dial: func(cfg config.MQTTConfig) (Publisher, error) {
			return mqtt.Connect(cfg)
		},
	}
}

// NewWithDialer creates a bridge with a custom broker dialer.
func NewWithDialer(cfg config.MQTTConfig, dial DialFunc) *Bridge {
	b := New(cfg)
	b.dial = dial
	return b
}

// Descriptor implements plugin.Plugin.
func (b *Bridge) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          PluginID,
		Name:        "MQTT Bridge",
		Description: "Republishes engine events to an MQTT broker",
		Version:     "1.0.0",
		Author:      "Tidefall",
		Types:       plugin.NewTypeSet(plugin.TypeService),
	}
}

// Initialize implements plugin.Plugin.
func (b *Bridge) Initialize(ctx context.Context, pc *plugin.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pc = pc
	return nil
}

// Start connects to the broker, subscribes to the bus and launches the
// forwarding goroutine.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pc == nil || b.pc.Bus == nil {
		return ErrNoBus
	}

	pub, err := b.dial(b.cfg)
	if err != nil {
		return fmt.Errorf("mqtt bridge: %w", err)
	}
	b.pub = pub
	b.events = make(chan bus.Event, queueSize)
	b.done = make(chan struct{})

	events, done := b.events, b.done
	b.unsubscribe = b.pc.Bus.Subscribe(bus.TopicAll, func(ev bus.Event) {
		select {
		case events <- ev:
		case <-done:
		default:
			// Queue full. Dropping beats blocking the bus.
		}
	})

	// Capture prefix and QoS now; settings changes apply at next Start.
	b.wg.Add(1)
	go b.forward(events, done, pub, b.topicPrefix(), byte(b.cfg.QoS))

	b.pc.Logger.Info("mqtt bridge started", "prefix", b.topicPrefix())
	return nil
}

// Stop unsubscribes from the bus, drains the forwarding goroutine and
// closes the broker connection.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pub == nil {
		return nil
	}

	b.unsubscribe()
	close(b.done)
	b.wg.Wait()

	err := b.pub.Close()
	b.pub = nil
	b.unsubscribe = nil
	b.events = nil
	b.done = nil

	if b.pc != nil {
		b.pc.Logger.Info("mqtt bridge stopped")
	}
	return err
}

// Settings implements plugin.Plugin.
func (b *Bridge) Settings() plugin.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings.Clone()
}

// ApplySettings implements plugin.Plugin. A changed topic prefix or QoS
// takes effect at the next Start.
func (b *Bridge) ApplySettings(s plugin.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = s.Clone()
	if prefix := s.GetString("topic_prefix", ""); prefix != "" {
		b.cfg.TopicPrefix = prefix
	}
	b.cfg.QoS = s.GetInt("qos", b.cfg.QoS)
	return nil
}

// ValidateSettings implements plugin.SettingsValidator.
func (b *Bridge) ValidateSettings(s plugin.Settings) (bool, string) {
	if qos := s.GetInt("qos", 1); qos < 0 || qos > 2 {
		return false, "qos must be 0, 1, or 2"
	}
	if prefix := s.GetString("topic_prefix", "x"); strings.ContainsAny(prefix, "#+") {
		return false, "topic_prefix must not contain wildcards"
	}
	return true, ""
}

// forward drains the event queue into the broker until done closes, then
// flushes whatever is still buffered.
func (b *Bridge) forward(events <-chan bus.Event, done <-chan struct{}, pub Publisher, prefix string, qos byte) {
	defer b.wg.Done()

	for {
		select {
		case ev := <-events:
			b.publish(pub, ev, prefix, qos)
		case <-done:
			for {
				select {
				case ev := <-events:
					b.publish(pub, ev, prefix, qos)
				default:
					return
				}
			}
		}
	}
}

func (b *Bridge) publish(pub Publisher, ev bus.Event, prefix string, qos byte) {
	payload, err := json.Marshal(wireEvent{
		Topic:   ev.Topic,
		Source:  ev.Source,
		Time:    ev.Time,
		Payload: ev.Payload,
	})
	if err != nil {
		b.logWarn("event not serialisable, skipped", "topic", ev.Topic, "error", err)
		return
	}

	topic := prefix + "/events/" + ev.Topic
	if err := pub.Publish(topic, payload, qos, false); err != nil {
		b.logWarn("publish failed", "topic", topic, "error", err)
	}
}

func (b *Bridge) topicPrefix() string {
	if b.cfg.TopicPrefix == "" {
		return "geocore"
	}
	return b.cfg.TopicPrefix
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if b.pc != nil && b.pc.Logger != nil {
		b.pc.Logger.Warn(msg, args...)
	}
}

var _ plugin.Plugin = (*Bridge)(nil)
var _ plugin.SettingsValidator = (*Bridge)(nil)
