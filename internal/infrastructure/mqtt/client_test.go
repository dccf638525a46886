package mqtt

import (
	"strings"
	"testing"

	"github.com/tidefall/geocore/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBroker{
			Host:     "localhost",
			Port:     1883,
			ClientID: "geocore-test",
		},
		QoS:         1,
		TopicPrefix: "geocore",
		Reconnect:   config.MQTTReconnect{InitialDelay: 1, MaxDelay: 60},
	}
}

func TestStatusTopic(t *testing.T) {
	cfg := testConfig()
	if got := statusTopic(cfg); got != "geocore/system/status" {
		t.Errorf("statusTopic = %q", got)
	}
	cfg.TopicPrefix = ""
	if got := statusTopic(cfg); got != "geocore/system/status" {
		t.Errorf("statusTopic with empty prefix = %q", got)
	}
	cfg.TopicPrefix = "site7"
	if got := statusTopic(cfg); got != "site7/system/status" {
		t.Errorf("statusTopic with custom prefix = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuth{Username: "geo", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://localhost:1883" {
		t.Errorf("broker servers = %v", opts.Servers)
	}
	if opts.ClientID != "geocore-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "geo" {
		t.Errorf("Username = %q", opts.Username)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect disabled")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)
	if len(opts.Servers) != 1 || opts.Servers[0].Scheme != "ssl" {
		t.Errorf("TLS broker servers = %v", opts.Servers)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("geocore-test")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, "geocore-test") {
		t.Errorf("online payload = %s", online)
	}
	offline := buildOfflinePayload("geocore-test")
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", offline)
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig()}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Publish("geocore/events/x", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("bad qos error = %v", err)
	}
	big := make([]byte, maxPayloadSize+1)
	if err := c.Publish("geocore/events/x", big, 1, false); err == nil {
		t.Error("oversized payload accepted")
	}
	if err := c.Publish("geocore/events/x", []byte("x"), 1, false); err != ErrNotConnected {
		t.Errorf("disconnected publish error = %v", err)
	}
}
