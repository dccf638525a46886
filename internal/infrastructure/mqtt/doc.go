// Package mqtt provides the MQTT client used by the bridge plugin to
// republish engine events to an external broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and backoff
//   - Last Will and Testament for offline detection
//   - Outbound publishing with QoS and retained-message support
//
// GeoCore only publishes. Inbound control stays on the HTTP API, so the
// client carries no subscription state.
//
// # Topics
//
// Engine status is published retained to <prefix>/system/status, where
// the prefix comes from mqtt.topic_prefix in config.yaml. Bridged bus
// events go to <prefix>/events/<topic>; see the mqttbridge plugin.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package mqtt
