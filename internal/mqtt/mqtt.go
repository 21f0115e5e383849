// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/dht-sensor/internal/logic"
)

// Topic is the MQTT topic for readings and sensor fault events.
const Topic = "climate/dht11/sensor/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "climate/dht11/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a reading or fault event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the MQTT message for a reading or sensor event.
type Payload struct {
	Climate ClimatePayload `json:"climate"`
}

// ClimatePayload contains the event details.
type ClimatePayload struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	Temperature float32 `json:"temperature_c"`
	Humidity    float32 `json:"humidity_pct"`
	Failures    int     `json:"consecutive_failures,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Climate: ClimatePayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			Temperature: event.Reading.Temperature,
			Humidity:    event.Reading.Humidity,
			Failures:    event.Failures,
			Error:       event.Err,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
// A zero Timestamp is omitted, which is what the broker-held will message needs.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// WillPayload is the last-will message the broker publishes if we vanish.
func WillPayload() []byte {
	p, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "MQTT_DISCONNECT"})
	return p
}
