// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topics are rooted at the device hostname so several temcontrol units can
// share a broker.
func readingsTopic(hostname string) string {
	return fmt.Sprintf("temcontrol/%s/readings", hostname)
}

func systemTopic(hostname string) string {
	return fmt.Sprintf("temcontrol/%s/system", hostname)
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishReading sends a sensor reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishReading(event ReadingEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReadingEvent is one successful sensor sample to publish.
type ReadingEvent struct {
	Timestamp   time.Time
	Temperature float64
	Humidity    float64
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure for readings.
type Payload struct {
	Reading ReadingPayload `json:"reading"`
}

// ReadingPayload contains the reading details.
type ReadingPayload struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// FormatPayload creates the JSON payload for a reading event.
func FormatPayload(event ReadingEvent) ([]byte, error) {
	payload := Payload{
		Reading: ReadingPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Temperature: event.Temperature,
			Humidity:    event.Humidity,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
