package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Faulted       bool         `json:"faulted"`
	LastError     string       `json:"last_error,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the last successful reading.
type ReadingJSON struct {
	TemperatureC float32 `json:"temperature_c"`
	HumidityPct  float32 `json:"humidity_pct"`
	ReadAt       string  `json:"read_at"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Polls        int `json:"polls"`
	PollFailures int `json:"poll_failures"`
	Attempts     int `json:"attempts"`
	Timeouts     int `json:"timeouts"`
	ReadFailures int `json:"read_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Pin         int    `json:"pin"`
	Backend     string `json:"backend"`
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Retry       int    `json:"retry"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Faulted:       snap.Faulted,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Polls:        snap.Counts.Polls,
			PollFailures: snap.Counts.PollFailures,
			Attempts:     snap.Counts.Attempts,
			Timeouts:     snap.Counts.Timeouts,
			ReadFailures: snap.Counts.ReadFailures,
		},
		Config: ConfigJSON{
			Pin:         snap.Config.Pin,
			Backend:     snap.Config.Backend,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Retry:       snap.Config.Retry,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.HaveReading {
		inner.Reading = &ReadingJSON{
			TemperatureC: snap.Reading.Temperature,
			HumidityPct:  snap.Reading.Humidity,
			ReadAt:       snap.LastReadAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
