package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht11"
	"github.com/sweeney/dht-sensor/internal/logic"
)

func readingEvent(ts time.Time, temp, hum float32) logic.Event {
	return logic.Event{
		Timestamp: ts,
		Type:      logic.EventReading,
		Reading:   dht11.Reading{Temperature: temp, Humidity: hum},
	}
}

func TestTopics(t *testing.T) {
	if Topic != "climate/dht11/sensor/readings" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "climate/dht11/sensor/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatPayloadReading(t *testing.T) {
	event := readingEvent(time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC), 21.5, 50)

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"climate":{"timestamp":"2026-02-02T22:18:12Z","event":"READING","temperature_c":21.5,"humidity_pct":50}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadFault(t *testing.T) {
	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventFault,
		Reading:   dht11.Reading{Temperature: 21, Humidity: 50},
		Failures:  5,
		Err:       "failed to read sensor: dht11 failed",
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Climate.Event != "SENSOR_FAULT" {
		t.Errorf("event: got %s", parsed.Climate.Event)
	}
	if parsed.Climate.Failures != 5 {
		t.Errorf("failures: got %d", parsed.Climate.Failures)
	}
	if parsed.Climate.Error != "failed to read sensor: dht11 failed" {
		t.Errorf("error: got %q", parsed.Climate.Error)
	}
}

func TestFormatPayloadAllEventTypes(t *testing.T) {
	for _, et := range []logic.EventType{logic.EventReading, logic.EventFault, logic.EventRecovered} {
		t.Run(string(et), func(t *testing.T) {
			payload, err := FormatPayload(logic.Event{Timestamp: time.Now(), Type: et})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Climate.Event != string(et) {
				t.Errorf("event: got %s, want %s", parsed.Climate.Event, et)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := readingEvent(time.Date(2026, 2, 3, 0, 30, 0, 0, loc), 20, 40)

	payload, _ := FormatPayload(event)
	var parsed Payload
	json.Unmarshal(payload, &parsed)

	if parsed.Climate.Timestamp != "2026-02-02T22:30:00Z" {
		t.Errorf("timestamp not converted to UTC: %s", parsed.Climate.Timestamp)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, _ := FormatSystemPayload(event)
	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	expected := `{"system":{"event":"OFFLINE","reason":"MQTT_DISCONNECT"}}`
	if got := string(WillPayload()); got != expected {
		t.Errorf("unexpected will payload:\ngot:  %s\nwant: %s", got, expected)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	event := readingEvent(time.Now(), 21, 50)

	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Events) != 1 || len(f.Payloads) != 1 {
		t.Fatalf("expected 1 event and payload, got %d and %d", len(f.Events), len(f.Payloads))
	}
	if f.Events[0].Reading != event.Reading {
		t.Errorf("event not recorded intact: %+v", f.Events[0])
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(readingEvent(time.Now(), 21, 50)); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherSystemAndReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.Publish(readingEvent(time.Now(), 21, 50))
	f.Close()

	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Errorf("system event not recorded with retained flag: %+v", f.SystemEvents)
	}
	if !f.IsConnected() || !f.Closed {
		t.Error("flags not set")
	}

	f.Reset()
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 || f.Closed || f.Connected {
		t.Error("Reset did not clear state")
	}

	// Reusable after reset
	if err := f.Publish(readingEvent(time.Now(), 22, 51)); err != nil || len(f.Events) != 1 {
		t.Errorf("publish after reset: err=%v events=%d", err, len(f.Events))
	}
}
