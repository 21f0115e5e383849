// Package logic contains pure decision logic for the sensor poll loop.
// This package touches no hardware, MQTT, OS, or time.Sleep; it only uses
// dht11's value types.
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/dht-sensor/internal/dht11"
)

// EventType names an event worth publishing.
type EventType string

const (
	EventReading   EventType = "READING"
	EventFault     EventType = "SENSOR_FAULT"
	EventRecovered EventType = "SENSOR_RECOVERED"
)

// Input is the outcome of one poll.
type Input struct {
	Reading dht11.Reading // valid when Err is nil
	Err     error
	Time    time.Time
}

// Event is an outcome to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Reading   dht11.Reading
	// Failures is the consecutive failed polls at the time of a fault.
	Failures int
	// Err is the last poll error (fault only).
	Err string
}

// Config tunes what the Monitor reports.
type Config struct {
	// TempDelta and HumidityDelta are the smallest change that is published
	// again. Zero publishes every reading.
	TempDelta     float32
	HumidityDelta float32

	// FaultAfter is the number of consecutive failed polls that raise a
	// fault. Zero disables fault events.
	FaultAfter int
}

// EventCounts tracks outcomes since startup.
type EventCounts struct {
	Polls            int // ReadRetry calls
	PollFailures     int // ReadRetry calls that exhausted their attempts
	Attempts         int // single capture+decode attempts
	Timeouts         int
	ReadFailures     int // checksum or pin errors
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
