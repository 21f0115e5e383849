package logic

import (
	"errors"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht11"
)

// Monitor turns poll outcomes into events: changed readings, faults and
// recoveries.
type Monitor struct {
	cfg           Config
	startTime     time.Time
	lastHeartbeat time.Time

	current   dht11.Reading
	published dht11.Reading
	ready     bool // at least one successful poll

	consecutive int
	faulted     bool
	lastErr     string

	counts EventCounts
}

// NewMonitor creates a Monitor. The startTime is used for calculating uptime
// in heartbeat events.
func NewMonitor(cfg Config, startTime time.Time) *Monitor {
	return &Monitor{
		cfg:           cfg,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// RecordAttempt counts a single read attempt by outcome. It is meant as the
// sensor's attempt hook, so per-attempt causes survive retry collapsing.
func (m *Monitor) RecordAttempt(err error) {
	m.counts.Attempts++
	switch {
	case err == nil:
	case errors.Is(err, dht11.ErrTimeout):
		m.counts.Timeouts++
	case errors.Is(err, dht11.ErrFailedRead):
		m.counts.ReadFailures++
	}
}

// Process takes one poll outcome and returns any events that should be
// emitted.
func (m *Monitor) Process(in Input) []Event {
	m.counts.Polls++

	if in.Err != nil {
		m.counts.PollFailures++
		m.consecutive++
		m.lastErr = in.Err.Error()

		if m.cfg.FaultAfter > 0 && !m.faulted && m.consecutive >= m.cfg.FaultAfter {
			m.faulted = true
			return []Event{{
				Timestamp: in.Time,
				Type:      EventFault,
				Reading:   m.current,
				Failures:  m.consecutive,
				Err:       m.lastErr,
			}}
		}
		return nil
	}

	m.consecutive = 0
	m.lastErr = ""
	m.current = in.Reading

	var events []Event

	// Recovery first, so consumers see the fault clear before the value.
	if m.faulted {
		m.faulted = false
		events = append(events, Event{
			Timestamp: in.Time,
			Type:      EventRecovered,
			Reading:   in.Reading,
		})
	}

	if !m.ready || m.changed(in.Reading) {
		m.ready = true
		m.published = in.Reading
		events = append(events, Event{
			Timestamp: in.Time,
			Type:      EventReading,
			Reading:   in.Reading,
		})
	}

	return events
}

// changed reports whether r moved far enough from the last published reading.
func (m *Monitor) changed(r dht11.Reading) bool {
	return abs(r.Temperature-m.published.Temperature) >= m.cfg.TempDelta ||
		abs(r.Humidity-m.published.Humidity) >= m.cfg.HumidityDelta
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Current returns the most recent successful reading, and whether there has
// been one.
func (m *Monitor) Current() (dht11.Reading, bool) {
	return m.current, m.ready
}

// Faulted reports whether a fault is active.
func (m *Monitor) Faulted() bool {
	return m.faulted
}

// LastError returns the error of the last poll, or "" if it succeeded.
func (m *Monitor) LastError() string {
	return m.lastErr
}

// EventCountsSnapshot returns a copy of the current counts.
func (m *Monitor) EventCountsSnapshot() EventCounts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
