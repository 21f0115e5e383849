// Package status provides a thread-safe status tracker for the dht-sensor daemon.
// It is read by the HTTP handlers and by the MQTT status events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht11"
	"github.com/sweeney/dht-sensor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Pin         int
	Backend     string
	PollMs      int64
	HeartbeatMs int64
	Retry       int
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state. It is a value type and
// safe to use after the lock is released.
type Snapshot struct {
	Reading       dht11.Reading
	HaveReading   bool
	LastReadAt    time.Time
	LastError     string
	Faulted       bool
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the monitor's view after a poll. readAt is the time of the
// last successful read and is ignored while no reading exists.
func (t *Tracker) Update(m *logic.Monitor, readAt time.Time) {
	r, ok := m.Current()
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.HaveReading = ok
	if ok && !readAt.IsZero() {
		t.snap.LastReadAt = readAt
	}
	t.snap.LastError = m.LastError()
	t.snap.Faulted = m.Faulted()
	t.snap.Counts = m.EventCountsSnapshot()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
