package logic

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht11"
)

var (
	errExhausted = &dht11.SensorError{Kind: dht11.FailedRead, Msg: "dht11 failed"}
	errTimeout   = &dht11.SensorError{Kind: dht11.Timeout, Msg: "timed out low pulse capture (pair 0)"}
	errChecksum  = &dht11.SensorError{Kind: dht11.FailedRead, Msg: "failed checksum validation"}
)

func reading(t, h float32) dht11.Reading {
	return dht11.Reading{Temperature: t, Humidity: h}
}

func TestNewMonitor(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{FaultAfter: 3}, startTime)
	if m == nil {
		t.Fatal("NewMonitor returned nil")
	}
	if _, ok := m.Current(); ok {
		t.Error("new monitor should have no reading")
	}
	if m.Faulted() {
		t.Error("new monitor should not be faulted")
	}
	if !m.lastHeartbeat.Equal(startTime) {
		t.Errorf("expected lastHeartbeat %v, got %v", startTime, m.lastHeartbeat)
	}
}

func TestFirstReadingIsPublished(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{TempDelta: 1, HumidityDelta: 5}, now)

	events := m.Process(Input{Reading: reading(21, 50), Time: now})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventReading {
		t.Errorf("type: got %s, want READING", e.Type)
	}
	if e.Reading != reading(21, 50) {
		t.Errorf("reading: got %+v", e.Reading)
	}
	if !e.Timestamp.Equal(now) {
		t.Errorf("timestamp: got %v, want %v", e.Timestamp, now)
	}

	cur, ok := m.Current()
	if !ok || cur != reading(21, 50) {
		t.Errorf("current: got %+v %v", cur, ok)
	}
}

func TestReadingDeltas(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		next dht11.Reading
		want bool
	}{
		{"unchanged", reading(21, 50), false},
		{"small temp move", reading(21.5, 50), false},
		{"temp at delta", reading(22, 50), true},
		{"temp drop at delta", reading(20, 50), true},
		{"small humidity move", reading(21, 54), false},
		{"humidity at delta", reading(21, 55), true},
		{"humidity drop", reading(21, 40), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(Config{TempDelta: 1, HumidityDelta: 5}, now)
			m.Process(Input{Reading: reading(21, 50), Time: now})

			events := m.Process(Input{Reading: tt.next, Time: now.Add(time.Minute)})
			if got := len(events) == 1; got != tt.want {
				t.Errorf("published: got %v, want %v (events=%v)", got, tt.want, events)
			}

			// Current always tracks the latest value
			if cur, _ := m.Current(); cur != tt.next {
				t.Errorf("current: got %+v, want %+v", cur, tt.next)
			}
		})
	}
}

func TestDeltaMeasuredFromLastPublished(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{TempDelta: 1, HumidityDelta: 5}, now)

	m.Process(Input{Reading: reading(21, 50), Time: now})
	// Creep up by less than the delta each time
	if ev := m.Process(Input{Reading: reading(21.6, 50), Time: now}); len(ev) != 0 {
		t.Fatalf("unexpected events: %v", ev)
	}
	ev := m.Process(Input{Reading: reading(22.2, 50), Time: now})
	if len(ev) != 1 || ev[0].Reading.Temperature != 22.2 {
		t.Fatalf("expected drift to be published, got %v", ev)
	}
}

func TestZeroDeltaPublishesEveryReading(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{}, now)

	for i := 0; i < 3; i++ {
		if ev := m.Process(Input{Reading: reading(21, 50), Time: now}); len(ev) != 1 {
			t.Errorf("poll %d: expected 1 event, got %d", i, len(ev))
		}
	}
}

func TestFaultAfterConsecutiveFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{FaultAfter: 3}, now)
	m.Process(Input{Reading: reading(21, 50), Time: now})

	for i := 1; i <= 2; i++ {
		if ev := m.Process(Input{Err: errExhausted, Time: now}); len(ev) != 0 {
			t.Fatalf("failure %d: unexpected events %v", i, ev)
		}
	}
	if m.Faulted() {
		t.Fatal("should not be faulted before threshold")
	}

	at := now.Add(3 * time.Second)
	ev := m.Process(Input{Err: errExhausted, Time: at})
	if len(ev) != 1 {
		t.Fatalf("expected fault event, got %v", ev)
	}
	f := ev[0]
	if f.Type != EventFault {
		t.Errorf("type: got %s, want SENSOR_FAULT", f.Type)
	}
	if f.Failures != 3 {
		t.Errorf("failures: got %d, want 3", f.Failures)
	}
	if f.Err != errExhausted.Error() {
		t.Errorf("err: got %q", f.Err)
	}
	if f.Reading != reading(21, 50) {
		t.Errorf("fault should carry last good reading, got %+v", f.Reading)
	}
	if !f.Timestamp.Equal(at) {
		t.Errorf("timestamp: got %v, want %v", f.Timestamp, at)
	}

	// Fault is raised once
	for i := 0; i < 5; i++ {
		if ev := m.Process(Input{Err: errExhausted, Time: at}); len(ev) != 0 {
			t.Fatalf("fault raised again: %v", ev)
		}
	}
	if m.LastError() == "" {
		t.Error("LastError should be set while failing")
	}
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{FaultAfter: 2}, now)

	m.Process(Input{Err: errExhausted, Time: now})
	m.Process(Input{Reading: reading(21, 50), Time: now})
	if ev := m.Process(Input{Err: errExhausted, Time: now}); len(ev) != 0 {
		t.Errorf("failures were not consecutive, got %v", ev)
	}
}

func TestRecoveryAfterFault(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{TempDelta: 1, HumidityDelta: 5, FaultAfter: 1}, now)

	m.Process(Input{Reading: reading(21, 50), Time: now})
	m.Process(Input{Err: errExhausted, Time: now})
	if !m.Faulted() {
		t.Fatal("expected fault")
	}

	// Same value as before the fault: recovery only
	ev := m.Process(Input{Reading: reading(21, 50), Time: now})
	if len(ev) != 1 || ev[0].Type != EventRecovered {
		t.Fatalf("expected SENSOR_RECOVERED, got %v", ev)
	}
	if m.Faulted() || m.LastError() != "" {
		t.Error("fault state should clear on success")
	}

	// Fault again, recover with a new value: recovery then reading
	m.Process(Input{Err: errExhausted, Time: now})
	ev = m.Process(Input{Reading: reading(25, 50), Time: now})
	if len(ev) != 2 {
		t.Fatalf("expected 2 events, got %v", ev)
	}
	if ev[0].Type != EventRecovered || ev[1].Type != EventReading {
		t.Errorf("order: got %s, %s", ev[0].Type, ev[1].Type)
	}
}

func TestFaultBeforeFirstReading(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{FaultAfter: 1}, now)

	ev := m.Process(Input{Err: errExhausted, Time: now})
	if len(ev) != 1 || ev[0].Type != EventFault {
		t.Fatalf("expected fault, got %v", ev)
	}
	if ev[0].Reading != (dht11.Reading{}) {
		t.Errorf("expected zero reading, got %+v", ev[0].Reading)
	}

	ev = m.Process(Input{Reading: reading(21, 50), Time: now})
	if len(ev) != 2 {
		t.Fatalf("expected recovery and first reading, got %v", ev)
	}
}

func TestFaultDisabled(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{}, now)

	for i := 0; i < 100; i++ {
		if ev := m.Process(Input{Err: errExhausted, Time: now}); len(ev) != 0 {
			t.Fatalf("unexpected events with FaultAfter=0: %v", ev)
		}
	}
}

func TestRecordAttemptCounts(t *testing.T) {
	m := NewMonitor(Config{}, time.Now())

	m.RecordAttempt(errTimeout)
	m.RecordAttempt(errChecksum)
	m.RecordAttempt(errTimeout)
	m.RecordAttempt(nil)
	m.RecordAttempt(errors.New("unclassified"))

	c := m.EventCountsSnapshot()
	if c.Attempts != 5 {
		t.Errorf("Attempts: got %d, want 5", c.Attempts)
	}
	if c.Timeouts != 2 {
		t.Errorf("Timeouts: got %d, want 2", c.Timeouts)
	}
	if c.ReadFailures != 1 {
		t.Errorf("ReadFailures: got %d, want 1", c.ReadFailures)
	}
}

func TestPollCounts(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{}, now)

	m.Process(Input{Reading: reading(21, 50), Time: now})
	m.Process(Input{Err: errExhausted, Time: now})
	m.Process(Input{Err: errExhausted, Time: now})

	c := m.EventCountsSnapshot()
	if c.Polls != 3 || c.PollFailures != 2 {
		t.Errorf("counts: got %+v", c)
	}
}

func TestHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{}, start)
	m.Process(Input{Reading: reading(21, 50), Time: start})

	interval := 15 * time.Minute

	if hb := m.CheckHeartbeat(start.Add(14*time.Minute), interval); hb != nil {
		t.Error("heartbeat before interval")
	}

	at := start.Add(15 * time.Minute)
	hb := m.CheckHeartbeat(at, interval)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v", hb.Uptime)
	}
	if hb.Counts.Polls != 1 {
		t.Errorf("counts: got %+v", hb.Counts)
	}
	if !hb.Timestamp.Equal(at) {
		t.Errorf("timestamp: got %v", hb.Timestamp)
	}

	// Interval restarts from the last heartbeat
	if hb := m.CheckHeartbeat(at.Add(10*time.Minute), interval); hb != nil {
		t.Error("heartbeat too soon after previous")
	}
	if hb := m.CheckHeartbeat(at.Add(15*time.Minute), interval); hb == nil {
		t.Error("expected second heartbeat")
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonitor(Config{}, start)

	if hb := m.CheckHeartbeat(start.Add(24*time.Hour), 0); hb != nil {
		t.Error("heartbeat with interval 0")
	}
	if hb := m.CheckHeartbeat(start.Add(24*time.Hour), -time.Second); hb != nil {
		t.Error("heartbeat with negative interval")
	}
}
