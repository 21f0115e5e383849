package main

import (
	"os"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/dht-sensor/internal/dht11"
	"github.com/sweeney/dht-sensor/internal/logic"
	"github.com/sweeney/dht-sensor/internal/mqtt"
	"github.com/sweeney/dht-sensor/internal/status"
)

// reader is the part of *dht11.Sensor the poll loop uses.
type reader interface {
	ReadRetry(retry int) (dht11.Reading, error)
}

// loop polls the sensor on every tick until a signal arrives. All monitor
// access happens on the goroutine calling run.
type loop struct {
	sensor     reader
	monitor    *logic.Monitor
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	logger     *log.Logger
	retry      int
	heartbeat  time.Duration
	now        func() time.Time
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func (l *loop) run(tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil

		case <-tick:
			l.poll()
		}
	}
}

func (l *loop) poll() {
	t := l.now()
	r, err := l.sensor.ReadRetry(l.retry)
	if err != nil {
		l.logger.Warn("sensor read failed", "err", err)
	} else {
		l.logger.Debug("sensor read", "temperature", r.Temperature, "humidity", r.Humidity)
	}

	events := l.monitor.Process(logic.Input{Reading: r, Err: err, Time: t})
	for _, event := range events {
		l.logger.Info("event", "type", event.Type,
			"temperature", event.Reading.Temperature, "humidity", event.Reading.Humidity)
		if err := l.publisher.Publish(event); err != nil {
			// Don't crash on publish failure
			l.logger.Warn("publish error", "err", err)
		}
	}

	var readAt time.Time
	if err == nil {
		readAt = t
	}
	l.refresh(readAt)

	if hb := l.monitor.CheckHeartbeat(t, l.heartbeat); hb != nil {
		l.logger.Info("heartbeat", "uptime", hb.Uptime,
			"polls", hb.Counts.Polls, "failures", hb.Counts.PollFailures, "timeouts", hb.Counts.Timeouts)

		hbEvent := mqtt.SystemEvent{
			Timestamp: hb.Timestamp,
			Event:     "HEARTBEAT",
		}
		if l.tracker != nil {
			hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(hbEvent); err != nil {
			l.logger.Warn("heartbeat publish error", "err", err)
		}
	}
}

// refresh copies monitor and connection state into the tracker.
func (l *loop) refresh(readAt time.Time) {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(l.monitor, readAt)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) shutdown(s os.Signal) {
	l.logger.Info("shutting down", "signal", s)
	name := signalName(s)
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    name,
		Retained:  true,
	}
	if l.tracker != nil {
		l.refresh(time.Time{})
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", name)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.logger.Warn("failed to publish shutdown event", "err", err)
	} else {
		l.logger.Info("published shutdown event")
	}
}
