// Command dht-sensor reads a DHT11 temperature/humidity sensor over GPIO and
// publishes readings to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"

	"github.com/sweeney/dht-sensor/internal/dht11"
	"github.com/sweeney/dht-sensor/internal/gpio"
	"github.com/sweeney/dht-sensor/internal/logic"
	"github.com/sweeney/dht-sensor/internal/mqtt"
	"github.com/sweeney/dht-sensor/internal/status"
	"github.com/sweeney/dht-sensor/internal/web"
)

type options struct {
	pin        int
	chip       string
	backend    string
	lockDir    string
	retry      int
	poll       time.Duration
	maxCount   uint
	broker     string
	heartbeat  time.Duration
	faultAfter int
	tempDelta  float64
	humDelta   float64
	httpAddr   string
	once       bool
	dump       bool
}

func main() {
	var o options
	flag.IntVar(&o.pin, "pin", gpio.DefaultPin, "BCM pin number of the DHT11 data line")
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip (cdev backend)")
	flag.StringVar(&o.backend, "backend", "cdev", "GPIO backend: cdev or periph")
	flag.StringVar(&o.lockDir, "lock-dir", gpio.DefaultLockDir, "Directory for GPIO line lock files (empty to disable)")
	flag.IntVar(&o.retry, "retry", 5, "Read attempts per poll")
	flag.DurationVar(&o.poll, "poll", 10*time.Second, "Sensor polling interval")
	flag.UintVar(&o.maxCount, "max-count", dht11.MaxCount, "Busy-wait bound per pulse")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.IntVar(&o.faultAfter, "fault-after", 3, "Consecutive failed polls before SENSOR_FAULT (0 to disable)")
	flag.Float64Var(&o.tempDelta, "temp-delta", 0.5, "Temperature change that triggers a new READING")
	flag.Float64Var(&o.humDelta, "humidity-delta", 2, "Humidity change that triggers a new READING")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.BoolVar(&o.once, "once", false, "Read once, print and exit")
	flag.BoolVar(&o.dump, "dump", false, "Dump raw pulse counters and frames to stderr")
	level := flag.String("level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "dht-sensor",
	})
	lvl, err := log.ParseLevel(*level)
	if err != nil {
		logger.Fatal("failed to parse log level", "level", *level, "err", err)
	}
	logger.SetLevel(lvl)

	if err := run(o, logger); err != nil {
		logger.Fatal("fatal", "err", err)
	}
}

func openerFor(backend, chip, lockDir string) (gpio.Opener, error) {
	switch backend {
	case "cdev":
		return gpio.CdevOpener(chip, lockDir), nil
	case "periph":
		return gpio.PeriphOpener(lockDir), nil
	}
	return nil, fmt.Errorf("unknown gpio backend %q", backend)
}

// dumper writes each capture to w for wiring diagnostics.
func dumper(w io.Writer) func(dht11.PulseCounters, dht11.Frame) {
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true}
	return func(c dht11.PulseCounters, f dht11.Frame) {
		cfg.Fdump(w, struct {
			Threshold uint32
			Frame     dht11.Frame
			Valid     bool
			Counters  dht11.PulseCounters
		}{dht11.Threshold(&c), f, f.Valid(), c})
	}
}

func run(o options, logger *log.Logger) error {
	open, err := openerFor(o.backend, o.chip, o.lockDir)
	if err != nil {
		return err
	}

	start := time.Now()
	monitor := logic.NewMonitor(logic.Config{
		TempDelta:     float32(o.tempDelta),
		HumidityDelta: float32(o.humDelta),
		FaultAfter:    o.faultAfter,
	}, start)

	sensorOpts := []dht11.Option{
		dht11.WithMaxCount(uint32(o.maxCount)),
		dht11.WithLogger(logger),
		dht11.WithAttemptHook(monitor.RecordAttempt),
	}
	if o.dump {
		sensorOpts = append(sensorOpts, dht11.WithObserver(dumper(os.Stderr)))
	}

	sensor, err := dht11.Create(o.pin, open, sensorOpts...)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer sensor.Close()

	if o.once {
		r, err := sensor.ReadRetry(o.retry)
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Printf("Temperature: %.1fC, Humidity: %.1f%%\n", r.Temperature, r.Humidity)
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(o.broker, mqtt.DefaultClientID, logger)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Tracker exists before STARTUP so the snapshot is available.
	tracker := status.NewTracker(start, status.Config{
		Pin:         o.pin,
		Backend:     o.backend,
		PollMs:      o.poll.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Retry:       o.retry,
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warn("failed to publish startup event", "err", err)
	} else {
		logger.Info("published startup event")
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", o.httpAddr)
	}

	logger.Info("started",
		"pin", o.pin, "backend", o.backend, "poll", o.poll, "retry", o.retry,
		"broker", o.broker, "heartbeat", o.heartbeat)

	ticker := time.NewTicker(o.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		sensor:     sensor,
		monitor:    monitor,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		logger:     logger,
		retry:      o.retry,
		heartbeat:  o.heartbeat,
		now:        time.Now,
	}
	return l.run(ticker.C, sigCh)
}
