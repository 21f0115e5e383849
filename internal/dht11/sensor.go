// Package dht11 reads a DHT11 temperature/humidity sensor by bit-banging its
// single-wire protocol on one GPIO line.
//
// A read wakes the sensor, counts busy-wait iterations for each of the 41
// low/high pulse pairs it sends back, and decodes the 40 data pulses against
// their mean into a checksummed 5-byte frame.
package dht11

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/sweeney/dht-sensor/internal/gpio"
)

// DefaultBackoff is the pause between failed attempts in ReadRetry.
const DefaultBackoff = 50 * time.Millisecond

// Sensor owns one GPIO pin and reads a DHT11 on it. Not safe for concurrent
// use.
type Sensor struct {
	pin      gpio.Pin
	maxCount uint32
	backoff  time.Duration
	sleep    func(time.Duration)
	logger   *log.Logger
	observe  func(PulseCounters, Frame)
	attempt  func(error)
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithMaxCount overrides the busy-wait bound. Zero keeps MaxCount; the bound
// cannot be disabled.
func WithMaxCount(n uint32) Option {
	return func(s *Sensor) {
		if n > 0 {
			s.maxCount = n
		}
	}
}

// WithBackoff overrides the pause between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(s *Sensor) { s.backoff = d }
}

// WithSleep replaces time.Sleep for the handshake and retry backoff.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Sensor) { s.sleep = fn }
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Sensor) { s.logger = l }
}

// WithObserver is called with the raw counters and decoded frame of every
// capture that completes, valid or not.
func WithObserver(fn func(PulseCounters, Frame)) Option {
	return func(s *Sensor) { s.observe = fn }
}

// WithAttemptHook is called after every single read attempt with its result.
func WithAttemptHook(fn func(error)) Option {
	return func(s *Sensor) { s.attempt = fn }
}

// New wraps an already acquired pin. The Sensor takes ownership of it.
func New(pin gpio.Pin, opts ...Option) *Sensor {
	s := &Sensor{
		pin:      pin,
		maxCount: MaxCount,
		backoff:  DefaultBackoff,
		sleep:    time.Sleep,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create acquires the pin through open and wraps it.
func Create(pin int, open gpio.Opener, opts ...Option) (*Sensor, error) {
	p, err := open(pin)
	if err != nil {
		return nil, &SensorError{Kind: FailedInit, Msg: "failed to create gpio pin", Err: err}
	}
	return New(p, opts...), nil
}

// ReadSensor performs one capture and decode. Timeout and FailedRead errors
// are returned as is.
func (s *Sensor) ReadSensor() (Reading, error) {
	r, err := s.read()
	if s.attempt != nil {
		s.attempt(err)
	}
	return r, err
}

func (s *Sensor) read() (Reading, error) {
	counters, err := CapturePulses(s.pin, s.maxCount, s.sleep)
	if err != nil {
		return Reading{}, err
	}

	if s.observe != nil {
		s.observe(counters, DecodeFrame(&counters))
	}
	return Decode(&counters)
}

// ReadRetry makes up to retry attempts, pausing between failures, and returns
// the first success. When every attempt fails the result is a generic
// FailedRead; the individual causes are only logged.
func (s *Sensor) ReadRetry(retry int) (Reading, error) {
	for i := 0; i < retry; i++ {
		if i > 0 {
			s.sleep(s.backoff)
		}

		r, err := s.ReadSensor()
		if err == nil {
			return r, nil
		}
		s.logger.Debug("dht11 attempt failed", "attempt", i+1, "of", retry, "err", err)
	}
	return Reading{}, &SensorError{Kind: FailedRead, Msg: "dht11 failed"}
}

// Close releases the pin.
func (s *Sensor) Close() error {
	return s.pin.Close()
}
