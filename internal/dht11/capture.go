package dht11

import (
	"fmt"
	"time"

	"github.com/sweeney/dht-sensor/internal/gpio"
)

const (
	// Pulses is the number of low/high pairs in one transfer: the sensor's
	// acknowledgment followed by 40 data bits.
	Pulses = 41

	// MaxCount bounds every busy-wait loop. It is an iteration count, not a
	// time, so it scales with how fast the host can sample the pin.
	MaxCount = 32000
)

// Handshake timing.
const (
	wakeHold    = 500 * time.Millisecond
	startSignal = 20 * time.Millisecond
	releaseHold = 30 * time.Microsecond
)

// PulseCounters holds one busy-wait tally per pulse: even indexes are low
// pulses, odd indexes the high pulse that follows.
type PulseCounters [Pulses * 2]uint32

// CapturePulses runs the handshake on pin and records all 41 pulse pairs.
// Any pulse reaching maxCount aborts the capture with a Timeout.
func CapturePulses(pin gpio.Pin, maxCount uint32, sleep func(time.Duration)) (PulseCounters, error) {
	if err := handshake(pin, sleep); err != nil {
		return PulseCounters{}, err
	}

	var c PulseCounters
	for i := 0; i < len(c); i += 2 {
		for pin.IsLow() {
			c[i]++
			if c[i] >= maxCount {
				return PulseCounters{}, timeout("low", i/2)
			}
		}
		for pin.IsHigh() {
			c[i+1]++
			if c[i+1] >= maxCount {
				return PulseCounters{}, timeout("high", i/2)
			}
		}
	}
	return c, nil
}

// handshake holds the line high, pulls it low long enough to wake the
// sensor, then releases it.
func handshake(pin gpio.Pin, sleep func(time.Duration)) error {
	if err := pin.SetOutput(); err != nil {
		return failedRead("pin output", err)
	}
	if err := pin.SetHigh(); err != nil {
		return failedRead("pin high", err)
	}
	sleep(wakeHold)

	if err := pin.SetLow(); err != nil {
		return failedRead("pin low", err)
	}
	sleep(startSignal)

	if err := pin.SetHigh(); err != nil {
		return failedRead("pin high", err)
	}
	sleep(releaseHold)

	if err := pin.SetInput(); err != nil {
		return failedRead("pin input", err)
	}
	return nil
}

func timeout(half string, pair int) *SensorError {
	return &SensorError{
		Kind: Timeout,
		Msg:  fmt.Sprintf("timed out %s pulse capture (pair %d)", half, pair),
	}
}
