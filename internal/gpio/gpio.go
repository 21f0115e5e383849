// Package gpio provides single-line GPIO access with hardware abstraction.
// Real implementations use the Linux GPIO character device (go-gpiocdev) or
// periph.io. The fake implementation replays scripted waveforms for tests.
package gpio

// Pin is one bidirectional GPIO line.
type Pin interface {
	// SetOutput switches the line to output mode.
	SetOutput() error
	// SetInput switches the line to input mode with the pull-up enabled.
	SetInput() error

	// SetHigh and SetLow drive the line. Only valid in output mode.
	SetHigh() error
	SetLow() error

	// IsHigh and IsLow sample the line. Only valid in input mode.
	// A failed sample reports neither level.
	IsHigh() bool
	IsLow() bool

	// Close releases the line.
	Close() error
}

// Opener acquires a Pin by BCM number.
type Opener func(pin int) (Pin, error)

// Defaults for a Raspberry Pi.
const (
	DefaultPin  = 4
	DefaultChip = "gpiochip0"
)

// Consumer is the label the kernel shows for lines we hold.
const Consumer = "dht-sensor"
