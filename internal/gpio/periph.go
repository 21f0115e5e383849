package gpio

import (
	"fmt"

	"github.com/gofrs/flock"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphPin drives one line through periph.io's memory-mapped drivers, which
// sample faster than the character device on older boards.
type PeriphPin struct {
	pin  pgpio.PinIO
	lock *flock.Flock
}

// OpenPeriph initializes the periph host and claims GPIO<pin>. periph has no
// chip notion; the lock is keyed on DefaultChip so both backends contend for
// the same file.
func OpenPeriph(pin int, lockDir string) (*PeriphPin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	name := fmt.Sprintf("GPIO%d", pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periph: no pin named %s", name)
	}

	lock, err := LockLine(lockDir, DefaultChip, pin)
	if err != nil {
		return nil, err
	}

	if err := p.Out(pgpio.High); err != nil {
		unlockLine(lock)
		return nil, fmt.Errorf("%s out high: %w", name, err)
	}

	return &PeriphPin{pin: p, lock: lock}, nil
}

// PeriphOpener returns an Opener using the periph backend.
func PeriphOpener(lockDir string) Opener {
	return func(pin int) (Pin, error) {
		p, err := OpenPeriph(pin, lockDir)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (p *PeriphPin) SetOutput() error {
	return p.pin.Out(pgpio.High)
}

func (p *PeriphPin) SetInput() error {
	return p.pin.In(pgpio.PullUp, pgpio.NoEdge)
}

func (p *PeriphPin) SetHigh() error {
	return p.pin.Out(pgpio.High)
}

func (p *PeriphPin) SetLow() error {
	return p.pin.Out(pgpio.Low)
}

func (p *PeriphPin) IsHigh() bool {
	return p.pin.Read() == pgpio.High
}

func (p *PeriphPin) IsLow() bool {
	return p.pin.Read() == pgpio.Low
}

// Close returns the line to a pulled-up input and drops the lock.
func (p *PeriphPin) Close() error {
	var errs []error
	if err := p.pin.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure %s: %w", p.pin.Name(), err))
	}
	if err := unlockLine(p.lock); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
