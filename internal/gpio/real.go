//go:build linux

package gpio

import (
	"fmt"

	"github.com/gofrs/flock"
	"github.com/warthog618/go-gpiocdev"
)

// CdevPin drives one line through the Linux GPIO character device.
type CdevPin struct {
	line *gpiocdev.Line
	lock *flock.Flock
}

// OpenCdev locks and requests a line on the named chip. The line starts as an
// output driven high, which is the idle state of a pulled-up single-wire bus.
func OpenCdev(chip string, offset int, lockDir string) (*CdevPin, error) {
	lock, err := LockLine(lockDir, chip, offset)
	if err != nil {
		return nil, err
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(1),
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		unlockLine(lock)
		return nil, fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}

	return &CdevPin{line: line, lock: lock}, nil
}

// CdevOpener returns an Opener bound to a chip and lock directory.
func CdevOpener(chip, lockDir string) Opener {
	return func(pin int) (Pin, error) {
		p, err := OpenCdev(chip, pin, lockDir)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// SetOutput switches the line to output, initially high.
func (p *CdevPin) SetOutput() error {
	if err := p.line.Reconfigure(gpiocdev.AsOutput(1)); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// SetInput switches the line to input with the pull-up enabled.
func (p *CdevPin) SetInput() error {
	if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		return fmt.Errorf("set input: %w", err)
	}
	return nil
}

// SetHigh drives the line high.
func (p *CdevPin) SetHigh() error {
	return p.line.SetValue(1)
}

// SetLow drives the line low.
func (p *CdevPin) SetLow() error {
	return p.line.SetValue(0)
}

// IsHigh samples the line.
func (p *CdevPin) IsHigh() bool {
	v, err := p.line.Value()
	return err == nil && v == 1
}

// IsLow samples the line.
func (p *CdevPin) IsLow() bool {
	v, err := p.line.Value()
	return err == nil && v == 0
}

// Close leaves the line as a pulled-up input, releases it and drops the lock.
func (p *CdevPin) Close() error {
	var errs []error

	if p.line != nil {
		if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := p.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if err := unlockLine(p.lock); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
