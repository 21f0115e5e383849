//go:build !linux

package gpio

import "errors"

// CdevPin is not available on non-Linux platforms.
type CdevPin struct{}

// OpenCdev returns an error on non-Linux platforms.
func OpenCdev(chip string, offset int, lockDir string) (*CdevPin, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}

// CdevOpener returns an Opener that always fails on non-Linux platforms.
func CdevOpener(chip, lockDir string) Opener {
	return func(pin int) (Pin, error) {
		_, err := OpenCdev(chip, pin, lockDir)
		return nil, err
	}
}
