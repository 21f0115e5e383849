package dht11

// Frame is the 5-byte payload: humidity integer and decimal, temperature
// integer and decimal, checksum.
type Frame [5]byte

// Reading is one decoded measurement in °C and %RH.
type Reading struct {
	Temperature float32
	Humidity    float32
}

// Threshold returns the mean high-pulse count of the 40 data pairs. Pair 0 is
// the sensor's acknowledgment and carries no bit.
func Threshold(c *PulseCounters) uint32 {
	var sum uint32
	for i := 3; i < len(c); i += 2 {
		sum += c[i]
	}
	return sum / (Pulses - 1)
}

// DecodeFrame turns data-pair high pulses into bits, MSB first. A high pulse
// at or above the threshold is a 1.
func DecodeFrame(c *PulseCounters) Frame {
	threshold := Threshold(c)

	var f Frame
	for i := 3; i < len(c); i += 2 {
		idx := (i - 3) / 16
		f[idx] <<= 1
		if c[i] >= threshold {
			f[idx] |= 1
		}
	}
	return f
}

// Checksum is the wrapping 8-bit sum of the four data bytes.
func (f Frame) Checksum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

// Valid reports whether the checksum byte matches.
func (f Frame) Valid() bool {
	return f[4] == f.Checksum()
}

// Reading converts the data bytes without validating.
func (f Frame) Reading() Reading {
	return Reading{
		Temperature: float32(f[2]) + float32(f[3])/10,
		Humidity:    float32(f[0]) + float32(f[1])/10,
	}
}

// Decode converts counters to a Reading, or fails with FailedRead when the
// checksum does not match.
func Decode(c *PulseCounters) (Reading, error) {
	f := DecodeFrame(c)
	if !f.Valid() {
		return Reading{}, failedRead("failed checksum validation", nil)
	}
	return f.Reading(), nil
}
