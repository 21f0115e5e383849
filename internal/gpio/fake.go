package gpio

import "errors"

// Segment is a stretch of constant line level lasting Reads matching samples.
type Segment struct {
	High  bool
	Reads int
}

// FakePin is a test double that replays scripted waveforms.
//
// Time on the fake line advances only while a caller polls for the level the
// line currently holds: IsLow during a low segment consumes one read, IsHigh
// during that segment returns false and consumes nothing. A busy-wait loop
// that counts while a level holds therefore counts exactly Segment.Reads.
type FakePin struct {
	// Waveforms are played one per SetInput call. Once exhausted the last
	// waveform repeats.
	Waveforms [][]Segment

	// IdleHigh is the level once the current waveform has run out.
	IdleHigh bool

	// Ops records direction and level calls in order.
	Ops []string

	// SetError, if set, is returned by every direction and level call.
	SetError error

	// Inputs counts SetInput calls.
	Inputs int

	// Closed tracks if Close was called.
	Closed bool

	segs []Segment
	seg  int
	used int
}

// NewFakePin creates a FakePin that idles high (pulled up).
func NewFakePin(waveforms ...[]Segment) *FakePin {
	return &FakePin{Waveforms: waveforms, IdleHigh: true}
}

// FakeOpener returns an Opener that hands out pin, or err if set.
func FakeOpener(pin *FakePin, err error) Opener {
	return func(int) (Pin, error) {
		if err != nil {
			return nil, err
		}
		return pin, nil
	}
}

func (f *FakePin) op(name string) error {
	f.Ops = append(f.Ops, name)
	return f.SetError
}

func (f *FakePin) SetOutput() error { return f.op("output") }
func (f *FakePin) SetHigh() error   { return f.op("high") }
func (f *FakePin) SetLow() error    { return f.op("low") }

// SetInput starts the next waveform.
func (f *FakePin) SetInput() error {
	if err := f.op("input"); err != nil {
		return err
	}
	f.segs = nil
	if n := len(f.Waveforms); n > 0 {
		i := f.Inputs
		if i >= n {
			i = n - 1
		}
		f.segs = f.Waveforms[i]
	}
	f.Inputs++
	f.seg = 0
	f.used = 0
	return nil
}

func (f *FakePin) IsHigh() bool { return f.poll(true) }
func (f *FakePin) IsLow() bool  { return f.poll(false) }

func (f *FakePin) poll(high bool) bool {
	for f.seg < len(f.segs) && f.used >= f.segs[f.seg].Reads {
		f.seg++
		f.used = 0
	}
	if f.seg == len(f.segs) {
		return f.IdleHigh == high
	}
	if f.segs[f.seg].High != high {
		return false
	}
	f.used++
	return true
}

// Close marks the pin as closed.
func (f *FakePin) Close() error {
	if f.Closed {
		return errors.New("already closed")
	}
	f.Closed = true
	return nil
}

// Read counts used by DHT11Waveform, roughly in microseconds at one read per µs.
const (
	FakeAckReads  = 80
	FakeLowReads  = 50
	FakeZeroReads = 26
	FakeOneReads  = 70
)

// DHT11Waveform renders the sensor side of a DHT11 transfer of frame: the
// acknowledgment pair, one low/high pair per bit MSB-first, and the closing
// low before the line is released.
func DHT11Waveform(frame [5]byte) []Segment {
	segs := make([]Segment, 0, 2+len(frame)*16+1)
	segs = append(segs,
		Segment{High: false, Reads: FakeAckReads},
		Segment{High: true, Reads: FakeAckReads})
	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			high := FakeZeroReads
			if b&(1<<bit) != 0 {
				high = FakeOneReads
			}
			segs = append(segs,
				Segment{High: false, Reads: FakeLowReads},
				Segment{High: true, Reads: high})
		}
	}
	return append(segs, Segment{High: false, Reads: FakeLowReads})
}
