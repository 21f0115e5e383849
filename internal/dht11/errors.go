package dht11

// Kind classifies a SensorError.
type Kind int

const (
	// FailedInit means the GPIO pin could not be acquired.
	FailedInit Kind = iota + 1
	// FailedRead means the frame failed its checksum or retries ran out.
	FailedRead
	// Timeout means a pulse outlasted the capture bound.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case FailedInit:
		return "FailedInit"
	case FailedRead:
		return "FailedRead"
	case Timeout:
		return "Timeout"
	}
	return "Unknown"
}

// SensorError is the error type returned by this package.
type SensorError struct {
	Kind Kind
	Msg  string
	Err  error // underlying pin error, if any
}

// Sentinels for errors.Is. They match any SensorError of the same Kind.
var (
	ErrFailedInit = &SensorError{Kind: FailedInit}
	ErrFailedRead = &SensorError{Kind: FailedRead}
	ErrTimeout    = &SensorError{Kind: Timeout}
)

func (e *SensorError) Error() string {
	var prefix string
	switch e.Kind {
	case FailedInit:
		prefix = "failed to initialize sensor"
	case FailedRead:
		prefix = "failed to read sensor"
	case Timeout:
		prefix = "sensor timed out"
	default:
		prefix = "sensor error"
	}

	s := prefix + ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *SensorError) Unwrap() error {
	return e.Err
}

// Is matches the kind-only sentinels.
func (e *SensorError) Is(target error) bool {
	t, ok := target.(*SensorError)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

func failedRead(msg string, err error) *SensorError {
	return &SensorError{Kind: FailedRead, Msg: msg, Err: err}
}
