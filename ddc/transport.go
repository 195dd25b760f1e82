package ddc

import "time"

// Transport is the raw bus primitive of one display handle.
//
// Implementations are supplied by the host: an I2C character device, a
// graphics driver API, or a simulator. Errors should wrap ErrTimeout when
// the display did not answer and ErrTransportGone when the handle is no
// longer valid; anything else is treated as a transient I/O error.
type Transport interface {
	// Write sends data to the 7-bit bus address addr.
	Write(addr byte, data []byte) error

	// Read reads up to maxBytes from addr, waiting at most timeout.
	// The result may be shorter than maxBytes or padded by the adapter.
	Read(addr byte, maxBytes int, timeout time.Duration) ([]byte, error)
}

// Describer is implemented by transports that can name their display,
// for example by device path or EDID product name.
type Describer interface {
	Description() string
}

// Enumerator lists the display handles attached to the host.
type Enumerator interface {
	Displays() ([]Transport, error)
}

// Clock is the time source of the engine.
// Protocol delays go through Sleep so tests can run without wall-clock waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}
