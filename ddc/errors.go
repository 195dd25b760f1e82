package ddc

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout reports that no reply arrived within the read window.
	// Transports return it (wrapped) for read timeouts and unacknowledged
	// transfers; the engine surfaces it once retries are exhausted.
	ErrTimeout = errors.New("ddc: no reply from display")

	// ErrTransportGone reports that the display handle is no longer valid.
	// Transports return it (wrapped); the engine never retries it.
	ErrTransportGone = errors.New("ddc: display handle is gone")

	// ErrProtocolViolation reports replies that kept disagreeing with the
	// issued command (offset mismatch or unexpected shape).
	ErrProtocolViolation = errors.New("ddc: protocol violation")

	// ErrReassemblyOverflow reports a chunked read that exceeded its bounds.
	ErrReassemblyOverflow = errors.New("ddc: reassembly overflow")
)

// ExchangeError is returned by every failed exchange.
// Use errors.Is and errors.As on it to tell the failure class apart:
//
//	errors.Is(err, ddc.ErrTimeout)                   // no reply
//	errors.As(err, new(*protocol.ChecksumError))     // garbled reply
//	errors.As(err, new(*protocol.UnsupportedFeatureError)) // device rejected
//	errors.Is(err, ddc.ErrProtocolViolation)         // reply for another command
//	errors.Is(err, ddc.ErrTransportGone)             // handle invalid
type ExchangeError struct {
	// Op names the command that failed
	Op string

	// Attempts is the number of bus round trips performed
	Attempts int

	// Err is the cause of the final failure
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// ReassemblyError indicates that a chunked read exceeded its length or chunk bounds.
type ReassemblyError struct {
	// What names the reassembled object ("capabilities" or "table 0xNN")
	What string

	// Bytes is the number of bytes accumulated before giving up
	Bytes int

	// Chunks is the number of chunks read before giving up
	Chunks int

	// Limit describes the bound that was hit
	Limit string
}

func (e *ReassemblyError) Error() string {
	return fmt.Sprintf("%s: %v after %d chunks and %d bytes (%s)",
		e.What, ErrReassemblyOverflow, e.Chunks, e.Bytes, e.Limit)
}

func (e *ReassemblyError) Unwrap() error {
	return ErrReassemblyOverflow
}
