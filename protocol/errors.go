package protocol

import (
	"errors"
	"fmt"
)

// ErrNullMessage is returned when a display answers with an empty payload.
// Displays send the null message while busy or when they have nothing to report.
var ErrNullMessage = errors.New("null message")

// EncodingError indicates a payload that cannot be framed.
// It is detected locally, before any bus I/O.
type EncodingError struct {
	// Size is the rejected payload size
	Size int

	// Max is the largest payload a frame can carry
	Max int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds maximum %d bytes", e.Size, e.Max)
}

// ChecksumError indicates a frame rejected by the codec: a bad checksum,
// a declared length that disagrees with the received bytes, or any other
// framing anomaly. The frame is discarded as a whole.
type ChecksumError struct {
	// Reason describes the anomaly
	Reason string

	// Expected is the checksum computed over the received bytes (when applicable)
	Expected byte

	// Actual is the checksum byte found in the frame (when applicable)
	Actual byte
}

func (e *ChecksumError) Error() string {
	if e.Reason != "" {
		return "invalid frame: " + e.Reason
	}
	return fmt.Sprintf("checksum mismatch: got 0x%02X, expected 0x%02X", e.Actual, e.Expected)
}

// UnsupportedFeatureError indicates the display explicitly reported that it
// does not implement the requested VCP feature.
type UnsupportedFeatureError struct {
	// Code is the VCP feature code that was requested
	Code byte
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported VCP feature 0x%02X (%s)", e.Code, FeatureName(e.Code))
}

// OffsetMismatchError indicates a fragment reply that echoes a different
// offset than the one requested, typically a stale or duplicated reply.
type OffsetMismatchError struct {
	// Expected is the requested offset
	Expected uint16

	// Actual is the offset echoed by the display
	Actual uint16
}

func (e *OffsetMismatchError) Error() string {
	return fmt.Sprintf("offset mismatch: requested 0x%04X, reply echoes 0x%04X", e.Expected, e.Actual)
}

// UnexpectedReplyError indicates a well-framed reply whose shape does not
// match the command that solicited it.
type UnexpectedReplyError struct {
	// Operation is the command whose reply was rejected
	Operation string

	// Reason describes the mismatch
	Reason string
}

func (e *UnexpectedReplyError) Error() string {
	return fmt.Sprintf("%s: unexpected reply: %s", e.Operation, e.Reason)
}

// IsProtocolError returns true if the error is a reply-shape error
// (OffsetMismatchError or UnexpectedReplyError).
func IsProtocolError(err error) bool {
	var offset *OffsetMismatchError
	var shape *UnexpectedReplyError
	return errors.As(err, &offset) || errors.As(err, &shape)
}

// getResultName returns a human-readable name for a VCP reply result code.
func getResultName(code byte) string {
	switch code {
	case ResultNoError:
		return "no error"
	case ResultUnsupported:
		return "unsupported VCP code"
	default:
		return fmt.Sprintf("unknown result code 0x%02X", code)
	}
}
