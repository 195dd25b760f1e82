package protocol

import "fmt"

// Frame is one DDC/CI message.
//
// Wire format:
//
//	[SOURCE][LENGTH|0x80][PAYLOAD...][CHECKSUM]
//
// CHECKSUM is the XOR of the destination seed, SOURCE, LENGTH and every
// payload byte. See Checksum.
type Frame struct {
	// Source is the source address byte (HostAddress or DisplaySourceAddress)
	Source byte

	// Payload is the opcode followed by its arguments
	Payload []byte
}

// Encode builds a frame from source with a copy of payload.
// Returns an EncodingError if payload exceeds MaxPayloadSize.
func Encode(source byte, payload []byte) (*Frame, error) {
	if len(payload) > MaxPayloadSize {
		return nil, &EncodingError{Size: len(payload), Max: MaxPayloadSize}
	}

	frame := &Frame{
		Source:  source,
		Payload: make([]byte, len(payload)),
	}
	copy(frame.Payload, payload)

	return frame, nil
}

// LengthByte returns the length byte with the reserved marker bit set.
func (f *Frame) LengthByte() byte {
	return byte(len(f.Payload)) | LengthMarker
}

// Bytes serializes the frame for transmission.
func (f *Frame) Bytes() []byte {
	raw := make([]byte, 0, FrameOverhead+len(f.Payload))

	raw = append(raw, f.Source)
	raw = append(raw, f.LengthByte())
	raw = append(raw, f.Payload...)
	raw = append(raw, frameChecksum(raw))

	return raw
}

// Decode parses exactly one serialized frame.
//
// The marker bit is stripped from the length byte before the declared
// payload size is compared with the bytes received. Any mismatch in
// length, marker or checksum yields a ChecksumError; nothing of a rejected
// frame is returned.
func Decode(raw []byte) (*Frame, error) {
	if len(raw) < FrameOverhead {
		return nil, &ChecksumError{
			Reason: fmt.Sprintf("frame too short: got %d bytes, minimum is %d", len(raw), FrameOverhead),
		}
	}

	lengthByte := raw[1]
	if lengthByte&LengthMarker == 0 {
		return nil, &ChecksumError{
			Reason: fmt.Sprintf("length byte 0x%02X is missing the 0x%02X marker", lengthByte, LengthMarker),
		}
	}

	declared := int(lengthByte & LengthMask)
	if len(raw) != FrameOverhead+declared {
		return nil, &ChecksumError{
			Reason: fmt.Sprintf("frame length mismatch: got %d bytes, expected %d (overhead=%d + payload=%d)",
				len(raw), FrameOverhead+declared, FrameOverhead, declared),
		}
	}

	expected := frameChecksum(raw[:len(raw)-1])
	actual := raw[len(raw)-1]
	if expected != actual {
		return nil, &ChecksumError{Expected: expected, Actual: actual}
	}

	frame := &Frame{
		Source:  raw[0],
		Payload: make([]byte, declared),
	}
	copy(frame.Payload, raw[2:2+declared])

	return frame, nil
}

// DecodeReply parses a display reply read from the bus.
//
// Bus adapters usually fill a fixed-size buffer, so bytes beyond the
// declared frame are discarded before strict decoding. The source byte
// must be DisplaySourceAddress.
func DecodeReply(raw []byte) (*Frame, error) {
	if len(raw) < FrameOverhead {
		return nil, &ChecksumError{
			Reason: fmt.Sprintf("reply too short: got %d bytes, minimum is %d", len(raw), FrameOverhead),
		}
	}

	if raw[0] != DisplaySourceAddress {
		return nil, &ChecksumError{
			Reason: fmt.Sprintf("invalid source address: got 0x%02X, expected 0x%02X", raw[0], DisplaySourceAddress),
		}
	}

	frameSize := FrameOverhead + int(raw[1]&LengthMask)
	if len(raw) < frameSize {
		return nil, &ChecksumError{
			Reason: fmt.Sprintf("incomplete reply: got %d bytes, expected %d", len(raw), frameSize),
		}
	}

	return Decode(raw[:frameSize])
}
