package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseVCPFeatureReply parses the reply to a Get VCP Feature request for code.
//
// Payload format (VCPFeatureReplySize bytes):
//
//	[0x02][RESULT][CODE][TYPE][MAX_H][MAX_L][CUR_H][CUR_L]
//
// A RESULT of ResultUnsupported yields an UnsupportedFeatureError.
func ParseVCPFeatureReply(code byte, payload []byte) (*VCPFeatureReply, error) {
	const op = "get vcp feature"

	if len(payload) != VCPFeatureReplySize {
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("got %d bytes, expected %d", len(payload), VCPFeatureReplySize),
		}
	}

	if payload[0] != OpVCPFeatureReply {
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("opcode 0x%02X, expected 0x%02X", payload[0], OpVCPFeatureReply),
		}
	}

	switch payload[1] {
	case ResultNoError:
	case ResultUnsupported:
		return nil, &UnsupportedFeatureError{Code: code}
	default:
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    getResultName(payload[1]),
		}
	}

	if payload[2] != code {
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("reply for feature 0x%02X, requested 0x%02X", payload[2], code),
		}
	}

	reply := &VCPFeatureReply{
		Code:    payload[2],
		Type:    payload[3],
		Max:     binary.BigEndian.Uint16(payload[4:6]),
		Current: binary.BigEndian.Uint16(payload[6:8]),
	}

	return reply, nil
}

// ParseFragmentReply parses a capabilities or table read reply.
//
// Payload format:
//
//	[OPCODE][OFFSET_H][OFFSET_L][DATA(0-32)]
//
// The echoed offset must equal offset, otherwise an OffsetMismatchError is
// returned. The returned data is a copy.
func ParseFragmentReply(op string, opcode byte, offset uint16, payload []byte) (data []byte, final bool, err error) {
	if len(payload) < FragmentReplyHeaderSize {
		return nil, false, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("got %d bytes, minimum is %d", len(payload), FragmentReplyHeaderSize),
		}
	}

	if payload[0] != opcode {
		return nil, false, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("opcode 0x%02X, expected 0x%02X", payload[0], opcode),
		}
	}

	echoed := binary.BigEndian.Uint16(payload[1:3])
	if echoed != offset {
		return nil, false, &OffsetMismatchError{Expected: offset, Actual: echoed}
	}

	fragment := payload[FragmentReplyHeaderSize:]
	if len(fragment) > MaxFragmentSize {
		return nil, false, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("fragment of %d bytes exceeds maximum %d", len(fragment), MaxFragmentSize),
		}
	}

	data = make([]byte, len(fragment))
	copy(data, fragment)

	return data, len(data) < MaxFragmentSize, nil
}

// ParseTimingReply parses the reply to a Get Timing Report request.
//
// Payload format (TimingReplySize bytes):
//
//	[0x4E][STATUS][HFREQ_H][HFREQ_L][VFREQ_H][VFREQ_L]
func ParseTimingReply(payload []byte) (*TimingReport, error) {
	const op = "get timing report"

	if len(payload) != TimingReplySize {
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("got %d bytes, expected %d", len(payload), TimingReplySize),
		}
	}

	if payload[0] != OpTimingReply {
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("opcode 0x%02X, expected 0x%02X", payload[0], OpTimingReply),
		}
	}

	report := &TimingReport{
		Status:              payload[1],
		HorizontalFrequency: binary.BigEndian.Uint16(payload[2:4]),
		VerticalFrequency:   binary.BigEndian.Uint16(payload[4:6]),
	}

	return report, nil
}
