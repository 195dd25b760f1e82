package protocol

import (
	"encoding/binary"
	"fmt"
)

// Command is one DDC/CI request.
//
// Payload returns the opcode followed by the command's arguments. Commands
// that solicit a reply decode it with ParseResponse; the reply shape is
// never inferred from the payload alone.
type Command interface {
	// Opcode returns the request opcode
	Opcode() byte

	// Payload returns the encoded request payload
	Payload() []byte

	// ExpectsReply reports whether the display answers this command
	ExpectsReply() bool

	// ParseResponse decodes the payload of the reply frame
	ParseResponse(payload []byte) (Response, error)

	// String names the command for logs and errors
	String() string
}

// BuildCommand encodes cmd into a complete host-originated frame ready to send.
//
// Frame structure:
//
//	[0x51][LEN|0x80][OPCODE][ARGS...][CHECKSUM]
func BuildCommand(cmd Command) ([]byte, error) {
	frame, err := Encode(HostAddress, cmd.Payload())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	return frame.Bytes(), nil
}

// GetVCPFeature reads the current and maximum value of a VCP feature.
//
// Payload: [0x01][CODE]
type GetVCPFeature struct {
	Code byte
}

func (GetVCPFeature) Opcode() byte       { return OpGetVCPFeature }
func (GetVCPFeature) ExpectsReply() bool { return true }

func (c GetVCPFeature) Payload() []byte {
	return []byte{OpGetVCPFeature, c.Code}
}

func (c GetVCPFeature) ParseResponse(payload []byte) (Response, error) {
	return ParseVCPFeatureReply(c.Code, payload)
}

func (c GetVCPFeature) String() string {
	return fmt.Sprintf("get vcp feature 0x%02X", c.Code)
}

// SetVCPFeature sets the value of a VCP feature.
//
// Payload: [0x03][CODE][VALUE_H][VALUE_L]
type SetVCPFeature struct {
	Code  byte
	Value uint16
}

func (SetVCPFeature) Opcode() byte       { return OpSetVCPFeature }
func (SetVCPFeature) ExpectsReply() bool { return false }

func (c SetVCPFeature) Payload() []byte {
	payload := []byte{OpSetVCPFeature, c.Code, 0, 0}
	binary.BigEndian.PutUint16(payload[2:], c.Value)
	return payload
}

func (c SetVCPFeature) ParseResponse(payload []byte) (Response, error) {
	return parseAck(c.String(), payload)
}

func (c SetVCPFeature) String() string {
	return fmt.Sprintf("set vcp feature 0x%02X", c.Code)
}

// GetCapabilitiesChunk reads the capabilities string fragment at Offset.
//
// Payload: [0xF3][OFFSET_H][OFFSET_L]
type GetCapabilitiesChunk struct {
	Offset uint16
}

func (GetCapabilitiesChunk) Opcode() byte       { return OpCapabilitiesRequest }
func (GetCapabilitiesChunk) ExpectsReply() bool { return true }

func (c GetCapabilitiesChunk) Payload() []byte {
	payload := []byte{OpCapabilitiesRequest, 0, 0}
	binary.BigEndian.PutUint16(payload[1:], c.Offset)
	return payload
}

func (c GetCapabilitiesChunk) ParseResponse(payload []byte) (Response, error) {
	data, final, err := ParseFragmentReply(c.String(), OpCapabilitiesReply, c.Offset, payload)
	if err != nil {
		return nil, err
	}
	return &CapabilitiesChunk{Offset: c.Offset, Data: data, Final: final}, nil
}

func (c GetCapabilitiesChunk) String() string {
	return fmt.Sprintf("capabilities request at 0x%04X", c.Offset)
}

// GetTimingReport reads the display's timing report.
//
// Payload: [0x07]
type GetTimingReport struct{}

func (GetTimingReport) Opcode() byte       { return OpGetTimingReport }
func (GetTimingReport) ExpectsReply() bool { return true }
func (GetTimingReport) Payload() []byte    { return []byte{OpGetTimingReport} }
func (GetTimingReport) String() string     { return "get timing report" }

func (GetTimingReport) ParseResponse(payload []byte) (Response, error) {
	return ParseTimingReply(payload)
}

// SaveCurrentSettings asks the display to store its current adjustments.
//
// Payload: [0x0C]
type SaveCurrentSettings struct{}

func (SaveCurrentSettings) Opcode() byte       { return OpSaveCurrentSettings }
func (SaveCurrentSettings) ExpectsReply() bool { return false }
func (SaveCurrentSettings) Payload() []byte    { return []byte{OpSaveCurrentSettings} }
func (SaveCurrentSettings) String() string     { return "save current settings" }

func (c SaveCurrentSettings) ParseResponse(payload []byte) (Response, error) {
	return parseAck(c.String(), payload)
}

// TableRead reads the fragment at Offset of table feature Code.
//
// Payload: [0xE2][CODE][OFFSET_H][OFFSET_L]
type TableRead struct {
	Code   byte
	Offset uint16
}

func (TableRead) Opcode() byte       { return OpTableRead }
func (TableRead) ExpectsReply() bool { return true }

func (c TableRead) Payload() []byte {
	payload := []byte{OpTableRead, c.Code, 0, 0}
	binary.BigEndian.PutUint16(payload[2:], c.Offset)
	return payload
}

func (c TableRead) ParseResponse(payload []byte) (Response, error) {
	data, final, err := ParseFragmentReply(c.String(), OpTableReadReply, c.Offset, payload)
	if err != nil {
		return nil, err
	}
	return &TableReply{Offset: c.Offset, Data: data, Final: final}, nil
}

func (c TableRead) String() string {
	return fmt.Sprintf("table read 0x%02X at 0x%04X", c.Code, c.Offset)
}

// TableWrite writes Data at Offset of table feature Code.
// Data should not exceed MaxFragmentSize; larger payloads fail to encode.
//
// Payload: [0xE7][CODE][OFFSET_H][OFFSET_L][DATA...]
type TableWrite struct {
	Code   byte
	Offset uint16
	Data   []byte
}

func (TableWrite) Opcode() byte       { return OpTableWrite }
func (TableWrite) ExpectsReply() bool { return false }

func (c TableWrite) Payload() []byte {
	payload := make([]byte, 4, 4+len(c.Data))
	payload[0] = OpTableWrite
	payload[1] = c.Code
	binary.BigEndian.PutUint16(payload[2:4], c.Offset)
	return append(payload, c.Data...)
}

func (c TableWrite) ParseResponse(payload []byte) (Response, error) {
	return parseAck(c.String(), payload)
}

func (c TableWrite) String() string {
	return fmt.Sprintf("table write 0x%02X at 0x%04X", c.Code, c.Offset)
}

// parseAck accepts the empty reply of a command that solicits none.
func parseAck(op string, payload []byte) (Response, error) {
	if len(payload) != 0 {
		return nil, &UnexpectedReplyError{
			Operation: op,
			Reason:    fmt.Sprintf("command takes no reply, got %d bytes", len(payload)),
		}
	}
	return Ack{}, nil
}
