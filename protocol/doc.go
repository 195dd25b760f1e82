// Package protocol implements the DDC/CI (Display Data Channel Command
// Interface) wire protocol.
//
// This package provides the frame codec and the typed command set defined
// by the VESA DDC/CI 1.1 standard and the MCCS VCP feature set.
//
// # Protocol Overview
//
// Every message is a single frame:
//
//	Host to display:  [0x51][LEN|0x80][OPCODE][ARGS...][CHECKSUM]
//	Display to host:  [0x6E][LEN|0x80][OPCODE][ARGS...][CHECKSUM]
//
// Where:
//   - LEN = payload size; the high bit is a reserved marker and always set
//   - CHECKSUM = XOR of the destination seed (0x6E or 0x50), source, LEN and payload
//   - multi-byte arguments are big-endian
//
// # Frame Codec
//
// Use Encode and Decode to build and validate frames:
//
//	frame, err := protocol.Encode(protocol.HostAddress, payload)
//	raw := frame.Bytes()
//
//	reply, err := protocol.DecodeReply(buf) // tolerates bus padding
//
// Decoding never returns part of a damaged frame: any length, marker or
// checksum anomaly yields a ChecksumError.
//
// # Commands
//
// Commands are plain values implementing Command:
//
//	cmd := protocol.GetVCPFeature{Code: protocol.VCPBrightness}
//	raw, err := protocol.BuildCommand(cmd)
//	// ... bus I/O ...
//	resp, err := cmd.ParseResponse(reply.Payload)
//	brightness := resp.(*protocol.VCPFeatureReply).Current
//
// # Error Handling
//
// Reply decoding returns structured errors:
//   - EncodingError: payload too large, detected before any I/O
//   - ChecksumError: frame damaged in transit
//   - UnsupportedFeatureError: display reports it lacks the feature
//   - OffsetMismatchError: fragment reply for a different offset
//   - UnexpectedReplyError: reply shape does not match the command
//
// # Reference
//
// VESA Display Data Channel Command Interface Standard, Version 1.1, and
// VESA Monitor Control Command Set Standard, Version 2.2a.
package protocol
