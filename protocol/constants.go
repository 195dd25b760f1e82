package protocol

// ProtocolVersion is the DDC/CI standard version implemented by this library.
const ProtocolVersion = "1.1"

// Bus addresses per DDC/CI 1.1 section 4.
const (
	// DisplayAddress is the 7-bit I2C address of the DDC/CI endpoint (0x37)
	DisplayAddress = 0x37

	// DisplayWriteAddress is DisplayAddress shifted for a bus write (0x6E).
	// Host-originated frames use it as their checksum seed and displays
	// use it as the source byte of their replies.
	DisplayWriteAddress = DisplayAddress << 1

	// DisplaySourceAddress is the source byte of display-originated frames
	DisplaySourceAddress = DisplayWriteAddress

	// HostAddress is the source byte of host-originated frames (0x51)
	HostAddress = 0x51

	// VirtualHostAddress is the checksum seed of display-originated frames (0x50)
	VirtualHostAddress = 0x50
)

// Frame layout constants.
const (
	// LengthMarker is the reserved high bit that must be set in every length byte
	LengthMarker = 0x80

	// LengthMask extracts the payload size from a length byte
	LengthMask = 0x7F

	// FrameOverhead is the number of non-payload bytes in a frame:
	// SOURCE(1) + LENGTH(1) + CHECKSUM(1)
	FrameOverhead = 3

	// MaxFragmentSize is the largest data fragment carried by one table or
	// capabilities message
	MaxFragmentSize = 32

	// MaxPayloadSize is the largest payload accepted by Encode:
	// OPCODE(1) + TABLE_CODE(1) + OFFSET(2) + FRAGMENT(32)
	MaxPayloadSize = 4 + MaxFragmentSize

	// MaxFrameSize is the size of the largest frame, used as the read buffer size
	MaxFrameSize = FrameOverhead + MaxPayloadSize
)

// Opcodes per DDC/CI 1.1 table 4.
const (
	// OpGetVCPFeature requests the current and maximum value of a VCP feature
	OpGetVCPFeature = 0x01

	// OpVCPFeatureReply is the reply to OpGetVCPFeature
	OpVCPFeatureReply = 0x02

	// OpSetVCPFeature sets the value of a VCP feature (no reply)
	OpSetVCPFeature = 0x03

	// OpGetTimingReport requests the display's current timing report
	OpGetTimingReport = 0x07

	// OpTimingReply is the reply to OpGetTimingReport
	OpTimingReply = 0x4E

	// OpSaveCurrentSettings stores the current adjustments in non-volatile memory (no reply)
	OpSaveCurrentSettings = 0x0C

	// OpCapabilitiesRequest requests one fragment of the capabilities string
	OpCapabilitiesRequest = 0xF3

	// OpCapabilitiesReply is the reply to OpCapabilitiesRequest
	OpCapabilitiesReply = 0xE3

	// OpTableRead requests one fragment of a table VCP feature
	OpTableRead = 0xE2

	// OpTableReadReply is the reply to OpTableRead
	OpTableReadReply = 0xE4

	// OpTableWrite writes one fragment of a table VCP feature (no reply)
	OpTableWrite = 0xE7
)

// VCP feature reply result codes.
const (
	// ResultNoError indicates the feature is supported and the values are valid
	ResultNoError = 0x00

	// ResultUnsupported indicates the display does not implement the feature
	ResultUnsupported = 0x01
)

// VCP feature types reported in the VCP feature reply.
const (
	// TypeSetParameter is a continuous or non-continuous setting
	TypeSetParameter = 0x00

	// TypeMomentary is a write-only action such as a factory reset
	TypeMomentary = 0x01
)

// Timing report status bits.
const (
	// TimingOutOfRange indicates the sync frequency is out of the display's range
	TimingOutOfRange = 0x80

	// TimingUnstable indicates the sync count is not stable
	TimingUnstable = 0x40

	// TimingPositiveHSync indicates positive horizontal sync polarity
	TimingPositiveHSync = 0x02

	// TimingPositiveVSync indicates positive vertical sync polarity
	TimingPositiveVSync = 0x01
)

// Reply sizes, including the opcode byte.
const (
	// VCPFeatureReplySize is the payload size of a VCP feature reply (8 bytes)
	VCPFeatureReplySize = 8

	// TimingReplySize is the payload size of a timing report reply (6 bytes)
	TimingReplySize = 6

	// FragmentReplyHeaderSize is OPCODE(1) + OFFSET(2) in capabilities and table replies
	FragmentReplyHeaderSize = 3
)
