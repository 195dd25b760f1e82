package protocol

// Response is a typed reply produced by the ParseResponse method of the
// Command that solicited it.
type Response interface {
	// Opcode returns the reply opcode, or 0 for Ack
	Opcode() byte
}

// VCPFeatureReply contains the value of a VCP feature.
// Returned by the GetVCPFeature command.
type VCPFeatureReply struct {
	// Code is the VCP feature code echoed by the display
	Code byte

	// Type is TypeSetParameter or TypeMomentary
	Type byte

	// Current is the current value
	Current uint16

	// Max is the maximum value
	Max uint16
}

// Opcode implements Response.
func (*VCPFeatureReply) Opcode() byte { return OpVCPFeatureReply }

// CapabilitiesChunk is one fragment of the capabilities string.
// Returned by the GetCapabilitiesChunk command.
type CapabilitiesChunk struct {
	// Offset is the offset of Data within the capabilities string
	Offset uint16

	// Data is the fragment (at most MaxFragmentSize bytes)
	Data []byte

	// Final is true when the fragment is empty or shorter than MaxFragmentSize
	Final bool
}

// Opcode implements Response.
func (*CapabilitiesChunk) Opcode() byte { return OpCapabilitiesReply }

// TableReply is one fragment of a table VCP feature.
// Returned by the TableRead command.
type TableReply struct {
	// Offset is the offset of Data within the table
	Offset uint16

	// Data is the fragment (at most MaxFragmentSize bytes)
	Data []byte

	// Final is true when the fragment is empty or shorter than MaxFragmentSize
	Final bool
}

// Opcode implements Response.
func (*TableReply) Opcode() byte { return OpTableReadReply }

// TimingReport describes the video timing the display currently sees.
// Returned by the GetTimingReport command.
type TimingReport struct {
	// Status holds the Timing* status bits
	Status byte

	// HorizontalFrequency is in units of 10 Hz
	HorizontalFrequency uint16

	// VerticalFrequency is in units of 0.01 Hz
	VerticalFrequency uint16
}

// Opcode implements Response.
func (*TimingReport) Opcode() byte { return OpTimingReply }

// OutOfRange reports whether the sync frequency is outside the display's range.
func (t *TimingReport) OutOfRange() bool { return t.Status&TimingOutOfRange != 0 }

// Unstable reports whether the sync count is unstable.
func (t *TimingReport) Unstable() bool { return t.Status&TimingUnstable != 0 }

// PositiveHSync reports positive horizontal sync polarity.
func (t *TimingReport) PositiveHSync() bool { return t.Status&TimingPositiveHSync != 0 }

// PositiveVSync reports positive vertical sync polarity.
func (t *TimingReport) PositiveVSync() bool { return t.Status&TimingPositiveVSync != 0 }

// HorizontalHz returns the horizontal frequency in Hz.
func (t *TimingReport) HorizontalHz() uint32 { return uint32(t.HorizontalFrequency) * 10 }

// VerticalHz returns the vertical frequency in Hz.
func (t *TimingReport) VerticalHz() float64 { return float64(t.VerticalFrequency) / 100 }

// Ack is the result of a command that solicits no reply.
type Ack struct{}

// Opcode implements Response.
func (Ack) Opcode() byte { return 0 }
