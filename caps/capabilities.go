package caps

// Capabilities is a parsed DDC/CI capabilities string.
type Capabilities struct {
	// Protocol is the prot entry ("monitor")
	Protocol string

	// Type is the display technology ("lcd", "crt")
	Type string

	// Model is the model name reported by the display
	Model string

	// MCCSVersion is the mccs_ver entry ("2.1")
	MCCSVersion string

	// Commands lists the supported DDC/CI opcodes
	Commands []byte

	// Features lists the supported VCP features in the order reported
	Features []Feature

	// Entries holds the raw body of every top-level entry by lowercase name.
	// Repeated entries are joined with a space.
	Entries map[string]string
}

// Feature is one VCP code of the vcp entry.
type Feature struct {
	// Code is the VCP feature code
	Code byte

	// Values lists the permitted values for non-continuous features (nil if none given)
	Values []byte
}

// Feature returns the entry for code, if the display reports it.
func (c *Capabilities) Feature(code byte) (Feature, bool) {
	for _, f := range c.Features {
		if f.Code == code {
			return f, true
		}
	}
	return Feature{}, false
}

// SupportsFeature reports whether code appears in the vcp entry.
func (c *Capabilities) SupportsFeature(code byte) bool {
	_, ok := c.Feature(code)
	return ok
}

// FeatureValues returns the permitted values of code.
// The second result is false when the feature is not listed.
func (c *Capabilities) FeatureValues(code byte) ([]byte, bool) {
	f, ok := c.Feature(code)
	return f.Values, ok
}

// SupportsCommand reports whether opcode appears in the cmds entry.
func (c *Capabilities) SupportsCommand(opcode byte) bool {
	for _, op := range c.Commands {
		if op == opcode {
			return true
		}
	}
	return false
}
