// Package ddctest provides a simulated DDC/CI display for tests and examples.
//
// Monitor implements ddc.Transport. It decodes every request frame,
// keeps a VCP feature table, serves its capabilities string and table
// features in fragments, and can be told to misbehave:
//
//	mon := ddctest.NewMonitor()
//	mon.InjectFault(ddctest.FaultNullReply, ddctest.FaultCorruptReply)
//	engine := ddc.New(mon)
//	reply, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness) // succeeds on the third attempt
package ddctest

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/moffa90/go-ddcci/ddc"
	"github.com/moffa90/go-ddcci/protocol"
)

// DefaultCapabilities is the capabilities string of a new Monitor.
const DefaultCapabilities = "(prot(monitor)type(lcd)model(DDCTEST1)cmds(01 02 03 07 0C E3 F3)" +
	"vcp(02 04 10 12 14(05 06 08 0B) 16 18 1A 60(0F 11 12) 62 73 D6(01 04 05) DF)mccs_ver(2.1))"

// Fault is a misbehavior applied to one request.
type Fault int

const (
	// FaultNone handles the request normally
	FaultNone Fault = iota

	// FaultDropReply loses the reply; the next read times out
	FaultDropReply

	// FaultCorruptReply flips one payload bit of the reply
	FaultCorruptReply

	// FaultStaleReply answers for another offset or feature code
	FaultStaleReply

	// FaultNullReply answers with the null message of a busy display
	FaultNullReply

	// FaultGone invalidates the handle for every later call
	FaultGone
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultDropReply:
		return "drop reply"
	case FaultCorruptReply:
		return "corrupt reply"
	case FaultStaleReply:
		return "stale reply"
	case FaultNullReply:
		return "null reply"
	case FaultGone:
		return "gone"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

type feature struct {
	typ     byte
	current uint16
	max     uint16
}

// Monitor is a simulated display. It is safe for concurrent use.
type Monitor struct {
	mu sync.Mutex

	name         string
	features     map[byte]*feature
	capabilities []byte
	tables       map[byte][]byte
	timing       protocol.TimingReport
	latency      time.Duration

	faults   []Fault
	pending  []byte
	gone     bool
	saves    int
	requests int
}

// NewMonitor returns a Monitor with brightness, contrast, input source
// and power mode features, DefaultCapabilities and a 1080p60 timing report.
func NewMonitor() *Monitor {
	return &Monitor{
		name: "ddctest monitor",
		features: map[byte]*feature{
			protocol.VCPBrightness:  {typ: protocol.TypeSetParameter, current: 50, max: 100},
			protocol.VCPContrast:    {typ: protocol.TypeSetParameter, current: 75, max: 100},
			protocol.VCPInputSource: {typ: protocol.TypeSetParameter, current: protocol.InputHDMI1, max: 0x12},
			protocol.VCPPowerMode:   {typ: protocol.TypeSetParameter, current: protocol.PowerOn, max: protocol.PowerHardOff},
		},
		capabilities: []byte(DefaultCapabilities),
		tables:       make(map[byte][]byte),
		timing: protocol.TimingReport{
			Status:              protocol.TimingPositiveHSync | protocol.TimingPositiveVSync,
			HorizontalFrequency: 6750,
			VerticalFrequency:   6000,
		},
	}
}

// SetName changes the description reported by Description.
func (m *Monitor) SetName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
}

// Description implements ddc.Describer.
func (m *Monitor) Description() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

// SetFeature defines or replaces a continuous VCP feature.
func (m *Monitor) SetFeature(code byte, current, maximum uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features[code] = &feature{typ: protocol.TypeSetParameter, current: current, max: maximum}
}

// RemoveFeature makes the monitor report code as unsupported.
func (m *Monitor) RemoveFeature(code byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.features, code)
}

// Feature returns the current and maximum value of code.
func (m *Monitor) Feature(code byte) (current, maximum uint16, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.features[code]
	if !ok {
		return 0, 0, false
	}
	return f.current, f.max, true
}

// SetCapabilities replaces the capabilities string, including any terminator.
func (m *Monitor) SetCapabilities(s []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capabilities = append([]byte(nil), s...)
}

// SetTable defines the contents of a table feature.
func (m *Monitor) SetTable(code byte, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[code] = append([]byte(nil), data...)
}

// Table returns a copy of a table feature.
func (m *Monitor) Table(code byte) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[code]
	return append([]byte(nil), t...), ok
}

// SetTimingReport replaces the timing report.
func (m *Monitor) SetTimingReport(r protocol.TimingReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timing = r
}

// SetLatency makes every read sleep for d.
func (m *Monitor) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// InjectFault queues faults; each applies to one later request, in order.
func (m *Monitor) InjectFault(faults ...Fault) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = append(m.faults, faults...)
}

// Saves returns how many times SaveCurrentSettings was received.
func (m *Monitor) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Requests returns how many well-formed request frames were received.
func (m *Monitor) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// Write implements ddc.Transport.
func (m *Monitor) Write(addr byte, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gone {
		return fmt.Errorf("ddctest: write: %w", ddc.ErrTransportGone)
	}
	if addr != protocol.DisplayAddress {
		return fmt.Errorf("ddctest: no device at 0x%02X: %w", addr, ddc.ErrTimeout)
	}

	fault := FaultNone
	if len(m.faults) > 0 {
		fault = m.faults[0]
		m.faults = m.faults[1:]
	}
	if fault == FaultGone {
		m.gone = true
		return fmt.Errorf("ddctest: write: %w", ddc.ErrTransportGone)
	}

	m.pending = nil

	// A display ignores requests it cannot decode.
	frame, err := protocol.Decode(data)
	if err != nil || frame.Source != protocol.HostAddress || len(frame.Payload) == 0 {
		return nil
	}
	m.requests++

	reply := m.handle(frame.Payload)
	if reply == nil {
		return nil
	}

	switch fault {
	case FaultDropReply:
		return nil
	case FaultNullReply:
		reply = []byte{}
	case FaultStaleReply:
		reply = stale(reply)
	}

	out, err := protocol.Encode(protocol.DisplaySourceAddress, reply)
	if err != nil {
		return fmt.Errorf("ddctest: encode reply: %w", err)
	}
	m.pending = out.Bytes()

	if fault == FaultCorruptReply {
		m.pending[len(m.pending)/2] ^= 0x04
	}
	return nil
}

// Read implements ddc.Transport.
func (m *Monitor) Read(addr byte, maxBytes int, timeout time.Duration) ([]byte, error) {
	m.mu.Lock()
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		time.Sleep(min(latency, timeout))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gone {
		return nil, fmt.Errorf("ddctest: read: %w", ddc.ErrTransportGone)
	}
	if addr != protocol.DisplayAddress {
		return nil, fmt.Errorf("ddctest: no device at 0x%02X: %w", addr, ddc.ErrTimeout)
	}
	if latency > timeout {
		m.pending = nil
		return nil, fmt.Errorf("ddctest: read after %s: %w", timeout, ddc.ErrTimeout)
	}
	if m.pending == nil {
		return nil, fmt.Errorf("ddctest: nothing to read: %w", ddc.ErrTimeout)
	}

	out := m.pending
	m.pending = nil
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	return out, nil
}

// handle executes one request and returns the reply payload, nil when
// the request takes no reply, or an empty payload for the null message.
func (m *Monitor) handle(req []byte) []byte {
	switch req[0] {
	case protocol.OpGetVCPFeature:
		if len(req) != 2 {
			return nil
		}
		code := req[1]
		f, ok := m.features[code]
		if !ok {
			return []byte{protocol.OpVCPFeatureReply, protocol.ResultUnsupported, code, 0, 0, 0, 0, 0}
		}
		reply := []byte{protocol.OpVCPFeatureReply, protocol.ResultNoError, code, f.typ, 0, 0, 0, 0}
		binary.BigEndian.PutUint16(reply[4:6], f.max)
		binary.BigEndian.PutUint16(reply[6:8], f.current)
		return reply

	case protocol.OpSetVCPFeature:
		if len(req) != 4 {
			return nil
		}
		if f, ok := m.features[req[1]]; ok {
			if v := binary.BigEndian.Uint16(req[2:4]); v <= f.max {
				f.current = v
			}
		}
		return nil

	case protocol.OpGetTimingReport:
		reply := []byte{protocol.OpTimingReply, m.timing.Status, 0, 0, 0, 0}
		binary.BigEndian.PutUint16(reply[2:4], m.timing.HorizontalFrequency)
		binary.BigEndian.PutUint16(reply[4:6], m.timing.VerticalFrequency)
		return reply

	case protocol.OpSaveCurrentSettings:
		m.saves++
		return nil

	case protocol.OpCapabilitiesRequest:
		if len(req) != 3 {
			return nil
		}
		offset := binary.BigEndian.Uint16(req[1:3])
		return fragmentReply(protocol.OpCapabilitiesReply, offset, m.capabilities)

	case protocol.OpTableRead:
		if len(req) != 4 {
			return nil
		}
		table, ok := m.tables[req[1]]
		if !ok {
			return []byte{}
		}
		offset := binary.BigEndian.Uint16(req[2:4])
		return fragmentReply(protocol.OpTableReadReply, offset, table)

	case protocol.OpTableWrite:
		if len(req) < 4 {
			return nil
		}
		code := req[1]
		offset := int(binary.BigEndian.Uint16(req[2:4]))
		data := req[4:]
		table := m.tables[code]
		if need := offset + len(data); need > len(table) {
			table = append(table, make([]byte, need-len(table))...)
		}
		copy(table[offset:], data)
		m.tables[code] = table
		return nil

	default:
		return nil
	}
}

// fragmentReply serves the fragment of src at offset.
func fragmentReply(opcode byte, offset uint16, src []byte) []byte {
	start := min(int(offset), len(src))
	end := min(start+protocol.MaxFragmentSize, len(src))

	reply := make([]byte, protocol.FragmentReplyHeaderSize, protocol.FragmentReplyHeaderSize+end-start)
	reply[0] = opcode
	binary.BigEndian.PutUint16(reply[1:3], offset)
	return append(reply, src[start:end]...)
}

// stale rewrites a reply so it answers a different request.
func stale(reply []byte) []byte {
	out := append([]byte(nil), reply...)
	switch out[0] {
	case protocol.OpCapabilitiesReply, protocol.OpTableReadReply:
		offset := binary.BigEndian.Uint16(out[1:3])
		binary.BigEndian.PutUint16(out[1:3], offset^protocol.MaxFragmentSize)
	case protocol.OpVCPFeatureReply:
		out[2] ^= 0x01
	case protocol.OpTimingReply:
		out[0] = protocol.OpVCPFeatureReply
	}
	return out
}

// Bus is a set of simulated monitors implementing ddc.Enumerator.
type Bus []*Monitor

// Displays implements ddc.Enumerator.
func (b Bus) Displays() ([]ddc.Transport, error) {
	out := make([]ddc.Transport, 0, len(b))
	for _, m := range b {
		out = append(out, m)
	}
	return out, nil
}
