package mcp2221

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-ddcci/ddc"
	"github.com/moffa90/go-ddcci/ddctest"
	"github.com/moffa90/go-ddcci/protocol"
)

// fakeBridge emulates the MCP2221 command set in front of a ddc.Transport.
type fakeBridge struct {
	bus      ddc.Transport
	reports  [][]byte
	pending  []byte
	reply    []byte
	busy     bool
	cancels  int
	writeErr error
	silent   bool
	closed   bool
}

func (f *fakeBridge) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.reports = append(f.reports, append([]byte(nil), p...))

	req := p[1:] // strip report ID
	resp := make([]byte, reportSize)
	resp[0] = req[0]

	switch req[0] {
	case cmdI2CWrite:
		length := int(req[1]) | int(req[2])<<8
		if f.busy {
			resp[1] = statusBusy
			break
		}
		if err := f.bus.Write(req[3]>>1, req[4:4+length]); err != nil {
			resp[1] = statusBusy
		}
	case cmdI2CRead:
		length := int(req[1]) | int(req[2])<<8
		if f.busy {
			resp[1] = statusBusy
			break
		}
		data, err := f.bus.Read(req[3]>>1, length, 100*time.Millisecond)
		if err != nil {
			f.pending = nil
			resp[3] = readFailed
		} else {
			f.pending = data
		}
	case cmdI2CGetData:
		if f.pending == nil {
			resp[1] = getDataError
			resp[3] = readFailed
			break
		}
		resp[3] = byte(len(f.pending))
		copy(resp[4:], f.pending)
		f.pending = nil
	case cmdStatus:
		if req[2] == cancelTransfer {
			f.cancels++
			f.busy = false
		}
	}

	f.reply = resp
	return len(p), nil
}

func (f *fakeBridge) ReadWithTimeout(p []byte, timeout time.Duration) (int, error) {
	if f.silent || f.reply == nil {
		return 0, nil
	}
	n := copy(p, f.reply)
	f.reply = nil
	return n, nil
}

func (f *fakeBridge) Close() error {
	f.closed = true
	return nil
}

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time        { return c.now }
func (c *instantClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func newAdapter(bus ddc.Transport) (*Adapter, *fakeBridge) {
	bridge := &fakeBridge{bus: bus}
	adapter := New(bridge, "fake bridge")
	adapter.SetChipDelay(0)
	return adapter, bridge
}

func TestWriteReport(t *testing.T) {
	mon := ddctest.NewMonitor()
	adapter, bridge := newAdapter(mon)

	frame := []byte{0x51, 0x84, 0x03, 0x10, 0x00, 0x32, 0x9A}
	require.NoError(t, adapter.Write(protocol.DisplayAddress, frame))

	require.Len(t, bridge.reports, 1)
	report := bridge.reports[0]
	assert.Len(t, report, reportSize+1)
	assert.Equal(t, []byte{0x00, cmdI2CWrite, 0x07, 0x00, 0x6E}, report[:5])
	assert.Equal(t, frame, report[5:12])

	current, _, _ := mon.Feature(protocol.VCPBrightness)
	assert.Equal(t, uint16(50), current)
}

func TestEngineOverBridge(t *testing.T) {
	mon := ddctest.NewMonitor()
	adapter, _ := newAdapter(mon)
	engine := ddc.New(adapter, ddc.WithClock(&instantClock{}))
	ctx := context.Background()

	require.NoError(t, engine.SetVCPFeature(ctx, protocol.VCPBrightness, 65))
	reply, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness)
	require.NoError(t, err)
	assert.Equal(t, uint16(65), reply.Current)

	s, err := engine.CapabilitiesString(ctx)
	require.NoError(t, err)
	assert.Equal(t, ddctest.DefaultCapabilities, s)
	assert.Equal(t, "fake bridge", engine.Description())
}

func TestReadNack(t *testing.T) {
	mon := ddctest.NewMonitor()
	adapter, bridge := newAdapter(mon)

	_, err := adapter.Read(protocol.DisplayAddress, protocol.MaxFrameSize, 40*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ddc.ErrTimeout)
	assert.Equal(t, 1, bridge.cancels)
}

func TestBusBusy(t *testing.T) {
	mon := ddctest.NewMonitor()
	adapter, bridge := newAdapter(mon)
	bridge.busy = true

	err := adapter.Write(protocol.DisplayAddress, []byte{0x51, 0x81, 0x0C, 0xB2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ddc.ErrTimeout)
	assert.Equal(t, 1, bridge.cancels)
	assert.False(t, bridge.busy)

	require.NoError(t, adapter.Write(protocol.DisplayAddress, []byte{0x51, 0x81, 0x0C, 0xB2}))
	assert.Equal(t, 1, mon.Saves())
}

func TestSilentBridgeTimesOut(t *testing.T) {
	adapter, bridge := newAdapter(ddctest.NewMonitor())
	bridge.silent = true

	err := adapter.Write(protocol.DisplayAddress, []byte{0x51, 0x81, 0x0C, 0xB2})
	assert.ErrorIs(t, err, ddc.ErrTimeout)
}

func TestUnpluggedBridge(t *testing.T) {
	adapter, bridge := newAdapter(ddctest.NewMonitor())
	bridge.writeErr = errors.New("hid_write: device disconnected")

	err := adapter.Write(protocol.DisplayAddress, []byte{0x51, 0x81, 0x0C, 0xB2})
	assert.ErrorIs(t, err, ddc.ErrTransportGone)

	engine := ddc.New(adapter, ddc.WithClock(&instantClock{}))
	_, err = engine.GetVCPFeature(context.Background(), protocol.VCPBrightness)
	require.Error(t, err)

	var exErr *ddc.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 1, exErr.Attempts)
}

func TestClose(t *testing.T) {
	adapter, bridge := newAdapter(ddctest.NewMonitor())

	require.NoError(t, adapter.Close())
	require.NoError(t, adapter.Close())
	assert.True(t, bridge.closed)

	_, err := adapter.Read(protocol.DisplayAddress, protocol.MaxFrameSize, time.Second)
	assert.ErrorIs(t, err, ddc.ErrTransportGone)
}

func TestWriteTooLarge(t *testing.T) {
	adapter, bridge := newAdapter(ddctest.NewMonitor())

	err := adapter.Write(protocol.DisplayAddress, make([]byte, maxTransfer+1))
	require.Error(t, err)
	assert.Empty(t, bridge.reports)
}
