package ddctest_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-ddcci/caps"
	"github.com/moffa90/go-ddcci/ddc"
	"github.com/moffa90/go-ddcci/ddctest"
	"github.com/moffa90/go-ddcci/protocol"
)

// instantClock skips every delay so the engine runs at full speed.
type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time        { return c.now }
func (c *instantClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func newEngine(mon *ddctest.Monitor, opts ...ddc.Option) *ddc.Engine {
	clock := &instantClock{now: time.Unix(1700000000, 0)}
	return ddc.New(mon, append([]ddc.Option{ddc.WithClock(clock)}, opts...)...)
}

func TestMonitorGetSetVCP(t *testing.T) {
	mon := ddctest.NewMonitor()
	engine := newEngine(mon)
	ctx := context.Background()

	reply, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness)
	require.NoError(t, err)
	assert.Equal(t, uint16(50), reply.Current)
	assert.Equal(t, uint16(100), reply.Max)

	require.NoError(t, engine.SetVCPFeature(ctx, protocol.VCPBrightness, 80))
	current, _, ok := mon.Feature(protocol.VCPBrightness)
	require.True(t, ok)
	assert.Equal(t, uint16(80), current)

	reply, err = engine.GetVCPFeature(ctx, protocol.VCPBrightness)
	require.NoError(t, err)
	assert.Equal(t, uint16(80), reply.Current)
}

func TestMonitorIgnoresOutOfRangeSet(t *testing.T) {
	mon := ddctest.NewMonitor()
	engine := newEngine(mon)

	require.NoError(t, engine.SetVCPFeature(context.Background(), protocol.VCPContrast, 500))

	current, _, _ := mon.Feature(protocol.VCPContrast)
	assert.Equal(t, uint16(75), current)
}

func TestMonitorUnsupportedFeature(t *testing.T) {
	mon := ddctest.NewMonitor()
	engine := newEngine(mon)

	_, err := engine.GetVCPFeature(context.Background(), protocol.VCPSharpness)
	require.Error(t, err)

	var unsupported *protocol.UnsupportedFeatureError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, byte(protocol.VCPSharpness), unsupported.Code)
	assert.Equal(t, 1, mon.Requests(), "unsupported feature must not be retried")
}

func TestMonitorCapabilities(t *testing.T) {
	mon := ddctest.NewMonitor()
	engine := newEngine(mon)

	s, err := engine.CapabilitiesString(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ddctest.DefaultCapabilities, s)

	c, err := caps.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, "DDCTEST1", c.Model)
	assert.True(t, c.SupportsFeature(protocol.VCPPowerMode))

	values, ok := c.FeatureValues(protocol.VCPInputSource)
	require.True(t, ok)
	assert.Equal(t, []byte{0x0F, 0x11, 0x12}, values)
}

func TestMonitorCapabilitiesExactMultiple(t *testing.T) {
	mon := ddctest.NewMonitor()
	raw := bytes.Repeat([]byte("x"), 2*protocol.MaxFragmentSize)
	mon.SetCapabilities(raw)
	engine := newEngine(mon)

	got, err := engine.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, 3, mon.Requests(), "an empty fragment terminates the string")
}

func TestMonitorCapabilitiesNULTerminated(t *testing.T) {
	mon := ddctest.NewMonitor()
	mon.SetCapabilities(append([]byte("(prot(monitor)vcp(10))"), 0x00))
	engine := newEngine(mon)

	s, err := engine.CapabilitiesString(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "(prot(monitor)vcp(10))", s)
}

func TestMonitorFaultRecovery(t *testing.T) {
	tests := []struct {
		name  string
		fault ddctest.Fault
	}{
		{"dropped reply", ddctest.FaultDropReply},
		{"corrupt reply", ddctest.FaultCorruptReply},
		{"null reply", ddctest.FaultNullReply},
		{"stale reply", ddctest.FaultStaleReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mon := ddctest.NewMonitor()
			mon.InjectFault(tt.fault)
			engine := newEngine(mon)

			reply, err := engine.GetVCPFeature(context.Background(), protocol.VCPBrightness)
			require.NoError(t, err)
			assert.Equal(t, uint16(50), reply.Current)
			assert.Equal(t, 2, mon.Requests())
		})
	}
}

func TestMonitorCapabilitiesWithFaults(t *testing.T) {
	mon := ddctest.NewMonitor()
	// Second fragment is stale once, third is corrupt once.
	mon.InjectFault(ddctest.FaultNone, ddctest.FaultStaleReply, ddctest.FaultNone, ddctest.FaultCorruptReply)
	engine := newEngine(mon)

	s, err := engine.CapabilitiesString(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ddctest.DefaultCapabilities, s)
}

func TestMonitorRetriesExhausted(t *testing.T) {
	mon := ddctest.NewMonitor()
	mon.InjectFault(ddctest.FaultNullReply, ddctest.FaultNullReply, ddctest.FaultNullReply)
	engine := newEngine(mon)

	_, err := engine.GetVCPFeature(context.Background(), protocol.VCPBrightness)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ddc.ErrTimeout))

	var exErr *ddc.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 3, exErr.Attempts)
}

func TestMonitorStaleReplyViolation(t *testing.T) {
	mon := ddctest.NewMonitor()
	mon.InjectFault(ddctest.FaultStaleReply, ddctest.FaultStaleReply)
	engine := newEngine(mon)

	_, err := engine.GetTimingReport(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ddc.ErrProtocolViolation)
	assert.Equal(t, 2, mon.Requests())
}

func TestMonitorGone(t *testing.T) {
	mon := ddctest.NewMonitor()
	mon.InjectFault(ddctest.FaultGone)
	engine := newEngine(mon)
	ctx := context.Background()

	_, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness)
	require.Error(t, err)
	assert.ErrorIs(t, err, ddc.ErrTransportGone)

	err = engine.SetVCPFeature(ctx, protocol.VCPBrightness, 10)
	assert.ErrorIs(t, err, ddc.ErrTransportGone)
	assert.Zero(t, mon.Requests())
}

func TestMonitorTimingReport(t *testing.T) {
	mon := ddctest.NewMonitor()
	mon.SetTimingReport(protocol.TimingReport{Status: protocol.TimingUnstable, HorizontalFrequency: 3150, VerticalFrequency: 5994})
	engine := newEngine(mon)

	report, err := engine.GetTimingReport(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Unstable())
	assert.Equal(t, uint32(31500), report.HorizontalHz())
	assert.InDelta(t, 59.94, report.VerticalHz(), 0.001)
}

func TestMonitorSaveCurrentSettings(t *testing.T) {
	mon := ddctest.NewMonitor()
	engine := newEngine(mon)

	require.NoError(t, engine.SaveCurrentSettings(context.Background()))
	require.NoError(t, engine.SaveCurrentSettings(context.Background()))
	assert.Equal(t, 2, mon.Saves())
}

func TestMonitorTableRoundTrip(t *testing.T) {
	mon := ddctest.NewMonitor()
	ctx := context.Background()

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i * 3)
	}

	var phases []string
	engine := newEngine(mon, ddc.WithProgressCallback(func(p ddc.Progress) {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}))

	require.NoError(t, engine.WriteTable(ctx, 0x73, data))
	stored, ok := mon.Table(0x73)
	require.True(t, ok)
	assert.Equal(t, data, stored)

	got, err := engine.ReadTable(ctx, 0x73)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, []string{ddc.PhaseTableWrite, ddc.PhaseTable}, phases)
}

func TestMonitorLatency(t *testing.T) {
	mon := ddctest.NewMonitor()
	mon.SetLatency(20 * time.Millisecond)
	engine := newEngine(mon, ddc.WithReadTimeout(5*time.Millisecond), ddc.WithMaxAttempts(2))

	_, err := engine.GetVCPFeature(context.Background(), protocol.VCPBrightness)
	require.Error(t, err)
	assert.ErrorIs(t, err, ddc.ErrTimeout)
	assert.Equal(t, 2, mon.Requests())
}

func TestMonitorIgnoresGarbage(t *testing.T) {
	mon := ddctest.NewMonitor()

	require.NoError(t, mon.Write(protocol.DisplayAddress, []byte{0x51, 0x82, 0x01}))
	_, err := mon.Read(protocol.DisplayAddress, protocol.MaxFrameSize, time.Second)
	assert.ErrorIs(t, err, ddc.ErrTimeout)
	assert.Zero(t, mon.Requests())

	err = mon.Write(0x50, []byte{0x51, 0x82, 0x01, 0x10, 0xAC})
	assert.ErrorIs(t, err, ddc.ErrTimeout)
}

func TestMonitorRawExchange(t *testing.T) {
	mon := ddctest.NewMonitor()

	require.NoError(t, mon.Write(protocol.DisplayAddress, []byte{0x51, 0x82, 0x01, 0x10, 0xAC}))
	raw, err := mon.Read(protocol.DisplayAddress, protocol.MaxFrameSize, time.Second)
	require.NoError(t, err)

	frame, err := protocol.DecodeReply(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x00, 0x10, 0x00, 0x00, 0x64, 0x00, 0x32}, frame.Payload)
}

func TestBusDiscover(t *testing.T) {
	left := ddctest.NewMonitor()
	left.SetName("left")
	right := ddctest.NewMonitor()
	right.SetName("right")

	engines, err := ddc.Discover(ddctest.Bus{left, right})
	require.NoError(t, err)
	require.Len(t, engines, 2)
	assert.Equal(t, "left", engines[0].Description())
	assert.Equal(t, "right", engines[1].Description())
}

func TestFaultString(t *testing.T) {
	assert.Equal(t, "stale reply", ddctest.FaultStaleReply.String())
	assert.True(t, strings.HasPrefix(ddctest.Fault(42).String(), "fault("))
}
