package ddc

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-ddcci/protocol"
)

func TestMetricsRecordAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	display := NewMockDisplay()
	display.AddRaw([]byte{0x6E, 0x80, 0xBE})
	display.AddReply(vcpReply(protocol.VCPBrightness, 100, 50)...)

	engine, _ := newTestEngine(display, WithMetrics(metrics))
	_, err := engine.GetVCPFeature(context.Background(), protocol.VCPBrightness)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Attempts.WithLabelValues("get_vcp_feature", outcomeBusy)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Attempts.WithLabelValues("get_vcp_feature", outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exchanges.WithLabelValues("get_vcp_feature", resultOK)))

	_, err = engine.GetVCPFeature(context.Background(), protocol.VCPBrightness)
	require.Error(t, err)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Attempts.WithLabelValues("get_vcp_feature", outcomeTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exchanges.WithLabelValues("get_vcp_feature", resultError)))

	count, err := testutil.GatherAndCount(reg, "ddcci_engine_exchange_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.recordAttempt("x", outcomeOK)
		m.recordExchange("x", nil, 0)
		m.recordReassembly(PhaseCapabilities, 10)
	})
}

func TestNewMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration must fail")
}

func TestCommandLabel(t *testing.T) {
	tests := []struct {
		cmd  protocol.Command
		want string
	}{
		{protocol.GetVCPFeature{Code: 0x10}, "get_vcp_feature"},
		{protocol.SetVCPFeature{Code: 0x10}, "set_vcp_feature"},
		{protocol.GetCapabilitiesChunk{}, "capabilities"},
		{protocol.GetTimingReport{}, "timing_report"},
		{protocol.SaveCurrentSettings{}, "save_current_settings"},
		{protocol.TableRead{}, "table_read"},
		{protocol.TableWrite{}, "table_write"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, commandLabel(tt.cmd))
	}
}
