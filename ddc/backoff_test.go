package ddc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoffDelay(t *testing.T) {
	cfg := BackoffConfig{
		InitialDelay: 50 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     500 * time.Millisecond,
	}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 50 * time.Millisecond},
		{1, 50 * time.Millisecond},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 400 * time.Millisecond},
		{5, 500 * time.Millisecond},
		{10, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NextBackoffDelay(cfg, tt.retry), "retry %d", tt.retry)
	}
}

func TestNextBackoffDelayEdgeCases(t *testing.T) {
	assert.Zero(t, NextBackoffDelay(BackoffConfig{}, 3))
	assert.Zero(t, NextBackoffDelay(BackoffConfig{InitialDelay: -time.Second}, 1))

	flat := BackoffConfig{InitialDelay: 30 * time.Millisecond, Multiplier: 0.5}
	assert.Equal(t, 30*time.Millisecond, NextBackoffDelay(flat, 4))

	uncapped := BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 10}
	assert.Equal(t, time.Second, NextBackoffDelay(uncapped, 4))
}
