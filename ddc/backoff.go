package ddc

import (
	"math"
	"time"
)

// BackoffConfig shapes the delay between retries of one exchange.
type BackoffConfig struct {
	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// Multiplier grows the delay on every further retry (values below 1 act as 1)
	Multiplier float64

	// MaxDelay caps the delay (0 = uncapped)
	MaxDelay time.Duration
}

// NextBackoffDelay returns the delay before retry N (1-based).
func NextBackoffDelay(cfg BackoffConfig, retry int) time.Duration {
	if retry <= 1 || cfg.InitialDelay <= 0 {
		return max(cfg.InitialDelay, 0)
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(retry-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
