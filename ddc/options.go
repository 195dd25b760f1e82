package ddc

import "time"

// Timing holds the protocol delays and the bus read window.
type Timing struct {
	// ReadTimeout bounds a single transport read
	ReadTimeout time.Duration

	// ReplyDelay is the wait between a request and reading its reply
	ReplyDelay time.Duration

	// TableReplyDelay replaces ReplyDelay for capabilities and table reads
	TableReplyDelay time.Duration

	// CommandDelay is the settle time after every exchange that touched the bus
	CommandDelay time.Duration

	// SaveSettingsDelay replaces CommandDelay after SaveCurrentSettings
	SaveSettingsDelay time.Duration
}

// Config holds the engine configuration.
type Config struct {
	// ProgressCallback is called after every chunk of a chunked transfer (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Clock is the time source for protocol delays
	Clock Clock

	// Metrics records exchange outcomes (optional)
	Metrics *Metrics

	// Timing holds the protocol delays
	Timing Timing

	// MaxAttempts is the total number of bus round trips per exchange
	MaxAttempts int

	// ProtocolRetries is how many times an offset mismatch or unexpected
	// reply is retried before it is surfaced as ErrProtocolViolation
	ProtocolRetries int

	// Backoff shapes the delay between attempts
	Backoff BackoffConfig

	// MaxCapabilitiesLength bounds the reassembled capabilities string and tables
	MaxCapabilitiesLength int

	// MaxChunks bounds the number of fragments of one reassembly
	MaxChunks int
}

// Default values. The delays follow the DDC/CI timing rules: a display
// needs 40 ms to prepare a reply, 50 ms for fragment replies, and 50 ms
// between commands.
const (
	DefaultReadTimeout           = 100 * time.Millisecond
	DefaultReplyDelay            = 40 * time.Millisecond
	DefaultTableReplyDelay       = 50 * time.Millisecond
	DefaultCommandDelay          = 50 * time.Millisecond
	DefaultSaveSettingsDelay     = 200 * time.Millisecond
	DefaultMaxAttempts           = 3
	DefaultProtocolRetries       = 1
	DefaultMaxCapabilitiesLength = 8192
	DefaultMaxChunks             = 512
)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Clock: systemClock{},
		Timing: Timing{
			ReadTimeout:       DefaultReadTimeout,
			ReplyDelay:        DefaultReplyDelay,
			TableReplyDelay:   DefaultTableReplyDelay,
			CommandDelay:      DefaultCommandDelay,
			SaveSettingsDelay: DefaultSaveSettingsDelay,
		},
		MaxAttempts:     DefaultMaxAttempts,
		ProtocolRetries: DefaultProtocolRetries,
		Backoff: BackoffConfig{
			InitialDelay: 50 * time.Millisecond,
			Multiplier:   2,
			MaxDelay:     500 * time.Millisecond,
		},
		MaxCapabilitiesLength: DefaultMaxCapabilitiesLength,
		MaxChunks:             DefaultMaxChunks,
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithProgressCallback sets a callback function to track chunked transfers.
//
// Example:
//
//	engine := ddc.New(bus,
//	    ddc.WithProgressCallback(func(p ddc.Progress) {
//	        fmt.Printf("%d bytes\n", p.Bytes)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the engine operations.
//
// Example:
//
//	engine := ddc.New(bus, ddc.WithLogger(ddc.NewZerologLogger(log.Logger)))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithClock replaces the wall clock used for protocol delays.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithMetrics records exchange outcomes into m.
//
// Example:
//
//	metrics := ddc.NewMetrics(prometheus.DefaultRegisterer)
//	engine := ddc.New(bus, ddc.WithMetrics(metrics))
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithMaxAttempts sets the total number of attempts per exchange.
// Values below 1 are ignored.
//
// Example:
//
//	engine := ddc.New(bus, ddc.WithMaxAttempts(5))
func WithMaxAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts >= 1 {
			c.MaxAttempts = attempts
		}
	}
}

// WithProtocolRetries sets how many times a protocol fault is retried.
func WithProtocolRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.ProtocolRetries = retries
		}
	}
}

// WithReadTimeout sets the read timeout passed to the transport.
//
// Example:
//
//	engine := ddc.New(bus, ddc.WithReadTimeout(200*time.Millisecond))
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timing.ReadTimeout = timeout
		}
	}
}

// WithReplyDelay sets the wait between a request and reading its reply.
func WithReplyDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.Timing.ReplyDelay = delay
		}
	}
}

// WithTableReplyDelay sets the reply wait of capabilities and table reads.
func WithTableReplyDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.Timing.TableReplyDelay = delay
		}
	}
}

// WithCommandDelay sets the settle time after every exchange.
// Slow monitors may need more than the default 50 ms.
func WithCommandDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.Timing.CommandDelay = delay
		}
	}
}

// WithSaveSettingsDelay sets the settle time after SaveCurrentSettings.
func WithSaveSettingsDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.Timing.SaveSettingsDelay = delay
		}
	}
}

// WithBackoff sets the delay policy between attempts.
//
// Example:
//
//	engine := ddc.New(bus, ddc.WithBackoff(ddc.BackoffConfig{
//	    InitialDelay: 100 * time.Millisecond,
//	    Multiplier:   1.5,
//	    MaxDelay:     time.Second,
//	}))
func WithBackoff(backoff BackoffConfig) Option {
	return func(c *Config) {
		c.Backoff = backoff
	}
}

// WithReassemblyLimits bounds chunked reads. Non-positive values keep the default.
func WithReassemblyLimits(maxLength, maxChunks int) Option {
	return func(c *Config) {
		if maxLength > 0 {
			c.MaxCapabilitiesLength = maxLength
		}
		if maxChunks > 0 {
			c.MaxChunks = maxChunks
		}
	}
}

// WithSettings applies the values present in s.
// Settings are usually loaded with LoadSettings or SettingsFromEnv.
//
// Example:
//
//	s, err := ddc.LoadSettings("ddcci.toml")
//	if err != nil { ... }
//	engine := ddc.New(bus, ddc.WithSettings(s))
func WithSettings(s *Settings) Option {
	return func(c *Config) {
		if s != nil {
			s.apply(c)
		}
	}
}
