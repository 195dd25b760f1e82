package ddc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Environment variables read by SettingsFromEnv.
const (
	EnvReadTimeout           = "DDCCI_READ_TIMEOUT"
	EnvReplyDelay            = "DDCCI_REPLY_DELAY"
	EnvTableReplyDelay       = "DDCCI_TABLE_REPLY_DELAY"
	EnvCommandDelay          = "DDCCI_COMMAND_DELAY"
	EnvSaveSettingsDelay     = "DDCCI_SAVE_SETTINGS_DELAY"
	EnvMaxAttempts           = "DDCCI_MAX_ATTEMPTS"
	EnvProtocolRetries       = "DDCCI_PROTOCOL_RETRIES"
	EnvBackoffInitial        = "DDCCI_BACKOFF_INITIAL"
	EnvBackoffMultiplier     = "DDCCI_BACKOFF_MULTIPLIER"
	EnvBackoffMax            = "DDCCI_BACKOFF_MAX"
	EnvMaxCapabilitiesLength = "DDCCI_MAX_CAPABILITIES_LENGTH"
	EnvMaxChunks             = "DDCCI_MAX_CHUNKS"
)

// Settings overlays engine tuning values. Nil fields keep the engine default.
type Settings struct {
	ReadTimeout           *time.Duration
	ReplyDelay            *time.Duration
	TableReplyDelay       *time.Duration
	CommandDelay          *time.Duration
	SaveSettingsDelay     *time.Duration
	MaxAttempts           *int
	ProtocolRetries       *int
	BackoffInitial        *time.Duration
	BackoffMultiplier     *float64
	BackoffMax            *time.Duration
	MaxCapabilitiesLength *int
	MaxChunks             *int
}

// fileSettings is the on-disk shape shared by the TOML and YAML loaders.
// Durations are strings accepted by time.ParseDuration ("40ms", "1s").
type fileSettings struct {
	ReadTimeout           *string  `toml:"read_timeout" yaml:"read_timeout"`
	ReplyDelay            *string  `toml:"reply_delay" yaml:"reply_delay"`
	TableReplyDelay       *string  `toml:"table_reply_delay" yaml:"table_reply_delay"`
	CommandDelay          *string  `toml:"command_delay" yaml:"command_delay"`
	SaveSettingsDelay     *string  `toml:"save_settings_delay" yaml:"save_settings_delay"`
	MaxAttempts           *int     `toml:"max_attempts" yaml:"max_attempts"`
	ProtocolRetries       *int     `toml:"protocol_retries" yaml:"protocol_retries"`
	BackoffInitial        *string  `toml:"backoff_initial" yaml:"backoff_initial"`
	BackoffMultiplier     *float64 `toml:"backoff_multiplier" yaml:"backoff_multiplier"`
	BackoffMax            *string  `toml:"backoff_max" yaml:"backoff_max"`
	MaxCapabilitiesLength *int     `toml:"max_capabilities_length" yaml:"max_capabilities_length"`
	MaxChunks             *int     `toml:"max_chunks" yaml:"max_chunks"`
}

// LoadSettings reads settings from a .toml, .yaml or .yml file.
// Unknown keys are rejected.
//
// Example ddcci.toml:
//
//	reply_delay = "60ms"
//	command_delay = "80ms"
//	max_attempts = 5
func LoadSettings(path string) (*Settings, error) {
	var raw fileSettings

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("load settings: unknown keys %s", strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.SetStrict(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
	default:
		return nil, fmt.Errorf("load settings: unsupported file extension %q", ext)
	}

	s, err := raw.settings()
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", path, err)
	}
	return s, nil
}

func (raw *fileSettings) settings() (*Settings, error) {
	s := &Settings{
		MaxAttempts:           raw.MaxAttempts,
		ProtocolRetries:       raw.ProtocolRetries,
		BackoffMultiplier:     raw.BackoffMultiplier,
		MaxCapabilitiesLength: raw.MaxCapabilitiesLength,
		MaxChunks:             raw.MaxChunks,
	}

	durations := []struct {
		key string
		in  *string
		out **time.Duration
	}{
		{"read_timeout", raw.ReadTimeout, &s.ReadTimeout},
		{"reply_delay", raw.ReplyDelay, &s.ReplyDelay},
		{"table_reply_delay", raw.TableReplyDelay, &s.TableReplyDelay},
		{"command_delay", raw.CommandDelay, &s.CommandDelay},
		{"save_settings_delay", raw.SaveSettingsDelay, &s.SaveSettingsDelay},
		{"backoff_initial", raw.BackoffInitial, &s.BackoffInitial},
		{"backoff_max", raw.BackoffMax, &s.BackoffMax},
	}
	for _, d := range durations {
		if d.in == nil {
			continue
		}
		v, err := parseDuration(*d.in)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.out = &v
	}

	return s, s.validate()
}

// SettingsFromEnv reads the DDCCI_* variables through lookup.
// Pass os.LookupEnv to read the process environment.
func SettingsFromEnv(lookup func(string) (string, bool)) (*Settings, error) {
	s := &Settings{}

	durations := []struct {
		key string
		out **time.Duration
	}{
		{EnvReadTimeout, &s.ReadTimeout},
		{EnvReplyDelay, &s.ReplyDelay},
		{EnvTableReplyDelay, &s.TableReplyDelay},
		{EnvCommandDelay, &s.CommandDelay},
		{EnvSaveSettingsDelay, &s.SaveSettingsDelay},
		{EnvBackoffInitial, &s.BackoffInitial},
		{EnvBackoffMax, &s.BackoffMax},
	}
	for _, d := range durations {
		raw, ok := lookup(d.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := parseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.out = &v
	}

	ints := []struct {
		key string
		out **int
	}{
		{EnvMaxAttempts, &s.MaxAttempts},
		{EnvProtocolRetries, &s.ProtocolRetries},
		{EnvMaxCapabilitiesLength, &s.MaxCapabilitiesLength},
		{EnvMaxChunks, &s.MaxChunks},
	}
	for _, i := range ints {
		raw, ok := lookup(i.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", i.key, err)
		}
		*i.out = &v
	}

	if raw, ok := lookup(EnvBackoffMultiplier); ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvBackoffMultiplier, err)
		}
		s.BackoffMultiplier = &v
	}

	return s, s.validate()
}

// LoadEnvFile reads DDCCI_* settings from a dotenv file without touching
// the process environment.
func LoadEnvFile(path string) (*Settings, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	for key := range vars {
		if !strings.HasPrefix(key, "DDCCI_") {
			delete(vars, key)
		}
	}
	if unknown := unknownEnvKeys(vars); len(unknown) > 0 {
		return nil, fmt.Errorf("load env file: unknown keys %s", strings.Join(unknown, ", "))
	}

	return SettingsFromEnv(func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	})
}

func unknownEnvKeys(vars map[string]string) []string {
	known := map[string]bool{
		EnvReadTimeout: true, EnvReplyDelay: true, EnvTableReplyDelay: true,
		EnvCommandDelay: true, EnvSaveSettingsDelay: true, EnvMaxAttempts: true,
		EnvProtocolRetries: true, EnvBackoffInitial: true, EnvBackoffMultiplier: true,
		EnvBackoffMax: true, EnvMaxCapabilitiesLength: true, EnvMaxChunks: true,
	}
	var unknown []string
	for key := range vars {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Merge returns s with every field set in other taking precedence.
func (s *Settings) Merge(other *Settings) *Settings {
	out := &Settings{}
	if s != nil {
		*out = *s
	}
	if other == nil {
		return out
	}
	if other.ReadTimeout != nil {
		out.ReadTimeout = other.ReadTimeout
	}
	if other.ReplyDelay != nil {
		out.ReplyDelay = other.ReplyDelay
	}
	if other.TableReplyDelay != nil {
		out.TableReplyDelay = other.TableReplyDelay
	}
	if other.CommandDelay != nil {
		out.CommandDelay = other.CommandDelay
	}
	if other.SaveSettingsDelay != nil {
		out.SaveSettingsDelay = other.SaveSettingsDelay
	}
	if other.MaxAttempts != nil {
		out.MaxAttempts = other.MaxAttempts
	}
	if other.ProtocolRetries != nil {
		out.ProtocolRetries = other.ProtocolRetries
	}
	if other.BackoffInitial != nil {
		out.BackoffInitial = other.BackoffInitial
	}
	if other.BackoffMultiplier != nil {
		out.BackoffMultiplier = other.BackoffMultiplier
	}
	if other.BackoffMax != nil {
		out.BackoffMax = other.BackoffMax
	}
	if other.MaxCapabilitiesLength != nil {
		out.MaxCapabilitiesLength = other.MaxCapabilitiesLength
	}
	if other.MaxChunks != nil {
		out.MaxChunks = other.MaxChunks
	}
	return out
}

func (s *Settings) validate() error {
	if s.MaxAttempts != nil && *s.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", *s.MaxAttempts)
	}
	if s.ProtocolRetries != nil && *s.ProtocolRetries < 0 {
		return fmt.Errorf("protocol retries cannot be negative, got %d", *s.ProtocolRetries)
	}
	if s.BackoffMultiplier != nil && *s.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1, got %g", *s.BackoffMultiplier)
	}
	if s.MaxCapabilitiesLength != nil && *s.MaxCapabilitiesLength < 1 {
		return fmt.Errorf("max capabilities length must be positive, got %d", *s.MaxCapabilitiesLength)
	}
	if s.MaxChunks != nil && *s.MaxChunks < 1 {
		return fmt.Errorf("max chunks must be positive, got %d", *s.MaxChunks)
	}
	return nil
}

func (s *Settings) apply(c *Config) {
	if s.ReadTimeout != nil {
		c.Timing.ReadTimeout = *s.ReadTimeout
	}
	if s.ReplyDelay != nil {
		c.Timing.ReplyDelay = *s.ReplyDelay
	}
	if s.TableReplyDelay != nil {
		c.Timing.TableReplyDelay = *s.TableReplyDelay
	}
	if s.CommandDelay != nil {
		c.Timing.CommandDelay = *s.CommandDelay
	}
	if s.SaveSettingsDelay != nil {
		c.Timing.SaveSettingsDelay = *s.SaveSettingsDelay
	}
	if s.MaxAttempts != nil && *s.MaxAttempts >= 1 {
		c.MaxAttempts = *s.MaxAttempts
	}
	if s.ProtocolRetries != nil && *s.ProtocolRetries >= 0 {
		c.ProtocolRetries = *s.ProtocolRetries
	}
	if s.BackoffInitial != nil {
		c.Backoff.InitialDelay = *s.BackoffInitial
	}
	if s.BackoffMultiplier != nil {
		c.Backoff.Multiplier = *s.BackoffMultiplier
	}
	if s.BackoffMax != nil {
		c.Backoff.MaxDelay = *s.BackoffMax
	}
	if s.MaxCapabilitiesLength != nil && *s.MaxCapabilitiesLength > 0 {
		c.MaxCapabilitiesLength = *s.MaxCapabilitiesLength
	}
	if s.MaxChunks != nil && *s.MaxChunks > 0 {
		c.MaxChunks = *s.MaxChunks
	}
}

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", raw)
	}
	return d, nil
}
