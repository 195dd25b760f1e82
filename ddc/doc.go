// Package ddc provides a high-level API for controlling monitors over DDC/CI.
//
// # Overview
//
// This package runs the request/reply exchanges of the DDC/CI protocol:
//   - Reading and writing VCP features (brightness, contrast, input source)
//   - Reading the capabilities string in 32-byte fragments
//   - Reading and writing table features
//   - Reading the timing report
//   - Saving the current settings
//
// Every exchange applies the protocol delays, validates the reply checksum
// and retries transient failures with exponential backoff.
//
// # Basic Usage
//
//	// User provides the bus (transport/i2cdev on Linux, transport/mcp2221
//	// for a USB bridge, ddctest for a simulated display)
//	bus, err := i2cdev.Open("/dev/i2c-4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close()
//
//	engine := ddc.New(bus)
//
//	reply, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("brightness %d/%d\n", reply.Current, reply.Max)
//
//	err = engine.SetVCPFeature(ctx, protocol.VCPBrightness, 70)
//
// # Capabilities
//
// The capabilities string is reassembled from fragments:
//
//	s, err := engine.CapabilitiesString(ctx)
//	c, err := caps.Parse(s)
//	if c.SupportsFeature(protocol.VCPInputSource) { ... }
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	engine := ddc.New(bus,
//	    ddc.WithProgressCallback(progressFunc),
//	    ddc.WithLogger(ddc.NewZerologLogger(logger)),
//	    ddc.WithMaxAttempts(5),
//	    ddc.WithCommandDelay(80*time.Millisecond),
//	    ddc.WithMetrics(ddc.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//
// Tuning values can also come from a TOML or YAML file, a dotenv file or
// DDCCI_* environment variables:
//
//	s, err := ddc.LoadSettings("ddcci.toml")
//	env, err := ddc.SettingsFromEnv(os.LookupEnv)
//	engine := ddc.New(bus, ddc.WithSettings(s.Merge(env)))
//
// # Context Support
//
// The context is checked before every attempt and between fragments.
// An attempt already on the bus ends only through the transport read timeout.
//
// # Error Handling
//
// Failed exchanges return *ExchangeError. The cause tells the failure class apart:
//   - ErrTimeout: no reply (also the null message of a busy display)
//   - protocol.ChecksumError: garbled reply
//   - protocol.UnsupportedFeatureError: the display rejected the feature
//   - ErrProtocolViolation: reply for another command or offset
//   - ErrTransportGone: the display handle is no longer valid
//   - ReassemblyError: a chunked read exceeded its bounds
//
// # Hardware Independence
//
// The engine talks to the bus through the Transport interface.
// Implementations exist for Linux I2C character devices (transport/i2cdev)
// and a simulated monitor for tests (ddctest); hosts can supply their own
// for graphics driver APIs or USB adapters.
package ddc
