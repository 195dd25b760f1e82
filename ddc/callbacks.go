package ddc

import "time"

// Progress phases reported during chunked reads.
const (
	PhaseCapabilities = "capabilities"
	PhaseTable        = "table"
	PhaseTableWrite   = "table write"
)

// Progress contains information about a chunked read or write.
// Passed to ProgressCallback after every chunk.
type Progress struct {
	// Phase describes the current operation:
	//   "capabilities" - Reading the capabilities string
	//   "table"        - Reading a table feature
	//   "table write"  - Writing a table feature
	Phase string

	// Chunks is the number of chunks transferred so far
	Chunks int

	// Bytes is the number of bytes transferred so far
	Bytes int

	// Offset is the offset of the next chunk
	Offset uint16

	// Done is true on the last report of the operation
	Done bool

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called after every chunk of a capabilities or table transfer.
// Implementations should return quickly; the bus is idle while it runs.
//
// Example:
//
//	engine := ddc.New(bus,
//	    ddc.WithProgressCallback(func(p ddc.Progress) {
//	        fmt.Printf("[%s] %d bytes in %d chunks\n", p.Phase, p.Bytes, p.Chunks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the engine.
// This allows integration with any logging framework; NewZerologLogger
// adapts a zerolog.Logger.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	engine := ddc.New(bus, ddc.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
