package ddc

import "github.com/rs/zerolog"

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger adapts a zerolog.Logger to the Logger interface.
// Key-value pairs become event fields.
//
// Example:
//
//	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
//	engine := ddc.New(bus, ddc.WithLogger(ddc.NewZerologLogger(logger)))
func NewZerologLogger(log zerolog.Logger) Logger {
	return &zerologLogger{log: log}
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}
