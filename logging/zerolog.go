package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the library Logger interface
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

func (z *ZerologLogger) event(e *zerolog.Event, msg string, fields []Fields) {
	for _, f := range fields {
		e = e.Fields(map[string]any(f))
	}
	e.Msg(msg)
}

func (z *ZerologLogger) Debug(msg string, fields ...Fields) {
	z.event(z.logger.Debug(), msg, fields)
}

func (z *ZerologLogger) Info(msg string, fields ...Fields) {
	z.event(z.logger.Info(), msg, fields)
}

func (z *ZerologLogger) Warn(msg string, fields ...Fields) {
	z.event(z.logger.Warn(), msg, fields)
}

func (z *ZerologLogger) Error(err error, msg string, fields ...Fields) {
	z.event(z.logger.Error().Err(err), msg, fields)
}

// Fatal logs at fatal level; zerolog exits the process after writing.
func (z *ZerologLogger) Fatal(err error, msg string, fields ...Fields) {
	z.event(z.logger.Fatal().Err(err), msg, fields)
}

func (z *ZerologLogger) WithFields(fields Fields) Logger {
	return &ZerologLogger{logger: z.logger.With().Fields(map[string]any(fields)).Logger()}
}

func (z *ZerologLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return z.WithFields(fields)
	}
	return z
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.logger = z.logger.Level(toZerologLevel(level))
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.NoLevel
	}
}
