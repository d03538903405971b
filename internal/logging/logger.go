// Package logging provides structured logging for the CLI and for embedding hosts.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog zerolog.Logger
	mode string // "cli" or "host"
}

// NewLogger creates a new logger for the specified mode.
// CLI mode writes to stdout; stderr is reserved for progress bars.
// Any other mode (an embedding host) writes to stderr.
func NewLogger(mode string) *Logger {
	var out io.Writer = os.Stderr
	if mode == "cli" {
		out = os.Stdout
	}
	return NewLoggerWithWriter(mode, out)
}

// NewLoggerWithWriter creates a logger writing console-formatted lines to w.
func NewLoggerWithWriter(mode string, w io.Writer) *Logger {
	l := &Logger{mode: mode}
	l.SetOutput(w)
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger("cli")
}

// Nop returns a logger that discards everything. Used by tests and library callers
// that do not want output.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: "nop"}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// SetOutput changes the output writer for the logger. The serve command
// moves logging to stderr so stdout carries only protocol lines.
func (l *Logger) SetOutput(w io.Writer) {
	l.zlog = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Str("mode", l.mode).Logger()
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// RetryLogger adapts the logger to the leveled logger interface of
// hashicorp/go-retryablehttp. Info and debug chatter is dropped.
type RetryLogger struct {
	L *Logger
}

func (r RetryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.L.Error().Fields(keysAndValues).Msg("retry: " + msg)
}

func (r RetryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (r RetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.L.Debug().Fields(keysAndValues).Msg("retry: " + msg)
}

func (r RetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.L.Warn().Fields(keysAndValues).Msg("retry: " + msg)
}

func init() {
	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Configure global logger
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
