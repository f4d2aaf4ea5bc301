// Package logging provides structured logging for the uploader CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog so components receive an explicit logger handle
// instead of sharing process-wide mutable state.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	file    *os.File
}

// NewCLILogger creates the default console logger. Logs go to stderr so
// stdout stays usable for machine-readable output and progress bars.
func NewCLILogger() *Logger {
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	return &Logger{
		zlog:    zerolog.New(console).With().Timestamp().Logger(),
		console: console,
	}
}

// AttachFile tees all subsequent log output into a log file inside the
// given directory, so each upload attempt leaves a diagnosable trace next
// to the run it processed.
func (l *Logger) AttachFile(directory string) (string, error) {
	path := filepath.Join(directory, "irida-uploader.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", err
	}

	l.DetachFile()
	l.file = f
	l.zlog = zerolog.New(io.MultiWriter(l.console, f)).With().Timestamp().Logger()
	return path, nil
}

// DetachFile stops file logging and closes the current log file, if any.
func (l *Logger) DetachFile() {
	if l.file == nil {
		return
	}
	l.file.Close()
	l.file = nil
	l.zlog = zerolog.New(l.console).With().Timestamp().Logger()
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

// Debugf logs a debug message with printf-style formatting.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
