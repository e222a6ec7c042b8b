// Package ceremonylog provides the ceremony binaries' structured logging:
// a console sink, an optional rotating-free file sink, and a separate audit
// sink for warn-and-above events. Direct adaptation of teacher's
// cmd/auctiond/logger.go's Logger shape (level parsing, Debug/Info/Warn/
// Error/Fatal, a distinct Audit call) onto github.com/rs/zerolog, already
// present in the teacher's dependency graph as an indirect pull but never
// used directly — promoted here to the repo's actual structured-logging
// library instead of log.Logger's plain-text lines.
package ceremonylog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a console zerolog.Logger with optional file and audit sinks.
type Logger struct {
	console  zerolog.Logger
	file     *os.File
	audit    zerolog.Logger
	hasAudit bool
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a Logger at level, additionally writing every line to logFile
// if non-empty, and warn-and-above lines to auditFile if non-empty.
func New(level string, logFile string, auditFile string) (*Logger, error) {
	lvl := parseLevel(level)
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	l := &Logger{}
	var out io.Writer = console

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("ceremonylog: opening log file: %w", err)
		}
		l.file = f
		out = zerolog.MultiLevelWriter(console, f)
	}

	l.console = zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	if auditFile != "" {
		af, err := os.OpenFile(auditFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("ceremonylog: opening audit file: %w", err)
		}
		l.audit = zerolog.New(af).Level(zerolog.WarnLevel).With().Timestamp().Logger()
		l.hasAudit = true
	}

	return l, nil
}

// Close releases the log file handle, if one was opened.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(format string, args ...interface{}) { l.console.Debug().Msgf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.console.Info().Msgf(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.console.Warn().Msgf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.console.Error().Msgf(format, args...) }

// Fatal logs at fatal level and exits, matching the teacher's Logger.Fatal.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.console.Fatal().Msgf(format, args...)
}

// Audit records a structured event — a round acceptance, a rejection, a
// ceremony phase transition — to the audit sink, if configured, alongside
// the console at warn level so operators watching stdout still see it.
func (l *Logger) Audit(event string, fields map[string]interface{}) {
	ev := l.console.Warn()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(event)

	if l.hasAudit {
		aev := l.audit.Warn()
		for k, v := range fields {
			aev = aev.Interface(k, v)
		}
		aev.Msg(event)
	}
}
