package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Format selects the logrus formatter.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// LogrusLogger implements Logger on top of a logrus.Entry.
type LogrusLogger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// New creates a logger writing to w in the given format.
func New(w io.Writer, level Level, format Format) *LogrusLogger {
	base := logrus.New()
	base.SetOutput(w)
	switch format {
	case FormatText:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		base.SetFormatter(&logrus.JSONFormatter{})
	}
	base.SetLevel(toLogrus(level))
	return &LogrusLogger{base: base, entry: logrus.NewEntry(base)}
}

// NewDefaultLogger writes JSON to stdout at info level.
func NewDefaultLogger() *LogrusLogger {
	return New(os.Stdout, InfoLevel, FormatJSON)
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fromLogrus(level logrus.Level) Level {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return DebugLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func toFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

// With creates a child logger sharing the same output and level.
func (l *LogrusLogger) With(fields ...Field) Logger {
	return &LogrusLogger{base: l.base, entry: l.entry.WithFields(toFields(fields))}
}

// SetLevel changes the level of this logger and every child derived from it.
func (l *LogrusLogger) SetLevel(level Level) {
	l.base.SetLevel(toLogrus(level))
}

func (l *LogrusLogger) GetLevel() Level {
	return fromLogrus(l.base.GetLevel())
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
	defaultOnce   sync.Once
)

// DefaultLogger returns the process-wide logger. LOG_LEVEL and LOG_FORMAT
// are consulted the first time it is built.
func DefaultLogger() Logger {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultLogger == nil {
			defaultLogger = New(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")), Format(os.Getenv("LOG_FORMAT")))
		}
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger.
func SetDefaultLogger(logger Logger) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}
