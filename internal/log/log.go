package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message
type Level int

const (
	// LevelDebug is for verbose tracing of resolution and evaluation
	LevelDebug Level = iota
	// LevelInfo is for important operational events
	LevelInfo
	// LevelWarn is for problems that don't stop compilation
	LevelWarn
	// LevelError is for failed style definitions and files
	LevelError
)

const name = "csslift"

var (
	mu       sync.Mutex
	output   io.Writer = os.Stderr
	level              = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	minLevel           = LevelInfo
	logger             = build(output)
)

func build(w io.Writer) *zap.Logger {
	if w == nil {
		return zap.NewNop()
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = zapcore.OmitKey
	ec.CallerKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Named(name)
}

// SetOutput sets the output destination (primarily for testing).
// A nil writer silences logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	logger = build(w)
}

// SetLevel sets the minimum log level to display
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
	level.SetLevel(toZap(l))
}

// GetLevel returns the current minimum log level
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return minLevel
}

// ParseLevel maps a configuration string onto a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info", "normal":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Named returns a structured sub-logger for a component
func Named(component string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger.Named(component)
}

// Debug logs a debug message
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Info logs an info message
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Sync flushes buffered log entries
func Sync() {
	_ = current().Sync()
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger.Sugar()
}

func toZap(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
