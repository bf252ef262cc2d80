package visor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Format is the output format of the process logger.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Logger is used by every package in procvisor. Replace it with [SetLogger]
// before starting the supervisor.
var Logger *slog.Logger = NewLogger(os.Stderr, "info", FormatText)

var loggerMutex sync.RWMutex

var debugLog = false

var debugLogMutex sync.RWMutex

// NewLogger builds a slog logger writing to w.
func NewLogger(w io.Writer, level string, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a [slog.Level]. Unknown names are Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func SetLogger(l *slog.Logger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	Logger = l
}

// Log returns the current package logger.
func Log() *slog.Logger {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()

	return Logger
}

func DebugLogEnabled() bool {
	defer debugLogMutex.RUnlock()
	debugLogMutex.RLock()
	return debugLog
}

// SetDebugLog turns on the chatty lifecycle logs: state transitions, ignored
// signals, dropped rendezvous reports.
func SetDebugLog(v bool) {
	defer debugLogMutex.Unlock()
	debugLogMutex.Lock()

	debugLog = v
}

func DebugPrintf(format string, v ...any) {
	if DebugLogEnabled() {
		Log().Debug(fmt.Sprintf(format, v...))
	}
}
