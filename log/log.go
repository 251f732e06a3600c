// Package log provides the gateway's process-local leveled logger.
//
// It deliberately does not touch the bus: mirroring a handler's outcome to
// the LOGS stream is the dispatcher's and subscription loops' job (see the
// engine package's emit helper), not this package's. This logger only ever writes to
// its configured sink (stderr by default).
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// SubLogger tags the origin of a line the way the gateway's components are
// named in the spec (credential pool, bus transmitter, dispatcher, ...).
type SubLogger string

// Named sub-loggers, one per concurrent component.
const (
	Global        SubLogger = "GTX"
	ExchangeSys   SubLogger = "EXCHANGE"
	DispatchMgr   SubLogger = "DISPATCH"
	OrderMgr      SubLogger = "ORDER"
	OrderBookMgr  SubLogger = "ORDERBOOK"
	BalanceMgr    SubLogger = "BALANCE"
	CorrelatorMgr SubLogger = "CORRELATOR"
	Bus           SubLogger = "BUS"
	MetricsMgr    SubLogger = "METRICS"
)

// Level is the severity of a log line.
type Level int

// Severity levels, lowest to highest.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Settings configures the global logger. Mirrors the teacher's
// GlobalLogConfig / GenDefaultSettings split: a package-level settings
// value that tests and the orchestrator can both reach into.
type Settings struct {
	MinLevel Level
	Output   io.Writer
}

// GenDefaultSettings returns sane defaults: Info and above, written to stderr.
func GenDefaultSettings() *Settings {
	return &Settings{MinLevel: LevelInfo, Output: os.Stderr}
}

// GlobalLogConfig is the active configuration. Swappable by tests.
var GlobalLogConfig = GenDefaultSettings()

var mu sync.Mutex

func write(level Level, sub SubLogger, msg string) {
	mu.Lock()
	defer mu.Unlock()
	cfg := GlobalLogConfig
	if cfg == nil || level < cfg.MinLevel {
		return
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	// *ln helpers build msg with fmt.Sprintln, which already terminates it
	// with \n; strip that before appending our own so lines don't come out
	// double-spaced.
	msg = strings.TrimSuffix(msg, "\n")
	fmt.Fprintf(out, "%s | %-5s | %-10s | %s\n", time.Now().UTC().Format(time.RFC3339Nano), level, sub, msg)
}

// Debugf logs a formatted debug line under the given sub-logger.
func Debugf(sub SubLogger, format string, args ...any) { write(LevelDebug, sub, fmt.Sprintf(format, args...)) }

// Infof logs a formatted info line under the given sub-logger.
func Infof(sub SubLogger, format string, args ...any) { write(LevelInfo, sub, fmt.Sprintf(format, args...)) }

// Warnf logs a formatted warn line under the given sub-logger.
func Warnf(sub SubLogger, format string, args ...any) { write(LevelWarn, sub, fmt.Sprintf(format, args...)) }

// Errorf logs a formatted error line under the given sub-logger.
func Errorf(sub SubLogger, format string, args ...any) { write(LevelError, sub, fmt.Sprintf(format, args...)) }

// Debugln logs space-joined values as a debug line.
func Debugln(sub SubLogger, args ...any) { write(LevelDebug, sub, fmt.Sprintln(args...)) }

// Infoln logs space-joined values as an info line.
func Infoln(sub SubLogger, args ...any) { write(LevelInfo, sub, fmt.Sprintln(args...)) }

// Warnln logs space-joined values as a warn line.
func Warnln(sub SubLogger, args ...any) { write(LevelWarn, sub, fmt.Sprintln(args...)) }

// Errorln logs space-joined values as an error line.
func Errorln(sub SubLogger, args ...any) { write(LevelError, sub, fmt.Sprintln(args...)) }
