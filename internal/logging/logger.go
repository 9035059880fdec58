// Package logging provides the process-wide structured logger.
//
// Log lines are JSON written by zerolog, either to stdout or to a rotated
// file. Call sites pass a message followed by alternating key/value pairs:
//
//	logging.Info("batch generated", "names", 12, "bytes", 48213)
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger output.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Level      string
}

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init replaces the global logger. An empty File logs to stdout.
func Init(opts Options) {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
	}

	mu.Lock()
	logger = zerolog.New(out).With().Timestamp().Logger().Level(parseLevel(opts.Level))
	mu.Unlock()
}

// SetLogLevel changes the minimum level. Unknown levels fall back to info.
func SetLogLevel(level string) {
	mu.Lock()
	logger = logger.Level(parseLevel(level))
	mu.Unlock()
}

// SetLoggerForTest swaps in a caller-built logger.
func SetLoggerForTest(l zerolog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, kv ...any) { l := current(); emit(l.Debug(), msg, kv) }
func Info(msg string, kv ...any)  { l := current(); emit(l.Info(), msg, kv) }
func Warn(msg string, kv ...any)  { l := current(); emit(l.Warn(), msg, kv) }
func Error(msg string, kv ...any) { l := current(); emit(l.Error(), msg, kv) }

func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			ev = ev.Interface(key, nil)
			break
		}
		if err, ok := kv[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// levelWriter forwards writes to the current logger at info level.
type levelWriter struct{}

func (levelWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	l := current()
	l.Info().Msg(string(p))
	return n, nil
}

// StdLogger adapts the structured logger for packages that expect *log.Logger,
// such as chi's request logger.
func StdLogger() *log.Logger {
	return log.New(levelWriter{}, "", 0)
}
