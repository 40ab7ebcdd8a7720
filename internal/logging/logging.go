package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

type Logger struct {
	mu   sync.Mutex
	min  Level
	json bool
	out  io.Writer
}

// New logs human lines to stderr, or JSON lines to stdout when jsonOut is set.
func New(level string, jsonOut bool) *Logger {
	out := io.Writer(os.Stderr)
	if jsonOut {
		out = os.Stdout
	}
	return NewWithWriter(level, jsonOut, out)
}

// NewWithWriter logs to out. A nil out discards everything.
func NewWithWriter(level string, jsonOut bool, out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{min: ParseLevel(level), json: jsonOut, out: out}
}

// NewFile appends to path, creating parent directories. The returned closer
// must be called when the program exits.
func NewFile(level string, jsonOut bool, path string) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewWithWriter(level, jsonOut, f), f, nil
}

// Discard returns a logger that drops all output.
func Discard() *Logger { return NewWithWriter("error", false, io.Discard) }

func (l *Logger) Enabled(v Level) bool { return l != nil && v >= l.min }

func (l *Logger) Debugf(format string, a ...any) { l.log(Debug, format, a...) }
func (l *Logger) Infof(format string, a ...any)  { l.log(Info, format, a...) }
func (l *Logger) Warnf(format string, a ...any)  { l.log(Warn, format, a...) }
func (l *Logger) Errorf(format string, a ...any) { l.log(Error, format, a...) }

func (l *Logger) log(level Level, format string, a ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, a...)
	lvl := levelString(level)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.json {
		payload := map[string]any{
			"ts":    time.Now().Format(time.RFC3339Nano),
			"level": lvl,
			"msg":   msg,
		}
		_ = json.NewEncoder(l.out).Encode(payload)
		return
	}
	fmt.Fprintf(l.out, "%s\t%s\n", strings.ToUpper(lvl), msg)
}

func levelString(l Level) string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}
