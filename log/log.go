// Package log provides the leveled, key/value structured logger used
// throughout trackerd. The call convention, log.Info("message", "key",
// value, ...), mirrors the logger every actor package in this codebase
// was written against.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level is a logging severity, ordered from most to least severe.
type Level int

const (
	LevelCrit Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelCrit:
		return "CRIT"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "?????"
	}
}

var levelColor = map[Level]*color.Color{
	LevelCrit:  color.New(color.FgMagenta, color.Bold),
	LevelError: color.New(color.FgRed, color.Bold),
	LevelWarn:  color.New(color.FgYellow),
	LevelInfo:  color.New(color.FgGreen),
	LevelDebug: color.New(color.FgCyan),
	LevelTrace: color.New(color.FgWhite),
}

// Logger is a handle bound to a fixed set of context key/values, in the
// manner of log.New(ctx...).With(more...).
type Logger struct {
	ctx []interface{}
}

var (
	root     atomic.Value
	rootOnce sync.Once
)

func initRoot() {
	root.Store(&handler{
		out:      colorable.NewColorableStderr(),
		useColor: isatty.IsTerminal(os.Stderr.Fd()),
		level:    LevelInfo,
	})
}

type handler struct {
	mu       sync.Mutex
	out      io.Writer
	useColor bool
	level    Level
}

// SetOutput redirects all logging output.
func SetOutput(w io.Writer) {
	rootOnce.Do(initRoot)
	h := root.Load().(*handler)
	h.mu.Lock()
	h.out = w
	h.useColor = false
	h.mu.Unlock()
}

// SetLevel sets the minimum severity that will be emitted.
func SetLevel(lvl Level) {
	rootOnce.Do(initRoot)
	h := root.Load().(*handler)
	h.mu.Lock()
	h.level = lvl
	h.mu.Unlock()
}

// New returns a Logger carrying the given static context key/value pairs.
func New(ctx ...interface{}) *Logger {
	return &Logger{ctx: ctx}
}

func (l *Logger) with(more []interface{}) []interface{} {
	if len(l.ctx) == 0 {
		return more
	}
	out := make([]interface{}, 0, len(l.ctx)+len(more))
	out = append(out, l.ctx...)
	out = append(out, more...)
	return out
}

func (l *Logger) Trace(msg string, ctx ...interface{}) { write(LevelTrace, msg, l.with(ctx)) }
func (l *Logger) Debug(msg string, ctx ...interface{}) { write(LevelDebug, msg, l.with(ctx)) }
func (l *Logger) Info(msg string, ctx ...interface{})  { write(LevelInfo, msg, l.with(ctx)) }
func (l *Logger) Warn(msg string, ctx ...interface{})  { write(LevelWarn, msg, l.with(ctx)) }
func (l *Logger) Error(msg string, ctx ...interface{}) { write(LevelError, msg, l.with(ctx)) }
func (l *Logger) Crit(msg string, ctx ...interface{})  { write(LevelCrit, msg, l.with(ctx)) }

// Package-level convenience wrappers bound to the root logger, matching
// the call sites that don't hold a dedicated *Logger.
func Trace(msg string, ctx ...interface{}) { write(LevelTrace, msg, ctx) }
func Debug(msg string, ctx ...interface{}) { write(LevelDebug, msg, ctx) }
func Info(msg string, ctx ...interface{})  { write(LevelInfo, msg, ctx) }
func Warn(msg string, ctx ...interface{})  { write(LevelWarn, msg, ctx) }
func Error(msg string, ctx ...interface{}) { write(LevelError, msg, ctx) }

// Crit logs at the highest severity and terminates the process, matching
// go-ethereum-family convention: a Crit call means the process cannot
// proceed meaningfully.
func Crit(msg string, ctx ...interface{}) {
	write(LevelCrit, msg, ctx)
	os.Exit(1)
}

func write(lvl Level, msg string, ctx []interface{}) {
	rootOnce.Do(initRoot)
	h := root.Load().(*handler)

	h.mu.Lock()
	defer h.mu.Unlock()

	if lvl > h.level {
		return
	}

	var b strings.Builder
	ts := time.Now().Format("2006-01-02T15:04:05.000")
	levelStr := fmt.Sprintf("%-5s", lvl.String())
	if h.useColor {
		if c, ok := levelColor[lvl]; ok {
			levelStr = c.Sprintf("%-5s", lvl.String())
		}
	}
	fmt.Fprintf(&b, "%s [%s] %s", ts, levelStr, msg)

	for i := 0; i+1 < len(ctx); i += 2 {
		fmt.Fprintf(&b, " %v=%v", ctx[i], formatValue(ctx[i+1]))
	}
	if len(ctx)%2 == 1 {
		fmt.Fprintf(&b, " %v=%s", ctx[len(ctx)-1], "MISSING")
	}

	if lvl <= LevelError {
		// Attach a short call stack for errors and above, skipping the
		// logging package's own frames.
		cs := stack.Trace().TrimBelow(stack.Caller(2)).TrimRuntime()
		if len(cs) > 0 {
			fmt.Fprintf(&b, " caller=%v", cs[0])
		}
	}

	b.WriteByte('\n')
	io.WriteString(h.out, b.String())
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
