package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the logger created by New.
type Options struct {
	// Level is the minimum level that gets emitted (default: info)
	Level slog.Level

	// Writer receives the log output (default: os.Stderr)
	Writer io.Writer

	// NoColor disables ANSI colors even on a terminal
	NoColor bool
}

// DefaultOptions returns the default logger configuration.
func DefaultOptions() *Options {
	return &Options{
		Level:  slog.LevelInfo,
		Writer: os.Stderr,
	}
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

// New creates a logger writing colorized, tab-aligned lines. Colors are
// only used when the writer is a terminal. A nil opts uses DefaultOptions.
func New(opts *Options) *slog.Logger {
	if opts == nil {
		opts = DefaultOptions()
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	noColor := opts.NoColor
	if file, ok := writer.(*os.File); ok {
		if !isatty.IsTerminal(file.Fd()) && !isatty.IsCygwinTerminal(file.Fd()) {
			noColor = true
		}
		writer = colorable.NewColorable(file)
	}

	return slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      opts.Level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// Discard returns a logger that drops everything. Library packages use it
// as the default when no logger is supplied.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// ParseLevel maps a level name ("debug", "info", "warn", "error") to its
// slog level. The match is case-insensitive.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// --------------------------------------------------------------------------
// Discard handler
// --------------------------------------------------------------------------

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
