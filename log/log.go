package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

type options struct {
	w      io.Writer
	format string
	opts   *slog.HandlerOptions
	args   []any
}

type Option func(*options)

func WithWriter(w io.Writer) Option {
	return func(opts *options) {
		opts.w = w
	}
}

func WithFormat(format string) Option {
	return func(opts *options) {
		opts.format = format
	}
}

func WithHandlerOptions(ho *slog.HandlerOptions) Option {
	return func(opts *options) {
		opts.opts = ho
	}
}

func WithSource(add bool) Option {
	return func(opts *options) {
		opts.opts.AddSource = add
	}
}

func WithLevel(level slog.Level) Option {
	return func(opts *options) {
		opts.opts.Level = level
	}
}

func WithAttrs(args ...any) Option {
	return func(opts *options) {
		clear(opts.args)
		opts.args = append(opts.args[:0], args...)
	}
}

// New builds a logger without touching the process default.
func New(opt ...Option) *slog.Logger {
	opts := options{
		w:      os.Stdout,
		format: FormatJSON,
		opts:   &slog.HandlerOptions{AddSource: true},
	}

	for _, v := range opt {
		v(&opts)
	}

	var h slog.Handler
	if opts.format == FormatText {
		h = slog.NewTextHandler(opts.w, opts.opts)
	} else {
		h = slog.NewJSONHandler(opts.w, opts.opts)
	}

	return slog.New(h).With(opts.args...)
}

func Init(opt ...Option) {
	slog.SetDefault(New(opt...))
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("log: unknown level [%s]", s)
}
