package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects a backend and its verbosity.
type Options struct {
	Backend string // "slog" or "zap"
	Level   string // debug, info, warn, error
	Format  string // json or text, slog only
}

// New builds a Logger writing to w according to opts.
func New(w io.Writer, opts Options) (Logger, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "slog":
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(levelOrInfo(opts.Level))); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		ho := &slog.HandlerOptions{Level: lvl}
		var h slog.Handler
		if strings.EqualFold(opts.Format, "text") {
			h = slog.NewTextHandler(w, ho)
		} else {
			h = slog.NewJSONHandler(w, ho)
		}
		return NewSlogLogger(slog.New(h)), nil
	case "zap":
		lvl, err := zapcore.ParseLevel(levelOrInfo(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), lvl)
		return NewZapLogger(zap.New(core)), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func levelOrInfo(l string) string {
	if l == "" {
		return "info"
	}
	return strings.ToLower(l)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
