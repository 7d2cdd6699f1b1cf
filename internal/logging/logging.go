package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Service string
	Level   string
	Format  string // "json" or "console"
	Out     io.Writer
}

// New builds the root logger. Every line carries the service name.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", opts.Service).Logger()
}

// Ctx returns the request-scoped logger stored by the HTTP middleware, or a
// disabled logger when none is attached.
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// From returns the request-scoped logger, or fallback outside a request.
func From(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}

// WithCorrelationID attaches a child logger carrying the correlation id.
func WithCorrelationID(ctx context.Context, base zerolog.Logger, correlationID string) context.Context {
	l := base.With().Str("correlation_id", correlationID).Logger()
	return l.WithContext(ctx)
}
