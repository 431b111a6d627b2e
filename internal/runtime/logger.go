package runtime

import (
	"context"
	"io"
	"log/slog"

	"github.com/mohammad-safakhou/careerdesk/config"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// SetupLogger builds the process logger and installs it as the slog default.
// Production with OTLP ships records through the log bridge; otherwise JSON
// in production and text in development, both tagged with trace ids.
func SetupLogger(cfg *config.Config, w io.Writer, otelEnabled bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.General.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch {
	case cfg.General.IsProduction() && otelEnabled:
		handler = otelslog.NewHandler(cfg.General.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
	case cfg.General.IsProduction():
		handler = NewTraceHandler(slog.NewJSONHandler(w, opts))
	default:
		handler = NewTraceHandler(slog.NewTextHandler(w, opts))
	}

	logger := slog.New(handler).With("service", cfg.General.ServiceName)
	slog.SetDefault(logger)
	return logger
}

// TraceHandler adds the active span ids to every record.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
