package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/projecthub/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// TraceHandler stamps every record with the emitting binary and, from the
// context, the active span and the authenticated caller. Stores and the
// association manager log with ctx only, so this is where a membership
// change gets tied back to who made it.
type TraceHandler struct {
	next slog.Handler
}

func NewTraceHandler(next slog.Handler, service, env string) *TraceHandler {
	return &TraceHandler{next: next.WithAttrs([]slog.Attr{
		slog.String("service", service),
		slog.String("env", env),
	})}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if a, ok := actorctx.From(ctx); ok {
		r.AddAttrs(slog.String("user_id", a.UserID))
		if a.Moderator {
			r.AddAttrs(slog.Bool("moderator", true))
		}
	}

	return h.next.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}
