package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/geocoder89/projecthub/internal/actorctx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func TestLoggerLevelsByEnv(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, "projecthub-api", "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be dropped outside dev, got %s", buf.String())
	}

	newLogger(&buf, "projecthub-api", "dev").DebugContext(context.Background(), "shown", "k", "v")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v (%s)", err, buf.String())
	}
	if line["msg"] != "shown" || line["k"] != "v" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if _, ok := line["trace_id"]; ok {
		t.Fatalf("no span on context, trace_id should be absent")
	}
	if line["service"] != "projecthub-api" || line["env"] != "dev" {
		t.Fatalf("service attrs missing: %v", line)
	}
	if _, ok := line["user_id"]; ok {
		t.Fatalf("anonymous context should not carry user_id")
	}
}

func TestLoggerStampsSpanAndActor(t *testing.T) {
	var buf bytes.Buffer

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = actorctx.With(ctx, actorctx.Actor{UserID: "u1", SessionID: "s1", Moderator: true})

	newLogger(&buf, "projecthubctl", "prod").With("component", "roster").InfoContext(ctx, "member_added")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != sc.TraceID().String() || line["span_id"] != sc.SpanID().String() {
		t.Fatalf("span ids missing: %v", line)
	}
	if line["user_id"] != "u1" || line["moderator"] != true {
		t.Fatalf("actor missing: %v", line)
	}
	if line["service"] != "projecthubctl" || line["component"] != "roster" {
		t.Fatalf("handler attrs lost: %v", line)
	}
}

func TestObserveDBClassifiesErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	uniq := &pgconn.PgError{Code: "23505"}
	err := p.ObserveDB("users.create", func() error { return uniq })
	if !errors.Is(err, uniq) {
		t.Fatalf("ObserveDB must return the wrapped fn error")
	}

	got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation"))
	if got != 1 {
		t.Fatalf("unique_violation count: got %v want 1", got)
	}

	if err := p.ObserveDB("users.get", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom

	called := false
	if err := p.ObserveDB("op", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("nil prom should still run fn")
	}
	p.ObserveAuth(true)
	p.ObserveMembership("add", false)
}

func TestAuthAndMembershipCounters(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveAuth(false)
	p.ObserveAuth(false)
	p.ObserveAuth(true)
	p.ObserveMembership("add", true)

	if got := testutil.ToFloat64(p.AuthAttempts.WithLabelValues("invalid")); got != 2 {
		t.Fatalf("invalid attempts: got %v", got)
	}
	if got := testutil.ToFloat64(p.MembershipChanges.WithLabelValues("add", "true")); got != 1 {
		t.Fatalf("membership adds: got %v", got)
	}
}
