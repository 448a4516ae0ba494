package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/tourhub/internal/actorctx"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "hello")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["trace_id"] != traceID.String() || line["span_id"] != spanID.String() {
		t.Fatalf("missing trace ids: %v", line)
	}
}

func TestLoggerAddsActor(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithUser(context.Background(), user.User{ID: "u-1", Role: user.RoleGuide})
	log.InfoContext(ctx, "hello")
	log.DebugContext(ctx, "dropped")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line: %v (%s)", err, buf.String())
	}
	if line["actor_id"] != "u-1" || line["actor_role"] != "guide" {
		t.Fatalf("missing actor: %v", line)
	}
}

func TestObserveDBClassifies(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("users.insert", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("users.insert", func() error { return errors.New("dial tcp: connection refused") })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.insert", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count = %v", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.insert", "connection")); got != 1 {
		t.Fatalf("connection count = %v", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 2 {
		t.Fatalf("no_rows must not count as an error, series = %d", got)
	}
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom
	p.RejectedAuth("missing_token")
	p.ObserveMail("welcome", "sent")
	p.ObserveJob("send_welcome_email", "done", time.Millisecond)

	called := false
	_ = p.ObserveDB("op", func() error { called = true; return nil })
	if !called {
		t.Fatalf("ObserveDB on nil Prom must still run fn")
	}
}

func TestJobMetricsSnapshot(t *testing.T) {
	m := NewJobMetrics()
	m.IncDequeued()
	m.IncDone()
	m.ObserveDuration(10 * time.Millisecond)
	m.ObserveDuration(30 * time.Millisecond)

	s := m.Snapshot()
	if s.Dequeued != 1 || s.Done != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if s.AverageDuration != 20*time.Millisecond || s.MaxDuration != 30*time.Millisecond {
		t.Fatalf("unexpected durations: %+v", s)
	}
}
