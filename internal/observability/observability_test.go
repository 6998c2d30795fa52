package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/authhub/internal/actorctx"
	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLoggerTo_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id missing or wrong: %v", rec)
	}
}

func TestNewLoggerTo_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer

	NewLoggerTo(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered outside dev, got %s", buf.String())
	}

	NewLoggerTo(&buf, "dev").Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug should be logged in dev")
	}
}

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.get_by_email", func() error { return user.ErrNotFound })
	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("users.list", func() error { return errors.New("dial tcp: connection refused") })
	_ = p.ObserveDB("users.update", func() error { return &pgconn.PgError{Code: "40P01"} })
	_ = p.ObserveDB("users.delete", func() error { return nil })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.list", "connection")); got != 1 {
		t.Fatalf("connection count: got %v want 1", got)
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.update", "deadlock")); got != 1 {
		t.Fatalf("deadlock count: got %v want 1", got)
	}

	// misses and email conflicts are not failures
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 2 {
		t.Fatalf("expected 2 error series, got %d", got)
	}

	if got := testutil.CollectAndCount(p.DbQueryDuration); got != 5 {
		t.Fatalf("every op should be timed, got %d series", got)
	}
}

func TestDBStatus(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"not_found": user.ErrNotFound,
		"conflict":  user.ErrEmailTaken,
		"error":     context.DeadlineExceeded,
	}

	for want, err := range cases {
		if got := dbStatus(err); got != want {
			t.Fatalf("dbStatus(%v): got %q want %q", err, got, want)
		}
	}

	if got := dbStatus(&pgconn.PgError{Code: "23505"}); got != "conflict" {
		t.Fatalf("unique violation: got %q", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	p.ObserveAuth("login", "rejected")
	p.ObservePrediction("ok")

	w := httptest.NewRecorder()
	p.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()

	if !strings.Contains(body, `authhub_auth_events_total{op="login",result="rejected"} 1`) {
		t.Fatalf("auth counter missing from /metrics:\n%s", body)
	}

	if !strings.Contains(body, `authhub_predict_requests_total{result="ok"} 1`) {
		t.Fatalf("predict counter missing from /metrics:\n%s", body)
	}
}

func TestTraceHandler_AddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	ctx := actorctx.WithRequestID(context.Background(), "req-1")
	ctx = actorctx.WithIdentity(ctx, user.Identity{UserID: 7, Email: "a@x.com"})

	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}

	if rec["request_id"] != "req-1" {
		t.Fatalf("request_id: got %v", rec["request_id"])
	}

	if rec["user_id"] != float64(7) {
		t.Fatalf("user_id: got %v", rec["user_id"])
	}

	if _, ok := rec["email"]; ok {
		t.Fatalf("identity email should not be added to every record")
	}
}

func TestNewLoggerTo_TagsAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	log.Info("login", "email", "a@x.com", "password", "pw1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}

	if rec["service"] != "authhub" || rec["env"] != "prod" {
		t.Fatalf("missing base attrs: %v", rec)
	}

	if rec["password"] != "[redacted]" {
		t.Fatalf("password not redacted: %v", rec["password"])
	}

	if strings.Contains(buf.String(), "pw1") {
		t.Fatalf("plaintext leaked: %s", buf.String())
	}
}

func TestSampler(t *testing.T) {
	if d := sampler(0.5).Description(); !strings.Contains(d, "TraceIDRatioBased") {
		t.Fatalf("ratio sampler expected, got %s", d)
	}

	for _, ratio := range []float64{0, 1, 3} {
		if d := sampler(ratio).Description(); !strings.Contains(d, "AlwaysOnSampler") {
			t.Fatalf("ratio %v: always-on root expected, got %s", ratio, d)
		}
	}
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned %v", err)
	}
}
