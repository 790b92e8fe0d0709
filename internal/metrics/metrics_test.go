package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	// none of these may panic
	m.Tick(TickOK)
	m.ObserveScan(time.Second)
	m.SetRecords(3)
	m.SetRunning(true)
	m.SessionStarted()
	m.BlockingRequest("enable", "applied")

	if m.Handler() != nil {
		t.Error("Handler() on nil Metrics should be nil")
	}
}

func TestMetrics_Record(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.Tick(TickOK)
	m.Tick(TickOK)
	m.Tick(TickError)
	m.SetRecords(4)
	m.SetRunning(true)
	m.SessionStarted()
	m.BlockingRequest("enable", "declined")

	if got := testutil.ToFloat64(m.ticks.WithLabelValues(TickOK)); got != 2 {
		t.Errorf("ticks{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ticks.WithLabelValues(TickError)); got != 1 {
		t.Errorf("ticks{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.records); got != 4 {
		t.Errorf("records = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.running); got != 1 {
		t.Errorf("running = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sessionStarts); got != 1 {
		t.Errorf("session starts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.blockingRequests.WithLabelValues("enable", "declined")); got != 1 {
		t.Errorf("blocking_requests{enable,declined} = %v, want 1", got)
	}

	m.SetRunning(false)
	if got := testutil.ToFloat64(m.running); got != 0 {
		t.Errorf("running = %v, want 0", got)
	}
}

func TestMetrics_RegisterTwiceSharesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	m1, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m2, err := New(reg)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}

	m1.SessionStarted()
	m2.SessionStarted()

	if got := testutil.ToFloat64(m1.sessionStarts); got != 2 {
		t.Errorf("shared session starts = %v, want 2", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.Tick(TickSkipped)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `distroboard_poll_ticks_total{result="skipped"} 1`) {
		t.Errorf("metrics output missing tick counter:\n%s", body)
	}
}
