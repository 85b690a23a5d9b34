package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	sentinel "github.com/sentinelforge/sentinel"
)

type fakeSource struct {
	snapshot sentinel.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() sentinel.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                      { return f.dropped }

func newFakeSource() *fakeSource {
	return &fakeSource{
		snapshot: sentinel.MetricsSnapshot{
			Counters: map[sentinel.MetricID]uint64{
				sentinel.MetricSessionCreated:   42,
				sentinel.MetricSessionRevoked:   7,
				sentinel.MetricRiskAssessed:     100,
				sentinel.MetricLockoutTriggered: 1,
			},
			Histograms: map[sentinel.MetricID][]uint64{
				sentinel.MetricAssessLatency: {5, 3, 0, 0, 1, 0, 0, 2},
			},
		},
		dropped: 9,
	}
}

func TestRenderCounters(t *testing.T) {
	exp := NewPrometheusExporterFromSource(newFakeSource())
	out := exp.Render()

	wantLines := []string{
		"# TYPE sentinel_session_created_total counter",
		"sentinel_session_created_total 42",
		"sentinel_session_revoked_total 7",
		"sentinel_risk_assessed_total 100",
		"sentinel_lockout_triggered_total 1",
		"sentinel_sweep_runs_total 0",
		"sentinel_audit_dropped_total 9",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("exposition missing %q\n%s", line, out)
		}
	}
}

func TestRenderHistogramIsCumulative(t *testing.T) {
	exp := NewPrometheusExporterFromSource(newFakeSource())
	out := exp.Render()

	wantLines := []string{
		`sentinel_assess_latency_seconds_bucket{le="0.005"} 5`,
		`sentinel_assess_latency_seconds_bucket{le="0.01"} 8`,
		`sentinel_assess_latency_seconds_bucket{le="0.1"} 9`,
		`sentinel_assess_latency_seconds_bucket{le="+Inf"} 11`,
		"sentinel_assess_latency_seconds_count 11",
		"sentinel_assess_latency_seconds_sum 0",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line+"\n") {
			t.Fatalf("exposition missing %q\n%s", line, out)
		}
	}
}

func TestRenderSkipsAbsentHistogram(t *testing.T) {
	src := newFakeSource()
	delete(src.snapshot.Histograms, sentinel.MetricAssessLatency)

	out := NewPrometheusExporterFromSource(src).Render()
	if strings.Contains(out, "sentinel_assess_latency_seconds") {
		t.Fatal("histogram rendered despite missing snapshot data")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	exp := NewPrometheusExporterFromSource(newFakeSource())

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; version=0.0.4; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "sentinel_session_created_total 42") {
		t.Fatal("body missing counter line")
	}
}

func TestHandlerRejectsPost(t *testing.T) {
	exp := NewPrometheusExporterFromSource(newFakeSource())

	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/metrics", nil))

	if rec.Code != 405 {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(newFakeSource())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
