package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exhibition/internal/adapters/http/perf"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// TestTiming_RecordsAndSkipsStatic verifies pages are recorded and assets are not.
func TestTiming_RecordsAndSkipsStatic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector, 0)(okHandler(http.StatusOK))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/student", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/static/dashboard.js", nil))

	if collector.TotalRecorded() != 1 {
		t.Errorf("TotalRecorded = %d, want 1 (static excluded)", collector.TotalRecorded())
	}
}

// TestTiming_UsesRoutePattern verifies ids collapse into the mux pattern.
func TestTiming_UsesRoutePattern(t *testing.T) {
	collector := perf.NewCollector(10)
	mux := http.NewServeMux()
	mux.Handle("POST /review/projects/{id}/{decision}", okHandler(http.StatusOK))
	handler := Timing(collector, 0)(mux)

	for _, path := range []string{"/review/projects/7/reject", "/review/projects/8/approve"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", path, nil))
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "POST /review/projects/{id}/{decision}" {
		t.Errorf("unexpected paths: %+v", snap.SlowestPaths)
	}
	if snap.SlowestPaths[0].Count != 2 {
		t.Errorf("Count = %d, want 2", snap.SlowestPaths[0].Count)
	}
}

// TestTiming_NilCollector verifies middleware works without a collector.
func TestTiming_NilCollector(t *testing.T) {
	rr := httptest.NewRecorder()
	Timing(nil, 5)(okHandler(http.StatusTeapot)).ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rr.Code)
	}
}

// TestTiming_HandlerPanic verifies the deferred record runs when a handler panics.
func TestTiming_HandlerPanic(t *testing.T) {
	collector := perf.NewCollector(100)
	handler := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic to propagate, got nil")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1 (defer must run even on panic)", collector.TotalRecorded())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/panic", nil))
}

// TestTiming_PoolNoStateLeak verifies pooled writers do not leak status codes.
func TestTiming_PoolNoStateLeak(t *testing.T) {
	collector := perf.NewCollector(1)
	Timing(collector, 0)(okHandler(http.StatusInternalServerError)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/fail", nil))

	implicit := Timing(collector, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	implicit.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "GET /ok" {
		t.Fatalf("unexpected paths: %+v", snap.SlowestPaths)
	}
}

// BenchmarkTiming measures per-request overhead.
func BenchmarkTiming(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector, 0)(okHandler(http.StatusOK))
	req := httptest.NewRequest("GET", "/student", nil)

	b.ReportAllocs()
	for b.Loop() {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
