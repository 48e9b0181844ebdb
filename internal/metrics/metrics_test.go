package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusAccepted)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `adscope_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}

func TestCollectorRecordsAuditMetrics(t *testing.T) {
	collector, err := NewCollector()
	if err != nil {
		t.Fatalf("NewCollector returned error: %v", err)
	}

	collector.RecordAudit("facebook", true, 250*time.Millisecond)
	collector.RecordAudit("facebook", false, 100*time.Millisecond)
	collector.RecordRecommendations(map[string]int{"high": 2, "medium": 3})

	body := scrape(t, collector)
	if !strings.Contains(body, `adscope_audit_runs_total{platform="facebook",success="true"} 1`) {
		t.Errorf("audit success counter missing:\n%s", body)
	}
	if !strings.Contains(body, `adscope_audit_runs_total{platform="facebook",success="false"} 1`) {
		t.Errorf("audit failure counter missing:\n%s", body)
	}
	if !strings.Contains(body, `adscope_audit_recommendations_total{severity="high"} 2`) {
		t.Errorf("recommendation counter missing:\n%s", body)
	}
}

func scrape(t *testing.T, collector *Collector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)
	data, err := io.ReadAll(rr.Result().Body)
	if err != nil {
		t.Fatalf("read metrics body: %v", err)
	}
	return string(data)
}
