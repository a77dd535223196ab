package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestObserveBooking(t *testing.T) {
	m := New()
	m.ObserveBooking(OutcomeBooked)
	m.ObserveBooking(OutcomeConflict)
	m.ObserveBooking(OutcomeConflict)

	out := scrape(t, m)
	for _, want := range []string{
		`wishspace_booking_attempts_total{outcome="booked"} 1`,
		`wishspace_booking_attempts_total{outcome="conflict"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "GET /api/items", http.StatusOK, 20*time.Millisecond)

	out := scrape(t, m)
	if !strings.Contains(out, `wishspace_http_requests_total{code="200",method="GET",route="GET /api/items"} 1`) {
		t.Errorf("request counter missing:\n%s", out)
	}
	if !strings.Contains(out, `wishspace_http_request_duration_seconds_count{method="GET",route="GET /api/items"} 1`) {
		t.Errorf("duration histogram missing")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveBooking(OutcomeBooked)
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	m.ObserveScrape(ScrapeOK, time.Second)
}
