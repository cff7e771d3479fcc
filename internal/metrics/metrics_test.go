package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestCountersAreExposed(t *testing.T) {
	m := New()
	m.DishFallback("no_match")
	m.DishFallback("no_match")
	m.EstimateDegraded("missing image")
	m.ScanRecorded("school_001", "None")

	body := scrape(t, m)

	for _, want := range []string{
		`dish_classifier_fallback_total{reason="no_match"} 2`,
		`waste_estimate_degraded_total{reason="missing image"} 1`,
		`scans_total{level="None",school_id="school_001"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.DishFallback("timeout")
	m.EstimateDegraded("panic")
	m.ScanRecorded("s", "None")
	m.ScanFailed("decode")
	m.LiveClientConnected()
	m.EventDropped()
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := scrape(t, m)
	if !strings.Contains(body, `http_requests_total{route="/api/health",status="200"} 1`) {
		t.Fatalf("expected request to be counted, got:\n%s", body)
	}
}
