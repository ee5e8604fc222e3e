package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	engine := gin.New()
	engine.Use(m.Middleware())
	engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 2; i++ {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")); got != 2 {
		t.Fatalf("expected 2 health requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}

func TestBotEvents(t *testing.T) {
	m := New()

	m.ObserveCommand("conversation")
	m.ObserveCommand("conversation")
	m.ObserveSearch(SearchSucceeded, 3)
	m.ObserveSearch(SearchFailed, 0)

	if got := testutil.ToFloat64(m.commands.WithLabelValues("conversation")); got != 2 {
		t.Fatalf("expected 2 conversation messages, got %v", got)
	}
	if got := testutil.ToFloat64(m.searches.WithLabelValues(SearchFailed)); got != 1 {
		t.Fatalf("expected 1 failed search, got %v", got)
	}
	if got := testutil.CollectAndCount(m.results); got != 1 {
		t.Fatalf("expected results histogram to be collected, got %d", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "jobguide_searches_total") {
		t.Fatalf("expected exposition to contain search counter")
	}
}
