package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spigell/jobguide/internal/line"
	"github.com/spigell/jobguide/internal/metrics"
)

type stubCallback struct {
	err   error
	calls int
}

func (c *stubCallback) Handle(context.Context, *http.Request) error {
	c.calls++
	return c.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader("{}")))
	return rec
}

func TestStatusAndHealth(t *testing.T) {
	s := New(Config{}, &stubCallback{}, nil, "v1.2.3", nil)

	rec := serve(s, http.MethodGet, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "運行中") {
		t.Fatalf("unexpected status page %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(s, http.MethodGet, "/health")
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "v1.2.3" {
		t.Fatalf("unexpected health body %v", body)
	}

	if rec := serve(s, http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics must be disabled by default, got %d", rec.Code)
	}
}

func TestCallbackStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"invalid signature", line.ErrInvalidSignature, http.StatusBadRequest},
		{"malformed body", errors.New("unexpected EOF"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := &stubCallback{err: tt.err}
			s := New(Config{}, cb, nil, "dev", nil)

			rec := serve(s, http.MethodPost, "/callback")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if cb.calls != 1 {
				t.Fatalf("expected callback to be invoked once, got %d", cb.calls)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Config{Metrics: true}, &stubCallback{}, metrics.New(), "dev", nil)

	serve(s, http.MethodGet, "/health")
	rec := serve(s, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `jobguide_http_requests_total{method="GET",path="/health",status_code="200"} 1`) {
		t.Fatalf("expected health request to be counted:\n%s", rec.Body.String())
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	s := New(Config{Port: port, ShutdownTimeout: time.Second}, &stubCallback{}, nil, "dev", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
