package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cruce/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(nil, func(*http.Request) string { return "203.0.113.1" })

	var seen string
	var logger *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		logger = log.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/declarantes", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id %q lacks prefix", seen)
	}
	if got := rr.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header %q, context %q", got, seen)
	}
	if logger == nil || logger.Component() != log.ComponentHTTP {
		t.Errorf("request logger not installed in context")
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("status %d", rr.Code)
	}
	if got := m.GetMetrics(); got.TotalRequests != 1 || got.InFlight != 0 {
		t.Errorf("metrics %+v", got)
	}
}

func TestIncomingRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "accepted", header: "abc-123", keep: true},
		{name: "too long", header: strings.Repeat("x", 65)},
		{name: "control characters", header: "abc\x01"},
		{name: "spaces", header: "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMiddleware(nil, nil)
			h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(HeaderRequestID, tt.header)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			got := rr.Header().Get(HeaderRequestID)
			if (got == tt.header) != tt.keep {
				t.Errorf("request id %q, keep=%v", got, tt.keep)
			}
		})
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
