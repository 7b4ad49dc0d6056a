// internal/api/middleware_test.go
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestIDPopulatesContextAndHeader(t *testing.T) {
	var seen string
	handler := ChainMiddleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}),
		WithLogging,
		WithRequestID,
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("expected a request id on the context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("header X-Request-ID = %q, context id = %q", got, seen)
	}
}

func TestWithLoggingWithoutRequestID(t *testing.T) {
	handler := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
