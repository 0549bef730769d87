package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitPerIP(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewareRateLimit(newLimiterPool(), ok)

	hit := func(addr string) int {
		req := httptest.NewRequest("GET", "/api/status", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	// Burst of 20 passes, the 21st immediate request does not.
	for i := 0; i < 20; i++ {
		if code := hit("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := hit("10.0.0.1:5000"); code != http.StatusTooManyRequests {
		t.Fatalf("over burst: status %d, want 429", code)
	}
	// A different client has its own budget.
	if code := hit("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("second ip: status %d", code)
	}
}

func TestCORSPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the inner handler")
	})
	handler := middlewareCORS(next)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/accrue", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("allow-headers not set")
	}
}
