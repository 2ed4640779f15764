package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within a minute allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other client throttled")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 || m.ClientCount != 2 {
		t.Errorf("metrics = %+v, want 1 hit and 2 clients", m)
	}
}

func TestLimiterCleanupStaleEntries(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 5, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-11 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 0 {
		t.Errorf("ActiveClients() = %d after cleanup, want 0", n)
	}
}

func TestMiddlewareMethodFilter(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour, Methods: []string{http.MethodPost}})
	defer rl.Stop()

	h := rl.Middleware(func(*http.Request) string { return "10.0.0.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	send := func(method string) int {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/expenses", nil))
		return rr.Code
	}

	if code := send(http.MethodPost); code != http.StatusOK {
		t.Fatalf("first POST = %d", code)
	}
	if code := send(http.MethodPost); code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", code)
	}
	for i := 0; i < 3; i++ {
		if code := send(http.MethodGet); code != http.StatusOK {
			t.Fatalf("GET %d = %d, reads must not be limited", i, code)
		}
	}
}

func TestDefaultConfigLimitsWrites(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	defer rl.Stop()

	if rl.applies(http.MethodGet) {
		t.Error("GET should not be limited by default")
	}
	for _, m := range []string{http.MethodPost, http.MethodPatch, http.MethodDelete} {
		if !rl.applies(m) {
			t.Errorf("%s should be limited by default", m)
		}
	}

	all := NewLimiter(Config{RequestsPerMinute: 1})
	defer all.Stop()
	if !all.applies(http.MethodGet) {
		t.Error("empty Methods should limit every method")
	}
	rl.Stop() // idempotent
}
