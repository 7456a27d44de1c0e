package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func limitedHandler(limiter *RateLimiter) http.Handler {
	return limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doAs(handler http.Handler, userID, plan string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ContextWithUserID(req.Context(), userID)
	if plan != "" {
		ctx = contextWithPlan(ctx, plan)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	return rec.Code
}

func TestLocalRateLimitEnforced(t *testing.T) {
	limiter := NewRateLimiter(nil, PlanLimits{FreePerMin: 3, BasicPerMin: 20, ProPerMin: 50}, zerolog.Nop())
	handler := limitedHandler(limiter)

	for i := 0; i < 3; i++ {
		if code := doAs(handler, "user-1", "free"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := doAs(handler, "user-1", "free"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded: status = %d, want 429", code)
	}
}

func TestRateLimitKeyedPerUser(t *testing.T) {
	limiter := NewRateLimiter(nil, PlanLimits{FreePerMin: 1, BasicPerMin: 1, ProPerMin: 1}, zerolog.Nop())
	handler := limitedHandler(limiter)

	if code := doAs(handler, "user-a", "free"); code != http.StatusOK {
		t.Fatalf("user-a: status = %d", code)
	}
	if code := doAs(handler, "user-b", "free"); code != http.StatusOK {
		t.Fatalf("user-b must have an independent budget, status = %d", code)
	}
	if code := doAs(handler, "user-a", "free"); code != http.StatusTooManyRequests {
		t.Fatalf("user-a second request: status = %d, want 429", code)
	}
}

func TestRateLimitTierBudgets(t *testing.T) {
	limiter := NewRateLimiter(nil, PlanLimits{FreePerMin: 1, BasicPerMin: 2, ProPerMin: 4}, zerolog.Nop())
	handler := limitedHandler(limiter)

	allowed := 0
	for i := 0; i < 5; i++ {
		if doAs(handler, "pro-user", "pro") == http.StatusOK {
			allowed++
		}
	}
	if allowed != 4 {
		t.Fatalf("pro tier allowed %d requests, want 4", allowed)
	}

	allowed = 0
	for i := 0; i < 5; i++ {
		if doAs(handler, "unknown-plan-user", "enterprise") == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("unknown plan allowed %d requests, want free budget 1", allowed)
	}
}

func TestRateLimitDisabledWithZeroBudget(t *testing.T) {
	limiter := NewRateLimiter(nil, PlanLimits{}, zerolog.Nop())
	handler := limitedHandler(limiter)

	for i := 0; i < 10; i++ {
		if code := doAs(handler, "user-1", "free"); code != http.StatusOK {
			t.Fatalf("zero budget must disable limiting, status = %d", code)
		}
	}
}
