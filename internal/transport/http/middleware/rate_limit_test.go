package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

type fakeRateLimitStore struct {
	attempts map[string][]time.Time
	err      error
}

func newFakeRateLimitStore() *fakeRateLimitStore {
	return &fakeRateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *fakeRateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if s.err != nil {
		return s.err
	}
	cutoff := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *fakeRateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	cutoff := reference.Add(-window)
	count := 0
	for _, at := range s.attempts[identifier] {
		if at.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *fakeRateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *fakeRateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if s.err != nil {
		return time.Time{}, false, s.err
	}
	cutoff := reference.Add(-window)
	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if !at.After(cutoff) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

func loginRouter(rl *RateLimiter, rule RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/auth/login", rl.RateLimit(rule), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	store := newFakeRateLimitStore()
	key := "auth_login_ip:10.1.2.3"
	oldest := now.Add(-40 * time.Second)
	store.attempts[key] = []time.Time{oldest, now.Add(-5 * time.Second)}

	rl := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })
	router := loginRouter(rl, RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      5,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.1.2.3:51811"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("expected limit header 5, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("expected remaining header 2, got %q", got)
	}
	wantReset := strconv.FormatInt(oldest.Add(time.Minute).Unix(), 10)
	if got := rr.Header().Get("X-RateLimit-Reset"); got != wantReset {
		t.Fatalf("expected reset header %s, got %q", wantReset, got)
	}
	if got := len(store.attempts[key]); got != 3 {
		t.Fatalf("expected attempt to be recorded, have %d entries", got)
	}
}

func TestRateLimiterBlocksAtLimit(t *testing.T) {
	now := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	store := newFakeRateLimitStore()
	key := "auth_login_ip:10.1.2.3"
	store.attempts[key] = []time.Time{now.Add(-30 * time.Second), now.Add(-10 * time.Second)}

	rl := NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })
	router := loginRouter(rl, RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      2,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.1.2.3:51812"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected Retry-After 30, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining header 0, got %q", got)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("expected problem status 429, got %d", problem.Status)
	}
	if problem.Title != "Rate Limit Exceeded" {
		t.Fatalf("unexpected problem title %q", problem.Title)
	}
	if problem.Instance != "/api/v1/auth/login" {
		t.Fatalf("unexpected problem instance %q", problem.Instance)
	}
	if problem.RetryAfter != 30 {
		t.Fatalf("expected retry_after 30, got %d", problem.RetryAfter)
	}

	if got := len(store.attempts[key]); got != 2 {
		t.Fatalf("blocked request must not record an attempt, have %d entries", got)
	}
}

func TestRateLimiterFailsOpenOnStoreError(t *testing.T) {
	store := newFakeRateLimitStore()
	store.err = context.DeadlineExceeded

	rl := NewRateLimiter(store, zaptest.NewLogger(t))
	router := loginRouter(rl, RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      1,
		Window:     time.Minute,
		Identifier: ClientIPIdentifier(),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.1.2.3:51813"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200 when store unavailable, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "" {
		t.Fatalf("expected no rate limit headers on fail-open, got %q", got)
	}
}

func TestRateLimiterSkipsRuleWithoutIdentifier(t *testing.T) {
	store := newFakeRateLimitStore()
	rl := NewRateLimiter(store, zaptest.NewLogger(t))
	router := loginRouter(rl, RateLimitRule{
		Name:   "auth_login_ip",
		Limit:  1,
		Window: time.Minute,
		Identifier: func(*gin.Context) (string, bool) {
			return "", false
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(store.attempts) != 0 {
		t.Fatalf("expected no attempts recorded, have %d keys", len(store.attempts))
	}
}
