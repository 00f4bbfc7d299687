package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"rideshare/internal/domain"
	"rideshare/internal/handler"
	"rideshare/internal/middleware"
	"rideshare/internal/repository/memory"
	"rideshare/internal/service"
)

const rideJSON = `{"host":"A","destination":"X","pickup":"Y","time":"2026-10-18T10:30","phone_no":"555","email":"a@x.com"}`

func newTestRouter(t *testing.T, redisClient *redis.Client, limiter *middleware.RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	creds := service.NewCredentialService("test-secret", time.Hour, bcrypt.MinCost)
	authService := service.NewAuthService(memory.NewUserRepository(), creds, time.Second, log)
	rideService := service.NewRideService(memory.NewRideRepository(), nil, service.RidePolicy{
		DedupeWindow: 15 * time.Minute,
		TTL:          900 * time.Second,
		DedupeKey:    domain.DedupeKeyEmail,
		OpTimeout:    time.Second,
	}, log)

	return NewRouter(RouterDeps{
		UserHandler: handler.NewUserHandler(authService),
		RideHandler: handler.NewRideHandler(rideService),
		RedisClient: redisClient,
		Log:         log,
		AuthLimiter: limiter,
		AllowedCORS: "*",
	})
}

func serve(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := serve(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRouter_RegistersRideRoutes(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	w := serve(router, http.MethodPost, "/rides", rideJSON, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodGet, "/rides", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"destination":"X"`) {
		t.Fatalf("expected list with the ride, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodDelete, "/rides/555", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodGet, "/rides", "", nil)
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", w.Body.String())
	}
}

func TestRouter_RateLimitsAuthOnly(t *testing.T) {
	limiter := middleware.NewRateLimiter(rate.Limit(0.001), 1)
	defer limiter.Stop()
	router := newTestRouter(t, nil, limiter)

	login := `{"email":"a@x.com","password":"x"}`
	serve(router, http.MethodPost, "/login", login, nil)
	w := serve(router, http.MethodPost, "/login", login, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second login, got %d", w.Code)
	}

	w = serve(router, http.MethodGet, "/rides", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected rides to be unaffected by auth limiter, got %d", w.Code)
	}
}

func TestRouter_IdempotentCreate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router := newTestRouter(t, client, nil)
	headers := map[string]string{"Idempotency-Key": "abc"}

	first := serve(router, http.MethodPost, "/rides", rideJSON, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	// Without replay the second create would be rejected as a duplicate.
	second := serve(router, http.MethodPost, "/rides", rideJSON, headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d: %s", second.Code, second.Body.String())
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("expected identical body on replay")
	}

	third := serve(router, http.MethodPost, "/rides", rideJSON, nil)
	if third.Code != http.StatusBadRequest {
		t.Errorf("expected duplicate rejection without key, got %d", third.Code)
	}
}

func TestRouter_IdempotencyKeyNeverReplaysLogin(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router := newTestRouter(t, client, nil)
	headers := map[string]string{"Idempotency-Key": "k1"}

	w := serve(router, http.MethodPost, "/signup", `{"name":"A","email":"a@x.com","phone_no":"555","password":"hunter2"}`, headers)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on signup, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodPost, "/login", `{"email":"a@x.com","password":"hunter2"}`, headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodPost, "/login", `{"email":"a@x.com","password":"WRONG"}`, headers)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong password under a reused key, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "token") {
		t.Errorf("expected no token in response, got %s", w.Body.String())
	}

	for _, key := range mr.Keys() {
		if strings.Contains(key, "/login") || strings.Contains(key, "/signup") {
			t.Errorf("expected auth responses not to be stored, found %s", key)
		}
	}
}

func TestRouter_IdempotencyKeyReusedWithDifferentRide(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	router := newTestRouter(t, client, nil)
	headers := map[string]string{"Idempotency-Key": "ride-key"}

	w := serve(router, http.MethodPost, "/rides", rideJSON, headers)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	other := strings.Replace(rideJSON, `"destination":"X"`, `"destination":"Z"`, 1)
	w = serve(router, http.MethodPost, "/rides", other, headers)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for reused key with a different ride, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodGet, "/rides", "", nil)
	if strings.Contains(w.Body.String(), `"destination":"Z"`) {
		t.Errorf("expected the second ride not to be created, got %s", w.Body.String())
	}
}

func TestKeyspace(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		cmd  redis.Cmder
		want string
	}{
		{redis.NewStringCmd(ctx, "get", "cache:ride:abc"), "cache:ride"},
		{redis.NewBoolCmd(ctx, "setnx", "lock:reaper", "1"), "lock"},
		{redis.NewStatusCmd(ctx, "ping"), "redis"},
		{redis.NewStringCmd(ctx, "get", "plain"), "plain"},
	}

	for _, tc := range testCases {
		if got := keyspace(tc.cmd); got != tc.want {
			t.Errorf("keyspace(%v) = %q, want %q", tc.cmd.Args(), got, tc.want)
		}
	}
}
