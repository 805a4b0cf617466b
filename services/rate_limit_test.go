package services

import (
	"context"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentis-care/dentis-api/dto"
)

func TestMemoryStoreHit(t *testing.T) {
	store := newMemoryRateLimitStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		entry, err := store.Hit(ctx, "auth:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, entry.Count)
	}

	// Independent keys do not share a window.
	entry, err := store.Hit(ctx, "auth:5.6.7.8", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
}

func TestMemoryStoreWindowReset(t *testing.T) {
	store := newMemoryRateLimitStore()
	ctx := context.Background()

	entry, err := store.Hit(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)

	_, _ = store.Hit(ctx, "k", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	// Elapsed window starts fresh at 1, not max.
	entry, err = store.Hit(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
}

func TestMemoryStoreReset(t *testing.T) {
	store := newMemoryRateLimitStore()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "k", time.Minute)
	_, _ = store.Hit(ctx, "k", time.Minute)
	require.NoError(t, store.Reset(ctx, "k"))

	entry, err := store.Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := newMemoryRateLimitStore()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "short", 5*time.Millisecond)
	_, _ = store.Hit(ctx, "long", time.Hour)
	time.Sleep(10 * time.Millisecond)

	removed := store.Sweep(ctx, time.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.size())
}

func TestAllow(t *testing.T) {
	svc := &RateLimitService{store: newMemoryRateLimitStore()}
	cfg := RateLimitConfig{KeyPrefix: "test", Max: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := svc.Allow(ctx, "test:u1", cfg)
		require.NoError(t, err)
		assert.True(t, info.Allowed)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	info, err := svc.Allow(ctx, "test:u1", cfg)
	require.NoError(t, err)
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.True(t, info.ResetAt.After(time.Now()))
}

func TestLimitMiddleware(t *testing.T) {
	svc := &RateLimitService{
		store:  newMemoryRateLimitStore(),
		monSvc: &MonitoringService{},
	}
	cfg := RateLimitConfig{
		KeyPrefix: "auth",
		Max:       5,
		Window:    15 * time.Minute,
		Message:   "Muitas tentativas de login. Tente novamente em alguns minutos.",
	}

	app := fiber.New()
	app.Post("/login", svc.Limit(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusUnauthorized)
	})

	for i := 1; i <= 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "request %d should reach the handler", i)
		assert.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(5-i), resp.Header.Get("X-RateLimit-Remaining"))
	}

	// Sixth request inside the window is rejected before the handler.
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload dto.RateLimitExceededResponse
	require.NoError(t, sonic.Unmarshal(body, &payload))
	assert.Equal(t, cfg.Message, payload.Error)
	assert.Greater(t, payload.RetryAfter, 0)
}

func TestLimitMiddlewareSeparatesIdentities(t *testing.T) {
	svc := &RateLimitService{
		store:  newMemoryRateLimitStore(),
		monSvc: &MonitoringService{},
	}
	cfg := RateLimitConfig{KeyPrefix: "api", Max: 1, Window: time.Minute}

	app := fiber.New()
	app.Get("/t", svc.Limit(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	reqA := httptest.NewRequest("GET", "/t", nil)
	reqA.Header.Set("X-Forwarded-For", "10.0.0.1")
	reqB := httptest.NewRequest("GET", "/t", nil)
	reqB.Header.Set("X-Forwarded-For", "10.0.0.2")

	respA, err := app.Test(reqA)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, respA.StatusCode)

	// A second identity is unaffected by the first one's exhausted window.
	respB, err := app.Test(reqB)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, respB.StatusCode)

	respA2, err := app.Test(reqA)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, respA2.StatusCode)
}

func TestGetClientIPPrefersForwardedHeader(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/ip", func(c *fiber.Ctx) error {
		got = getClientIP(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", got)
}
