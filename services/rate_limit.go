package services

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/shared"
)

// RateLimitConfig describes one call site of the limiter. Every route class
// gets its own config; all of them share the same fixed-window algorithm.
type RateLimitConfig struct {
	KeyPrefix string
	Max       int
	Window    time.Duration
	Message   string
}

// Pre-configured limiters for the route classes the gateway protects.
var (
	AuthRateLimit = RateLimitConfig{
		KeyPrefix: "auth",
		Max:       5,
		Window:    15 * time.Minute,
		Message:   "Muitas tentativas de login. Tente novamente em alguns minutos.",
	}

	AIRateLimit = RateLimitConfig{
		KeyPrefix: "ai",
		Max:       20,
		Window:    time.Minute,
		Message:   "Muitas requisições ao assistente de IA. Aguarde um momento.",
	}

	UploadRateLimit = RateLimitConfig{
		KeyPrefix: "upload",
		Max:       10,
		Window:    time.Hour,
		Message:   "Limite de uploads atingido. Tente novamente em 1 hora.",
	}

	MessagingRateLimit = RateLimitConfig{
		KeyPrefix: "messaging",
		Max:       50,
		Window:    24 * time.Hour,
		Message:   "Limite diário de mensagens atingido. Envios serão retomados amanhã.",
	}

	GeneralRateLimit = RateLimitConfig{
		KeyPrefix: "api",
		Max:       100,
		Window:    time.Minute,
		Message:   "Muitas requisições. Aguarde alguns segundos.",
	}
)

const sweepInterval = 10 * time.Minute

// RateLimitService gates every route class before any other logic runs.
//
// Fixed-window counting is a deliberate simplicity/precision trade-off: up
// to 2×max requests can land in a short interval straddling a window
// boundary. That behavior is carried over from the reference limiter on
// purpose rather than upgraded to a sliding log or token bucket.
type RateLimitService struct {
	appContext.DefaultService

	store    RateLimitStore
	redisSvc *RedisService
	monSvc   *MonitoringService

	closed chan struct{}
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.closed = make(chan struct{})
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	// State must live in a shared store once the service runs behind more
	// than one replica; the in-process map only holds for a single instance.
	if svc.redisSvc.Enabled() {
		svc.store = newRedisRateLimitStore(svc.redisSvc)
		log.Info("Rate limiter using Redis store")
	} else {
		svc.store = newMemoryRateLimitStore()
		log.Info("Rate limiter using in-memory store")
	}

	go svc.startSweepJob()

	return nil
}

func (svc *RateLimitService) Shutdown() {
	close(svc.closed)
}

// ==================== CORE RATE LIMITING LOGIC ====================

// Allow records one hit for key under cfg and reports whether the request
// may proceed. A new window always starts at count=1; the (max+1)-th hit
// inside a window is rejected.
func (svc *RateLimitService) Allow(ctx context.Context, key string, cfg RateLimitConfig) (*dto.RateLimitInfo, error) {
	entry, err := svc.store.Hit(ctx, key, cfg.Window)
	if err != nil {
		return nil, err
	}

	info := &dto.RateLimitInfo{
		Allowed:   entry.Count <= cfg.Max,
		Limit:     cfg.Max,
		Remaining: cfg.Max - entry.Count,
		ResetAt:   entry.ResetAt,
	}
	if info.Remaining < 0 {
		info.Remaining = 0
	}

	return info, nil
}

// ==================== MIDDLEWARE ====================

// Limit builds the gate middleware for one route class. Rejections are
// terminal: they short-circuit with 429 before auth or business logic runs.
func (svc *RateLimitService) Limit(cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := cfg.KeyPrefix + ":" + svc.identity(c)

		info, err := svc.Allow(c.UserContext(), key, cfg)
		if err != nil {
			log.WithError(err).WithField("prefix", cfg.KeyPrefix).Error("Rate limit check failed")
			// Fail open: a broken counter store must not take the API down.
			return c.Next()
		}

		addRateLimitHeaders(c, info)

		if !info.Allowed {
			svc.monSvc.RecordRateLimitRejection(cfg.KeyPrefix)

			retryAfter := int(time.Until(info.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", strconv.Itoa(retryAfter))

			message := cfg.Message
			if message == "" {
				message = "Too Many Requests"
			}

			return c.Status(fiber.StatusTooManyRequests).JSON(dto.RateLimitExceededResponse{
				Error:      message,
				RetryAfter: retryAfter,
			})
		}

		svc.monSvc.RecordRateLimitAllowed(cfg.KeyPrefix)
		return c.Next()
	}
}

// identity picks the most specific identity available: authenticated user
// id, else client IP, else "unknown".
func (svc *RateLimitService) identity(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return userID
	}

	if ip := getClientIP(c); ip != "" {
		return ip
	}

	return "unknown"
}

func addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
}

// ==================== ADMIN OPERATIONS ====================

func (svc *RateLimitService) ResetKey(ctx context.Context, prefix, identity string) error {
	return svc.store.Reset(ctx, prefix+":"+identity)
}

func (svc *RateLimitService) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"configs": []RateLimitConfig{
			AuthRateLimit, AIRateLimit, UploadRateLimit, MessagingRateLimit, GeneralRateLimit,
		},
		"timestamp": time.Now(),
	}
	if mem, ok := svc.store.(*memoryRateLimitStore); ok {
		stats["tracked_keys"] = mem.size()
	}
	return stats
}

// ==================== BACKGROUND JOBS ====================

// startSweepJob bounds the memory of the counter store independent of
// traffic mix. It runs off the request path and stops at shutdown.
func (svc *RateLimitService) startSweepJob() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := svc.store.Sweep(context.Background(), time.Now())
			if removed > 0 {
				log.WithField("removed", removed).Debug("Rate limit sweep completed")
			}
		case <-svc.closed:
			return
		}
	}
}

// ==================== UTILITY FUNCTIONS ====================

func getClientIP(c *fiber.Ctx) string {
	// Check for forwarded IP first (for load balancers/proxies)
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	// Check for real IP header
	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to remote address
	addr := c.Context().RemoteAddr().String()
	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
