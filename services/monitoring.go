package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "dentis_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Governance Metrics
var (
	rateLimitAllowedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_allowed_total",
			Help: "Requests admitted by the rate limiter, per key prefix",
		},
		[]string{"prefix"},
	)

	rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, per key prefix",
		},
		[]string{"prefix"},
	)

	authFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Failed authentication attempts by internal reason",
		},
		[]string{"reason"},
	)

	toolDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_decisions_total",
			Help: "Tool governance outcomes (execute, propose, deny)",
		},
		[]string{"action"},
	)

	jailbreakDetectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jailbreak_detections_total",
			Help: "Inputs flagged by the prompt injection heuristics",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	server *fiber.App
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Start() error {
	portStr := os.Getenv("PROMETHEUS_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		rateLimitAllowedTotal,
		rateLimitRejectionsTotal,
		authFailuresTotal,
		toolDecisionsTotal,
		jailbreakDetectionsTotal,
	)

	svc.register = reg

	config := fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	}

	svc.server = fiber.New(config)
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRequest records HTTP request metrics
func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

func (svc *MonitoringService) RecordRateLimitAllowed(prefix string) {
	rateLimitAllowedTotal.WithLabelValues(prefix).Inc()
}

func (svc *MonitoringService) RecordRateLimitRejection(prefix string) {
	rateLimitRejectionsTotal.WithLabelValues(prefix).Inc()
}

func (svc *MonitoringService) RecordAuthFailure(reason string) {
	authFailuresTotal.WithLabelValues(reason).Inc()
}

func (svc *MonitoringService) RecordToolDecision(action string) {
	toolDecisionsTotal.WithLabelValues(action).Inc()
}

func (svc *MonitoringService) RecordJailbreakDetection() {
	jailbreakDetectionsTotal.Inc()
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		err := c.Next()

		endpoint := c.Route().Path
		duration := time.Since(start)
		status := strconv.Itoa(c.Response().StatusCode())

		monitoringSvc.RecordRequest(method, endpoint, status, duration)

		return err
	}
}
