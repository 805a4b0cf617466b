package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/dentis-care/dentis-api/services/handlers"
	"github.com/dentis-care/dentis-api/shared"
)

// HttpService mounts the public API. Rate limiters run before auth on every
// route class so rejected traffic never touches the session store.
type HttpService struct {
	context.DefaultService

	authSvc      *AuthService
	rateLimitSvc *RateLimitService
	policySvc    *ToolPolicyService
	safetySvc    *AISafetyService
	monSvc       *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.policySvc = svc.Service(TOOL_POLICY_SVC).(*ToolPolicyService)
	svc.safetySvc = svc.Service(AI_SAFETY_SVC).(*AISafetyService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	app := fiber.New(fiber.Config{
		AppName:      "dentis-api",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: svc.errorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(svc.monSvc))
	app.Use(svc.requestLogger())

	svc.mountRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseJSON(c, http.StatusNotFound, "page not found", nil)
	})

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP server starting")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) mountRoutes(app *fiber.App) {
	authHandler := handlers.NewAuthHandler(svc.authSvc, svc.safetySvc)
	aiHandler := handlers.NewAIHandler(svc.safetySvc, svc.policySvc, svc.monSvc)
	adminHandler := handlers.NewAdminHandler(svc.rateLimitSvc)

	app.Get("/ping", svc.ping)

	// Authentication surface. These paths and response shapes are part of
	// the client contract; the limiter throttles by IP since no session
	// exists yet on most of them.
	authLimiter := svc.rateLimitSvc.Limit(AuthRateLimit)
	app.Post("/login", authLimiter, authHandler.Login)
	app.Post("/register", authLimiter, authHandler.Register)
	app.Post("/forgot-password", authLimiter, authHandler.ForgotPassword)
	app.Post("/reset-password", authLimiter, authHandler.ResetPassword)
	app.Post("/logout", authHandler.Logout)
	app.Get("/me", svc.authSvc.RequiredAuth(), authHandler.Me)

	// Step-up answers 401 with its own body shape, so auth is optional here
	// and the handler decides.
	app.Get("/auth/step-up", authLimiter, svc.authSvc.OptionalAuth(), authHandler.StepUp)

	// Assistant surface: auth resolves the identity first so the AI limiter
	// counts per user rather than per IP.
	app.Post("/ai/chat",
		svc.authSvc.RequiredAuth(),
		svc.rateLimitSvc.Limit(AIRateLimit),
		aiHandler.Chat,
	)

	v1 := app.Group("/api/v1", svc.rateLimitSvc.Limit(GeneralRateLimit))
	v1.Get("/ping", svc.ping)

	admin := v1.Group("/admin", svc.authSvc.RequiredAuth(), svc.authSvc.RequireRole(shared.RoleAdmin))
	admin.Get("/rate-limits", adminHandler.RateLimitStats)
	admin.Delete("/rate-limits/:prefix/:identity", adminHandler.ResetRateLimit)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")
	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

// requestLogger logs one line per request with PII redacted from the path.
// Request bodies are never logged here; anything body-level goes through
// the safety service's redaction first at its call site.
func (svc *HttpService) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		log.WithFields(log.Fields{
			"method":   c.Method(),
			"path":     svc.safetySvc.RedactPII(c.Path()),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		}).Debug("Request handled")

		return err
	}
}

func (svc *HttpService) errorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).Error("Unhandled error")
	return shared.ResponseInternalError(c, err)
}
