package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/model"
)

type AuthServiceInterface interface {
	CreatePatientUser(req dto.RegisterRequest) (*dto.RegisterResponse, error)
	AuthenticateUser(email, password string) (*model.User, string, error)
	ValidateSession(token string) (*model.User, *model.Session, error)
	InvalidateSession(token string) error
	GeneratePasswordResetToken(email string) (string, error)
	ResetPassword(token, newPassword string) (bool, error)
	StepUp(session *model.Session) dto.StepUpResponse
	RequiredAuth() fiber.Handler
	OptionalAuth() fiber.Handler
	RequireRole(roles ...string) fiber.Handler
}

type ToolPolicyServiceInterface interface {
	Decide(role string, tool model.ToolName) dto.ToolDecision
	PolicySummary(role string) string
}

type AISafetyServiceInterface interface {
	SanitizeInput(text string) string
	DetectJailbreak(text string) bool
	RedactPII(text string) string
	RedactPIIValue(value interface{}) string
}

type RateLimitServiceInterface interface {
	ResetKey(ctx context.Context, prefix, identity string) error
	Stats() map[string]interface{}
}

type MonitoringServiceInterface interface {
	RecordToolDecision(action string)
	RecordJailbreakDetection()
}
