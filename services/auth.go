package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/services/repositories"
	"github.com/dentis-care/dentis-api/shared"
)

const (
	// bcrypt cost factor, fixed so hashes stay comparable across deploys.
	bcryptCost = 10

	sessionExpiry = 30 * 24 * time.Hour
	resetTokenTTL = time.Hour

	// Maximum session age (since last activity) accepted by the step-up
	// gate before a fresh re-authentication is demanded.
	stepUpMaxAge = 15 * time.Minute
)

// AuthService is the session and credential authority: it hashes passwords,
// issues and validates opaque session tokens, manages single-use reset
// tokens, and evaluates step-up freshness for sensitive operations.
type AuthService struct {
	context.DefaultService

	pgSvc  *PostgresService
	monSvc *MonitoringService

	users    *repositories.UserRepository
	sessions *repositories.SessionRepository
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.pgSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.monSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.users = repositories.NewUserRepository(svc.pgSvc.Db())
	svc.sessions = repositories.NewSessionRepository(svc.pgSvc.Db())

	return nil
}

// ==================== PASSWORDS ====================

func (svc *AuthService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (svc *AuthService) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ==================== TOKENS ====================

func generateSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func generateResetToken() string {
	return generateSessionToken()
}

// ==================== ACCOUNT LIFECYCLE ====================

// CreatePatientUser registers a patient account and logs it in. Email
// uniqueness is enforced by the store; a duplicate surfaces as a 409.
func (svc *AuthService) CreatePatientUser(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	passwordHash, err := svc.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	clerkBytes := make([]byte, 16)
	_, _ = rand.Read(clerkBytes)

	user := &model.User{
		ClerkID:           "patient_" + hex.EncodeToString(clerkBytes),
		Email:             req.Email,
		Name:              req.Name,
		CPF:               req.CPF,
		Phone:             req.Phone,
		Role:              shared.RolePatient,
		PasswordHash:      passwordHash,
		EmailVerified:     false,
		VerificationToken: generateResetToken(),
	}

	if _, err := svc.users.CreateUser(user); err != nil {
		if IsUniqueViolation(err) {
			return nil, shared.NewConflictError(err, "Email already registered")
		}
		return nil, err
	}

	token, err := svc.issueSession(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{
		Success:      true,
		UserID:       user.ID,
		SessionToken: token,
	}, nil
}

// AuthenticateUser verifies credentials and issues a fresh session. Missing
// user and wrong password both return (nil, ""): the two failure modes must
// stay indistinguishable to the caller to block account enumeration.
func (svc *AuthService) AuthenticateUser(email, password string) (*model.User, string, error) {
	user, err := svc.users.GetUserByEmail(email)
	if err != nil {
		return nil, "", err
	}

	if user == nil || user.PasswordHash == "" {
		svc.monSvc.RecordAuthFailure("unknown_user")
		return nil, "", nil
	}

	if !svc.VerifyPassword(password, user.PasswordHash) {
		svc.monSvc.RecordAuthFailure("bad_password")
		return nil, "", nil
	}

	token, err := svc.issueSession(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// issueSession always mints a new token. Sessions are never renewed in
// place; extending access means logging in again.
func (svc *AuthService) issueSession(userID string) (string, error) {
	now := time.Now()
	session := &model.Session{
		Token:        generateSessionToken(),
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(sessionExpiry),
	}

	if _, err := svc.sessions.CreateSession(session); err != nil {
		return "", err
	}

	return session.Token, nil
}

// ==================== SESSION LIFECYCLE ====================

// ValidateSession resolves a bearer token to its user. Expired sessions are
// deleted on first sight (lazy expiry — no reaper needed) and resolve to
// nil rather than an error. The returned session carries the LastActiveAt
// the step-up gate should judge; the stored value is refreshed afterwards.
func (svc *AuthService) ValidateSession(token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, nil
	}

	session, err := svc.sessions.GetSessionByToken(token)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	now := time.Now()
	if !now.Before(session.ExpiresAt) {
		if err := svc.sessions.DeleteSession(token); err != nil {
			log.WithError(err).Warn("Failed to delete expired session")
		}
		return nil, nil, nil
	}

	user, err := svc.users.GetUserByID(session.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		// Orphaned session; treat like an expired one.
		_ = svc.sessions.DeleteSession(token)
		return nil, nil, nil
	}

	// Ordinary activity refreshes LastActiveAt, which also refreshes the
	// step-up clock. That mirrors the original behavior; see DESIGN.md for
	// why it is kept rather than tracking authentication time separately.
	if err := svc.sessions.TouchLastActive(token, now); err != nil {
		log.WithError(err).Warn("Failed to touch session activity")
	}

	return user, session, nil
}

// InvalidateSession deletes the session unconditionally; logout is
// idempotent.
func (svc *AuthService) InvalidateSession(token string) error {
	return svc.sessions.DeleteSession(token)
}

// ==================== PASSWORD RESET ====================

// GeneratePasswordResetToken returns "" when the email is unknown. The
// route handler must answer identically either way; only logs and the
// (out-of-scope) mailer see the distinction.
func (svc *AuthService) GeneratePasswordResetToken(email string) (string, error) {
	user, err := svc.users.GetUserByEmail(email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}

	token := generateResetToken()
	expiresAt := time.Now().Add(resetTokenTTL)

	// Overwrites any prior token: at most one reset token is live per user.
	if err := svc.users.SetResetToken(user.ID, token, expiresAt); err != nil {
		return "", err
	}

	return token, nil
}

// ResetPassword consumes a reset token. Unknown and expired tokens both
// report false; success rehashes and clears the token fields in the same
// update, so a token can never be used twice.
func (svc *AuthService) ResetPassword(token, newPassword string) (bool, error) {
	user, err := svc.users.GetUserByResetToken(token)
	if err != nil {
		return false, err
	}
	if user == nil || user.ResetPasswordExpires == nil {
		return false, nil
	}

	if time.Now().After(*user.ResetPasswordExpires) {
		return false, nil
	}

	passwordHash, err := svc.HashPassword(newPassword)
	if err != nil {
		return false, err
	}

	if err := svc.users.UpdatePasswordAndClearResetToken(user.ID, passwordHash); err != nil {
		return false, err
	}

	return true, nil
}

// ==================== STEP-UP ====================

// StepUp judges whether the session is fresh enough for a financial,
// destructive, or clinically irreversible action. Callers gate on Valid and
// map Reason to 401/403.
func (svc *AuthService) StepUp(session *model.Session) dto.StepUpResponse {
	if session == nil {
		return dto.StepUpResponse{Valid: false, Reason: "no_session"}
	}

	diff := time.Since(session.LastActiveAt)
	diffMinutes := diff.Minutes()

	if diff > stepUpMaxAge {
		return dto.StepUpResponse{Valid: false, Reason: "session_too_old", DiffMinutes: diffMinutes}
	}

	return dto.StepUpResponse{Valid: true, DiffMinutes: diffMinutes}
}

// ==================== MIDDLEWARE ====================

// RequiredAuth authenticates the request or ends it with 401. User id,
// role, session token and the session itself are stored in locals for
// downstream handlers.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := shared.BearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Not authenticated"})
		}

		user, session, err := svc.ValidateSession(token)
		if err != nil {
			return err
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Invalid or expired session"})
		}

		svc.stashAuth(c, user, session)
		return c.Next()
	}
}

// OptionalAuth resolves the session when present but never aborts. Routes
// that own their unauthenticated response shape (step-up) use this.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := shared.BearerToken(c.Get(fiber.HeaderAuthorization))
		if token != "" {
			user, session, err := svc.ValidateSession(token)
			if err != nil {
				return err
			}
			if user != nil {
				svc.stashAuth(c, user, session)
			}
		}
		return c.Next()
	}
}

func (svc *AuthService) stashAuth(c *fiber.Ctx, user *model.User, session *model.Session) {
	c.Locals(shared.UserID, user.ID)
	c.Locals(shared.UserRole, user.Role)
	c.Locals(shared.SessionID, session.Token)
	c.Locals("user", user)
	c.Locals("session", session)
}

// RequireRole restricts a route to the given roles. Admin always passes.
// The denial surfaces as an AppError so the Fiber error handler renders it.
func (svc *AuthService) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(shared.UserRole).(string)
		if role == shared.RoleAdmin {
			return c.Next()
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return shared.NewAuthorizationError("Forbidden")
	}
}
