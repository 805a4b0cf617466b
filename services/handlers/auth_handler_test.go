package handlers

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/model"
)

type fakeAuthService struct {
	user         *model.User
	token        string
	stepUp       dto.StepUpResponse
	resetOK      bool
	resetToken   string
	invalidated  []string
	registerResp *dto.RegisterResponse
	registerErr  error
}

func (f *fakeAuthService) CreatePatientUser(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeAuthService) AuthenticateUser(email, password string) (*model.User, string, error) {
	return f.user, f.token, nil
}

func (f *fakeAuthService) ValidateSession(token string) (*model.User, *model.Session, error) {
	return f.user, nil, nil
}

func (f *fakeAuthService) InvalidateSession(token string) error {
	f.invalidated = append(f.invalidated, token)
	return nil
}

func (f *fakeAuthService) GeneratePasswordResetToken(email string) (string, error) {
	return f.resetToken, nil
}

func (f *fakeAuthService) ResetPassword(token, newPassword string) (bool, error) {
	return f.resetOK, nil
}

func (f *fakeAuthService) StepUp(session *model.Session) dto.StepUpResponse {
	return f.stepUp
}

func (f *fakeAuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error { return c.Next() }
}

func (f *fakeAuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error { return c.Next() }
}

func (f *fakeAuthService) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error { return c.Next() }
}

type fakeSafetyService struct{}

func (fakeSafetyService) SanitizeInput(text string) string        { return text }
func (fakeSafetyService) DetectJailbreak(text string) bool        { return false }
func (fakeSafetyService) RedactPII(text string) string            { return text }
func (fakeSafetyService) RedactPIIValue(value interface{}) string { return "" }

func postJSON(t *testing.T, app *fiber.App, target string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	raw, err := sonic.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(body) > 0 {
		require.NoError(t, sonic.Unmarshal(body, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestLoginHandler(t *testing.T) {
	t.Run("success returns user and token", func(t *testing.T) {
		fake := &fakeAuthService{
			user: &model.User{
				ID:      "usr_1",
				ClerkID: "patient_abc",
				Email:   "joao@mail.com",
				Name:    "João",
				Role:    "patient",
			},
			token: "tok123",
		}
		app := fiber.New()
		h := NewAuthHandler(fake, fakeSafetyService{})
		app.Post("/login", h.Login)

		status, body := postJSON(t, app, "/login", dto.LoginRequest{Email: "joao@mail.com", Password: "x12345678"})
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "tok123", body["sessionToken"])

		user, ok := body["user"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "usr_1", user["id"])
		assert.Equal(t, "patient_abc", user["clerkId"])
		assert.Equal(t, "patient", user["role"])
	})

	t.Run("bad credentials return a flat error body", func(t *testing.T) {
		app := fiber.New()
		h := NewAuthHandler(&fakeAuthService{}, fakeSafetyService{})
		app.Post("/login", h.Login)

		status, body := postJSON(t, app, "/login", dto.LoginRequest{Email: "joao@mail.com", Password: "wrong1234"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "Invalid email or password", body["error"])
	})

	t.Run("malformed email rejected before the service", func(t *testing.T) {
		app := fiber.New()
		h := NewAuthHandler(&fakeAuthService{}, fakeSafetyService{})
		app.Post("/login", h.Login)

		status, _ := postJSON(t, app, "/login", dto.LoginRequest{Email: "not-an-email", Password: "x12345678"})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}

func TestLogoutHandler(t *testing.T) {
	fake := &fakeAuthService{}
	app := fiber.New()
	h := NewAuthHandler(fake, fakeSafetyService{})
	app.Post("/logout", h.Logout)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"tok123"}, fake.invalidated)

	// Without a token the response is identical; nothing to invalidate.
	resp, err = app.Test(httptest.NewRequest("POST", "/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, fake.invalidated, 1)
}

func TestForgotPasswordHandlerUniformResponse(t *testing.T) {
	app := fiber.New()

	// Known address: a token is issued.
	known := &fakeAuthService{resetToken: "reset123"}
	h := NewAuthHandler(known, fakeSafetyService{})
	app.Post("/forgot-password", h.ForgotPassword)

	statusKnown, bodyKnown := postJSON(t, app, "/forgot-password", dto.ForgotPasswordRequest{Email: "joao@mail.com"})

	// Unknown address: no token, same response.
	app2 := fiber.New()
	h2 := NewAuthHandler(&fakeAuthService{}, fakeSafetyService{})
	app2.Post("/forgot-password", h2.ForgotPassword)

	statusUnknown, bodyUnknown := postJSON(t, app2, "/forgot-password", dto.ForgotPasswordRequest{Email: "ghost@mail.com"})

	assert.Equal(t, statusKnown, statusUnknown)
	assert.Equal(t, bodyKnown, bodyUnknown)
	assert.Equal(t, fiber.StatusOK, statusKnown)
}

func TestResetPasswordHandler(t *testing.T) {
	t.Run("invalid token", func(t *testing.T) {
		app := fiber.New()
		h := NewAuthHandler(&fakeAuthService{resetOK: false}, fakeSafetyService{})
		app.Post("/reset-password", h.ResetPassword)

		status, body := postJSON(t, app, "/reset-password", dto.ResetPasswordRequest{Token: "bad", Password: "NewPass123!"})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "Invalid or expired reset token", body["error"])
	})

	t.Run("short password rejected", func(t *testing.T) {
		app := fiber.New()
		h := NewAuthHandler(&fakeAuthService{resetOK: true}, fakeSafetyService{})
		app.Post("/reset-password", h.ResetPassword)

		status, _ := postJSON(t, app, "/reset-password", dto.ResetPasswordRequest{Token: "tok", Password: "short"})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("success", func(t *testing.T) {
		app := fiber.New()
		h := NewAuthHandler(&fakeAuthService{resetOK: true}, fakeSafetyService{})
		app.Post("/reset-password", h.ResetPassword)

		status, body := postJSON(t, app, "/reset-password", dto.ResetPasswordRequest{Token: "tok", Password: "NewPass123!"})
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])
	})
}

func TestStepUpHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		session *model.Session
		stepUp  dto.StepUpResponse
		status  int
	}{
		{"no session", nil, dto.StepUpResponse{Valid: false, Reason: "no_session"}, fiber.StatusUnauthorized},
		{"stale session", &model.Session{}, dto.StepUpResponse{Valid: false, Reason: "session_too_old", DiffMinutes: 22.5}, fiber.StatusForbidden},
		{"fresh session", &model.Session{}, dto.StepUpResponse{Valid: true, DiffMinutes: 1.2}, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			h := NewAuthHandler(&fakeAuthService{stepUp: tt.stepUp}, fakeSafetyService{})
			app.Get("/auth/step-up", func(c *fiber.Ctx) error {
				if tt.session != nil {
					c.Locals("session", tt.session)
				}
				return c.Next()
			}, h.StepUp)

			resp, err := app.Test(httptest.NewRequest("GET", "/auth/step-up", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			var payload dto.StepUpResponse
			require.NoError(t, sonic.Unmarshal(body, &payload))
			assert.Equal(t, tt.stepUp.Valid, payload.Valid)
			assert.Equal(t, tt.stepUp.Reason, payload.Reason)
		})
	}
}
