package dto

// ==================== AUTHENTICATION REQUEST DTOs ====================

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"SecurePass123!"`
}

func (l LoginRequest) Validate() error {
	return GetValidator().Struct(l)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"SecurePass123!"`
	Name     string `json:"name" validate:"required,min=2,max=255" example:"João Silva"`
	CPF      string `json:"cpf,omitempty" example:"123.456.789-00"`
	Phone    string `json:"phone,omitempty" example:"+55 11 91234-5678"`
}

func (r RegisterRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

func (f ForgotPasswordRequest) Validate() error {
	return GetValidator().Struct(f)
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required" example:"4Zp2kqX..."`
	Password string `json:"password" validate:"required,min=8" example:"NewPass123!"`
}

func (r ResetPasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== AUTHENTICATION RESPONSE DTOs ====================

// UserInfo is the public projection of a user returned by /login and /me.
type UserInfo struct {
	ID        string `json:"id" example:"usr_0193e4b2"`
	ClerkID   string `json:"clerkId" example:"patient_a1b2c3"`
	Email     string `json:"email" example:"user@example.com"`
	Name      string `json:"name" example:"João Silva"`
	Role      string `json:"role" example:"patient"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type LoginResponse struct {
	Success      bool     `json:"success" example:"true"`
	User         UserInfo `json:"user"`
	SessionToken string   `json:"sessionToken" example:"4Zp2kqX..."`
}

type RegisterResponse struct {
	Success      bool   `json:"success" example:"true"`
	UserID       string `json:"userId" example:"patient_a1b2c3"`
	SessionToken string `json:"sessionToken" example:"4Zp2kqX..."`
}

type MeResponse struct {
	User UserInfo `json:"user"`
}

type LogoutResponse struct {
	Success bool `json:"success" example:"true"`
}

type ForgotPasswordResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"If an account exists with this email, a password reset link has been sent."`
}

type ResetPasswordResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Password reset successfully"`
}

// ==================== STEP-UP DTOs ====================

// StepUpResponse reports whether the current session is fresh enough for a
// financial, destructive, or clinically irreversible action.
type StepUpResponse struct {
	Valid       bool    `json:"valid" example:"true"`
	Reason      string  `json:"reason,omitempty" example:"session_too_old"`
	DiffMinutes float64 `json:"diffMinutes,omitempty" example:"3.5"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"Invalid email or password"`
}
