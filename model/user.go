package model

import "time"

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	ClerkID   string `gorm:"uniqueIndex;size:64" json:"clerk_id"`
	Email     string `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name      string `gorm:"size:255" json:"name"`
	Role      string `gorm:"not null;default:patient;size:32" json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CPF       string `gorm:"size:14" json:"cpf,omitempty"`
	Phone     string `gorm:"size:32" json:"phone,omitempty"`

	PasswordHash      string `json:"-"`
	EmailVerified     bool   `gorm:"not null;default:false" json:"email_verified"`
	VerificationToken string `json:"-"`

	// Reset token is single-use: both fields are cleared in the same update
	// that writes the new password hash.
	ResetPasswordToken   *string    `gorm:"index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
