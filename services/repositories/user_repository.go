package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dentis-care/dentis-api/model"
)

// UserRepository handles user and credential database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ur *UserRepository) CreateUser(user *model.User) (*model.User, error) {
	if user.ID == "" {
		id, _ := uuid.NewV7()
		user.ID = "usr_" + id.String()
	}
	if err := ur.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail returns (nil, nil) when no user matches so the auth layer
// can fail closed without an error-shaped oracle.
func (ur *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := ur.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ur *UserRepository) GetUserByID(id string) (*model.User, error) {
	var user model.User
	if err := ur.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ur *UserRepository) GetUserByResetToken(token string) (*model.User, error) {
	var user model.User
	if err := ur.db.Where("reset_password_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (ur *UserRepository) SetResetToken(userID, token string, expiresAt time.Time) error {
	return ur.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":   token,
		"reset_password_expires": expiresAt,
	}).Error
}

// UpdatePasswordAndClearResetToken writes the new hash and nulls both reset
// fields in a single update so a consumed token can never be replayed.
func (ur *UserRepository) UpdatePasswordAndClearResetToken(userID, passwordHash string) error {
	return ur.db.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"password_hash":          passwordHash,
		"reset_password_token":   nil,
		"reset_password_expires": nil,
	}).Error
}
