package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dentis-care/dentis-api/model"
)

// SessionRepository handles opaque session token database operations
type SessionRepository struct {
	BaseRepository
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (sr *SessionRepository) CreateSession(session *model.Session) (*model.Session, error) {
	if err := sr.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (sr *SessionRepository) GetSessionByToken(token string) (*model.Session, error) {
	var session model.Session
	if err := sr.db.Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// DeleteSession is idempotent: deleting a token that is already gone is not
// an error, which keeps logout safe to retry.
func (sr *SessionRepository) DeleteSession(token string) error {
	return sr.db.Where("token = ?", token).Delete(&model.Session{}).Error
}

func (sr *SessionRepository) TouchLastActive(token string, at time.Time) error {
	return sr.db.Model(&model.Session{}).Where("token = ?", token).
		Update("last_active_at", at).Error
}
