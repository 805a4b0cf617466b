package repositories

import (
	"gorm.io/gorm"
)

// BaseRepository carries the gorm handle every repository in this package
// embeds. Repositories share one connection pool; none of them opens or
// closes it.
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB exposes the raw handle for callers that need ad-hoc queries, such as
// test fixtures forcing a session past its expiry.
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}
