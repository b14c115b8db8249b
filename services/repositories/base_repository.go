package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrVersionConflict is returned when a compare-and-swap update matched
// no row: another writer bumped the version first. Callers re-read and
// recompute the whole update.
var ErrVersionConflict = errors.New("version conflict")

// BaseRepository provides common database functionality
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}
