package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/mellowise/prep_api/model"
	"gorm.io/gorm"
)

// ReviewRepository handles review schedule rows. All writes go through
// compare-and-swap on the version column so concurrent outcome reports
// for the same (user, question) key serialize.
type ReviewRepository struct {
	BaseRepository
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *ReviewRepository) Get(userID, questionID string) (*model.ReviewRecord, error) {
	var record model.ReviewRecord
	if err := ds.db.Where("user_id = ? AND question_id = ?", userID, questionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (ds *ReviewRepository) Create(record *model.ReviewRecord) (*model.ReviewRecord, error) {
	id, _ := uuid.NewV7()
	record.ID = id.String()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	if err := ds.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateCAS writes the record only if nobody else bumped its version
// since it was read. Returns ErrVersionConflict on a lost race.
func (ds *ReviewRepository) UpdateCAS(record *model.ReviewRecord) error {
	previous := record.Version
	record.Version = previous + 1
	record.UpdatedAt = time.Now()

	res := ds.db.Model(&model.ReviewRecord{}).
		Where("id = ? AND version = ?", record.ID, previous).
		Updates(map[string]interface{}{
			"interval_days":    record.IntervalDays,
			"ease_factor":      record.EaseFactor,
			"repetitions":      record.Repetitions,
			"last_reviewed_at": record.LastReviewedAt,
			"next_review_at":   record.NextReviewAt,
			"version":          record.Version,
			"updated_at":       record.UpdatedAt,
		})
	if res.Error != nil {
		record.Version = previous
		return res.Error
	}
	if res.RowsAffected == 0 {
		record.Version = previous
		return ErrVersionConflict
	}
	return nil
}

func (ds *ReviewRepository) Due(userID string, asOf time.Time, limit int) ([]model.ReviewRecord, error) {
	var records []model.ReviewRecord
	err := ds.db.
		Where("user_id = ? AND next_review_at <= ?", userID, asOf).
		Order("next_review_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (ds *ReviewRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.ReviewRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (ds *ReviewRepository) CountDue(userID string, asOf time.Time) (int64, error) {
	var count int64
	err := ds.db.Model(&model.ReviewRecord{}).
		Where("user_id = ? AND next_review_at <= ?", userID, asOf).
		Count(&count).Error
	return count, err
}

// DueBacklog is one user's count of overdue reviews, used by the
// reminder sweep.
type DueBacklog struct {
	UserID   string `json:"user_id"`
	DueCount int64  `json:"due_count"`
}

func (ds *ReviewRepository) UsersWithDue(asOf time.Time, limit int) ([]DueBacklog, error) {
	var backlogs []DueBacklog
	err := ds.db.Model(&model.ReviewRecord{}).
		Select("user_id, COUNT(*) AS due_count").
		Where("next_review_at <= ?", asOf).
		Group("user_id").
		Order("due_count DESC").
		Limit(limit).
		Scan(&backlogs).Error
	if err != nil {
		return nil, err
	}
	return backlogs, nil
}
