package repositories

import (
	"github.com/mellowise/prep_api/model"
	"gorm.io/gorm"
)

// QuestionRepository is the read-only face of the question bank. Rows
// are written by the seed tool only; the core never mutates them.
type QuestionRepository struct {
	BaseRepository
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *QuestionRepository) Get(id string) (*model.Question, error) {
	var question model.Question
	if err := ds.db.Where("id = ? AND is_active = ?", id, true).First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// Random picks one active question for the given difficulty, optionally
// constrained by topic. RANDOM() is understood by both sqlite and
// postgres.
func (ds *QuestionRepository) Random(topic string, difficulty int) (*model.Question, error) {
	query := ds.db.Where("is_active = ?", true)
	if difficulty > 0 {
		query = query.Where("difficulty_level = ?", difficulty)
	}
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}

	var question model.Question
	if err := query.Order("RANDOM()").First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (ds *QuestionRepository) ByIDs(ids []string) ([]model.Question, error) {
	var questions []model.Question
	if len(ids) == 0 {
		return questions, nil
	}
	if err := ds.db.Where("id IN ? AND is_active = ?", ids, true).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (ds *QuestionRepository) CountByDifficulty(difficulty int) (int64, error) {
	var count int64
	err := ds.db.Model(&model.Question{}).
		Where("difficulty_level = ? AND is_active = ?", difficulty, true).
		Count(&count).Error
	return count, err
}
