package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

func newTestQuestionService(t *testing.T) (*QuestionService, *ReviewService, *gorm.DB) {
	t.Helper()

	reviewSvc, db := newTestReviewService(t)
	svc := &QuestionService{
		sqlSvc:    &SqlService{},
		reviewSvc: reviewSvc,
		questions: repositories.NewQuestionRepository(db),
	}
	return svc, reviewSvc, db
}

func seedBankQuestion(t *testing.T, db *gorm.DB, id, topic string, difficulty int) {
	t.Helper()

	require.NoError(t, db.Create(&model.Question{
		ID:              id,
		Section:         shared.SectionLogicalReasoning,
		Topic:           topic,
		DifficultyLevel: difficulty,
		ExpectedTime:    75,
		IsActive:        true,
	}).Error)
}

func TestQuestionService_GetQuestion(t *testing.T) {
	svc, _, db := newTestQuestionService(t)
	seedBankQuestion(t, db, "q1", "assumption", 1)

	question, err := svc.GetQuestion("q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", question.ID)
	assert.Equal(t, 75, question.ExpectedTime)

	_, err = svc.GetQuestion("missing")
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestQuestionService_NextQuestionPrefersDue(t *testing.T) {
	svc, reviewSvc, db := newTestQuestionService(t)
	seedBankQuestion(t, db, "q_due", "assumption", 2)
	seedBankQuestion(t, db, "q_fresh", "assumption", 2)

	record := reviewSvc.algo.NewRecord("user_1", "q_due")
	record.NextReviewAt = time.Now().Add(-time.Hour)
	_, err := reviewSvc.reviews.Create(record)
	require.NoError(t, err)

	question, err := svc.NextQuestion("user_1", dto.QuestionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "q_due", question.ID)
}

func TestQuestionService_NextQuestionDueFilteredByRequest(t *testing.T) {
	svc, reviewSvc, db := newTestQuestionService(t)
	seedBankQuestion(t, db, "q_due_other_topic", "weaken", 2)
	seedBankQuestion(t, db, "q_topic_match", "assumption", 2)

	record := reviewSvc.algo.NewRecord("user_1", "q_due_other_topic")
	record.NextReviewAt = time.Now().Add(-time.Hour)
	_, err := reviewSvc.reviews.Create(record)
	require.NoError(t, err)

	// The only due item is off-topic, so the pick falls back to the bank.
	question, err := svc.NextQuestion("user_1", dto.QuestionRequest{Topic: "assumption"})
	require.NoError(t, err)
	assert.Equal(t, "q_topic_match", question.ID)
}

func TestQuestionService_NextQuestionRandomFallback(t *testing.T) {
	svc, _, db := newTestQuestionService(t)
	seedBankQuestion(t, db, "q_t3", "flaw", 3)

	question, err := svc.NextQuestion("user_1", dto.QuestionRequest{DifficultyTier: 3})
	require.NoError(t, err)
	assert.Equal(t, "q_t3", question.ID)

	_, err = svc.NextQuestion("user_1", dto.QuestionRequest{DifficultyTier: 5})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestQuestionService_InactiveQuestionsInvisible(t *testing.T) {
	svc, _, db := newTestQuestionService(t)
	seedBankQuestion(t, db, "q_retired", "main_point", 1)
	require.NoError(t, db.Model(&model.Question{}).
		Where("id = ?", "q_retired").
		Update("is_active", false).Error)

	_, err := svc.GetQuestion("q_retired")
	require.Error(t, err)

	_, err = svc.NextQuestion("user_1", dto.QuestionRequest{})
	require.Error(t, err)
}
