// services/question.go
package services

import (
	"errors"

	"github.com/alphabatem/common/context"
	"gorm.io/gorm"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

// QuestionService serves questions out of the bank. Selection is
// due-first: if the review scheduler says something is overdue for the
// user, that wins over a random pick at the requested difficulty.
type QuestionService struct {
	context.DefaultService

	sqlSvc    *SqlService
	reviewSvc *ReviewService

	questions *repositories.QuestionRepository
}

const QUESTION_SVC = "question_svc"

const dueLookahead = 10

func (svc QuestionService) Id() string {
	return QUESTION_SVC
}

func (svc *QuestionService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.reviewSvc = svc.Service(REVIEW_SVC).(*ReviewService)
	svc.questions = repositories.NewQuestionRepository(svc.sqlSvc.Db())
	return nil
}

func (svc *QuestionService) GetQuestion(id string) (*dto.QuestionResponse, error) {
	question, err := svc.questions.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnknownEntityError(err, "Question not found")
		}
		return nil, shared.NewPersistenceUnavailableError(err, "Question bank unavailable")
	}
	resp := svc.toResponse(question)
	return &resp, nil
}

// NextQuestion picks the next question for a user. Overdue reviews that
// match the topic and difficulty filters come first; otherwise a random
// active question at the requested difficulty.
func (svc *QuestionService) NextQuestion(userID string, req dto.QuestionRequest) (*dto.QuestionResponse, error) {
	if due := svc.dueMatch(userID, req); due != nil {
		return due, nil
	}

	question, err := svc.questions.Random(req.Topic, req.DifficultyTier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnknownEntityError(err, "No questions match the requested filters")
		}
		return nil, shared.NewPersistenceUnavailableError(err, "Question bank unavailable")
	}

	resp := svc.toResponse(question)
	return &resp, nil
}

func (svc *QuestionService) dueMatch(userID string, req dto.QuestionRequest) *dto.QuestionResponse {
	dueIDs := svc.reviewSvc.DueItems(userID, svc.reviewSvc.now(), dueLookahead)
	if len(dueIDs) == 0 {
		return nil
	}

	candidates, err := svc.questions.ByIDs(dueIDs)
	if err != nil {
		return nil
	}

	// ByIDs loses the oldest-first ordering; restore it.
	byID := make(map[string]*model.Question, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	for _, id := range dueIDs {
		question, ok := byID[id]
		if !ok {
			continue
		}
		if req.Topic != "" && question.Topic != req.Topic {
			continue
		}
		if req.DifficultyTier > 0 && question.DifficultyLevel != req.DifficultyTier {
			continue
		}
		resp := svc.toResponse(question)
		return &resp
	}
	return nil
}

func (svc *QuestionService) toResponse(question *model.Question) dto.QuestionResponse {
	return dto.QuestionResponse{
		ID:              question.ID,
		Section:         question.Section,
		Topic:           question.Topic,
		DifficultyLevel: question.DifficultyLevel,
		ExpectedTime:    question.ExpectedTime,
		Content:         question.Content,
	}
}
