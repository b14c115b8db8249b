// services/review.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

// ReviewService decides, after every attempt, when a question is next
// due for a user, and answers "what is due now" queries. It is the only
// writer of review records.
type ReviewService struct {
	context.DefaultService

	sqlSvc *SqlService

	reviews   *repositories.ReviewRepository
	questions *repositories.QuestionRepository
	algo      *SM2

	now func() time.Time
}

const REVIEW_SVC = "review_svc"

// Attempts per outcome before giving up on the CAS race.
const recordOutcomeRetries = 3

func (svc ReviewService) Id() string {
	return REVIEW_SVC
}

func (svc *ReviewService) Configure(ctx *context.Context) error {
	svc.algo = NewSM2()
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *ReviewService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.reviews = repositories.NewReviewRepository(svc.sqlSvc.Db())
	svc.questions = repositories.NewQuestionRepository(svc.sqlSvc.Db())
	return nil
}

// RecordOutcome folds one answer into the (user, question) review
// record, creating it on first contact. The read-modify-write is
// retried on version conflicts so the interval/ease update is applied
// exactly once per outcome.
func (svc *ReviewService) RecordOutcome(userID, questionID string, correct bool, answeredAt time.Time, latencySeconds float64) (*model.ReviewRecord, error) {
	if userID == "" || questionID == "" {
		return nil, shared.NewBadRequestError(fmt.Errorf("missing key"), "User and question are required")
	}

	question, err := svc.questions.Get(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnknownEntityError(err, "Question not found")
		}
		return nil, shared.NewPersistenceUnavailableError(err, "Question bank unavailable")
	}
	expectedSeconds := float64(question.ExpectedTime)

	var lastErr error
	for attempt := 0; attempt < recordOutcomeRetries; attempt++ {
		record, err := svc.reviews.Get(userID, questionID)
		switch {
		case err == nil:
			svc.algo.Apply(record, correct, answeredAt, latencySeconds, expectedSeconds)
			err = svc.reviews.UpdateCAS(record)
			if err == nil {
				outcomesRecordedTotal.WithLabelValues(outcomeLabel(correct)).Inc()
				return record, nil
			}
			if errors.Is(err, repositories.ErrVersionConflict) {
				reviewConflictsTotal.Inc()
				lastErr = err
				continue
			}
			return nil, shared.NewPersistenceUnavailableError(err, "Failed to persist review record")

		case errors.Is(err, gorm.ErrRecordNotFound):
			record = svc.algo.NewRecord(userID, questionID)
			svc.algo.Apply(record, correct, answeredAt, latencySeconds, expectedSeconds)
			if _, err = svc.reviews.Create(record); err == nil {
				outcomesRecordedTotal.WithLabelValues(outcomeLabel(correct)).Inc()
				return record, nil
			}
			if isDuplicateKey(err) {
				// Lost the creation race; re-read and update instead.
				reviewConflictsTotal.Inc()
				lastErr = err
				continue
			}
			return nil, shared.NewPersistenceUnavailableError(err, "Failed to create review record")

		default:
			return nil, shared.NewPersistenceUnavailableError(err, "Review store unavailable")
		}
	}

	return nil, shared.NewConcurrencyConflictError(lastErr, "Review update lost repeated races, retry the outcome")
}

// DueItems returns question ids whose next review time has passed,
// oldest due first. Store trouble degrades to an empty list: a late
// reminder is cheaper than blocking practice.
func (svc *ReviewService) DueItems(userID string, asOf time.Time, limit int) []string {
	if limit <= 0 {
		limit = 20
	}

	records, err := svc.reviews.Due(userID, asOf, limit)
	if err != nil {
		log.WithError(err).WithField(shared.UserID, userID).Warn("Due-items query failed, returning empty set")
		return []string{}
	}

	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.QuestionID
	}
	return ids
}

func (svc *ReviewService) GetRecord(userID, questionID string) (*model.ReviewRecord, error) {
	record, err := svc.reviews.Get(userID, questionID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err, "Review record")
	}
	return record, nil
}

func (svc *ReviewService) DueCount(userID string, asOf time.Time) int64 {
	count, err := svc.reviews.CountDue(userID, asOf)
	if err != nil {
		log.WithError(err).Warn("Due count query failed")
		return 0
	}
	return count
}

func (svc *ReviewService) TrackedCount(userID string) int64 {
	count, err := svc.reviews.CountByUser(userID)
	if err != nil {
		log.WithError(err).Warn("Tracked count query failed")
		return 0
	}
	return count
}

// UsersWithDue feeds the reminder sweep: users with overdue reviews and
// how many, heaviest backlog first.
func (svc *ReviewService) UsersWithDue(asOf time.Time, limit int) ([]repositories.DueBacklog, error) {
	backlogs, err := svc.reviews.UsersWithDue(asOf, limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err, "Due backlog")
	}
	return backlogs, nil
}

func outcomeLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
