package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

func newTestDb(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Question{}, &model.ReviewRecord{}, &model.GameSession{}))
	return db
}

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()

	db := newTestDb(t)
	return &SessionService{
		sqlSvc:    &SqlService{},
		sessions:  repositories.NewSessionRepository(db),
		questions: repositories.NewQuestionRepository(db),
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

func runningSession(tier int) *model.GameSession {
	cfg := tierConfigs[tier]
	return &model.GameSession{
		UserID:                "user_1",
		State:                 model.SessionRunning,
		StartedAt:             time.Now(),
		LivesRemaining:        cfg.MaxLives,
		MaxLives:              cfg.MaxLives,
		TimeRemainingSeconds:  sessionTimeBudgetSeconds,
		CurrentDifficultyTier: tier,
	}
}

func TestSessionService_StartSession(t *testing.T) {
	svc := newTestSessionService(t)

	session, err := svc.StartSession("user_1", 2)
	require.NoError(t, err)

	assert.Equal(t, model.SessionRunning, session.State)
	assert.Equal(t, 7, session.LivesRemaining)
	assert.Equal(t, 7, session.MaxLives)
	assert.Equal(t, sessionTimeBudgetSeconds, session.TimeRemainingSeconds)
	assert.Equal(t, 2, session.DifficultyTier)
	assert.Equal(t, 0, session.Score)
}

func TestSessionService_StartSessionUnknownTier(t *testing.T) {
	svc := newTestSessionService(t)

	_, err := svc.StartSession("user_1", 6)
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestApplyAnswer_CorrectAwardsPointsAndTime(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)

	update := svc.applyAnswer(session, true, time.Now())

	assert.Equal(t, 10, update.PointsAwarded)
	assert.Equal(t, 10, session.Score)
	assert.Equal(t, sessionTimeBudgetSeconds+15, session.TimeRemainingSeconds)
	assert.Equal(t, 15.0, update.TimeDelta)
	assert.Equal(t, 1, session.ConsecutiveCorrect)
	assert.False(t, update.SessionEnded)
}

func TestApplyAnswer_WrongCostsLifeAndTime(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)
	session.ConsecutiveCorrect = 4

	update := svc.applyAnswer(session, false, time.Now())

	assert.True(t, update.LifeLost)
	assert.Equal(t, 8, session.LivesRemaining)
	assert.Equal(t, sessionTimeBudgetSeconds-wrongAnswerTimePenalty, session.TimeRemainingSeconds)
	assert.Equal(t, 0, session.ConsecutiveCorrect, "streak resets on a miss")
	assert.Equal(t, -wrongAnswerTimePenalty, update.TimeDelta)
}

func TestApplyAnswer_StreakGrantsBonusLife(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)
	session.LivesRemaining = 3
	now := time.Now()

	var update *dto.SessionUpdate
	for i := 0; i < 5; i++ {
		update = svc.applyAnswer(session, true, now)
	}

	assert.True(t, update.LifeGranted)
	assert.Equal(t, 4, session.LivesRemaining)
	assert.Equal(t, 5, session.ConsecutiveCorrect)
}

func TestApplyAnswer_BonusLifeCappedAtMax(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(5)
	now := time.Now()

	// Tier 5 starts at its cap of 1 life; a 5-streak must not exceed it.
	var update *dto.SessionUpdate
	for i := 0; i < 5; i++ {
		update = svc.applyAnswer(session, true, now)
	}

	assert.False(t, update.LifeGranted)
	assert.Equal(t, 1, session.LivesRemaining)
}

func TestApplyAnswer_LastLifeEndsSession(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)
	session.LivesRemaining = 1

	update := svc.applyAnswer(session, false, time.Now())

	assert.True(t, update.SessionEnded)
	assert.Equal(t, model.SessionEnded, session.State)
	assert.Equal(t, model.EndReasonLivesOut, session.EndReason)
	assert.Equal(t, 0, session.LivesRemaining)
	require.NotNil(t, session.EndedAt)
}

func TestApplyAnswer_TimeNeverNegative(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)
	session.TimeRemainingSeconds = 2

	update := svc.applyAnswer(session, false, time.Now())

	assert.Equal(t, 0.0, session.TimeRemainingSeconds)
	assert.True(t, update.SessionEnded)
	assert.Equal(t, model.EndReasonTimeOut, session.EndReason)
}

func TestApplyAnswer_LivesOutWinsOverTimeOut(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)
	session.LivesRemaining = 1
	session.TimeRemainingSeconds = 2

	svc.applyAnswer(session, false, time.Now())

	assert.Equal(t, model.EndReasonLivesOut, session.EndReason)
}

func TestApplyAnswer_TierAdvances(t *testing.T) {
	svc := newTestSessionService(t)
	session := runningSession(1)
	session.QuestionsAtTier = 9

	update := svc.applyAnswer(session, true, time.Now())

	assert.True(t, update.TierAdvanced)
	assert.Equal(t, 2, session.CurrentDifficultyTier)
	assert.Equal(t, 0, session.QuestionsAtTier)

	// Subsequent answers score at the new tier.
	next := svc.applyAnswer(session, true, time.Now())
	assert.Equal(t, 20, next.PointsAwarded)
}

func TestSessionService_TickExpiresSession(t *testing.T) {
	svc := newTestSessionService(t)
	created, err := svc.sessions.Create(runningSession(1))
	require.NoError(t, err)

	// Burn most of the clock, then push past zero.
	_, err = svc.Tick(created.ID, sessionTimeBudgetSeconds-3)
	require.NoError(t, err)

	session, err := svc.Tick(created.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, 0.0, session.TimeRemainingSeconds)
	assert.Equal(t, model.SessionEnded, session.State)
	assert.Equal(t, model.EndReasonTimeOut, session.EndReason)
}

func TestSessionService_TickRejectsNonPositiveElapsed(t *testing.T) {
	svc := newTestSessionService(t)
	created, err := svc.sessions.Create(runningSession(1))
	require.NoError(t, err)

	_, err = svc.Tick(created.ID, 0)
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestSessionService_OperationsOnEndedSession(t *testing.T) {
	svc := newTestSessionService(t)
	created, err := svc.sessions.Create(runningSession(1))
	require.NoError(t, err)

	_, err = svc.Quit(created.ID)
	require.NoError(t, err)

	_, err = svc.Tick(created.ID, 1)
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))

	_, err = svc.Quit(created.ID)
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
}

func TestSessionService_SubmitAnswerSurvivesQueueOutage(t *testing.T) {
	db := newTestDb(t)
	queue := &OutcomeQueueService{
		redisSvc: &RedisService{}, // no client: every push fails
		spill:    make(chan model.AnswerOutcome, 8),
		closed:   make(chan struct{}),
	}
	svc := &SessionService{
		sqlSvc:     &SqlService{},
		outcomeSvc: queue,
		sessions:   repositories.NewSessionRepository(db),
		questions:  repositories.NewQuestionRepository(db),
		locks:      make(map[string]*sync.Mutex),
		now:        time.Now,
	}
	seedQuestion(t, db, "q1", 1, 60)

	created, err := svc.sessions.Create(runningSession(1))
	require.NoError(t, err)

	update, err := svc.SubmitAnswer(created.ID, dto.SubmitAnswerRequest{QuestionID: "q1", Correct: true})
	require.NoError(t, err)
	assert.Equal(t, 10, update.PointsAwarded)

	// The outcome spilled instead of failing the answer, and the
	// session lock is free again for the next submit or tick.
	assert.Len(t, queue.spill, 1)
	lock := svc.lockFor(created.ID)
	assert.True(t, lock.TryLock())
	lock.Unlock()
}

func TestSessionService_OperationsBeforeStart(t *testing.T) {
	svc := newTestSessionService(t)

	session := runningSession(1)
	session.State = model.SessionNotStarted
	created, err := svc.sessions.Create(session)
	require.NoError(t, err)

	_, err = svc.Tick(created.ID, 1)
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
}

func TestSessionService_QuitRecordsReason(t *testing.T) {
	svc := newTestSessionService(t)
	created, err := svc.sessions.Create(runningSession(1))
	require.NoError(t, err)

	session, err := svc.Quit(created.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionEnded, session.State)
	assert.Equal(t, model.EndReasonQuit, session.EndReason)
}

func TestSessionService_UnknownSession(t *testing.T) {
	svc := newTestSessionService(t)

	_, err := svc.Tick("missing", 1)
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.StatusCode)
}
