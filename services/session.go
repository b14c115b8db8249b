// services/session.go
package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

// TierConfig fixes the per-tier survival-mode numbers. The tier table
// is configuration, not data: an unknown tier is a caller error, never
// defaulted.
type TierConfig struct {
	Tier             int
	MaxLives         int
	Points           int
	TimeBonusSeconds float64
	// Questions answered at this tier before difficulty advances.
	AdvanceAfter int
}

const (
	minTier = 1
	maxTier = 5

	sessionTimeBudgetSeconds = 120.0
	wrongAnswerTimePenalty   = 5.0
	streakBonusEvery         = 5
)

var tierConfigs = map[int]TierConfig{
	1: {Tier: 1, MaxLives: 9, Points: 10, TimeBonusSeconds: 15, AdvanceAfter: 10},
	2: {Tier: 2, MaxLives: 7, Points: 20, TimeBonusSeconds: 20, AdvanceAfter: 12},
	3: {Tier: 3, MaxLives: 5, Points: 30, TimeBonusSeconds: 25, AdvanceAfter: 14},
	4: {Tier: 4, MaxLives: 3, Points: 40, TimeBonusSeconds: 30, AdvanceAfter: 16},
	5: {Tier: 5, MaxLives: 1, Points: 50, TimeBonusSeconds: 35, AdvanceAfter: 0},
}

// SessionService runs survival-mode sessions: lives, score, clock,
// difficulty progression and streaks. All mutation of a session goes
// through its per-session lock so answer submission and clock ticks
// never interleave.
type SessionService struct {
	context.DefaultService

	sqlSvc     *SqlService
	outcomeSvc *OutcomeQueueService

	sessions  *repositories.SessionRepository
	questions *repositories.QuestionRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

const SESSION_SVC = "session_svc"

func (svc SessionService) Id() string {
	return SESSION_SVC
}

func (svc *SessionService) Configure(ctx *context.Context) error {
	svc.locks = make(map[string]*sync.Mutex)
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *SessionService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.outcomeSvc = svc.Service(OUTCOME_QUEUE_SVC).(*OutcomeQueueService)
	svc.sessions = repositories.NewSessionRepository(svc.sqlSvc.Db())
	svc.questions = repositories.NewQuestionRepository(svc.sqlSvc.Db())
	return nil
}

// TierConfigFor exposes the tier table to other services and handlers.
func TierConfigFor(tier int) (TierConfig, error) {
	cfg, ok := tierConfigs[tier]
	if !ok {
		return TierConfig{}, fmt.Errorf("no configuration for tier %d", tier)
	}
	return cfg, nil
}

// StartSession creates a Running session at the requested tier.
func (svc *SessionService) StartSession(userID string, tier int) (*dto.SessionResponse, error) {
	cfg, err := TierConfigFor(tier)
	if err != nil {
		return nil, shared.NewUnknownEntityError(err, "Unknown difficulty tier")
	}

	now := svc.now()
	session := &model.GameSession{
		UserID:                userID,
		State:                 model.SessionRunning,
		StartedAt:             now,
		LivesRemaining:        cfg.MaxLives,
		MaxLives:              cfg.MaxLives,
		TimeRemainingSeconds:  sessionTimeBudgetSeconds,
		CurrentDifficultyTier: tier,
	}

	if _, err := svc.sessions.Create(session); err != nil {
		return nil, shared.NewPersistenceUnavailableError(err, "Failed to create session")
	}

	sessionsStartedTotal.WithLabelValues(fmt.Sprintf("%d", tier)).Inc()
	log.WithFields(log.Fields{
		shared.SessionID: session.ID,
		shared.UserID:    userID,
		"tier":           tier,
	}).Info("Survival session started")

	resp := svc.toResponse(session)
	return &resp, nil
}

// SubmitAnswer applies one answer to a Running session and queues the
// outcome for the review scheduler. The queue hand-off never blocks or
// fails the game loop.
func (svc *SessionService) SubmitAnswer(sessionID string, req dto.SubmitAnswerRequest) (*dto.SessionUpdate, error) {
	question, err := svc.questions.Get(req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnknownEntityError(err, "Question not found")
		}
		return nil, shared.NewPersistenceUnavailableError(err, "Question bank unavailable")
	}

	lock := svc.lockFor(sessionID)
	lock.Lock()

	session, err := svc.loadRunning(sessionID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	now := svc.now()
	update := svc.applyAnswer(session, req.Correct, now)

	if err := svc.persist(session); err != nil {
		lock.Unlock()
		return nil, err
	}
	svc.afterWrite(session)
	lock.Unlock()

	answersSubmittedTotal.WithLabelValues(outcomeLabel(req.Correct)).Inc()

	// Hand-off happens outside the lock: a queue outage spills or drops
	// without ever stalling the next submit or tick on this session.
	svc.outcomeSvc.Enqueue(model.AnswerOutcome{
		UserID:         session.UserID,
		QuestionID:     question.ID,
		Correct:        req.Correct,
		AnsweredAt:     now,
		LatencySeconds: req.LatencySeconds,
	})

	update.Session = svc.toResponse(session)
	return update, nil
}

// Tick advances the session clock independently of answer submission.
func (svc *SessionService) Tick(sessionID string, elapsedSeconds float64) (*dto.SessionResponse, error) {
	if elapsedSeconds <= 0 {
		return nil, shared.NewBadRequestError(fmt.Errorf("elapsed %f", elapsedSeconds), "Elapsed seconds must be positive")
	}

	lock := svc.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := svc.loadRunning(sessionID)
	if err != nil {
		return nil, err
	}

	session.TimeRemainingSeconds -= elapsedSeconds
	if session.TimeRemainingSeconds <= 0 {
		session.TimeRemainingSeconds = 0
		svc.end(session, model.EndReasonTimeOut)
	}

	if err := svc.persist(session); err != nil {
		return nil, err
	}
	svc.afterWrite(session)

	resp := svc.toResponse(session)
	return &resp, nil
}

// Quit ends a Running session at the player's request. Outcomes already
// submitted stay recorded.
func (svc *SessionService) Quit(sessionID string) (*dto.SessionResponse, error) {
	lock := svc.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := svc.loadRunning(sessionID)
	if err != nil {
		return nil, err
	}

	svc.end(session, model.EndReasonQuit)
	if err := svc.persist(session); err != nil {
		return nil, err
	}
	svc.afterWrite(session)

	resp := svc.toResponse(session)
	return &resp, nil
}

func (svc *SessionService) GetSession(sessionID string) (*dto.SessionResponse, error) {
	session, err := svc.sessions.Get(sessionID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err, "Session")
	}
	resp := svc.toResponse(session)
	return &resp, nil
}

func (svc *SessionService) ListSessions(userID string, limit int) (*dto.SessionListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	sessions, err := svc.sessions.ListByUser(userID, limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err, "Sessions")
	}

	responses := make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = svc.toResponse(&sessions[i])
	}

	return &dto.SessionListResponse{
		Sessions: responses,
		Total:    len(responses),
	}, nil
}

// ==================== GAME RULES ====================

// applyAnswer is the survival-mode rulebook. Pure state transition over
// the session struct; persistence and locking live in the callers.
func (svc *SessionService) applyAnswer(session *model.GameSession, correct bool, now time.Time) *dto.SessionUpdate {
	cfg := tierConfigs[session.CurrentDifficultyTier]
	update := &dto.SessionUpdate{}
	timeBefore := session.TimeRemainingSeconds

	session.QuestionsAnswered++
	session.QuestionsAtTier++

	if correct {
		session.QuestionsCorrect++
		session.Score += cfg.Points
		session.TimeRemainingSeconds += cfg.TimeBonusSeconds
		session.ConsecutiveCorrect++
		update.PointsAwarded = cfg.Points

		if session.ConsecutiveCorrect%streakBonusEvery == 0 && session.LivesRemaining < session.MaxLives {
			session.LivesRemaining++
			update.LifeGranted = true
		}
	} else {
		session.LivesRemaining--
		session.TimeRemainingSeconds -= wrongAnswerTimePenalty
		session.ConsecutiveCorrect = 0
		update.LifeLost = true
	}

	if cfg.AdvanceAfter > 0 && session.QuestionsAtTier >= cfg.AdvanceAfter && session.CurrentDifficultyTier < maxTier {
		session.CurrentDifficultyTier++
		session.QuestionsAtTier = 0
		update.TierAdvanced = true
	}

	if session.LivesRemaining < 0 {
		session.LivesRemaining = 0
	}
	if session.TimeRemainingSeconds < 0 {
		session.TimeRemainingSeconds = 0
	}

	switch {
	case session.LivesRemaining == 0:
		svc.endAt(session, model.EndReasonLivesOut, now)
		update.SessionEnded = true
	case session.TimeRemainingSeconds == 0:
		svc.endAt(session, model.EndReasonTimeOut, now)
		update.SessionEnded = true
	}

	update.TimeDelta = session.TimeRemainingSeconds - timeBefore
	update.StreakLength = session.ConsecutiveCorrect
	return update
}

func (svc *SessionService) end(session *model.GameSession, reason string) {
	svc.endAt(session, reason, svc.now())
}

func (svc *SessionService) endAt(session *model.GameSession, reason string, now time.Time) {
	session.State = model.SessionEnded
	session.EndReason = reason
	session.EndedAt = &now

	sessionsEndedTotal.WithLabelValues(reason).Inc()
	log.WithFields(log.Fields{
		shared.SessionID: session.ID,
		"reason":         reason,
		"score":          session.Score,
		"answered":       session.QuestionsAnswered,
	}).Info("Survival session ended")
}

// ==================== PLUMBING ====================

func (svc *SessionService) loadRunning(sessionID string) (*model.GameSession, error) {
	session, err := svc.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewUnknownEntityError(err, "Session not found")
		}
		return nil, shared.NewPersistenceUnavailableError(err, "Session store unavailable")
	}

	if session.State != model.SessionRunning {
		message := "Session is not running"
		if session.State == model.SessionNotStarted {
			message = "Session has not started"
		}
		return nil, shared.NewInvalidStateError(
			fmt.Errorf("session %s is %s", sessionID, session.State),
			message)
	}

	return session, nil
}

func (svc *SessionService) persist(session *model.GameSession) error {
	err := svc.sessions.UpdateCAS(session)
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrVersionConflict) {
		// The per-session lock makes this unreachable within one
		// replica; across replicas the caller replays the operation.
		return shared.NewConcurrencyConflictError(err, "Session was modified concurrently, retry")
	}
	return shared.NewPersistenceUnavailableError(err, "Failed to persist session")
}

func (svc *SessionService) lockFor(sessionID string) *sync.Mutex {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	lock, ok := svc.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		svc.locks[sessionID] = lock
	}
	return lock
}

// afterWrite drops the lock entry of a finished session; ended sessions
// are immutable so the lock has no further use.
func (svc *SessionService) afterWrite(session *model.GameSession) {
	if session.State != model.SessionEnded {
		return
	}
	svc.mu.Lock()
	delete(svc.locks, session.ID)
	svc.mu.Unlock()
}

func (svc *SessionService) toResponse(session *model.GameSession) dto.SessionResponse {
	return dto.SessionResponse{
		SessionID:            session.ID,
		UserID:               session.UserID,
		State:                session.State,
		EndReason:            session.EndReason,
		StartedAt:            session.StartedAt,
		EndedAt:              session.EndedAt,
		LivesRemaining:       session.LivesRemaining,
		MaxLives:             session.MaxLives,
		TimeRemainingSeconds: session.TimeRemainingSeconds,
		Score:                session.Score,
		DifficultyTier:       session.CurrentDifficultyTier,
		ConsecutiveCorrect:   session.ConsecutiveCorrect,
		QuestionsAnswered:    session.QuestionsAnswered,
		QuestionsCorrect:     session.QuestionsCorrect,
		Accuracy:             session.Accuracy(),
	}
}
