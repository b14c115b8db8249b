package repositories

import (
	"time"

	"github.com/google/uuid"
	"github.com/mellowise/prep_api/model"
	"gorm.io/gorm"
)

// SessionRepository handles survival-mode session rows.
type SessionRepository struct {
	BaseRepository
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *SessionRepository) Get(sessionID string) (*model.GameSession, error) {
	var session model.GameSession
	if err := ds.db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (ds *SessionRepository) Create(session *model.GameSession) (*model.GameSession, error) {
	id, _ := uuid.NewV7()
	session.ID = id.String()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	if err := ds.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateCAS persists the session only if its version is unchanged.
// Submit and tick already serialize on the per-session lock; the
// version check covers multi-replica deployments sharing one store.
func (ds *SessionRepository) UpdateCAS(session *model.GameSession) error {
	previous := session.Version
	session.Version = previous + 1
	session.UpdatedAt = time.Now()

	res := ds.db.Model(&model.GameSession{}).
		Where("id = ? AND version = ?", session.ID, previous).
		Updates(map[string]interface{}{
			"state":                   session.State,
			"end_reason":              session.EndReason,
			"ended_at":                session.EndedAt,
			"lives_remaining":         session.LivesRemaining,
			"time_remaining_seconds":  session.TimeRemainingSeconds,
			"score":                   session.Score,
			"current_difficulty_tier": session.CurrentDifficultyTier,
			"questions_at_tier":       session.QuestionsAtTier,
			"consecutive_correct":     session.ConsecutiveCorrect,
			"questions_answered":      session.QuestionsAnswered,
			"questions_correct":       session.QuestionsCorrect,
			"version":                 session.Version,
			"updated_at":              session.UpdatedAt,
		})
	if res.Error != nil {
		session.Version = previous
		return res.Error
	}
	if res.RowsAffected == 0 {
		session.Version = previous
		return ErrVersionConflict
	}
	return nil
}

func (ds *SessionRepository) ListByUser(userID string, limit int) ([]model.GameSession, error) {
	var sessions []model.GameSession
	err := ds.db.
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// BestScore is one user's highest finished-session score.
type BestScore struct {
	UserID            string    `json:"user_id"`
	BestScore         int       `json:"best_score"`
	DifficultyTier    int       `json:"difficulty_tier"`
	QuestionsAnswered int       `json:"questions_answered"`
	AchievedAt        time.Time `json:"achieved_at"`
}

func (ds *SessionRepository) TopScores(since *time.Time, limit int) ([]BestScore, error) {
	query := ds.db.Model(&model.GameSession{}).
		Select("user_id, MAX(score) AS best_score").
		Where("state = ?", model.SessionEnded)
	if since != nil {
		query = query.Where("ended_at >= ?", *since)
	}

	var bests []BestScore
	err := query.
		Group("user_id").
		Order("best_score DESC").
		Limit(limit).
		Scan(&bests).Error
	if err != nil {
		return nil, err
	}

	// Resolve the session that achieved each best score, within the same
	// window the aggregate used; earliest ended wins ties so a repeated
	// score keeps its original achievement time.
	for i := range bests {
		achieved := ds.db.
			Where("user_id = ? AND score = ? AND state = ?", bests[i].UserID, bests[i].BestScore, model.SessionEnded)
		if since != nil {
			achieved = achieved.Where("ended_at >= ?", *since)
		}

		var session model.GameSession
		err := achieved.
			Order("ended_at ASC").
			First(&session).Error
		if err != nil {
			return nil, err
		}
		bests[i].DifficultyTier = session.CurrentDifficultyTier
		bests[i].QuestionsAnswered = session.QuestionsAnswered
		if session.EndedAt != nil {
			bests[i].AchievedAt = *session.EndedAt
		}
	}
	return bests, nil
}

// UserAggregate rolls up one user's finished sessions for the stats
// surface.
type UserAggregate struct {
	SessionsPlayed    int64 `json:"sessions_played"`
	BestScore         int   `json:"best_score"`
	QuestionsAnswered int   `json:"questions_answered"`
	QuestionsCorrect  int   `json:"questions_correct"`
}

func (ds *SessionRepository) AggregateByUser(userID string) (*UserAggregate, error) {
	var agg UserAggregate
	err := ds.db.Model(&model.GameSession{}).
		Select("COUNT(*) AS sessions_played, COALESCE(MAX(score), 0) AS best_score, COALESCE(SUM(questions_answered), 0) AS questions_answered, COALESCE(SUM(questions_correct), 0) AS questions_correct").
		Where("user_id = ? AND state = ?", userID, model.SessionEnded).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
