// model/session.go
package model

import "time"

// Survival-mode session states. Ended is terminal.
const (
	SessionNotStarted = "not_started"
	SessionRunning    = "running"
	SessionEnded      = "ended"
)

// End reasons recorded when a session leaves Running.
const (
	EndReasonLivesOut = "lives_out"
	EndReasonTimeOut  = "time_out"
	EndReasonQuit     = "quit"
)

// GameSession is one survival-mode play-through. Mutated only by the
// session engine, always under the per-session lock.
type GameSession struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;index"`

	State     string     `json:"state" gorm:"not null;default:not_started"`
	EndReason string     `json:"end_reason"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`

	LivesRemaining int `json:"lives_remaining" gorm:"not null"`
	// Life cap for the whole play-through, fixed at start from the
	// chosen tier; streak bonuses never push lives past it.
	MaxLives             int     `json:"max_lives" gorm:"not null"`
	TimeRemainingSeconds float64 `json:"time_remaining_seconds" gorm:"not null"`
	Score                int     `json:"score" gorm:"not null;default:0"`

	CurrentDifficultyTier int `json:"current_difficulty_tier" gorm:"not null"`
	// Questions answered at the current tier, reset on every advance.
	QuestionsAtTier    int `json:"questions_at_tier" gorm:"not null;default:0"`
	ConsecutiveCorrect int `json:"consecutive_correct" gorm:"not null;default:0"`

	QuestionsAnswered int `json:"questions_answered" gorm:"not null;default:0"`
	QuestionsCorrect  int `json:"questions_correct" gorm:"not null;default:0"`

	Version int64 `json:"version" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *GameSession) Accuracy() float64 {
	if s.QuestionsAnswered == 0 {
		return 0
	}
	return float64(s.QuestionsCorrect) / float64(s.QuestionsAnswered) * 100
}
