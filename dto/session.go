package dto

import "time"

type StartSessionRequest struct {
	DifficultyTier int `json:"difficulty_tier" validate:"required,min=1,max=5"`
}

func (r StartSessionRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SubmitAnswerRequest struct {
	QuestionID     string  `json:"question_id" validate:"required"`
	Correct        bool    `json:"correct"`
	LatencySeconds float64 `json:"latency_seconds" validate:"min=0"`
}

func (r SubmitAnswerRequest) Validate() error {
	return GetValidator().Struct(r)
}

type TickRequest struct {
	ElapsedSeconds float64 `json:"elapsed_seconds" validate:"required,gt=0"`
}

func (r TickRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SessionResponse struct {
	SessionID            string     `json:"session_id"`
	UserID               string     `json:"user_id"`
	State                string     `json:"state"`
	EndReason            string     `json:"end_reason,omitempty"`
	StartedAt            time.Time  `json:"started_at"`
	EndedAt              *time.Time `json:"ended_at,omitempty"`
	LivesRemaining       int        `json:"lives_remaining"`
	MaxLives             int        `json:"max_lives"`
	TimeRemainingSeconds float64    `json:"time_remaining_seconds"`
	Score                int        `json:"score"`
	DifficultyTier       int        `json:"difficulty_tier"`
	ConsecutiveCorrect   int        `json:"consecutive_correct"`
	QuestionsAnswered    int        `json:"questions_answered"`
	QuestionsCorrect     int        `json:"questions_correct"`
	Accuracy             float64    `json:"accuracy"`
}

// SessionUpdate is returned from SubmitAnswer so the client can animate
// exactly what changed without diffing the full session state.
type SessionUpdate struct {
	Session       SessionResponse `json:"session"`
	PointsAwarded int             `json:"points_awarded"`
	TimeDelta     float64         `json:"time_delta_seconds"`
	LifeGranted   bool            `json:"life_granted"`
	LifeLost      bool            `json:"life_lost"`
	TierAdvanced  bool            `json:"tier_advanced"`
	SessionEnded  bool            `json:"session_ended"`
	StreakLength  int             `json:"streak_length"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int               `json:"total"`
}

type LeaderboardEntry struct {
	UserID            string    `json:"user_id"`
	BestScore         int       `json:"best_score"`
	DifficultyTier    int       `json:"difficulty_tier"`
	QuestionsAnswered int       `json:"questions_answered"`
	Rank              int       `json:"rank"`
	AchievedAt        time.Time `json:"achieved_at"`
}

type LeaderboardResponse struct {
	Period      string             `json:"period"`
	TopEntries  []LeaderboardEntry `json:"top_entries"`
	CurrentUser *LeaderboardEntry  `json:"current_user,omitempty"`
}

type UserStatsResponse struct {
	UserID            string  `json:"user_id"`
	SessionsPlayed    int     `json:"sessions_played"`
	BestScore         int     `json:"best_score"`
	QuestionsAnswered int     `json:"questions_answered"`
	QuestionsCorrect  int     `json:"questions_correct"`
	Accuracy          float64 `json:"accuracy"`
	ReviewsTracked    int     `json:"reviews_tracked"`
	ReviewsDueNow     int     `json:"reviews_due_now"`
}
