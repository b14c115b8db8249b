package dto

import "time"

type RecordOutcomeRequest struct {
	QuestionID     string  `json:"question_id" validate:"required"`
	Correct        bool    `json:"correct"`
	LatencySeconds float64 `json:"latency_seconds" validate:"min=0"`
}

func (r RecordOutcomeRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ReviewRecordResponse struct {
	UserID         string     `json:"user_id"`
	QuestionID     string     `json:"question_id"`
	IntervalDays   float64    `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	Repetitions    int        `json:"repetitions"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt   time.Time  `json:"next_review_at"`
}

type DueItemsResponse struct {
	UserID      string    `json:"user_id"`
	AsOf        time.Time `json:"as_of"`
	QuestionIDs []string  `json:"question_ids"`
	Total       int       `json:"total"`
}
