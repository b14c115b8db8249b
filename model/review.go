// model/review.go
package model

import "time"

// ReviewRecord tracks the spaced-repetition schedule of one question
// for one user. One row per (user, question); created lazily on the
// first attempt, never deleted while the account exists.
type ReviewRecord struct {
	ID         string `json:"id" gorm:"primaryKey"`
	UserID     string `json:"user_id" gorm:"not null;uniqueIndex:idx_review_user_question;index:idx_review_due,priority:1"`
	QuestionID string `json:"question_id" gorm:"not null;uniqueIndex:idx_review_user_question"`

	IntervalDays float64 `json:"interval_days" gorm:"not null;default:1"`
	EaseFactor   float64 `json:"ease_factor" gorm:"not null;default:2.5"`
	Repetitions  int     `json:"repetitions" gorm:"not null;default:0"`

	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	NextReviewAt   time.Time  `json:"next_review_at" gorm:"not null;index:idx_review_due,priority:2"`

	// Bumped on every write; updates are compare-and-swap on this
	// column so concurrent outcome reports for the same key serialize.
	Version int64 `json:"version" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnswerOutcome is the single event the session engine shares with the
// review scheduler. It travels through the durable outcome queue.
type AnswerOutcome struct {
	UserID         string    `json:"user_id"`
	QuestionID     string    `json:"question_id"`
	Correct        bool      `json:"correct"`
	AnsweredAt     time.Time `json:"answered_at"`
	LatencySeconds float64   `json:"latency_seconds"`
}
