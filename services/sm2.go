// services/sm2.go
package services

import (
	"time"

	"github.com/mellowise/prep_api/model"
)

// SM2 holds the tuning constants of the SuperMemo-style interval
// update. The first two successful repetitions use fixed short
// intervals before the multiplicative formula takes over, front-loading
// review density while an item is fresh.
type SM2 struct {
	SeedIntervalDays   float64
	SecondIntervalDays float64
	InitialEase        float64
	MinEase            float64
	MaxEase            float64
	EaseBonus          float64
	EasePenalty        float64
	MaxIntervalDays    float64

	// A correct answer slower than EffortLatencyRatio times the
	// question's expected time still grew the interval but cost real
	// effort, so the ease bonus is withheld.
	EffortLatencyRatio float64
}

func NewSM2() *SM2 {
	return &SM2{
		SeedIntervalDays:   1,
		SecondIntervalDays: 6,
		InitialEase:        2.5,
		MinEase:            1.3,
		MaxEase:            3.0,
		EaseBonus:          0.1,
		EasePenalty:        0.2,
		MaxIntervalDays:    365,
		EffortLatencyRatio: 1.5,
	}
}

// NewRecord seeds a review record for a question's first attempt.
func (sm *SM2) NewRecord(userID, questionID string) *model.ReviewRecord {
	return &model.ReviewRecord{
		UserID:       userID,
		QuestionID:   questionID,
		IntervalDays: sm.SeedIntervalDays,
		EaseFactor:   sm.InitialEase,
		Repetitions:  0,
	}
}

// Apply folds one answer outcome into the record. Every scheduling
// field is recomputed together; callers persist the record atomically.
func (sm *SM2) Apply(record *model.ReviewRecord, correct bool, answeredAt time.Time, latencySeconds, expectedSeconds float64) {
	if correct {
		record.Repetitions++

		switch record.Repetitions {
		case 1:
			record.IntervalDays = sm.SeedIntervalDays
		case 2:
			record.IntervalDays = sm.SecondIntervalDays
		default:
			// Ease moves first so the grown interval reflects the
			// mastery this answer just demonstrated. The bonus is
			// withheld while the fixed warm-up intervals run and for
			// answers that took visibly more effort than expected.
			if !sm.effortful(latencySeconds, expectedSeconds) {
				record.EaseFactor += sm.EaseBonus
				if record.EaseFactor > sm.MaxEase {
					record.EaseFactor = sm.MaxEase
				}
			}
			record.IntervalDays = record.IntervalDays * record.EaseFactor
			if record.IntervalDays > sm.MaxIntervalDays {
				record.IntervalDays = sm.MaxIntervalDays
			}
		}
	} else {
		record.Repetitions = 0
		record.IntervalDays = sm.SeedIntervalDays
		record.EaseFactor -= sm.EasePenalty
		if record.EaseFactor < sm.MinEase {
			record.EaseFactor = sm.MinEase
		}
	}

	reviewed := answeredAt
	record.LastReviewedAt = &reviewed
	record.NextReviewAt = answeredAt.Add(sm.intervalDuration(record.IntervalDays))
}

func (sm *SM2) effortful(latencySeconds, expectedSeconds float64) bool {
	if latencySeconds <= 0 || expectedSeconds <= 0 {
		return false
	}
	return latencySeconds > sm.EffortLatencyRatio*expectedSeconds
}

func (sm *SM2) intervalDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
