// model/question.go
package model

import (
	"encoding/json"
	"time"
)

// Question is one item of the static question bank. The core treats
// Content as opaque; only the difficulty rating, topic tag and expected
// solve time participate in scheduling and session decisions.
type Question struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	Section         string          `json:"section" gorm:"index"` // logical_reasoning, reading_comprehension, analytical_reasoning
	Topic           string          `json:"topic" gorm:"index"`
	DifficultyLevel int             `json:"difficulty_level" gorm:"not null;index"` // 1..5, maps onto session tiers
	ExpectedTime    int             `json:"expected_time_seconds" gorm:"not null;default:75"`
	Content         json.RawMessage `json:"content" gorm:"type:text"` // stem, choices, answer key; opaque here
	IsActive        bool            `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
