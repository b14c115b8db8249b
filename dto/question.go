package dto

import "encoding/json"

type QuestionRequest struct {
	Topic          string `query:"topic"`
	DifficultyTier int    `query:"difficulty_tier" validate:"omitempty,min=1,max=5"`
}

func (r QuestionRequest) Validate() error {
	return GetValidator().Struct(r)
}

type QuestionResponse struct {
	ID              string          `json:"id"`
	Section         string          `json:"section"`
	Topic           string          `json:"topic"`
	DifficultyLevel int             `json:"difficulty_level"`
	ExpectedTime    int             `json:"expected_time_seconds"`
	Content         json.RawMessage `json:"content"`
}
