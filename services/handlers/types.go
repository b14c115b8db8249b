package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/shared"
)

type SessionServiceInterface interface {
	StartSession(userID string, tier int) (*dto.SessionResponse, error)
	SubmitAnswer(sessionID string, req dto.SubmitAnswerRequest) (*dto.SessionUpdate, error)
	Tick(sessionID string, elapsedSeconds float64) (*dto.SessionResponse, error)
	Quit(sessionID string) (*dto.SessionResponse, error)
	GetSession(sessionID string) (*dto.SessionResponse, error)
	ListSessions(userID string, limit int) (*dto.SessionListResponse, error)
}

type ReviewServiceInterface interface {
	RecordOutcome(userID, questionID string, correct bool, answeredAt time.Time, latencySeconds float64) (*model.ReviewRecord, error)
	DueItems(userID string, asOf time.Time, limit int) []string
	GetRecord(userID, questionID string) (*model.ReviewRecord, error)
}

type QuestionServiceInterface interface {
	GetQuestion(id string) (*dto.QuestionResponse, error)
	NextQuestion(userID string, req dto.QuestionRequest) (*dto.QuestionResponse, error)
}

type StatsServiceInterface interface {
	Leaderboard(period string, limit int, userID string) (*dto.LeaderboardResponse, error)
	UserStats(userID string) (*dto.UserStatsResponse, error)
}

// requireUser reads the caller identity set upstream. Identity is a
// gateway concern here; an absent header is a bad request, not an auth
// failure.
func requireUser(c *fiber.Ctx) (string, error) {
	userID := c.Get("X-User-ID")
	if userID == "" {
		return "", shared.NewBadRequestError(nil, "X-User-ID header is required")
	}
	return userID, nil
}
