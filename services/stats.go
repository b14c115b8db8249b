// services/stats.go
package services

import (
	"time"

	"github.com/alphabatem/common/context"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

// StatsService builds the read-only aggregate surfaces: leaderboards
// over finished survival sessions and per-user study stats.
type StatsService struct {
	context.DefaultService

	sqlSvc    *SqlService
	reviewSvc *ReviewService

	sessions *repositories.SessionRepository

	now func() time.Time
}

const STATS_SVC = "stats_svc"

const (
	PeriodAllTime = "all_time"
	PeriodWeekly  = "weekly"
)

func (svc StatsService) Id() string {
	return STATS_SVC
}

func (svc *StatsService) Configure(ctx *context.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *StatsService) Start() error {
	svc.sqlSvc = svc.Service(SQL_SVC).(*SqlService)
	svc.reviewSvc = svc.Service(REVIEW_SVC).(*ReviewService)
	svc.sessions = repositories.NewSessionRepository(svc.sqlSvc.Db())
	return nil
}

// Leaderboard ranks users by best finished-session score. The weekly
// period counts sessions ended in the last 7 days. When userID is set
// and the user is outside the top entries, their own row is attached.
func (svc *StatsService) Leaderboard(period string, limit int, userID string) (*dto.LeaderboardResponse, error) {
	var since *time.Time
	switch period {
	case PeriodWeekly:
		cutoff := svc.now().AddDate(0, 0, -7)
		since = &cutoff
	case PeriodAllTime, "":
		period = PeriodAllTime
	default:
		return nil, shared.NewBadRequestError(nil, "Unknown leaderboard period")
	}

	scores, err := svc.sessions.TopScores(since, limit)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err, "Leaderboard")
	}

	resp := &dto.LeaderboardResponse{
		Period:     period,
		TopEntries: make([]dto.LeaderboardEntry, len(scores)),
	}

	for i, score := range scores {
		entry := toEntry(score, i+1)
		resp.TopEntries[i] = entry
		if userID != "" && score.UserID == userID {
			resp.CurrentUser = &entry
		}
	}

	return resp, nil
}

func (svc *StatsService) UserStats(userID string) (*dto.UserStatsResponse, error) {
	agg, err := svc.sessions.AggregateByUser(userID)
	if err != nil {
		return nil, svc.sqlSvc.HandleError(err, "User stats")
	}

	accuracy := 0.0
	if agg.QuestionsAnswered > 0 {
		accuracy = float64(agg.QuestionsCorrect) / float64(agg.QuestionsAnswered) * 100
	}

	return &dto.UserStatsResponse{
		UserID:            userID,
		SessionsPlayed:    int(agg.SessionsPlayed),
		BestScore:         agg.BestScore,
		QuestionsAnswered: agg.QuestionsAnswered,
		QuestionsCorrect:  agg.QuestionsCorrect,
		Accuracy:          accuracy,
		ReviewsTracked:    int(svc.reviewSvc.TrackedCount(userID)),
		ReviewsDueNow:     int(svc.reviewSvc.DueCount(userID, svc.now())),
	}, nil
}

func toEntry(score repositories.BestScore, rank int) dto.LeaderboardEntry {
	return dto.LeaderboardEntry{
		UserID:            score.UserID,
		BestScore:         score.BestScore,
		DifficultyTier:    score.DifficultyTier,
		QuestionsAnswered: score.QuestionsAnswered,
		Rank:              rank,
		AchievedAt:        score.AchievedAt,
	}
}
