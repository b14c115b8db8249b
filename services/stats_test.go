package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/services/repositories"
	"github.com/mellowise/prep_api/shared"
)

func newTestStatsService(t *testing.T) (*StatsService, *gorm.DB) {
	t.Helper()

	reviewSvc, db := newTestReviewService(t)
	svc := &StatsService{
		sqlSvc:    &SqlService{},
		reviewSvc: reviewSvc,
		sessions:  repositories.NewSessionRepository(db),
		now:       time.Now,
	}
	return svc, db
}

func seedEndedSession(t *testing.T, db *gorm.DB, userID string, score int, endedAt time.Time) {
	t.Helper()

	sessions := repositories.NewSessionRepository(db)
	session := &model.GameSession{
		UserID:                userID,
		State:                 model.SessionEnded,
		EndReason:             model.EndReasonLivesOut,
		StartedAt:             endedAt.Add(-5 * time.Minute),
		EndedAt:               &endedAt,
		MaxLives:              9,
		Score:                 score,
		CurrentDifficultyTier: 1,
		QuestionsAnswered:     10,
		QuestionsCorrect:      8,
	}
	_, err := sessions.Create(session)
	require.NoError(t, err)
}

func TestStatsService_LeaderboardAllTime(t *testing.T) {
	svc, db := newTestStatsService(t)
	now := time.Now()

	seedEndedSession(t, db, "user_a", 120, now.Add(-time.Hour))
	seedEndedSession(t, db, "user_a", 300, now.Add(-2*time.Hour))
	seedEndedSession(t, db, "user_b", 200, now.Add(-time.Hour))

	board, err := svc.Leaderboard(PeriodAllTime, 10, "user_b")
	require.NoError(t, err)

	require.Len(t, board.TopEntries, 2)
	assert.Equal(t, "user_a", board.TopEntries[0].UserID)
	assert.Equal(t, 300, board.TopEntries[0].BestScore)
	assert.Equal(t, 1, board.TopEntries[0].Rank)
	assert.Equal(t, "user_b", board.TopEntries[1].UserID)
	assert.Equal(t, 2, board.TopEntries[1].Rank)

	require.NotNil(t, board.CurrentUser)
	assert.Equal(t, "user_b", board.CurrentUser.UserID)
}

func TestStatsService_LeaderboardWeeklyExcludesOldSessions(t *testing.T) {
	svc, db := newTestStatsService(t)
	now := time.Now()

	seedEndedSession(t, db, "user_old", 500, now.AddDate(0, 0, -30))
	seedEndedSession(t, db, "user_new", 100, now.Add(-time.Hour))

	board, err := svc.Leaderboard(PeriodWeekly, 10, "")
	require.NoError(t, err)

	require.Len(t, board.TopEntries, 1)
	assert.Equal(t, "user_new", board.TopEntries[0].UserID)
	assert.Equal(t, PeriodWeekly, board.Period)
}

func TestStatsService_LeaderboardWeeklyDetailsComeFromWindow(t *testing.T) {
	svc, db := newTestStatsService(t)
	now := time.Now()
	sessions := repositories.NewSessionRepository(db)

	seed := func(tier int, endedAt time.Time) {
		ended := endedAt
		_, err := sessions.Create(&model.GameSession{
			UserID:                "user_a",
			State:                 model.SessionEnded,
			EndReason:             model.EndReasonTimeOut,
			StartedAt:             ended.Add(-5 * time.Minute),
			EndedAt:               &ended,
			MaxLives:              9,
			Score:                 200,
			CurrentDifficultyTier: tier,
			QuestionsAnswered:     12,
			QuestionsCorrect:      9,
		})
		require.NoError(t, err)
	}

	// The same best score twice: a month ago at tier 4 and this week at
	// tier 2. The weekly entry must describe the in-window session, not
	// the earlier tying one.
	seed(4, now.AddDate(0, 0, -30))
	seed(2, now.Add(-time.Hour))

	board, err := svc.Leaderboard(PeriodWeekly, 10, "")
	require.NoError(t, err)

	require.Len(t, board.TopEntries, 1)
	entry := board.TopEntries[0]
	assert.Equal(t, 200, entry.BestScore)
	assert.Equal(t, 2, entry.DifficultyTier)
	assert.WithinDuration(t, now.Add(-time.Hour), entry.AchievedAt, time.Minute)
}

func TestStatsService_LeaderboardRejectsUnknownPeriod(t *testing.T) {
	svc, _ := newTestStatsService(t)

	_, err := svc.Leaderboard("monthly", 10, "")
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
}

func TestStatsService_UserStats(t *testing.T) {
	svc, db := newTestStatsService(t)
	now := time.Now()

	seedEndedSession(t, db, "user_a", 120, now.Add(-time.Hour))
	seedEndedSession(t, db, "user_a", 90, now.Add(-2*time.Hour))

	record := svc.reviewSvc.algo.NewRecord("user_a", "q1")
	record.NextReviewAt = now.Add(-time.Hour)
	_, err := svc.reviewSvc.reviews.Create(record)
	require.NoError(t, err)

	stats, err := svc.UserStats("user_a")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SessionsPlayed)
	assert.Equal(t, 120, stats.BestScore)
	assert.Equal(t, 20, stats.QuestionsAnswered)
	assert.Equal(t, 16, stats.QuestionsCorrect)
	assert.InDelta(t, 80.0, stats.Accuracy, 1e-9)
	assert.Equal(t, 1, stats.ReviewsTracked)
	assert.Equal(t, 1, stats.ReviewsDueNow)
}

func TestStatsService_UserStatsEmpty(t *testing.T) {
	svc, _ := newTestStatsService(t)

	stats, err := svc.UserStats("nobody")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.SessionsPlayed)
	assert.Equal(t, 0.0, stats.Accuracy)
}
