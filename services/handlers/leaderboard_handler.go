package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mellowise/prep_api/shared"
)

type LeaderboardHandler struct {
	statsSvc StatsServiceInterface
}

func NewLeaderboardHandler(statsSvc StatsServiceInterface) *LeaderboardHandler {
	return &LeaderboardHandler{
		statsSvc: statsSvc,
	}
}

// @Summary Get Leaderboard
// @Description Best survival scores, all-time or weekly
// @Tags leaderboard
// @Produce json
// @Param period query string false "Period: all_time or weekly (default all_time)"
// @Param limit query int false "Limit results (default 50)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	// Identity is optional here; anonymous callers still see the board.
	userID := c.Get("X-User-ID")

	leaderboard, err := h.statsSvc.Leaderboard(c.Query("period"), limit, userID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, leaderboard)
}

// @Summary Get User Stats
// @Description Aggregate play and review stats for the caller
// @Tags stats
// @Produce json
// @Success 200 {object} shared.Response{data=dto.UserStatsResponse}
// @Router /api/v1/stats [get]
func (h *LeaderboardHandler) GetUserStats(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	stats, err := h.statsSvc.UserStats(userID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, stats)
}
