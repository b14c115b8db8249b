package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/shared"
)

type ReviewHandler struct {
	reviewSvc ReviewServiceInterface
}

func NewReviewHandler(reviewSvc ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewSvc: reviewSvc,
	}
}

// @Summary Record Answer Outcome
// @Description Fold one answer outcome into the caller's review schedule
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body dto.RecordOutcomeRequest true "Outcome"
// @Success 200 {object} shared.Response{data=dto.ReviewRecordResponse}
// @Router /api/v1/reviews/outcomes [post]
func (h *ReviewHandler) RecordOutcome(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req dto.RecordOutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	record, err := h.reviewSvc.RecordOutcome(userID, req.QuestionID, req.Correct, time.Now(), req.LatencySeconds)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, toReviewResponse(record))
}

// @Summary List Due Reviews
// @Description Question ids past their next review time, oldest due first
// @Tags reviews
// @Produce json
// @Param limit query int false "Limit results (default 20)"
// @Success 200 {object} shared.Response{data=dto.DueItemsResponse}
// @Router /api/v1/reviews/due [get]
func (h *ReviewHandler) DueItems(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit := 20
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	asOf := time.Now()
	ids := h.reviewSvc.DueItems(userID, asOf, limit)

	return shared.ResponseOK(c, dto.DueItemsResponse{
		UserID:      userID,
		AsOf:        asOf,
		QuestionIDs: ids,
		Total:       len(ids),
	})
}

// @Summary Get Review Record
// @Description Scheduling state for one question of the caller
// @Tags reviews
// @Produce json
// @Param question_id path string true "Question ID"
// @Success 200 {object} shared.Response{data=dto.ReviewRecordResponse}
// @Router /api/v1/reviews/{question_id} [get]
func (h *ReviewHandler) GetRecord(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	record, err := h.reviewSvc.GetRecord(userID, c.Params("question_id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, toReviewResponse(record))
}

func toReviewResponse(record *model.ReviewRecord) dto.ReviewRecordResponse {
	return dto.ReviewRecordResponse{
		UserID:         record.UserID,
		QuestionID:     record.QuestionID,
		IntervalDays:   record.IntervalDays,
		EaseFactor:     record.EaseFactor,
		Repetitions:    record.Repetitions,
		LastReviewedAt: record.LastReviewedAt,
		NextReviewAt:   record.NextReviewAt,
	}
}
