package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/shared"
)

type QuestionHandler struct {
	questionSvc QuestionServiceInterface
}

func NewQuestionHandler(questionSvc QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{
		questionSvc: questionSvc,
	}
}

// @Summary Get Question
// @Description Fetch one question from the bank by id
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} shared.Response{data=dto.QuestionResponse}
// @Router /api/v1/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *fiber.Ctx) error {
	question, err := h.questionSvc.GetQuestion(c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, question)
}

// @Summary Next Question
// @Description Pick the caller's next question, due reviews first
// @Tags questions
// @Produce json
// @Param topic query string false "Topic filter"
// @Param difficulty_tier query int false "Difficulty tier filter (1-5)"
// @Success 200 {object} shared.Response{data=dto.QuestionResponse}
// @Router /api/v1/questions/next [get]
func (h *QuestionHandler) NextQuestion(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req dto.QuestionRequest
	if err := c.QueryParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid query parameters")
	}
	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	question, err := h.questionSvc.NextQuestion(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, question)
}
