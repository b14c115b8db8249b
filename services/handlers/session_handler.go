package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mellowise/prep_api/dto"
	"github.com/mellowise/prep_api/shared"
)

type SessionHandler struct {
	sessionSvc SessionServiceInterface
}

func NewSessionHandler(sessionSvc SessionServiceInterface) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
	}
}

// @Summary Start Survival Session
// @Description Start a survival-mode session at the chosen difficulty tier
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body dto.StartSessionRequest true "Session parameters"
// @Success 201 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/sessions [post]
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req dto.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	session, err := h.sessionSvc.StartSession(userID, req.DifficultyTier)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, session)
}

// @Summary Get Session
// @Description Get the current state of a survival session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.sessionSvc.GetSession(c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, session)
}

// @Summary Submit Answer
// @Description Apply one answer to a running session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SubmitAnswerRequest true "Answer"
// @Success 200 {object} shared.Response{data=dto.SessionUpdate}
// @Router /api/v1/sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(c *fiber.Ctx) error {
	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	update, err := h.sessionSvc.SubmitAnswer(c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, update)
}

// @Summary Tick Session Clock
// @Description Advance the session clock by elapsed wall time
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.TickRequest true "Elapsed time"
// @Success 200 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/sessions/{id}/tick [post]
func (h *SessionHandler) Tick(c *fiber.Ctx) error {
	var req dto.TickRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	session, err := h.sessionSvc.Tick(c.Params("id"), req.ElapsedSeconds)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, session)
}

// @Summary Quit Session
// @Description End a running session at the player's request
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} shared.Response{data=dto.SessionResponse}
// @Router /api/v1/sessions/{id}/quit [post]
func (h *SessionHandler) Quit(c *fiber.Ctx) error {
	session, err := h.sessionSvc.Quit(c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, session)
}

// @Summary List Sessions
// @Description List the caller's sessions, most recent first
// @Tags sessions
// @Produce json
// @Param limit query int false "Limit results (default 20)"
// @Success 200 {object} shared.Response{data=dto.SessionListResponse}
// @Router /api/v1/sessions [get]
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
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

	sessions, err := h.sessionSvc.ListSessions(userID, limit)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, sessions)
}
