// services/http.go
package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/mellowise/prep_api/services/handlers"
	"github.com/mellowise/prep_api/shared"
)

type HttpService struct {
	context.DefaultService

	sessionSvc  *SessionService
	reviewSvc   *ReviewService
	questionSvc *QuestionService
	statsSvc    *StatsService
	monitorSvc  *MonitoringService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.sessionSvc = svc.Service(SESSION_SVC).(*SessionService)
	svc.reviewSvc = svc.Service(REVIEW_SVC).(*ReviewService)
	svc.questionSvc = svc.Service(QUESTION_SVC).(*QuestionService)
	svc.statsSvc = svc.Service(STATS_SVC).(*StatsService)
	svc.monitorSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	app := fiber.New(fiber.Config{
		JSONEncoder:  shared.JsonAPI.Marshal,
		JSONDecoder:  shared.JsonAPI.Unmarshal,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
	}))
	app.Use(MonitoringMiddleware(svc.monitorSvc))

	sessionHandler := handlers.NewSessionHandler(svc.sessionSvc)
	reviewHandler := handlers.NewReviewHandler(svc.reviewSvc)
	questionHandler := handlers.NewQuestionHandler(svc.questionSvc)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.statsSvc)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	sessions := v1.Group("/sessions")
	sessions.Post("/", sessionHandler.StartSession)
	sessions.Get("/", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/answers", sessionHandler.SubmitAnswer)
	sessions.Post("/:id/tick", sessionHandler.Tick)
	sessions.Post("/:id/quit", sessionHandler.Quit)

	reviews := v1.Group("/reviews")
	reviews.Post("/outcomes", reviewHandler.RecordOutcome)
	reviews.Get("/due", reviewHandler.DueItems)
	reviews.Get("/:question_id", reviewHandler.GetRecord)

	questions := v1.Group("/questions")
	questions.Get("/next", questionHandler.NextQuestion)
	questions.Get("/:id", questionHandler.GetQuestion)

	v1.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
	v1.Get("/stats", leaderboardHandler.GetUserStats)

	svc.app = app

	log.WithField("port", svc.port).Info("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseOK(c, "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.WithError(appErr.Err).WithField("path", c.Path()).Error(appErr.Message)
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
	return shared.ResponseInternalError(c, err)
}
