// services/monitoring.go
package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "prep_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Domain metrics
var (
	sessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survival_sessions_started_total",
			Help: "Survival sessions started, by difficulty tier",
		},
		[]string{"tier"},
	)

	sessionsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survival_sessions_ended_total",
			Help: "Survival sessions ended, by reason",
		},
		[]string{"reason"},
	)

	answersSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survival_answers_total",
			Help: "Answers submitted in survival sessions",
		},
		[]string{"result"},
	)

	outcomesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_outcomes_recorded_total",
			Help: "Outcomes folded into review records",
		},
		[]string{"result"},
	)

	reviewConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_cas_conflicts_total",
			Help: "Review record compare-and-swap races retried",
		},
	)

	outcomeQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_outcome_queue_depth",
			Help: "Outcomes waiting in the Redis queue",
		},
	)

	outcomeSpillDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_outcome_spill_depth",
			Help: "Outcomes held in the in-memory spill buffer",
		},
	)

	outcomeDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_outcome_drops_total",
			Help: "Outcomes lost with queue and spill both unavailable",
		},
	)

	dueBacklogUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_due_backlog_users",
			Help: "Users with overdue reviews at the last sweep",
		},
	)

	dueBacklogItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_due_backlog_items",
			Help: "Total overdue reviews at the last sweep",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry
	server   *fiber.App
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Start() error {
	portStr := os.Getenv("PROMETHEUS_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		sessionsStartedTotal,
		sessionsEndedTotal,
		answersSubmittedTotal,
		outcomesRecordedTotal,
		reviewConflictsTotal,
		outcomeQueueDepth,
		outcomeSpillDepth,
		outcomeDropsTotal,
		dueBacklogUsers,
		dueBacklogItems,
	)

	svc.register = reg

	config := fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	}

	svc.server = fiber.New(config)
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	// Served off the main request path; the remaining services still
	// need to come up behind this one.
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRequest records HTTP request metrics
func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		err := c.Next()

		endpoint := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		monitoringSvc.RecordRequest(method, endpoint, status, time.Since(start))

		return err
	}
}
