// services/reminder.go
package services

import (
	goContext "context"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"

	"github.com/mellowise/prep_api/shared"
)

// ReminderEvent is published for every user with overdue reviews. The
// notification system subscribes to the channel and owns delivery.
type ReminderEvent struct {
	UserID   string    `json:"user_id"`
	DueCount int64     `json:"due_count"`
	SweptAt  time.Time `json:"swept_at"`
}

// ReminderService periodically sweeps the review schedule for users
// with due items and publishes reminder events. It owns no delivery
// mechanism.
type ReminderService struct {
	context.DefaultService

	reviewSvc *ReviewService
	redisSvc  *RedisService

	scheduler     *gocron.Scheduler
	sweepInterval time.Duration
	sweepLimit    int
}

const REMINDER_SVC = "reminder_svc"

func (svc ReminderService) Id() string {
	return REMINDER_SVC
}

func (svc *ReminderService) Configure(ctx *context.Context) error {
	minutes := 15
	if v := os.Getenv("REMINDER_SWEEP_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			minutes = parsed
		}
	}
	svc.sweepInterval = time.Duration(minutes) * time.Minute
	svc.sweepLimit = 500

	return svc.DefaultService.Configure(ctx)
}

func (svc *ReminderService) Start() error {
	svc.reviewSvc = svc.Service(REVIEW_SVC).(*ReviewService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	svc.scheduler = gocron.NewScheduler(time.UTC)
	if _, err := svc.scheduler.Every(svc.sweepInterval).Do(svc.sweep); err != nil {
		return err
	}
	svc.scheduler.StartAsync()

	log.WithField("interval", svc.sweepInterval).Info("Reminder sweep scheduled")
	return nil
}

func (svc *ReminderService) Shutdown() {
	if svc.scheduler != nil {
		svc.scheduler.Stop()
	}
}

func (svc *ReminderService) sweep() {
	now := time.Now()
	backlogs, err := svc.reviewSvc.UsersWithDue(now, svc.sweepLimit)
	if err != nil {
		log.WithError(err).Warn("Reminder sweep failed")
		return
	}

	var totalDue int64
	for _, backlog := range backlogs {
		totalDue += backlog.DueCount

		payload, err := shared.JsonAPI.Marshal(ReminderEvent{
			UserID:   backlog.UserID,
			DueCount: backlog.DueCount,
			SweptAt:  now,
		})
		if err != nil {
			continue
		}

		ctx, cancel := goContext.WithTimeout(goContext.Background(), time.Second)
		err = svc.redisSvc.Publish(ctx, shared.ReminderChannel, payload)
		cancel()
		if err != nil {
			log.WithError(err).WithField(shared.UserID, backlog.UserID).Warn("Failed to publish reminder")
		}
	}

	dueBacklogUsers.Set(float64(len(backlogs)))
	dueBacklogItems.Set(float64(totalDue))

	if len(backlogs) > 0 {
		log.WithFields(log.Fields{
			"users": len(backlogs),
			"items": totalDue,
		}).Info("Reminder sweep published")
	}
}
