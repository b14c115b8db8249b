// services/outcome_queue.go
package services

import (
	goContext "context"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/shared"
)

// OutcomeQueueService carries answer outcomes from the session engine
// to the review scheduler. Producers never block: outcomes go to a
// Redis list, and to a bounded in-memory spill buffer when Redis is
// briefly unreachable. A single worker drains both. Delivery is
// at-least-once; losing review state silently is the one failure mode
// this service exists to prevent.
type OutcomeQueueService struct {
	context.DefaultService

	redisSvc  *RedisService
	reviewSvc *ReviewService

	spill  chan model.AnswerOutcome
	closed chan struct{}
}

const OUTCOME_QUEUE_SVC = "outcome_queue_svc"

const (
	outcomeSpillCapacity = 1024
	outcomePopTimeout    = 2 * time.Second
	deliveryRetries      = 3
	storeBackoff         = 5 * time.Second

	// Producer-side push deadline. Enqueue runs on the answer path, so
	// a struggling Redis gets a short window before the outcome spills;
	// the worker retries spilled outcomes on its own clock.
	enqueuePushTimeout = 250 * time.Millisecond
)

func (svc OutcomeQueueService) Id() string {
	return OUTCOME_QUEUE_SVC
}

func (svc *OutcomeQueueService) Configure(ctx *context.Context) error {
	svc.spill = make(chan model.AnswerOutcome, outcomeSpillCapacity)
	svc.closed = make(chan struct{})
	return svc.DefaultService.Configure(ctx)
}

func (svc *OutcomeQueueService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.reviewSvc = svc.Service(REVIEW_SVC).(*ReviewService)

	go svc.worker()
	return nil
}

func (svc *OutcomeQueueService) Shutdown() {
	close(svc.closed)
}

// Enqueue hands an outcome to the queue. Never returns an error to the
// game loop; a slow push spills to the in-memory buffer, and a full
// spill buffer on top of a Redis outage is logged and counted instead.
func (svc *OutcomeQueueService) Enqueue(outcome model.AnswerOutcome) {
	payload, err := shared.JsonAPI.Marshal(outcome)
	if err != nil {
		log.WithError(err).Error("Failed to encode outcome, dropping")
		outcomeDropsTotal.Inc()
		return
	}

	ctx, cancel := goContext.WithTimeout(goContext.Background(), enqueuePushTimeout)
	defer cancel()

	if err := svc.redisSvc.LPush(ctx, shared.OutcomeQueueKey, payload); err == nil {
		return
	}

	select {
	case svc.spill <- outcome:
		outcomeSpillDepth.Set(float64(len(svc.spill)))
	default:
		log.WithFields(log.Fields{
			shared.UserID: outcome.UserID,
			"question_id": outcome.QuestionID,
		}).Error("Outcome queue and spill buffer both unavailable, outcome dropped")
		outcomeDropsTotal.Inc()
	}
}

func (svc *OutcomeQueueService) worker() {
	for {
		select {
		case <-svc.closed:
			return
		default:
		}

		svc.drainSpill()
		svc.reportDepth()

		ctx, cancel := goContext.WithTimeout(goContext.Background(), outcomePopTimeout+time.Second)
		payload, err := svc.redisSvc.BRPop(ctx, outcomePopTimeout, shared.OutcomeQueueKey)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Outcome queue pop failed")
			time.Sleep(storeBackoff)
			continue
		}
		if payload == "" {
			continue
		}

		svc.deliver(payload)
	}
}

// drainSpill moves spilled outcomes back onto the Redis list. Outcomes
// that still cannot be pushed return to the spill buffer.
func (svc *OutcomeQueueService) drainSpill() {
	for {
		select {
		case outcome := <-svc.spill:
			payload, err := shared.JsonAPI.Marshal(outcome)
			if err != nil {
				outcomeDropsTotal.Inc()
				continue
			}
			ctx, cancel := goContext.WithTimeout(goContext.Background(), time.Second)
			err = svc.redisSvc.LPush(ctx, shared.OutcomeQueueKey, payload)
			cancel()
			if err != nil {
				select {
				case svc.spill <- outcome:
				default:
					outcomeDropsTotal.Inc()
				}
				return
			}
		default:
			outcomeSpillDepth.Set(float64(len(svc.spill)))
			return
		}
	}
}

func (svc *OutcomeQueueService) deliver(payload string) {
	var outcome model.AnswerOutcome
	if err := shared.JsonAPI.Unmarshal([]byte(payload), &outcome); err != nil {
		log.WithError(err).Error("Undecodable outcome payload, moving to dead queue")
		svc.deadLetter(payload)
		return
	}

	for attempt := 0; attempt < deliveryRetries; attempt++ {
		_, err := svc.reviewSvc.RecordOutcome(
			outcome.UserID, outcome.QuestionID, outcome.Correct, outcome.AnsweredAt, outcome.LatencySeconds)
		if err == nil {
			return
		}

		if shared.IsPersistenceUnavailable(err) {
			// Store down: requeue and back off, the outcome must not
			// be lost.
			svc.requeue(payload)
			time.Sleep(storeBackoff)
			return
		}

		if shared.IsConcurrencyConflict(err) {
			continue // lost a CAS race, recompute
		}

		// Unknown question or malformed outcome: not retryable.
		log.WithError(err).WithFields(log.Fields{
			shared.UserID: outcome.UserID,
			"question_id": outcome.QuestionID,
		}).Error("Outcome rejected by scheduler, moving to dead queue")
		svc.deadLetter(payload)
		return
	}

	svc.requeue(payload)
}

func (svc *OutcomeQueueService) requeue(payload string) {
	ctx, cancel := goContext.WithTimeout(goContext.Background(), time.Second)
	defer cancel()
	if err := svc.redisSvc.LPush(ctx, shared.OutcomeQueueKey, payload); err != nil {
		log.WithError(err).Error("Failed to requeue outcome")
	}
}

func (svc *OutcomeQueueService) deadLetter(payload string) {
	ctx, cancel := goContext.WithTimeout(goContext.Background(), time.Second)
	defer cancel()
	if err := svc.redisSvc.LPush(ctx, shared.OutcomeDeadQueueKey, payload); err != nil {
		log.WithError(err).Error("Failed to dead-letter outcome")
	}
}

func (svc *OutcomeQueueService) reportDepth() {
	ctx, cancel := goContext.WithTimeout(goContext.Background(), time.Second)
	defer cancel()
	if depth, err := svc.redisSvc.LLen(ctx, shared.OutcomeQueueKey); err == nil {
		outcomeQueueDepth.Set(float64(depth))
	}
}
