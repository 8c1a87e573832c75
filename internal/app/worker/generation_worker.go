package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codele_backend/internal/app/service"
	"codele_backend/internal/domain/model"
	"codele_backend/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GenerationWorker drains the generation-plan queue. Plans run one at a
// time under a Redis lock: generation is slow (LLM-bound) and batches
// within a plan must see each other's themes, so there is never a reason
// to run plans concurrently — two plans racing on the same date slots
// would just produce per-record conflicts.
type GenerationWorker struct {
	rdb               *redis.Client
	generationService *service.GenerationService
	logger            *slog.Logger
}

func NewGenerationWorker(rdb *redis.Client, generationService *service.GenerationService, logger *slog.Logger) *GenerationWorker {
	return &GenerationWorker{
		rdb:               rdb,
		generationService: generationService,
		logger:            logger,
	}
}

func jobKey(jobID string) string {
	return "generation_job:" + jobID
}

// Enqueue stores the job record and pushes its ID onto the queue.
func (w *GenerationWorker) Enqueue(ctx context.Context, batches []model.BatchSpec) (*model.GenerationJob, error) {
	job := &model.GenerationJob{
		ID:      uuid.NewString(),
		Status:  model.JobStatusQueued,
		Batches: batches,
	}
	if err := w.saveJob(ctx, job); err != nil {
		return nil, err
	}
	if err := w.rdb.LPush(ctx, config.AppConfig.GenerationQueueName, job.ID).Err(); err != nil {
		return nil, fmt.Errorf("GenerationWorker.Enqueue push: %w", err)
	}
	w.logger.Info("generation plan enqueued", "job_id", job.ID, "batches", len(batches))
	return job, nil
}

// GetJob returns the stored job state, or ErrNotFound via redis.Nil
// translation at the caller.
func (w *GenerationWorker) GetJob(ctx context.Context, jobID string) (*model.GenerationJob, error) {
	data, err := w.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("GenerationWorker.GetJob: %w", err)
	}
	var job model.GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("GenerationWorker.GetJob decode: %w", err)
	}
	return &job, nil
}

func (w *GenerationWorker) saveJob(ctx context.Context, job *model.GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("GenerationWorker.saveJob encode: %w", err)
	}
	if err := w.rdb.Set(ctx, jobKey(job.ID), data, config.AppConfig.GenerationResultTTL).Err(); err != nil {
		return fmt.Errorf("GenerationWorker.saveJob set: %w", err)
	}
	return nil
}

func (w *GenerationWorker) Start(ctx context.Context) {
	w.logger.Info("generation worker started", "queue", config.AppConfig.GenerationQueueName)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("generation worker stopping")
			return
		default:
			popped, err := w.rdb.BRPop(ctx, 5*time.Second, config.AppConfig.GenerationQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue // timeout, poll again
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				w.logger.Error("BRPop failed", "queue", config.AppConfig.GenerationQueueName, "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if len(popped) < 2 || popped[1] == "" {
				continue
			}
			w.processJobWithLock(ctx, popped[1])
		}
	}
}

func (w *GenerationWorker) processJobWithLock(ctx context.Context, jobID string) {
	lockValue := uuid.NewString()
	lockKey := config.AppConfig.GenerationLockKey

	ok, err := w.rdb.SetNX(ctx, lockKey, lockValue, config.AppConfig.GenerationLockTTL).Result()
	if err != nil {
		w.logger.Error("lock acquisition failed", "job_id", jobID, "error", err)
		w.requeueJob(ctx, jobID)
		return
	}
	if !ok {
		w.logger.Info("generation lock busy, re-queueing", "job_id", jobID)
		w.requeueJob(ctx, jobID)
		return
	}

	defer func() {
		// CAS delete so an expired-and-retaken lock is never released
		// from here.
		script := redis.NewScript(`
            if redis.call("get", KEYS[1]) == ARGV[1] then
                return redis.call("del", KEYS[1])
            else
                return 0
            end
        `)
		if _, err := script.Run(ctx, w.rdb, []string{lockKey}, lockValue).Result(); err != nil {
			w.logger.Error("lock release failed", "job_id", jobID, "error", err)
		}
	}()

	w.runJob(ctx, jobID)
}

func (w *GenerationWorker) requeueJob(ctx context.Context, jobID string) {
	if err := w.rdb.RPush(ctx, config.AppConfig.GenerationQueueName, jobID).Err(); err != nil {
		w.logger.Error("re-queue failed", "job_id", jobID, "error", err)
	}
}

func (w *GenerationWorker) runJob(ctx context.Context, jobID string) {
	job, err := w.GetJob(ctx, jobID)
	if err != nil || job == nil {
		w.logger.Error("job record missing, skipping", "job_id", jobID, "error", err)
		return
	}

	job.Status = model.JobStatusRunning
	if err := w.saveJob(ctx, job); err != nil {
		w.logger.Error("failed to mark job running", "job_id", jobID, "error", err)
	}

	plan, err := w.generationService.GeneratePlan(ctx, job.Batches)
	if err != nil {
		job.Status = model.JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = model.JobStatusCompleted
		job.Result = plan
	}
	if err := w.saveJob(ctx, job); err != nil {
		w.logger.Error("failed to store job result", "job_id", jobID, "error", err)
		return
	}
	w.logger.Info("generation plan finished", "job_id", jobID, "status", job.Status)
}
