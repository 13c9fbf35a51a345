// Package jobs drains scheduled sync jobs through the command handlers.
// Processing is invoked externally (worker endpoint or cron), runs to
// completion within one call, and owns no timers of its own.
package jobs

import (
	"context"
	"fmt"
	"time"

	synccmd "github.com/webizupfr/notion-mirror/internal/commands/sync"
	"github.com/webizupfr/notion-mirror/internal/logging"
	"github.com/webizupfr/notion-mirror/internal/scheduler"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

const defaultBatchSize = 10

// Result summarizes one processing pass.
type Result struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	JobIDs    []string `json:"job_ids,omitempty"`
}

// Worker executes due sync jobs.
type Worker struct {
	scheduler interfaces.Scheduler
	fullSync  *synccmd.FullSyncHandler
	pageSync  *synccmd.PageSyncHandler
	logger    interfaces.Logger
	now       func() time.Time
	batch     int
}

// WorkerOption configures the worker.
type WorkerOption func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(logger interfaces.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the due-time clock.
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithBatchSize caps the jobs drained per pass.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batch = n
		}
	}
}

// NewWorker wires a worker to the scheduler and the sync command handlers.
func NewWorker(sched interfaces.Scheduler, fullSync *synccmd.FullSyncHandler, pageSync *synccmd.PageSyncHandler, opts ...WorkerOption) *Worker {
	w := &Worker{
		scheduler: sched,
		fullSync:  fullSync,
		pageSync:  pageSync,
		logger:    logging.NoOp(),
		now:       time.Now,
		batch:     defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ProcessDue executes every job due at call time. A failed job is reported to
// the scheduler, which re-queues it until its attempt budget runs out; the
// pass itself keeps going.
func (w *Worker) ProcessDue(ctx context.Context) (*Result, error) {
	due, err := w.scheduler.ListDue(ctx, w.now(), w.batch)
	if err != nil {
		return nil, fmt.Errorf("jobs: list due: %w", err)
	}

	result := &Result{}
	for _, job := range due {
		result.JobIDs = append(result.JobIDs, job.ID)
		if execErr := w.execute(ctx, job); execErr != nil {
			w.logger.Warn("job failed", "job", job.ID, "type", job.Type, "error", execErr)
			if err := w.scheduler.MarkFailed(ctx, job.ID, execErr); err != nil {
				w.logger.Error("mark failed", "job", job.ID, "error", err)
			}
			result.Failed++
			continue
		}
		if err := w.scheduler.MarkDone(ctx, job.ID); err != nil {
			w.logger.Error("mark done", "job", job.ID, "error", err)
		}
		result.Processed++
	}
	return result, nil
}

func (w *Worker) execute(ctx context.Context, job *interfaces.Job) error {
	switch job.Type {
	case scheduler.JobTypeFullSync:
		force, _ := job.Payload["force"].(bool)
		return w.fullSync.Execute(ctx, synccmd.FullSyncCommand{Force: force})
	case scheduler.JobTypePageSync:
		slug, _ := job.Payload["slug"].(string)
		return w.pageSync.Execute(ctx, synccmd.PageSyncCommand{Slug: slug})
	default:
		return fmt.Errorf("jobs: unknown job type %q", job.Type)
	}
}

// EnqueueFullSync schedules an immediate full-sync job, replacing any pending
// one so triggers stay idempotent.
func EnqueueFullSync(ctx context.Context, sched interfaces.Scheduler, force bool) (*interfaces.Job, error) {
	return sched.Enqueue(ctx, interfaces.JobSpec{
		Key:     scheduler.FullSyncJobKey(),
		Type:    scheduler.JobTypeFullSync,
		RunAt:   time.Now(),
		Payload: map[string]any{"force": force},
	})
}

// EnqueuePageSync schedules an immediate scoped sync for one slug.
func EnqueuePageSync(ctx context.Context, sched interfaces.Scheduler, slug string) (*interfaces.Job, error) {
	return sched.Enqueue(ctx, interfaces.JobSpec{
		Key:     scheduler.PageSyncJobKey(slug),
		Type:    scheduler.JobTypePageSync,
		RunAt:   time.Now(),
		Payload: map[string]any{"slug": slug},
	})
}
