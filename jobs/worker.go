package jobs

import (
	"context"
	"log/slog"
	"time"

	giModels "github.com/veloxpay/gateway-integration/models"
)

// Handler executes one job. A returned error puts the job back on the queue
// while its retry budget lasts.
type Handler func(ctx context.Context, job *giModels.JobRequest) error

type Worker struct {
	queue     *Queue
	queueName string
	handlers  map[string]Handler

	// How long one Dequeue blocks before the worker polls the schedule again.
	pollInterval time.Duration
}

func NewWorker(queue *Queue, queueName string) *Worker {
	if queueName == "" {
		queueName = DefaultQueue
	}
	return &Worker{
		queue:        queue,
		queueName:    queueName,
		handlers:     make(map[string]Handler),
		pollInterval: 5 * time.Second,
	}
}

func (w *Worker) Register(name string, handler Handler) {
	w.handlers[name] = handler
}

// Run processes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("job worker started", "queue", w.queueName)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.queue.PollDue(ctx); err != nil {
			slog.Warn("polling scheduled jobs failed", "reason", err.Error())
		}

		env, err := w.queue.Dequeue(ctx, w.queueName, w.pollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("dequeue failed", "queue", w.queueName, "reason", err.Error())
			time.Sleep(w.pollInterval)
			continue
		}
		if env == nil {
			continue
		}

		w.dispatch(ctx, env)
	}
}

func (w *Worker) dispatch(ctx context.Context, env *jobEnvelope) {
	if env.Job == nil {
		slog.Error("job envelope without request", "jobId", env.ID)
		return
	}

	handler, ok := w.handlers[env.Job.Name]
	if !ok {
		slog.Error("no handler registered", "job", env.Job.Name, "jobId", env.ID)
		return
	}

	err := handler(ctx, env.Job)
	if err == nil {
		return
	}

	if env.Attempt < env.Job.Retry {
		slog.Warn("job failed, retrying",
			"job", env.Job.Name, "jobId", env.ID, "attempt", env.Attempt, "reason", err.Error())
		if rerr := w.queue.retry(ctx, env); rerr != nil {
			slog.Error("re-enqueueing failed job", "job", env.Job.Name, "jobId", env.ID, "reason", rerr.Error())
		}
		return
	}

	slog.Error("job failed permanently",
		"job", env.Job.Name, "jobId", env.ID, "attempt", env.Attempt, "reason", err.Error())
}
