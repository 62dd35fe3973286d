package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// ExpireLockJobArgs identifies one task lock. The job is enqueued in the
// same transaction as the lock itself, scheduled at the lock deadline.
type ExpireLockJobArgs struct {
	TaskID   uuid.UUID `json:"task_id"`
	UserID   uuid.UUID `json:"user_id"`
	LockedAt time.Time `json:"locked_at"`
}

func (ExpireLockJobArgs) Kind() string { return "expire_task_lock" }

// TaskReopener is the contract the worker needs to release a stale lock.
type TaskReopener interface {
	ReopenExpired(ctx context.Context, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error)
}

// ExpireLockWorker reopens tasks whose lock outlived the task time limit.
// The reopen is conditional on (user, locked_at) still matching, so a task
// that was completed, rejected, or re-locked in the meantime is untouched.
type ExpireLockWorker struct {
	river.WorkerDefaults[ExpireLockJobArgs]
	tasks TaskReopener
	log   *slog.Logger
}

func NewExpireLockWorker(tasks TaskReopener, log *slog.Logger) *ExpireLockWorker {
	if log == nil {
		log = slog.Default()
	}
	return &ExpireLockWorker{tasks: tasks, log: log}
}

func (w *ExpireLockWorker) Work(ctx context.Context, job *river.Job[ExpireLockJobArgs]) error {
	args := job.Args
	reopened, err := w.tasks.ReopenExpired(ctx, args.TaskID, args.UserID, args.LockedAt)
	if err != nil {
		return fmt.Errorf("reopen expired lock for task %s: %w", args.TaskID, err)
	}
	if reopened {
		w.log.Info("expired lock released", "task_id", args.TaskID, "user_id", args.UserID)
	}
	return nil
}
