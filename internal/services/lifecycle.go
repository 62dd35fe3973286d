package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/expiry"
	"github.com/scribewell/backend/internal/models"
)

// TxBeginner abstracts transaction creation so tests don't need a
// pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LifecycleTaskRepo is the task repository interface for the lifecycle.
type LifecycleTaskRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	LockIfOpen(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error)
	ReopenIfLockedBy(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error)
}

// LifecycleUserRepo resolves the locking user for the role policy.
type LifecycleUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// DepositDebiter is the wallet operation the lifecycle needs on lock.
type DepositDebiter interface {
	DebitDeposit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

// InsertExpiryJobFunc enqueues a lock-expiry job within the given
// transaction, scheduled for runAt. Provided by main as a closure over
// river.Client.InsertTx.
type InsertExpiryJobFunc func(ctx context.Context, tx pgx.Tx, args expiry.ExpireLockJobArgs, runAt time.Time) error

// Lifecycle governs the task state machine: OPEN -> LOCKED -> COMPLETED,
// or LOCKED -> OPEN on rejection and on lock expiry.
type Lifecycle struct {
	DB           TxBeginner
	Tasks        LifecycleTaskRepo
	Users        LifecycleUserRepo
	Wallet       DepositDebiter
	InsertExpiry InsertExpiryJobFunc
	Logger       *slog.Logger
}

// NewLifecycle returns a Lifecycle. insertExpiry may be nil, in which case
// no expiry jobs are scheduled (tests, tooling).
func NewLifecycle(db TxBeginner, tasks LifecycleTaskRepo, users LifecycleUserRepo, wallet DepositDebiter, insertExpiry InsertExpiryJobFunc, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{DB: db, Tasks: tasks, Users: users, Wallet: wallet, InsertExpiry: insertExpiry, Logger: logger}
}

// Lock assigns the task exclusively to the user.
//
// Role policy: trainees may lock only assessment tasks, writers any task,
// admins none. For a writer locking a paid task the deposit is deducted in
// the same transaction as the OPEN -> LOCKED transition, so a losing racer
// observes ErrConflict and never a partial deduction.
func (s *Lifecycle) Lock(ctx context.Context, taskID, userID uuid.UUID) (*models.Task, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	task, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err)
	}

	if !user.IsTaskPerformer() {
		return nil, ErrForbidden
	}
	if user.Role == models.RoleTrainee && task.Type == models.TaskTypePaid {
		return nil, ErrForbidden
	}
	// Fast-path check; the authoritative check is the CAS below.
	if task.Status != models.TaskStatusOpen {
		return nil, ErrConflict
	}

	lockedAt := time.Now().UTC()

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := s.Tasks.LockIfOpen(ctx, tx, taskID, userID, lockedAt)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrConflict
	}

	if user.Role == models.RoleWriter && task.DepositAmount.IsPositive() {
		if err := s.Wallet.DebitDeposit(ctx, tx, userID, task.DepositAmount); err != nil {
			return nil, err
		}
	}

	if s.InsertExpiry != nil && task.TimeLimitMinutes > 0 {
		deadline := lockedAt.Add(time.Duration(task.TimeLimitMinutes) * time.Minute)
		if err := s.InsertExpiry(ctx, tx, expiry.ExpireLockJobArgs{
			TaskID:   taskID,
			UserID:   userID,
			LockedAt: lockedAt,
		}, deadline); err != nil {
			return nil, fmt.Errorf("schedule lock expiry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	task.Status = models.TaskStatusLocked
	task.AssignedTo = &userID
	task.LockedAt = &lockedAt
	s.Logger.Info("task locked", "task_id", taskID, "user_id", userID, "type", task.Type)
	return task, nil
}

// ReopenExpired releases a lock whose time limit has passed, provided the
// task is still locked by the same user with the same lock timestamp. The
// deposit, if any, is retained, matching the rejection policy. Implements
// expiry.TaskReopener.
func (s *Lifecycle) ReopenExpired(ctx context.Context, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	reopened, err := s.Tasks.ReopenIfLockedBy(ctx, tx, taskID, userID, lockedAt)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return reopened, nil
}
