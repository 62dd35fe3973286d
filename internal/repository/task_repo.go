package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scribewell/backend/internal/models"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, type, image_url, status, deposit_amount, reward_amount, time_limit_minutes, assigned_to, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, t.ID, t.Type, t.ImageURL, t.Status, t.DepositAmount, t.RewardAmount, t.TimeLimitMinutes, t.AssignedTo, t.LockedAt).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, taskSelect+` WHERE id = $1`, id))
}

func (r *TaskRepo) List(ctx context.Context) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, taskSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// LockIfOpen is the OPEN -> LOCKED compare-and-swap. It succeeds only when
// the task is still OPEN, so concurrent lockers cannot both win. Returns
// false when the task was not open (already locked or completed).
func (r *TaskRepo) LockIfOpen(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $3, assigned_to = $2, locked_at = $4, updated_at = now()
		WHERE id = $1 AND status = $5
	`, taskID, userID, models.TaskStatusLocked, lockedAt, models.TaskStatusOpen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Reopen clears the assignment and returns the task to OPEN.
func (r *TaskRepo) Reopen(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $2, assigned_to = NULL, locked_at = NULL, updated_at = now()
		WHERE id = $1
	`, taskID, models.TaskStatusOpen)
	return err
}

// ReopenIfLockedBy reopens the task only if it is still locked by the given
// user with the given lock timestamp. Used by the expiry worker so a task
// re-locked after an earlier reopen is left alone.
func (r *TaskRepo) ReopenIfLockedBy(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID, lockedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $4, assigned_to = NULL, locked_at = NULL, updated_at = now()
		WHERE id = $1 AND status = $5 AND assigned_to = $2 AND locked_at = $3
	`, taskID, userID, lockedAt, models.TaskStatusOpen, models.TaskStatusLocked)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteIfAssigned is the LOCKED -> COMPLETED transition for the lock
// holder. It succeeds only while the task is still locked by that user, so a
// submission whose lock expired and was re-won cannot complete the task out
// from under the new holder. Returns false when the guard did not match.
func (r *TaskRepo) CompleteIfAssigned(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $3, assigned_to = NULL, locked_at = NULL, updated_at = now()
		WHERE id = $1 AND status = $4 AND assigned_to = $2
	`, taskID, userID, models.TaskStatusCompleted, models.TaskStatusLocked)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReopenIfAssigned returns the task to OPEN only while it is locked by the
// given user. Guard counterpart of CompleteIfAssigned for the reject path.
func (r *TaskRepo) ReopenIfAssigned(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $3, assigned_to = NULL, locked_at = NULL, updated_at = now()
		WHERE id = $1 AND status = $4 AND assigned_to = $2
	`, taskID, userID, models.TaskStatusOpen, models.TaskStatusLocked)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete marks the task COMPLETED unconditionally and clears the
// assignment; who did the work is recorded on the approved submission.
// Moderation replay only; the submit path uses CompleteIfAssigned.
func (r *TaskRepo) Complete(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE tasks SET status = $2, assigned_to = NULL, locked_at = NULL, updated_at = now()
		WHERE id = $1
	`, taskID, models.TaskStatusCompleted)
	return err
}

const taskSelect = `
	SELECT id, type, image_url, status, deposit_amount, reward_amount, time_limit_minutes, assigned_to, locked_at, created_at, updated_at
	FROM tasks`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Type, &t.ImageURL, &t.Status, &t.DepositAmount, &t.RewardAmount, &t.TimeLimitMinutes, &t.AssignedTo, &t.LockedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
