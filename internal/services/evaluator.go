package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/models"
)

// EvaluatorTaskRepo is the task repository interface for the evaluator. The
// conditional transitions guard the submit path; the unconditional ones are
// for moderation replay.
type EvaluatorTaskRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	CompleteIfAssigned(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID) (bool, error)
	ReopenIfAssigned(ctx context.Context, tx pgx.Tx, taskID, userID uuid.UUID) (bool, error)
	Complete(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error
	Reopen(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) error
}

// EvaluatorUserRepo resolves users for the submission flow.
type EvaluatorUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EvaluatorSubmissionRepo is the submission repository interface for the
// evaluator.
type EvaluatorSubmissionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
}

// PayoutCrediter is the wallet operation the evaluator needs on approval.
type PayoutCrediter interface {
	CreditPayout(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

// Evaluator scores submitted work, decides approve/reject, and applies the
// lifecycle and ledger side effects in one transaction.
type Evaluator struct {
	DB        TxBeginner
	Tasks     EvaluatorTaskRepo
	Users     EvaluatorUserRepo
	Subs      EvaluatorSubmissionRepo
	Wallet    PayoutCrediter
	Promotion *PromotionPolicy
	Scorer    Scorer
	Logger    *slog.Logger
}

// NewEvaluator returns an Evaluator using the given scorer strategy.
func NewEvaluator(db TxBeginner, tasks EvaluatorTaskRepo, users EvaluatorUserRepo, subs EvaluatorSubmissionRepo, wallet PayoutCrediter, promotion *PromotionPolicy, scorer Scorer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{DB: db, Tasks: tasks, Users: users, Subs: subs, Wallet: wallet, Promotion: promotion, Scorer: scorer, Logger: logger}
}

// SubmitResult is what Submit returns to the caller: the evaluated
// submission, the user after any payout or promotion, and whether a
// promotion happened in this call.
type SubmitResult struct {
	Submission *models.Submission
	User       *models.User
	Promoted   bool
}

// Submit evaluates content submitted for a task.
//
// The submission must come from the user holding the lock. The check up
// front gives a clean ErrForbidden; the authoritative check is the
// conditional task transition inside the transaction, which fails with
// ErrConflict if the lock expired and was re-won between the read and the
// commit. The score decides at ApproveThreshold: approval completes the
// task and pays out (or runs the promotion check for assessments);
// rejection reopens the task for others. The deposit on a rejected paid
// task is retained by the platform.
func (e *Evaluator) Submit(ctx context.Context, taskID, userID uuid.UUID, content string) (*SubmitResult, error) {
	task, err := e.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err)
	}
	user, err := e.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	if task.AssignedTo == nil || *task.AssignedTo != userID {
		return nil, ErrForbidden
	}

	score, err := e.Scorer.Score(ctx, task, content)
	if err != nil {
		return nil, fmt.Errorf("score submission: %w", err)
	}
	docLink := mockDocLink()

	sub := &models.Submission{
		ID:           uuid.New(),
		UserID:       userID,
		TaskID:       taskID,
		TypedContent: content,
		DocLink:      &docLink,
		MatchScore:   score,
		Status:       models.SubmissionStatusPending,
	}

	tx, err := e.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	promoted := false
	if score >= ApproveThreshold {
		sub.Status = models.SubmissionStatusApproved
		if err := e.Subs.CreateTx(ctx, tx, sub); err != nil {
			return nil, err
		}
		completed, err := e.Tasks.CompleteIfAssigned(ctx, tx, taskID, userID)
		if err != nil {
			return nil, err
		}
		if !completed {
			return nil, ErrConflict
		}
		promoted, err = e.settle(ctx, tx, task, user)
		if err != nil {
			return nil, err
		}
	} else {
		sub.Status = models.SubmissionStatusRejected
		if err := e.Subs.CreateTx(ctx, tx, sub); err != nil {
			return nil, err
		}
		reopened, err := e.Tasks.ReopenIfAssigned(ctx, tx, taskID, userID)
		if err != nil {
			return nil, err
		}
		if !reopened {
			return nil, ErrConflict
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	refreshed, err := e.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	e.Logger.Info("submission evaluated",
		"submission_id", sub.ID, "task_id", taskID, "user_id", userID,
		"score", score, "status", sub.Status, "promoted", promoted)
	return &SubmitResult{Submission: sub, User: refreshed, Promoted: promoted}, nil
}

// settle applies the monetary and promotion side effects of an approval:
// pay out (paid) or run the promotion check (assessment). The task state
// transition happens before this, conditionally on the submit path and
// unconditionally on the moderation path.
func (e *Evaluator) settle(ctx context.Context, tx pgx.Tx, task *models.Task, user *models.User) (promoted bool, err error) {
	if task.Type == models.TaskTypePaid {
		total := task.DepositAmount.Add(task.RewardAmount)
		if err := e.Wallet.CreditPayout(ctx, tx, user.ID, total); err != nil {
			return false, err
		}
		return false, nil
	}
	return e.Promotion.Evaluate(ctx, tx, user)
}

// ModerationResult is what Moderate returns. User is nil on rejection and
// on the already-in-target no-op; Detail is set only for the no-op.
type ModerationResult struct {
	Submission *models.Submission
	User       *models.User
	Detail     string
}

// Moderate is the manual override path for admins: force a submission to
// APPROVED or REJECTED, replaying the automatic side effects. The match
// score is not recomputed. Moderating a submission already in the target
// status is a no-op with a detail message, not a duplicate payout.
func (e *Evaluator) Moderate(ctx context.Context, submissionID uuid.UUID, targetStatus string) (*ModerationResult, error) {
	if targetStatus != models.SubmissionStatusApproved && targetStatus != models.SubmissionStatusRejected {
		return nil, ErrInvalidStatus
	}

	sub, err := e.Subs.GetByID(ctx, submissionID)
	if err != nil {
		return nil, notFound(err)
	}
	if sub.Status == targetStatus {
		return &ModerationResult{
			Submission: sub,
			Detail:     fmt.Sprintf("Submission already %s.", strings.ToLower(targetStatus)),
		}, nil
	}

	task, err := e.Tasks.GetByID(ctx, sub.TaskID)
	if err != nil {
		return nil, notFound(err)
	}
	user, err := e.Users.GetByID(ctx, sub.UserID)
	if err != nil {
		return nil, notFound(err)
	}

	tx, err := e.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := e.Subs.UpdateStatusTx(ctx, tx, sub.ID, targetStatus); err != nil {
		return nil, err
	}
	sub.Status = targetStatus

	if targetStatus == models.SubmissionStatusApproved {
		if err := e.Tasks.Complete(ctx, tx, task.ID); err != nil {
			return nil, err
		}
		if _, err := e.settle(ctx, tx, task, user); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		refreshed, err := e.Users.GetByID(ctx, sub.UserID)
		if err != nil {
			return nil, notFound(err)
		}
		e.Logger.Info("submission moderated", "submission_id", sub.ID, "status", targetStatus)
		return &ModerationResult{Submission: sub, User: refreshed}, nil
	}

	if err := e.Tasks.Reopen(ctx, tx, sub.TaskID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	e.Logger.Info("submission moderated", "submission_id", sub.ID, "status", targetStatus)
	return &ModerationResult{Submission: sub}, nil
}

// mockDocLink stands in for the external document-service integration.
func mockDocLink() string {
	return fmt.Sprintf("https://docs.google.com/document/d/mock-doc-id-%04d", rand.Intn(9000)+1000)
}
