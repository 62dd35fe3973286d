package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scribewell/backend/internal/models"
)

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

// CreateTx inserts a submission inside the given transaction.
func (r *SubmissionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	return tx.QueryRow(ctx, `
		INSERT INTO submissions (id, user_id, task_id, typed_content, doc_link, match_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, s.ID, s.UserID, s.TaskID, s.TypedContent, s.DocLink, s.MatchScore, s.Status).Scan(&s.CreatedAt)
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx, submissionSelect+` WHERE id = $1`, id))
}

// UpdateStatusTx sets the submission status inside the given transaction.
func (r *SubmissionRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE submissions SET status = $2 WHERE id = $1
	`, id, status)
	return err
}

func (r *SubmissionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, submissionSelect+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (r *SubmissionRepo) ListAll(ctx context.Context) ([]*models.Submission, error) {
	rows, err := r.pool.Query(ctx, submissionSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// CountApprovedAssessments counts the user's approved assessment
// submissions. Runs inside the caller's transaction so a submission
// approved in that transaction is included. Always queried fresh; the
// promotion policy must never see a cached count.
func (r *SubmissionRepo) CountApprovedAssessments(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM submissions s
		JOIN tasks t ON t.id = s.task_id
		WHERE s.user_id = $1 AND s.status = $2 AND t.type = $3
	`, userID, models.SubmissionStatusApproved, models.TaskTypeAssessment).Scan(&n)
	return n, err
}

const submissionSelect = `
	SELECT id, user_id, task_id, typed_content, doc_link, match_score, status, created_at
	FROM submissions`

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var s models.Submission
	err := row.Scan(&s.ID, &s.UserID, &s.TaskID, &s.TypedContent, &s.DocLink, &s.MatchScore, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSubmissions(rows pgx.Rows) ([]*models.Submission, error) {
	var list []*models.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
