package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scribewell/backend/internal/models"
)

// Service is the append-only wallet audit trail. Every balance mutation in
// the system goes through an AppendTx in the same transaction.
type Service interface {
	AppendTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
	ListAll(ctx context.Context) ([]*models.Transaction, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) AppendTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return s.repo.AppendTx(ctx, tx, t)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]*models.Transaction, error) {
	return s.repo.ListAll(ctx)
}
