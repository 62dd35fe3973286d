package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/models"
)

// WalletUserRepo is the minimal user repository interface for the wallet.
type WalletUserRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	DeductBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	AddBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

// WalletLedger is the append side of the ledger used by the wallet.
type WalletLedger interface {
	AppendTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
}

// WalletService owns every balance mutation. There is deliberately no set-
// balance operation: callers get debit/credit primitives that pair the
// update with a ledger append inside the caller's transaction.
type WalletService struct {
	Users  WalletUserRepo
	Ledger WalletLedger
}

// NewWalletService returns a new WalletService.
func NewWalletService(users WalletUserRepo, ledger WalletLedger) *WalletService {
	return &WalletService{Users: users, Ledger: ledger}
}

// DebitDeposit locks the user row (SELECT FOR UPDATE), checks the balance,
// deducts the deposit, and appends a DEPOSIT ledger entry. Call within the
// same transaction as the task's OPEN -> LOCKED transition.
func (s *WalletService) DebitDeposit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	u, err := s.Users.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		return notFound(err)
	}
	if u.WalletBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	if _, err := s.Users.DeductBalance(ctx, tx, userID, amount); err != nil {
		// The conditional UPDATE matches no row when a concurrent debit
		// drained the balance between the lock and here.
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientFunds
		}
		return err
	}
	return s.Ledger.AppendTx(ctx, tx, &models.Transaction{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Type:   models.TransactionTypeDeposit,
	})
}

// CreditPayout credits deposit-return plus reward as a single amount and
// appends one PAYOUT ledger entry. Call within the approval transaction.
func (s *WalletService) CreditPayout(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if _, err := s.Users.AddBalance(ctx, tx, userID, amount); err != nil {
		return err
	}
	return s.Ledger.AppendTx(ctx, tx, &models.Transaction{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Type:   models.TransactionTypePayout,
	})
}

// CreditBonus credits the one-time promotion bonus. The ledger keeps its
// two spend/earn categories, so the bonus is recorded as a DEPOSIT entry.
func (s *WalletService) CreditBonus(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	if _, err := s.Users.AddBalance(ctx, tx, userID, amount); err != nil {
		return err
	}
	return s.Ledger.AppendTx(ctx, tx, &models.Transaction{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Type:   models.TransactionTypeDeposit,
	})
}
