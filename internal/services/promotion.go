package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/models"
)

// PromotionThreshold is the number of approved assessment submissions
// (cumulative, including the one just approved) required for promotion.
const PromotionThreshold = 2

// WriterBonus is the one-time credit granted on promotion.
var WriterBonus = decimal.RequireFromString("5.00")

// PromotionSubmissionRepo counts approved assessments inside the approval
// transaction.
type PromotionSubmissionRepo interface {
	CountApprovedAssessments(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
}

// PromotionUserRepo performs the one-way role flip.
type PromotionUserRepo interface {
	PromoteToWriter(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// BonusCrediter is the wallet operation paired with promotion.
type BonusCrediter interface {
	CreditBonus(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

// PromotionPolicy promotes a trainee to writer once enough assessment work
// has been approved. The role flip, bonus credit, and ledger append share
// the approval transaction.
type PromotionPolicy struct {
	Subs   PromotionSubmissionRepo
	Users  PromotionUserRepo
	Wallet BonusCrediter
}

// NewPromotionPolicy returns a new PromotionPolicy.
func NewPromotionPolicy(subs PromotionSubmissionRepo, users PromotionUserRepo, wallet BonusCrediter) *PromotionPolicy {
	return &PromotionPolicy{Subs: subs, Users: users, Wallet: wallet}
}

// Evaluate is called after an assessment submission is approved. It counts
// the user's approved assessments fresh (never cached) and, at the
// threshold, promotes and credits the bonus. Returns whether a promotion
// happened. Once the user is a writer the check can never re-fire, which
// makes the bonus one-time.
func (p *PromotionPolicy) Evaluate(ctx context.Context, tx pgx.Tx, user *models.User) (bool, error) {
	if user.Role != models.RoleTrainee {
		return false, nil
	}
	count, err := p.Subs.CountApprovedAssessments(ctx, tx, user.ID)
	if err != nil {
		return false, err
	}
	if count < PromotionThreshold {
		return false, nil
	}
	if err := p.Users.PromoteToWriter(ctx, tx, user.ID); err != nil {
		return false, err
	}
	if err := p.Wallet.CreditBonus(ctx, tx, user.ID, WriterBonus); err != nil {
		return false, err
	}
	return true, nil
}
