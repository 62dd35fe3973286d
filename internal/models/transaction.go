package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger entry types. DEPOSIT covers both the deposit withheld on a paid
// lock and the one-time writer bonus; REFUND is reserved for manual
// corrections. Entries are append-only, never updated or deleted.
const (
	TransactionTypeDeposit = "DEPOSIT"
	TransactionTypeRefund  = "REFUND"
	TransactionTypePayout  = "PAYOUT"
)

type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}
