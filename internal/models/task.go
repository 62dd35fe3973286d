package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Task type enums. The type is immutable after creation.
const (
	TaskTypeAssessment = "ASSESSMENT"
	TaskTypePaid       = "PAID"
)

// Task status enums. OPEN -> LOCKED -> COMPLETED, or LOCKED -> OPEN on
// rejection or lock expiry.
const (
	TaskStatusOpen      = "OPEN"
	TaskStatusLocked    = "LOCKED"
	TaskStatusCompleted = "COMPLETED"
)

type Task struct {
	ID               uuid.UUID       `json:"id"`
	Type             string          `json:"type"`
	ImageURL         string          `json:"image_url"`
	Status           string          `json:"status"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	RewardAmount     decimal.Decimal `json:"reward_amount"`
	TimeLimitMinutes int             `json:"time_limit"`
	AssignedTo       *uuid.UUID      `json:"assigned_to,omitempty"`
	LockedAt         *time.Time      `json:"locked_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// LockDeadline returns the instant the current lock expires, or the zero
// time when the task is not locked.
func (t *Task) LockDeadline() time.Time {
	if t.LockedAt == nil {
		return time.Time{}
	}
	return t.LockedAt.Add(time.Duration(t.TimeLimitMinutes) * time.Minute)
}
