package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User roles. TRAINEE -> WRITER is the only legal transition and only via
// the promotion policy; ADMIN accounts are created out of band.
const (
	RoleTrainee = "TRAINEE"
	RoleWriter  = "WRITER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	ID            uuid.UUID       `json:"id"`
	PhoneNumber   string          `json:"phone_number"`
	DisplayName   string          `json:"display_name"`
	Role          string          `json:"role"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	IsVerified    bool            `json:"is_verified"`
	PasswordHash  *string         `json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsTaskPerformer reports whether the user can lock and submit tasks.
// Admins moderate; they do not perform work.
func (u *User) IsTaskPerformer() bool {
	return u.Role == RoleTrainee || u.Role == RoleWriter
}
