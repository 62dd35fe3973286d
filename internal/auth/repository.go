package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrCreateByPhone returns the user with the given phone number, creating
// a fresh trainee account on first login. The insert is idempotent under
// concurrent first logins for the same phone.
func (r *Repository) GetOrCreateByPhone(ctx context.Context, phone string) (*models.User, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, phone_number, display_name, role, wallet_balance, is_verified)
		VALUES ($1, $2, '', $3, $4, FALSE)
		ON CONFLICT (phone_number) DO NOTHING
	`, uuid.New(), phone, models.RoleTrainee, decimal.Zero)
	if err != nil {
		return nil, err
	}
	return r.GetByPhone(ctx, phone)
}

// GetByPhone returns the user with the given phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, phone_number, display_name, role, wallet_balance, is_verified, password_hash, created_at, updated_at
		FROM users WHERE phone_number = $1
	`, phone).Scan(&u.ID, &u.PhoneNumber, &u.DisplayName, &u.Role, &u.WalletBalance, &u.IsVerified, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
