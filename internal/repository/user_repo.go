package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/scribewell/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (id, phone_number, display_name, role, wallet_balance, is_verified, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, u.ID, u.PhoneNumber, u.DisplayName, u.Role, u.WalletBalance, u.IsVerified, u.PasswordHash).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, userSelect+` WHERE phone_number = $1`, phone))
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, userSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		u, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepo) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET display_name = $2, updated_at = now() WHERE id = $1
	`, id, displayName)
	return err
}

func (r *UserRepo) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET is_verified = $2, updated_at = now() WHERE id = $1
	`, id, verified)
	return err
}

// GetByIDForUpdate locks the user row for update. Call within a transaction.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error) {
	return r.scanOne(tx.QueryRow(ctx, userSelect+` WHERE id = $1 FOR UPDATE`, id))
}

// DeductBalance atomically deducts amount if wallet_balance >= amount.
// Returns pgx.ErrNoRows when the balance is insufficient.
func (r *UserRepo) DeductBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (newBalance decimal.Decimal, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET wallet_balance = wallet_balance - $1, updated_at = now()
		WHERE id = $2 AND wallet_balance >= $1
		RETURNING wallet_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// AddBalance adds amount to the wallet and returns the new balance.
func (r *UserRepo) AddBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (newBalance decimal.Decimal, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET wallet_balance = wallet_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING wallet_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// PromoteToWriter flips role TRAINEE -> WRITER. The WHERE clause makes the
// transition one-way even if the promotion check fires twice.
func (r *UserRepo) PromoteToWriter(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1 AND role = $3
	`, id, models.RoleWriter, models.RoleTrainee)
	return err
}

const userSelect = `
	SELECT id, phone_number, display_name, role, wallet_balance, is_verified, password_hash, created_at, updated_at
	FROM users`

func (r *UserRepo) scanOne(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.DisplayName, &u.Role, &u.WalletBalance, &u.IsVerified, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
