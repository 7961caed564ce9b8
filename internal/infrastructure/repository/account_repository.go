package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketbay/auction-exchange-backend/internal/domain/account"
	"github.com/marketbay/auction-exchange-backend/internal/domain/errors"
)

// AccountRepository serves account lookups for settlement and lifecycle
// checks. Account writes happen in the identity subsystem; this side only
// reads.
type AccountRepository struct {
	db dbtx
}

// NewAccountRepository creates an account repository over the given pool
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, email, name, role, status, verification, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var (
		a               account.Account
		roleStr         string
		statusStr       string
		verificationStr string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Email, &a.Name, &roleStr, &statusStr, &verificationStr,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("account")
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	a.Role = account.ParseRole(roleStr)
	a.Status = account.ParseStatus(statusStr)
	a.Verification = account.ParseVerification(verificationStr)

	return &a, nil
}
