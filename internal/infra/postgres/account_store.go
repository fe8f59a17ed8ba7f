package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"morse-quiz-service/internal/auth"
	"morse-quiz-service/internal/domain"
)

// AccountStore keeps sign-up accounts in the accounts table.
type AccountStore struct {
	pool *pgxpool.Pool
}

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var account auth.Account
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, display_name, pass_hash, created_at FROM accounts WHERE email=$1`, email).
		Scan(&account.ID, &account.Email, &account.DisplayName, &account.PassHash, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

// Add inserts the account; a taken email is domain.ErrAccountExists.
func (s *AccountStore) Add(ctx context.Context, account *auth.Account) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, display_name, pass_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`,
		account.ID, account.Email, account.DisplayName, account.PassHash, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("add account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountExists
	}
	return nil
}
