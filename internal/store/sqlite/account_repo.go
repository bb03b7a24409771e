package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatroom/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

var _ domain.AccountStore = (*AccountRepo)(nil)

func (r *AccountRepo) CreateAccount(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO accounts (id, email, hashed_password, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, a.ID, a.Email, a.HashedPassword, a.DisplayName, toMillis(a.CreatedAt)); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT id, email, hashed_password, display_name, created_at FROM accounts WHERE email = ?`

	a := &domain.Account{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.HashedPassword,
		&a.DisplayName,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	a.CreatedAt = fromMillis(createdAt)
	return a, nil
}
