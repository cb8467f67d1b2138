package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/platform/db"
)

// Repository persists tenant accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateAccount inserts the account and seeds its empty analytics summary in
// one transaction, so a fresh tenant's dashboard reads a complete document.
func (r *Repository) CreateAccount(ctx context.Context, account Account) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO tenants (id, email, shop_name, password_hash, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			account.TenantID, account.Email, account.ShopName, account.PasswordHash, account.CreatedAt)
		if err != nil {
			return err
		}
		return analytics.WriteSummary(ctx, tx, account.TenantID, analytics.DefaultSummary())
	})
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("auth: create account: %w", err)
	}
	return nil
}

// GetByEmail loads an account by its login email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, shop_name, password_hash, created_at
		 FROM tenants WHERE email = $1`, email,
	).Scan(&account.TenantID, &account.Email, &account.ShopName, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("auth: get account: %w", err)
	}
	return account, nil
}

// ListTenantIDs returns every tenant id. The reconcile job fans out over it.
func (r *Repository) ListTenantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("auth: list tenants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
