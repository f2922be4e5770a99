package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/internal/domain/repository"
)

const accountColumns = `id, user_id, account_id, provider_id, access_token, refresh_token,
	access_token_expires_at, refresh_token_expires_at, scope, password, created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	err := row.Scan(&a.ID, &a.UserID, &a.AccountID, &a.ProviderID, &a.AccessToken, &a.RefreshToken,
		&a.AccessTokenExpiresAt, &a.RefreshTokenExpiresAt, &a.Scope, &a.Password, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO accounts (id, user_id, account_id, provider_id, access_token, refresh_token,
			access_token_expires_at, refresh_token_expires_at, scope, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			COALESCE($11::timestamptz, now()), COALESCE($12::timestamptz, now()))
		RETURNING created_at, updated_at
	`, a.ID, a.UserID, a.AccountID, a.ProviderID, a.AccessToken, a.RefreshToken,
		a.AccessTokenExpiresAt, a.RefreshTokenExpiresAt, a.Scope, a.Password,
		optTime(a.CreatedAt), optTime(a.UpdatedAt))

	return mapErr(row.Scan(&a.CreatedAt, &a.UpdatedAt))
}

// GetByProvider returns the oldest account for the pair; the pair is indexed, not unique.
func (r *AccountRepository) GetByProvider(ctx context.Context, providerID, accountID string) (*entity.Account, error) {
	return scanAccount(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE provider_id = $1 AND account_id = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, providerID, accountID))
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]entity.Account, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, mapErr(rows.Err())
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, password string) error {
	res, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE accounts SET password = $1, updated_at = now() WHERE id = $2`, password, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
