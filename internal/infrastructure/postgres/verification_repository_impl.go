package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/internal/domain/repository"
)

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) Create(ctx context.Context, v *entity.Verification) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO verifications (id, identifier, value, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, now()), COALESCE($6::timestamptz, now()))
		RETURNING created_at, updated_at
	`, v.ID, v.Identifier, v.Value, v.ExpiresAt, optTime(v.CreatedAt), optTime(v.UpdatedAt))

	return mapErr(row.Scan(&v.CreatedAt, &v.UpdatedAt))
}

func (r *VerificationRepository) GetByValue(ctx context.Context, value string) (*entity.Verification, error) {
	v := &entity.Verification{}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, identifier, value, expires_at, created_at, updated_at
		FROM verifications
		WHERE value = $1
	`, value)
	if err := row.Scan(&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

func (r *VerificationRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM verifications WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VerificationRepository) DeleteByIdentifier(ctx context.Context, identifier string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM verifications WHERE identifier = $1`, identifier)
	return mapErr(err)
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM verifications WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected(), nil
}

var _ repository.VerificationRepository = (*VerificationRepository)(nil)
