package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/internal/domain/repository"
)

const userColumns = `id, name, email, email_verified, image, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, now()), COALESCE($7::timestamptz, now()))
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.EmailVerified, u.Image, optTime(u.CreatedAt), optTime(u.UpdatedAt))

	return mapErr(row.Scan(&u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := conn(ctx, r.pool).QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, email_verified = $3, image = $4, updated_at = $5
		WHERE id = $6
	`, u.Name, u.Email, u.EmailVerified, u.Image, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	res, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET email_verified = $1, updated_at = now() WHERE id = $2`, verified, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
