package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/internal/domain/repository"
)

const sessionColumns = `id, user_id, token, expires_at, ip_address, user_agent, created_at, updated_at`

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*entity.Session, error) {
	s := &entity.Session{}
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *SessionRepository) Create(ctx context.Context, s *entity.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at, ip_address, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::timestamptz, now()), COALESCE($8::timestamptz, now()))
		RETURNING created_at, updated_at
	`, s.ID, s.UserID, s.Token, s.ExpiresAt, s.IPAddress, s.UserAgent, optTime(s.CreatedAt), optTime(s.UpdatedAt))

	return mapErr(row.Scan(&s.CreatedAt, &s.UpdatedAt))
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*entity.Session, error) {
	return scanSession(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, token))
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]entity.Session, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]entity.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, mapErr(rows.Err())
}

func (r *SessionRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	res, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE sessions SET expires_at = $1, updated_at = now() WHERE id = $2`, expiresAt, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return mapErr(err)
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return mapErr(err)
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `DELETE FROM sessions WHERE user_id = $1 RETURNING token`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return tokens, mapErr(err)
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected(), nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
