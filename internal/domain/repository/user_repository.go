package repository

import (
	"context"
	"errors"
	"time"

	"github.com/piousdev/roel-agency/internal/domain/entity"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	// Delete removes the user; sessions and accounts go with it.
	Delete(ctx context.Context, id string) error
}

type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	GetByToken(ctx context.Context, token string) (*entity.Session, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByUser returns the tokens of the removed sessions.
	DeleteByUser(ctx context.Context, userID string) ([]string, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByProvider(ctx context.Context, providerID, accountID string) (*entity.Account, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Account, error)
	UpdatePassword(ctx context.Context, id string, password string) error
}

type VerificationRepository interface {
	Create(ctx context.Context, v *entity.Verification) error
	GetByValue(ctx context.Context, value string) (*entity.Verification, error)
	// Delete returns ErrNotFound when the row is already gone.
	Delete(ctx context.Context, id string) error
	DeleteByIdentifier(ctx context.Context, identifier string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TxManager runs fn in one database transaction. Repositories called with the
// ctx handed to fn take part in that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
