package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	repo "github.com/piousdev/roel-agency/internal/domain/repository"
	"github.com/piousdev/roel-agency/pkg/apperror"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("Invalid email or password")
	ErrUnauthenticated    = apperror.Unauthorized("Invalid or expired session")
	ErrEmailTaken         = apperror.Conflict("User with this email already exists")
	ErrInvalidToken       = apperror.BadRequest("Invalid or expired token")
	ErrUserNotFound       = apperror.NotFound("User not found")
	ErrSessionNotFound    = apperror.NotFound("Session not found")
)

// SessionCache is a lookaside cache of resolved sessions keyed by token.
type SessionCache interface {
	Get(ctx context.Context, token string) (*entity.AuthSession, bool, error)
	Set(ctx context.Context, s *entity.AuthSession) error
	Delete(ctx context.Context, tokens ...string) error
}

// EmailPublisher enqueues email jobs for the email worker.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// ClientInfo describes the client a session is created for.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// evictUserSessions drops the cached entries of every session of userID.
// Cache failures are logged, never returned.
func evictUserSessions(ctx context.Context, sessions repo.SessionRepository, cache SessionCache, logger *logrus.Logger, userID string) {
	if cache == nil {
		return
	}
	list, err := sessions.ListByUser(ctx, userID)
	if err != nil {
		logger.WithError(err).WithField("user_id", userID).Warn("list sessions for cache eviction failed")
		return
	}
	tokens := make([]string, 0, len(list))
	for _, s := range list {
		tokens = append(tokens, s.Token)
	}
	evictTokens(ctx, cache, logger, tokens...)
}

func evictTokens(ctx context.Context, cache SessionCache, logger *logrus.Logger, tokens ...string) {
	if cache == nil || len(tokens) == 0 {
		return
	}
	if err := cache.Delete(ctx, tokens...); err != nil {
		logger.WithError(err).Warn("session cache delete failed")
	}
}
