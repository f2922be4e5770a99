package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	repo "github.com/piousdev/roel-agency/internal/domain/repository"
)

// UserService serves the signed-in user's profile and sessions.
type UserService struct {
	Users    repo.UserRepository
	Sessions repo.SessionRepository
	Cache    SessionCache
	Logger   *logrus.Logger
}

func NewUserService(users repo.UserRepository, sessions repo.SessionRepository, cache SessionCache, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, Sessions: sessions, Cache: cache, Logger: logger}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// UpdateProfileInput holds optional changes; nil fields are left untouched.
// An empty Image clears it.
type UpdateProfileInput struct {
	Name  *string
	Image *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Image != nil {
		u.Image = optString(strings.TrimSpace(*in.Image))
	}
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	evictUserSessions(ctx, s.Sessions, s.Cache, s.Logger, u.ID)
	return u, nil
}

// DeleteAccount removes the user; the database cascades to sessions and accounts.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	list, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if err := s.Users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	tokens := make([]string, 0, len(list))
	for _, sess := range list {
		tokens = append(tokens, sess.Token)
	}
	evictTokens(ctx, s.Cache, s.Logger, tokens...)
	s.Logger.WithFields(logrus.Fields{"user_id": userID, "sessions": len(list)}).Info("account deleted")
	return nil
}

func (s *UserService) ListSessions(ctx context.Context, userID string) ([]entity.Session, error) {
	list, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

// RevokeSession deletes one of the user's sessions. Sessions of other users
// are reported as not found.
func (s *UserService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	list, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, sess := range list {
		if sess.ID != sessionID {
			continue
		}
		if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		evictTokens(ctx, s.Cache, s.Logger, sess.Token)
		return nil
	}
	return ErrSessionNotFound
}
