package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	repo "github.com/piousdev/roel-agency/internal/domain/repository"
	"github.com/piousdev/roel-agency/pkg/apperror"
	"github.com/piousdev/roel-agency/pkg/helpers"
	"github.com/piousdev/roel-agency/pkg/mailer"
)

const (
	tokenBytes          = 32
	resetIdentifierPref = "reset-password:"
)

// AuthOptions configures session lifetimes and the links sent by email.
type AuthOptions struct {
	AppName           string
	SessionTTL        time.Duration
	UpdateAge         time.Duration
	VerificationTTL   time.Duration
	ResetTokenTTL     time.Duration
	MinPasswordLength int
	VerifyEmailURL    string
	ResetPasswordURL  string
	SendEmail         bool
}

// AuthService implements email/password sign-up, sign-in and the session lifecycle.
type AuthService struct {
	Users         repo.UserRepository
	Sessions      repo.SessionRepository
	Accounts      repo.AccountRepository
	Verifications repo.VerificationRepository
	Tx            repo.TxManager
	Cache         SessionCache
	Mail          EmailPublisher
	Logger        *logrus.Logger
	Opts          AuthOptions

	now func() time.Time
}

func NewAuthService(
	users repo.UserRepository,
	sessions repo.SessionRepository,
	accounts repo.AccountRepository,
	verifications repo.VerificationRepository,
	tx repo.TxManager,
	cache SessionCache,
	mail EmailPublisher,
	logger *logrus.Logger,
	opts AuthOptions,
) *AuthService {
	return &AuthService{
		Users:         users,
		Sessions:      sessions,
		Accounts:      accounts,
		Verifications: verifications,
		Tx:            tx,
		Cache:         cache,
		Mail:          mail,
		Logger:        logger,
		Opts:          opts,
		now:           time.Now,
	}
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func resetIdentifier(email string) string {
	return resetIdentifierPref + email
}

// SignUp creates the user, its credential account and a first session in one transaction.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, client ClientInfo) (*entity.AuthSession, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var out *entity.AuthSession
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		u := &entity.User{Name: name, Email: email}
		if err := s.Users.Create(ctx, u); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		acc := &entity.Account{
			UserID:     u.ID,
			AccountID:  u.ID,
			ProviderID: entity.CredentialProvider,
			Password:   &hash,
		}
		if err := s.Accounts.Create(ctx, acc); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		sess, err := s.newSession(ctx, u.ID, client)
		if err != nil {
			return err
		}
		out = &entity.AuthSession{Session: *sess, User: *u}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheSession(ctx, out)
	s.Logger.WithField("user_id", out.User.ID).Info("user signed up")

	if err := s.sendVerification(ctx, &out.User); err != nil {
		s.Logger.WithError(err).WithField("user_id", out.User.ID).Warn("sign-up verification email not queued")
	}
	return out, nil
}

// SignIn checks the credential account of email and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string, client ClientInfo) (*entity.AuthSession, error) {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	acc, err := s.Accounts.GetByProvider(ctx, entity.CredentialProvider, u.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acc.Password == nil || !helpers.CompareHashAndPassword(*acc.Password, password) {
		return nil, ErrInvalidCredentials
	}

	sess, err := s.newSession(ctx, u.ID, client)
	if err != nil {
		return nil, err
	}
	out := &entity.AuthSession{Session: *sess, User: *u}
	s.cacheSession(ctx, out)
	return out, nil
}

// SignOut deletes the session behind token. Unknown tokens are not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.Sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	evictTokens(ctx, s.Cache, s.Logger, token)
	return nil
}

// GetSession resolves token to a live session and its user, extending the
// session when it is older than the update age.
func (s *AuthService) GetSession(ctx context.Context, token string) (*entity.AuthSession, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	now := s.now()

	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, token)
		if err != nil {
			s.Logger.WithError(err).Warn("session cache get failed")
		}
		if ok && !cached.Session.Expired(now) && !s.needsRefresh(&cached.Session, now) {
			return cached, nil
		}
	}

	sess, err := s.Sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			evictTokens(ctx, s.Cache, s.Logger, token)
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(now) {
		if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
			s.Logger.WithError(err).WithField("session_id", sess.ID).Warn("delete expired session failed")
		}
		evictTokens(ctx, s.Cache, s.Logger, token)
		return nil, ErrUnauthenticated
	}
	u, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if s.needsRefresh(sess, now) {
		exp := now.Add(s.Opts.SessionTTL)
		if err := s.Sessions.UpdateExpiry(ctx, sess.ID, exp); err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		sess.ExpiresAt = exp
		sess.UpdatedAt = now
	}

	out := &entity.AuthSession{Session: *sess, User: *u}
	s.cacheSession(ctx, out)
	return out, nil
}

// needsRefresh reports whether more than UpdateAge has passed since the
// session's expiry was last set.
func (s *AuthService) needsRefresh(sess *entity.Session, now time.Time) bool {
	if s.Opts.UpdateAge <= 0 || s.Opts.SessionTTL <= 0 {
		return false
	}
	refreshAt := sess.ExpiresAt.Add(-s.Opts.SessionTTL).Add(s.Opts.UpdateAge)
	return !now.Before(refreshAt)
}

// RequestEmailVerification issues a verification link for email. Unknown or
// already verified addresses succeed silently.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, u)
}

func (s *AuthService) sendVerification(ctx context.Context, u *entity.User) error {
	token, exp, err := s.issueVerification(ctx, u.Email, s.Opts.VerificationTTL)
	if err != nil {
		return err
	}
	link := withToken(s.Opts.VerifyEmailURL, token)
	job := mailer.NewVerifyEmailJob(s.Opts.AppName, u.Email, u.Name, link, exp)
	return s.publish(ctx, mailer.JobTypeVerifyEmail, job)
}

// VerifyEmail consumes a verification token and marks its address verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*entity.User, error) {
	v, err := s.consumable(ctx, token)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(v.Identifier, resetIdentifierPref) {
		return nil, ErrInvalidToken
	}
	u, err := s.Users.GetByEmail(ctx, v.Identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claim(ctx, v); err != nil {
			return err
		}
		if err := s.Users.SetEmailVerified(ctx, u.ID, true); err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.EmailVerified = true
	evictUserSessions(ctx, s.Sessions, s.Cache, s.Logger, u.ID)
	s.Logger.WithField("user_id", u.ID).Info("email verified")
	return u, nil
}

// RequestPasswordReset issues a reset link for email. Unknown addresses succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}
	token, exp, err := s.issueVerification(ctx, resetIdentifier(u.Email), s.Opts.ResetTokenTTL)
	if err != nil {
		return err
	}
	link := withToken(s.Opts.ResetPasswordURL, token)
	job := mailer.NewResetPasswordJob(s.Opts.AppName, u.Email, u.Name, link, exp)
	return s.publish(ctx, mailer.JobTypeResetPassword, job)
}

// ResetPassword sets a new password from a reset token and revokes every
// session of the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}
	v, err := s.consumable(ctx, token)
	if err != nil {
		return err
	}
	email, ok := strings.CutPrefix(v.Identifier, resetIdentifierPref)
	if !ok {
		return ErrInvalidToken
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("load user: %w", err)
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var revoked []string
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.claim(ctx, v); err != nil {
			return err
		}
		acc, err := s.Accounts.GetByProvider(ctx, entity.CredentialProvider, u.ID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			acc = &entity.Account{UserID: u.ID, AccountID: u.ID, ProviderID: entity.CredentialProvider, Password: &hash}
			if err := s.Accounts.Create(ctx, acc); err != nil {
				return fmt.Errorf("create account: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load account: %w", err)
		default:
			if err := s.Accounts.UpdatePassword(ctx, acc.ID, hash); err != nil {
				return fmt.Errorf("update password: %w", err)
			}
		}
		revoked, err = s.Sessions.DeleteByUser(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	evictTokens(ctx, s.Cache, s.Logger, revoked...)
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "revoked_sessions": len(revoked)}).Info("password reset")
	return nil
}

// SweepResult counts the rows removed by SweepExpired.
type SweepResult struct {
	Sessions      int64
	Verifications int64
}

// SweepExpired deletes sessions and verifications that expired at or before now.
func (s *AuthService) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	n, err := s.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		return res, fmt.Errorf("sweep sessions: %w", err)
	}
	res.Sessions = n
	n, err = s.Verifications.DeleteExpired(ctx, now)
	if err != nil {
		return res, fmt.Errorf("sweep verifications: %w", err)
	}
	res.Verifications = n
	return res, nil
}

func (s *AuthService) checkPassword(password string) error {
	minLen := s.Opts.MinPasswordLength
	if minLen <= 0 {
		minLen = 8
	}
	if utf8.RuneCountInString(password) < minLen {
		return &apperror.ValidationError{Issues: []apperror.Issue{{
			Path:    []string{"password"},
			Message: fmt.Sprintf("Password must be at least %d characters", minLen),
		}}}
	}
	return nil
}

func (s *AuthService) newSession(ctx context.Context, userID string, client ClientInfo) (*entity.Session, error) {
	token, err := helpers.GenerateToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	sess := &entity.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(s.Opts.SessionTTL),
		IPAddress: optString(client.IPAddress),
		UserAgent: optString(client.UserAgent),
	}
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *AuthService) cacheSession(ctx context.Context, as *entity.AuthSession) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, as); err != nil {
		s.Logger.WithError(err).Warn("session cache set failed")
	}
}

// issueVerification replaces any pending verification of identifier with a new one.
func (s *AuthService) issueVerification(ctx context.Context, identifier string, ttl time.Duration) (string, time.Time, error) {
	token, err := helpers.GenerateToken(tokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.Verifications.DeleteByIdentifier(ctx, identifier); err != nil {
		return "", time.Time{}, fmt.Errorf("clear verifications: %w", err)
	}
	v := &entity.Verification{Identifier: identifier, Value: token, ExpiresAt: s.now().Add(ttl)}
	if err := s.Verifications.Create(ctx, v); err != nil {
		return "", time.Time{}, fmt.Errorf("create verification: %w", err)
	}
	return token, v.ExpiresAt, nil
}

// consumable loads an unexpired verification by value. Expired rows are removed.
func (s *AuthService) consumable(ctx context.Context, token string) (*entity.Verification, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	v, err := s.Verifications.GetByValue(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("load verification: %w", err)
	}
	if v.Expired(s.now()) {
		if err := s.Verifications.Delete(ctx, v.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			s.Logger.WithError(err).Warn("delete expired verification failed")
		}
		return nil, ErrInvalidToken
	}
	return v, nil
}

// claim deletes v inside the caller's transaction. Losing the race to
// another consumer makes the token invalid.
func (s *AuthService) claim(ctx context.Context, v *entity.Verification) error {
	err := s.Verifications.Delete(ctx, v.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, msgType string, job mailer.EmailJob) error {
	if !s.Opts.SendEmail || s.Mail == nil {
		s.Logger.WithFields(logrus.Fields{"type": msgType, "to": job.To}).Info("email sending disabled, job skipped")
		return nil
	}
	if err := s.Mail.PublishJSON(ctx, msgType, job); err != nil {
		s.Logger.WithError(err).WithField("type", msgType).Error("publish email job failed")
		return apperror.Unavailable("Email delivery is temporarily unavailable")
	}
	return nil
}

func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
