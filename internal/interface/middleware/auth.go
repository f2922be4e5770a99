package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/pkg/apperror"
	"github.com/piousdev/roel-agency/pkg/helpers"
)

// Context keys set by SessionAuth.
const (
	UserIDKey    = "userID"
	SessionIDKey = "sessionID"
	UserEmailKey = "userEmail"
	UserNameKey  = "userName"
)

var errMissingSession = apperror.Unauthorized("Authentication required")

// SessionResolver looks a session token up in the session store.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*entity.AuthSession, error)
}

// SessionToken reads the session token from the session cookie or a Bearer header.
func SessionToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.SessionTokenCookie); err == nil && tok != "" {
		return tok
	}
	if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// SessionAuth requires a valid session. A valid signed session_data cookie
// short-circuits the lookup; otherwise the resolver is asked (Redis, then
// Postgres) and a fresh session_data cookie is issued.
func SessionAuth(resolver SessionResolver, signer *helpers.SessionSigner, cookies *helpers.Manager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			_ = c.Error(errMissingSession)
			c.Abort()
			return
		}

		if data, err := c.Cookie(helpers.SessionDataCookie); err == nil && data != "" && signer != nil {
			if claims, err := signer.Parse(data); err == nil {
				setIdentity(c, claims.UserID, claims.SessionID, claims.Email, claims.Name)
				c.Next()
				return
			}
		}

		as, err := resolver.GetSession(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		if signer != nil && cookies != nil {
			data, exp, err := signer.Sign(helpers.SessionClaims{
				SessionID:        as.Session.ID,
				UserID:           as.User.ID,
				Email:            as.User.Email,
				Name:             as.User.Name,
				SessionExpiresAt: as.Session.ExpiresAt.Unix(),
			}, time.Now())
			if err != nil {
				logger.WithError(err).Warn("sign session cookie failed")
			} else {
				cookies.SetSessionData(c, data, exp)
			}
		}

		setIdentity(c, as.User.ID, as.Session.ID, as.User.Email, as.User.Name)
		c.Next()
	}
}

func setIdentity(c *gin.Context, userID, sessionID, email, name string) {
	c.Set(UserIDKey, userID)
	c.Set(SessionIDKey, sessionID)
	c.Set(UserEmailKey, email)
	c.Set(UserNameKey, name)
}
