package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionSigner signs the short-lived session_data cookie that lets requests
// skip the session store for MaxAge after a lookup.
type SessionSigner struct {
	Secret []byte
	MaxAge time.Duration
}

func NewSessionSigner(secret string, maxAge time.Duration) *SessionSigner {
	return &SessionSigner{Secret: []byte(secret), MaxAge: maxAge}
}

// SessionClaims is the cached view of a session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	// SessionExpiresAt is the expiry of the underlying session row.
	SessionExpiresAt int64 `json:"sexp"`
	jwt.RegisteredClaims
}

// Sign returns the token and its expiry, which never exceeds the session's own expiry.
func (s *SessionSigner) Sign(claims SessionClaims, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.MaxAge)
	if sessExp := time.Unix(claims.SessionExpiresAt, 0); claims.SessionExpiresAt > 0 && sessExp.Before(exp) {
		exp = sessExp
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := t.SignedString(s.Secret)
	return signed, exp, err
}

func (s *SessionSigner) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
