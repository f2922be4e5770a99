package entity

import "time"

// Session is one authenticated sign-in of a user, addressed by its opaque Token.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	IPAddress *string
	UserAgent *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AuthSession is a session together with its owner, as returned by session lookups.
type AuthSession struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}
