package entity

import "time"

// Verification is a one-time value bound to an identifier (an email address,
// or a prefixed form of it for password resets). It is not tied to a user row.
type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (v *Verification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
