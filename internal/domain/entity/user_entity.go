package entity

import (
	"time"
)

// User is the aggregate root for the identity domain.
// Credentials live on Account rows, never on the user itself.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
