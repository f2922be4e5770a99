package entity

import "time"

// CredentialProvider is the provider id of email/password accounts.
const CredentialProvider = "credential"

// Account links a user to a sign-in method. For credential accounts Password
// holds the hash produced by the auth service; the storage layer treats it as opaque.
type Account struct {
	ID                    string
	UserID                string
	AccountID             string
	ProviderID            string
	AccessToken           *string
	RefreshToken          *string
	AccessTokenExpiresAt  *time.Time
	RefreshTokenExpiresAt *time.Time
	Scope                 *string
	Password              *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
