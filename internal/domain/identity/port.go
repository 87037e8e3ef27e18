package identity

import (
	"context"
	"time"
)

// Provider is the identity backend (hosted auth or the local store).
type Provider interface {
	CreateUser(ctx context.Context, req SignupRequest) (User, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	ExchangeCode(ctx context.Context, code, verifier string) (Session, error)
	VerifyTokenHash(ctx context.Context, tokenHash, kind string) (Session, error)
	// VerificationLink returns a link that confirms email and signs the user in.
	VerificationLink(ctx context.Context, email, redirectTo string) (string, error)
}

// Verifier resolves a session access token to its user
type Verifier interface {
	Verify(token string) (User, error)
}

// CredentialStore persists local logins
type CredentialStore interface {
	// Create returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, c *Credential) error
	// ByEmail and ByID return sql.ErrNoRows when nothing matches.
	ByEmail(ctx context.Context, email string) (*Credential, error)
	ByID(ctx context.Context, id string) (*Credential, error)
	Confirm(ctx context.Context, id string, at time.Time) error
}
