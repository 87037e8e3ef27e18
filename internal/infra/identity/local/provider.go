// Package local is the self-hosted identity provider: bcrypt credentials in
// the application database and HS256 session tokens.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/infra/identity/session"
)

// verifyTTL matches the expiry promised in the verification email
const verifyTTL = 24 * time.Hour

type Provider struct {
	store    identity.CredentialStore
	sessions *session.Service
	cost     int
	now      func() time.Time
}

func NewProvider(store identity.CredentialStore, sessions *session.Service, cost int) *Provider {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Provider{store: store, sessions: sessions, cost: cost, now: func() time.Time { return time.Now().UTC() }}
}

// CreateUser stores a pre-confirmed credential
func (p *Provider) CreateUser(ctx context.Context, req identity.SignupRequest) (identity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return identity.User{}, &identity.RejectedError{Message: "Password is too long."}
		}
		return identity.User{}, fmt.Errorf("failed to generate password hash: %w", err)
	}

	now := p.now()
	c := &identity.Credential{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		ConfirmedAt:  &now,
		CreatedAt:    now,
	}
	if req.FullName != "" {
		name := req.FullName
		c.FullName = &name
	}
	if err := p.store.Create(ctx, c); err != nil {
		return identity.User{}, err
	}
	return userOf(c), nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	c, err := p.store.ByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	if err != nil {
		return identity.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	return p.sessions.Issue(userOf(c))
}

// ExchangeCode is unsupported; the local provider has no OAuth redirect flow.
func (p *Provider) ExchangeCode(context.Context, string, string) (identity.Session, error) {
	return identity.Session{}, identity.ErrInvalidLink
}

func (p *Provider) VerifyTokenHash(ctx context.Context, tokenHash, kind string) (identity.Session, error) {
	if kind != identity.KindSignup && kind != "email" {
		return identity.Session{}, identity.ErrInvalidLink
	}
	u, err := p.sessions.VerifyPurpose(tokenHash, session.PurposeVerify)
	if err != nil {
		return identity.Session{}, identity.ErrInvalidLink
	}
	c, err := p.store.ByID(ctx, u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Session{}, identity.ErrInvalidLink
	}
	if err != nil {
		return identity.Session{}, err
	}
	if err := p.store.Confirm(ctx, c.ID, p.now()); err != nil {
		return identity.Session{}, err
	}
	return p.sessions.Issue(userOf(c))
}

func (p *Provider) VerificationLink(ctx context.Context, email, redirectTo string) (string, error) {
	c, err := p.store.ByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", email, err)
	}
	token, err := p.sessions.IssuePurpose(userOf(c), session.PurposeVerify, verifyTTL)
	if err != nil {
		return "", err
	}
	return identity.CallbackLink(redirectTo, token, identity.KindSignup), nil
}

func userOf(c *identity.Credential) identity.User {
	u := identity.User{ID: c.ID, Email: c.Email}
	if c.FullName != nil {
		u.FullName = *c.FullName
	}
	return u
}
