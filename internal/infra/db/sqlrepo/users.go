package sqlrepo

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/domain/identity"
)

// CredentialRepository stores local logins
type CredentialRepository struct{ db *sqlx.DB }

func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

const credentialColumns = `id, email, password_hash, full_name, confirmed_at, created_at`

func (r *CredentialRepository) Create(ctx context.Context, c *identity.Credential) error {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.CreatedAt = utc(c.CreatedAt)

	q := r.db.Rebind(`INSERT INTO users (` + credentialColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, c.ID, c.Email, c.PasswordHash, c.FullName, c.ConfirmedAt, c.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return identity.ErrEmailTaken
	}
	return err
}

func (r *CredentialRepository) ByEmail(ctx context.Context, email string) (*identity.Credential, error) {
	var c identity.Credential
	q := r.db.Rebind(`SELECT ` + credentialColumns + ` FROM users WHERE email = ?`)
	if err := r.db.GetContext(ctx, &c, q, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) ByID(ctx context.Context, id string) (*identity.Credential, error) {
	var c identity.Credential
	q := r.db.Rebind(`SELECT ` + credentialColumns + ` FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	q := r.db.Rebind(`UPDATE users SET confirmed_at = ? WHERE id = ? AND confirmed_at IS NULL`)
	_, err := r.db.ExecContext(ctx, q, at.UTC(), id)
	return err
}
