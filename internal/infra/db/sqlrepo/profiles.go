package sqlrepo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/calicode24/calicode/internal/domain/profiles"
	"github.com/calicode24/calicode/internal/domain/tiers"
)

type ProfileRepository struct{ db *sqlx.DB }

func NewProfileRepository(db *sqlx.DB) *ProfileRepository { return &ProfileRepository{db: db} }

const profileColumns = `id, email, full_name, company, subscription_tier, stripe_customer_id, created_at, updated_at`

func (r *ProfileRepository) Create(ctx context.Context, p *profiles.Profile) error {
	if p.SubscriptionTier == "" {
		p.SubscriptionTier = tiers.Free
	}
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt

	q := insertIgnore(r.db, `INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		p.ID, p.Email, p.FullName, p.Company, p.SubscriptionTier, p.StripeCustomerID, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*profiles.Profile, error) {
	var p profiles.Profile
	q := r.db.Rebind(`SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`)
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) SetStripeCustomer(ctx context.Context, id, customerID string) error {
	q := r.db.Rebind(`UPDATE profiles SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, customerID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *ProfileRepository) SetTier(ctx context.Context, id string, tier tiers.Tier) error {
	q := r.db.Rebind(`UPDATE profiles SET subscription_tier = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, tier, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *ProfileRepository) SetTierByCustomer(ctx context.Context, customerID string, tier tiers.Tier) error {
	q := r.db.Rebind(`UPDATE profiles SET subscription_tier = ?, updated_at = ? WHERE stripe_customer_id = ?`)
	res, err := r.db.ExecContext(ctx, q, tier, time.Now().UTC(), customerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
