package profiles

import (
	"context"

	"github.com/calicode24/calicode/internal/domain/tiers"
)

// Repository port for profiles
type Repository interface {
	// Create inserts p unless a profile with the same id exists.
	Create(ctx context.Context, p *Profile) error
	// Get returns sql.ErrNoRows when the profile does not exist.
	Get(ctx context.Context, id string) (*Profile, error)
	SetStripeCustomer(ctx context.Context, id, customerID string) error
	SetTier(ctx context.Context, id string, tier tiers.Tier) error
	SetTierByCustomer(ctx context.Context, customerID string, tier tiers.Tier) error
}
