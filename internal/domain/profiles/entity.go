package profiles

import (
	"time"

	"github.com/calicode24/calicode/internal/domain/tiers"
)

// Profile holds the billing state of one identity
type Profile struct {
	ID               string     `json:"id" db:"id"`
	Email            string     `json:"email" db:"email"`
	FullName         *string    `json:"full_name" db:"full_name"`
	Company          *string    `json:"company" db:"company"`
	SubscriptionTier tiers.Tier `json:"subscription_tier" db:"subscription_tier"`
	StripeCustomerID *string    `json:"stripe_customer_id" db:"stripe_customer_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Tier returns the profile tier, defaulting to free
func (p *Profile) Tier() tiers.Tier {
	if p == nil {
		return tiers.Free
	}
	return tiers.Parse(string(p.SubscriptionTier))
}
