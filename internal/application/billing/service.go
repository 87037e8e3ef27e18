// Package billing upgrades profiles through hosted checkout and keeps the tier
// in sync with subscription webhooks.
package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/calicode24/calicode/internal/apperror"
	domain "github.com/calicode24/calicode/internal/domain/billing"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/domain/profiles"
	"github.com/calicode24/calicode/internal/domain/tiers"
	"github.com/calicode24/calicode/internal/logger"
)

const (
	SuccessPath = "/upgrade/success?session_id={CHECKOUT_SESSION_ID}"
	CancelPath  = "/dashboard"
)

type Service struct {
	Gateway  domain.Gateway
	Profiles profiles.Repository
	PriceID  string
	AppURL   string
	Log      logger.Interface
}

// Checkout returns the hosted checkout URL for upgrading u to Pro. The
// customer is created on first use and remembered on the profile.
func (s *Service) Checkout(ctx context.Context, u identity.User) (string, error) {
	if u.ID == "" {
		return "", apperror.Unauthorized("Not authenticated")
	}
	log := s.logger().With("user_id", u.ID)

	profile, err := s.Profiles.Get(ctx, u.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error("load profile failed", "error", err)
		return "", checkoutFailed(err)
	}
	if tiers.IsPaid(profile.Tier()) {
		return "", apperror.BadRequest("Already on Pro plan").Wrap(domain.ErrAlreadySubscribed)
	}

	customerID := ""
	if profile != nil && profile.StripeCustomerID != nil {
		customerID = *profile.StripeCustomerID
	}
	if customerID == "" {
		email := u.Email
		if profile != nil && profile.Email != "" {
			email = profile.Email
		}
		customerID, err = s.Gateway.CreateCustomer(ctx, email, u.ID)
		if err != nil {
			log.Error("create customer failed", "error", err)
			return "", checkoutFailed(err)
		}
		if err := s.Profiles.SetStripeCustomer(ctx, u.ID, customerID); err != nil {
			log.Warn("store customer id failed", "customer_id", customerID, "error", err)
		}
	}

	url, err := s.Gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		CustomerID: customerID,
		PriceID:    s.PriceID,
		UserID:     u.ID,
		SuccessURL: s.AppURL + SuccessPath,
		CancelURL:  s.AppURL + CancelPath,
	})
	if err != nil {
		log.Error("create checkout session failed", "customer_id", customerID, "error", err)
		return "", checkoutFailed(err)
	}
	log.Info("checkout session created", "customer_id", customerID)
	return url, nil
}

func checkoutFailed(err error) error {
	return apperror.Internal("Failed to create checkout session").Wrap(err)
}

// HandleWebhook verifies a billing event and applies it to the matching profile.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (domain.Event, error) {
	ev, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger().Warn("webhook rejected", "error", err)
		return ev, apperror.BadRequest("Invalid webhook signature").Wrap(err)
	}
	log := s.logger().With("event_id", ev.ID, "event_type", ev.Type)

	switch ev.Type {
	case domain.EventCheckoutCompleted:
		if ev.UserID == "" {
			log.Warn("checkout without user metadata")
			return ev, nil
		}
		err := s.Profiles.SetTier(ctx, ev.UserID, tiers.Pro)
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("no profile for user", "user_id", ev.UserID)
			return ev, nil
		}
		if err != nil {
			return ev, fmt.Errorf("upgrade %s: %w", ev.UserID, err)
		}
		if ev.CustomerID != "" {
			if err := s.Profiles.SetStripeCustomer(ctx, ev.UserID, ev.CustomerID); err != nil {
				log.Warn("store customer id failed", "error", err)
			}
		}
		log.Info("profile upgraded", "user_id", ev.UserID)
	case domain.EventSubscriptionDeleted:
		if ev.CustomerID == "" {
			return ev, nil
		}
		err := s.Profiles.SetTierByCustomer(ctx, ev.CustomerID, tiers.Free)
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("no profile for customer", "customer_id", ev.CustomerID)
			return ev, nil
		}
		if err != nil {
			return ev, fmt.Errorf("downgrade %s: %w", ev.CustomerID, err)
		}
		log.Info("profile downgraded", "customer_id", ev.CustomerID)
	default:
		log.Debug("webhook ignored")
	}
	return ev, nil
}

func (s *Service) logger() logger.Interface {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}
