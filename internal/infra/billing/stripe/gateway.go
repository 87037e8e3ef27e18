// Package stripe adapts the hosted billing API to billing.Gateway.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/calicode24/calicode/internal/domain/billing"
)

// MetadataUserID links billing objects back to the identity
const MetadataUserID = "supabase_user_id"

var (
	ErrNotConfigured        = errors.New("stripe secret key not set")
	ErrWebhookNotConfigured = errors.New("stripe webhook secret not set")
)

type Gateway struct {
	api           *client.API
	webhookSecret string
}

// NewGateway builds a client; backends may be nil for the live API.
func NewGateway(secretKey, webhookSecret string, backends *stripe.Backends) *Gateway {
	g := &Gateway{webhookSecret: webhookSecret}
	if secretKey != "" {
		g.api = client.New(secretKey, backends)
	}
	return g
}

func (g *Gateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, userID)

	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return c.ID, nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, req.UserID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// ParseWebhook verifies the signature header and reduces the event.
// Without a webhook secret every event is rejected.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (billing.Event, error) {
	if g.webhookSecret == "" {
		return billing.Event{}, ErrWebhookNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return billing.Event{}, fmt.Errorf("verify webhook: %w", err)
	}

	out := billing.Event{ID: ev.ID, Type: billing.EventIgnored}
	switch billing.EventType(ev.Type) {
	case billing.EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return billing.Event{}, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Type = billing.EventCheckoutCompleted
		out.UserID = cs.Metadata[MetadataUserID]
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}
	case billing.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return billing.Event{}, fmt.Errorf("decode subscription: %w", err)
		}
		out.Type = billing.EventSubscriptionDeleted
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		out.UserID = sub.Metadata[MetadataUserID]
	}
	return out, nil
}
