package billing

import (
	"context"
	"errors"
)

// ErrAlreadySubscribed is returned when a paid profile asks for checkout again.
var ErrAlreadySubscribed = errors.New("already on a paid plan")

// CheckoutRequest describes a hosted subscription checkout
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	UserID     string
	SuccessURL string
	CancelURL  string
}

// EventType of a billing webhook we act on
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
	EventIgnored             EventType = "ignored"
)

// Event is a verified billing webhook, reduced to what tier sync needs
type Event struct {
	ID         string
	Type       EventType
	UserID     string
	CustomerID string
}

// Gateway is the hosted billing provider
type Gateway interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}
