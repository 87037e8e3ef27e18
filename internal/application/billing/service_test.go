package billing

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calicode24/calicode/internal/apperror"
	domain "github.com/calicode24/calicode/internal/domain/billing"
	"github.com/calicode24/calicode/internal/domain/identity"
	"github.com/calicode24/calicode/internal/domain/profiles"
	"github.com/calicode24/calicode/internal/domain/tiers"
)

type fakeGateway struct {
	customers []string
	checkouts []domain.CheckoutRequest
	event     domain.Event
	err       error
}

func (g *fakeGateway) CreateCustomer(_ context.Context, email, _ string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.customers = append(g.customers, email)
	return "cus_new", nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.checkouts = append(g.checkouts, req)
	return "https://checkout.example/s/1", nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (domain.Event, error) {
	return g.event, g.err
}

type memProfiles struct{ byID map[string]*profiles.Profile }

func (m *memProfiles) Create(_ context.Context, p *profiles.Profile) error {
	m.byID[p.ID] = p
	return nil
}

func (m *memProfiles) Get(_ context.Context, id string) (*profiles.Profile, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memProfiles) SetStripeCustomer(_ context.Context, id, customerID string) error {
	p, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.StripeCustomerID = &customerID
	return nil
}

func (m *memProfiles) SetTier(_ context.Context, id string, tier tiers.Tier) error {
	p, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.SubscriptionTier = tier
	return nil
}

func (m *memProfiles) SetTierByCustomer(_ context.Context, customerID string, tier tiers.Tier) error {
	for _, p := range m.byID {
		if p.StripeCustomerID != nil && *p.StripeCustomerID == customerID {
			p.SubscriptionTier = tier
			return nil
		}
	}
	return sql.ErrNoRows
}

var user = identity.User{ID: "u-1", Email: "a@b.co"}

func newService(g *fakeGateway, p *profiles.Profile) (*Service, *memProfiles) {
	profs := &memProfiles{byID: map[string]*profiles.Profile{}}
	if p != nil {
		profs.byID[p.ID] = p
	}
	return &Service{Gateway: g, Profiles: profs, PriceID: "price_pro", AppURL: "http://localhost:3000"}, profs
}

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	g := &fakeGateway{}
	svc, profs := newService(g, &profiles.Profile{ID: "u-1", Email: "a@b.co", SubscriptionTier: tiers.Free})
	ctx := context.Background()

	url, err := svc.Checkout(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/s/1", url)
	assert.Equal(t, []string{"a@b.co"}, g.customers)
	assert.Equal(t, "cus_new", *profs.byID["u-1"].StripeCustomerID)

	require.Len(t, g.checkouts, 1)
	req := g.checkouts[0]
	assert.Equal(t, "price_pro", req.PriceID)
	assert.Equal(t, "u-1", req.UserID)
	assert.Equal(t, "http://localhost:3000/upgrade/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "http://localhost:3000/dashboard", req.CancelURL)

	_, err = svc.Checkout(ctx, user)
	require.NoError(t, err)
	assert.Len(t, g.customers, 1, "existing customer is reused")
	assert.Equal(t, "cus_new", g.checkouts[1].CustomerID)
}

func TestCheckoutRejections(t *testing.T) {
	svc, _ := newService(&fakeGateway{}, &profiles.Profile{ID: "u-1", SubscriptionTier: tiers.Pro})

	_, err := svc.Checkout(context.Background(), identity.User{})
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, ae.Code)
	assert.Equal(t, "Not authenticated", ae.Message)

	_, err = svc.Checkout(context.Background(), user)
	ae, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ae.Code)
	assert.Equal(t, "Already on Pro plan", ae.Message)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)
}

func TestCheckoutGatewayFailure(t *testing.T) {
	svc, _ := newService(&fakeGateway{err: errors.New("stripe down")}, nil)
	_, err := svc.Checkout(context.Background(), user)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, ae.Code)
	assert.Equal(t, "Failed to create checkout session", ae.Message)
}

func TestWebhookTierSync(t *testing.T) {
	g := &fakeGateway{}
	svc, profs := newService(g, &profiles.Profile{ID: "u-1", SubscriptionTier: tiers.Free})
	ctx := context.Background()

	g.event = domain.Event{ID: "evt_1", Type: domain.EventCheckoutCompleted, UserID: "u-1", CustomerID: "cus_9"}
	_, err := svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, tiers.Pro, profs.byID["u-1"].SubscriptionTier)
	assert.Equal(t, "cus_9", *profs.byID["u-1"].StripeCustomerID)

	g.event = domain.Event{ID: "evt_2", Type: domain.EventSubscriptionDeleted, CustomerID: "cus_9"}
	_, err = svc.HandleWebhook(ctx, nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, tiers.Free, profs.byID["u-1"].SubscriptionTier)

	g.event = domain.Event{ID: "evt_3", Type: domain.EventSubscriptionDeleted, CustomerID: "cus_unknown"}
	_, err = svc.HandleWebhook(ctx, nil, "sig")
	assert.NoError(t, err)

	g.event = domain.Event{ID: "evt_4", Type: domain.EventIgnored}
	_, err = svc.HandleWebhook(ctx, nil, "sig")
	assert.NoError(t, err)
}

func TestWebhookBadSignature(t *testing.T) {
	svc, _ := newService(&fakeGateway{err: errors.New("signature mismatch")}, nil)
	_, err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ae.Code)
}
