package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/calicode24/calicode/internal/domain/billing"
)

const secret = "whsec_test"

func signed(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestParseCheckoutCompleted(t *testing.T) {
	g := NewGateway("", secret, nil)
	payload, header := signed(t, `{
		"id": "evt_1", "object": "event", "type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "customer": "cus_9",
			"metadata": {"supabase_user_id": "user-1"}}}
	}`)

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, billing.Event{ID: "evt_1", Type: billing.EventCheckoutCompleted, UserID: "user-1", CustomerID: "cus_9"}, ev)
}

func TestParseSubscriptionDeleted(t *testing.T) {
	g := NewGateway("", secret, nil)
	payload, header := signed(t, `{
		"id": "evt_2", "object": "event", "type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_1", "object": "subscription", "customer": "cus_9"}}
	}`)

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventSubscriptionDeleted, ev.Type)
	assert.Equal(t, "cus_9", ev.CustomerID)
}

func TestParseOtherEventsIgnored(t *testing.T) {
	g := NewGateway("", secret, nil)
	payload, header := signed(t, `{"id": "evt_3", "object": "event", "type": "invoice.paid", "data": {"object": {}}}`)

	ev, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, billing.EventIgnored, ev.Type)
}

func TestParseRejectsBadSignature(t *testing.T) {
	g := NewGateway("", secret, nil)
	payload, _ := signed(t, `{"id": "evt_4", "object": "event", "type": "invoice.paid"}`)

	_, err := g.ParseWebhook(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestParseWithoutWebhookSecretRejects(t *testing.T) {
	forged := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(`{"id": "evt_forged", "object": "event", "type": "checkout.session.completed",
			"data": {"object": {"id": "cs_1", "object": "checkout.session", "metadata": {"supabase_user_id": "attacker"}}}}`),
		Secret:    "",
		Timestamp: time.Now(),
	})

	ev, err := NewGateway("", "", nil).ParseWebhook(forged.Payload, forged.Header)
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	assert.Empty(t, ev.UserID)
}

func TestCheckoutSessionRequest(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_1"}`))
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{URL: stripe.String(srv.URL)})
	g := NewGateway("sk_test_123", secret, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	url, err := g.CreateCheckoutSession(context.Background(), billing.CheckoutRequest{
		CustomerID: "cus_9",
		PriceID:    "price_pro",
		UserID:     "user-1",
		SuccessURL: "http://localhost:3000/upgrade/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:3000/dashboard",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", url)
	assert.Equal(t, []string{"subscription"}, form["mode"])
	assert.Equal(t, []string{"price_pro"}, form["line_items[0][price]"])
	assert.Equal(t, []string{"user-1"}, form["metadata[supabase_user_id]"])
	assert.Equal(t, []string{"cus_9"}, form["customer"])
}

func TestUnconfigured(t *testing.T) {
	_, err := NewGateway("", secret, nil).CreateCustomer(context.Background(), "a@b.co", "u")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
