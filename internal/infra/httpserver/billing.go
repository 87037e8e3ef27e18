package httpserver

import (
	"io"
	"net/http"

	"github.com/calicode24/calicode/internal/apperror"
	"github.com/calicode24/calicode/internal/middleware"
)

// webhookMaxBody caps webhook payloads
const webhookMaxBody = 64 << 10

// POST /api/stripe/checkout
func (r *Router) handleCheckout(w http.ResponseWriter, req *http.Request) error {
	user, _ := middleware.UserFrom(req.Context())
	url, err := r.Billing.Checkout(req.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"url": url})
}

// POST /api/stripe/webhook
func (r *Router) handleWebhook(w http.ResponseWriter, req *http.Request) error {
	payload, err := io.ReadAll(http.MaxBytesReader(w, req.Body, webhookMaxBody))
	if err != nil {
		return apperror.BadRequest("Invalid webhook payload").Wrap(err)
	}
	ev, err := r.Billing.HandleWebhook(req.Context(), payload, req.Header.Get("Stripe-Signature"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"received": true, "type": ev.Type})
}
