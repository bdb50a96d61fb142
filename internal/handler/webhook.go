// Package handler contains the HTTP handlers of the ReadyHire gateway.
//
// This file implements the Stripe webhook handler.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// The route has no CORS or rate limiting because Stripe calls it directly.
// Authentication is the webhook signature. Subscription state lives on the
// device and is refreshed through verify-subscription, so events are
// verified, counted and logged but not stored.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

const maxWebhookBytes = 64 << 10

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing billing.Service
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billingService,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and records a Stripe event. Unknown event
// types are acknowledged so Stripe stops retrying them.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("invalid_signature").Inc()
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "checkout.session.completed":
		h.checkoutCompleted(event)
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		h.subscriptionChanged(event)
	case "invoice.payment_failed":
		h.logger.Warn("payment failed", "event_id", event.ID, "user_id", billing.UserIDFromEvent(event))
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type, "event_id", event.ID)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) checkoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err, "event_id", event.ID)
		return
	}

	attrs := []any{"session_id", sess.ID, "user_id", billing.UserIDFromEvent(event)}
	if sess.Customer != nil {
		attrs = append(attrs, "customer_id", sess.Customer.ID)
	}
	if sess.Subscription != nil {
		attrs = append(attrs, "subscription_id", sess.Subscription.ID)
	}
	h.logger.Info("checkout completed", attrs...)
}

func (h *WebhookHandler) subscriptionChanged(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err, "event_id", event.ID)
		return
	}

	var priceID string
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	h.logger.Info("subscription changed",
		"type", event.Type,
		"subscription_id", sub.ID,
		"status", sub.Status,
		"tier", h.billing.TierForPriceID(priceID),
		"user_id", billing.UserIDFromEvent(event),
	)
}
