package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/DukeRupert/readyhire/internal/billing"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

const testWebhookSecret = "whsec_test"

func subscriptionEvent() []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": "customer.subscription.updated",
		"api_version": %q,
		"data": {"object": {
			"id": "sub_1",
			"object": "subscription",
			"status": "active",
			"metadata": {"readyhireUserId": "user-42"},
			"items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_pro_m", "object": "price"}}]}
		}}
	}`, stripe.APIVersion))
}

func webhookServer(b billing.Service) http.Handler {
	mux := http.NewServeMux()
	NewWebhookHandler(b, discardLogger()).RegisterRoutes(mux)
	return mux
}

func TestStripeWebhook_Verified(t *testing.T) {
	svc := billing.NewStripeService("sk_test_unused", testWebhookSecret, "https://readyhire.test", billing.PriceConfig{ProMonthlyPriceID: "price_pro_m"})
	payload := subscriptionEvent()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})

	counter := metrics.WebhookEventsTotal.WithLabelValues("customer.subscription.updated")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	rec := httptest.NewRecorder()
	webhookServer(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	svc := billing.NewStripeService("sk_test_unused", testWebhookSecret, "", billing.PriceConfig{})

	counter := metrics.WebhookEventsTotal.WithLabelValues("invalid_signature")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(subscriptionEvent()))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	webhookServer(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestStripeWebhook_NotConfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	webhookServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte("{}"))))
	assert.Equal(t, http.StatusOK, rec.Code)
}
