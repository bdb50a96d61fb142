package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/DukeRupert/readyhire/internal/domain"
)

var prices = PriceConfig{
	StandardMonthlyPriceID: "price_std_m",
	StandardAnnualPriceID:  "price_std_a",
	ProMonthlyPriceID:      "price_pro_m",
	ProAnnualPriceID:       "price_pro_a",
}

func newService() *stripeService {
	return &stripeService{webhookSecret: "whsec_test", defaultURL: "https://readyhire.test", priceToTier: priceMap(prices)}
}

func TestTierForPriceID(t *testing.T) {
	s := newService()
	tests := []struct {
		price string
		want  domain.TierID
	}{
		{"price_std_m", domain.TierStandard},
		{"price_std_a", domain.TierStandard},
		{"price_pro_m", domain.TierPro},
		{"price_pro_a", domain.TierPro},
		{"price_legacy", domain.TierStandard},
		{"", domain.TierStandard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.TierForPriceID(tt.price), "price %q", tt.price)
	}
}

func TestPriceMap_SkipsUnsetPrices(t *testing.T) {
	m := priceMap(PriceConfig{ProMonthlyPriceID: "price_pro_m"})
	assert.Equal(t, map[string]domain.TierID{"price_pro_m": domain.TierPro}, m)
}

func TestStatusFor(t *testing.T) {
	s := newService()
	end := time.Date(2026, time.November, 16, 0, 0, 0, 0, time.UTC)
	sub := &stripe.Subscription{
		Status:            stripe.SubscriptionStatusActive,
		CurrentPeriodEnd:  end.Unix(),
		CancelAtPeriodEnd: true,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: "price_pro_a"}}},
		},
	}

	got := s.statusFor(sub)
	assert.Equal(t, domain.TierPro, got.Tier)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, "price_pro_a", got.PriceID)
	assert.True(t, got.CancelAtPeriodEnd)
	require.NotNil(t, got.CurrentPeriodEnd)
	assert.True(t, end.Equal(*got.CurrentPeriodEnd))
}

func TestStatusFor_NoItems(t *testing.T) {
	got := newService().statusFor(&stripe.Subscription{Status: stripe.SubscriptionStatusActive})
	assert.Equal(t, domain.TierStandard, got.Tier)
	assert.Nil(t, got.CurrentPeriodEnd)
}

func TestVerifySubscription_NotConfigured(t *testing.T) {
	prev := stripe.Key
	stripe.Key = ""
	t.Cleanup(func() { stripe.Key = prev })

	_, err := newService().VerifySubscription(context.Background(), "a@b.test")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifyWebhookSignature(t *testing.T) {
	s := newService()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": "customer.subscription.updated",
		"api_version": %q,
		"data": {"object": {"id": "sub_1", "status": "active", "metadata": {"readyhireUserId": "user-42"}}}
	}`, stripe.APIVersion))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := s.VerifyWebhookSignature(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, stripe.EventType("customer.subscription.updated"), event.Type)
	assert.Equal(t, "user-42", UserIDFromEvent(event))

	_, err = s.VerifyWebhookSignature(payload, "t=1,v1=deadbeef")
	assert.Error(t, err)
}

func TestUserIDFromEvent_Missing(t *testing.T) {
	assert.Empty(t, UserIDFromEvent(stripe.Event{}))
	assert.Empty(t, UserIDFromEvent(stripe.Event{Data: &stripe.EventData{Object: map[string]interface{}{"id": "x"}}}))
}
