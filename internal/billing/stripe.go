// Package billing provides Stripe billing integration for subscription management.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

// Status values reported when there is no paid subscription.
const (
	StatusNoCustomer     = "no_customer"
	StatusNoSubscription = "no_subscription"
)

// userIDKey is the metadata key that links Stripe objects to the app user.
const userIDKey = "readyhireUserId"

// ErrNotConfigured is returned when no Stripe secret key is set.
var ErrNotConfigured = errors.New("stripe not configured")

// Verifier reports a user's current subscription.
type Verifier interface {
	VerifySubscription(ctx context.Context, email string) (*domain.SubscriptionStatus, error)
}

// Service defines the interface for billing operations.
type Service interface {
	Verifier

	// CreateCheckoutSession creates a Stripe Checkout session for subscribing,
	// reusing the customer with the given email when one exists.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// TierForPriceID returns the subscription tier for a given Stripe price ID.
	TierForPriceID(priceID string) domain.TierID
}

// PriceConfig holds the Stripe price IDs for each plan.
type PriceConfig struct {
	StandardMonthlyPriceID string
	StandardAnnualPriceID  string
	ProMonthlyPriceID      string
	ProAnnualPriceID       string
}

// CheckoutParams describes a checkout request.
type CheckoutParams struct {
	PriceID    string
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the created session and where to send the user.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	defaultURL    string
	priceToTier   map[string]domain.TierID
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey is used to authenticate Stripe API calls.
// The webhookSecret is used to verify incoming webhook signatures.
// defaultURL is where checkout returns when the caller gives no URLs.
func NewStripeService(secretKey, webhookSecret, defaultURL string, prices PriceConfig) Service {
	stripe.Key = secretKey

	return &stripeService{
		webhookSecret: webhookSecret,
		defaultURL:    defaultURL,
		priceToTier:   priceMap(prices),
	}
}

func priceMap(prices PriceConfig) map[string]domain.TierID {
	m := make(map[string]domain.TierID)
	if prices.StandardMonthlyPriceID != "" {
		m[prices.StandardMonthlyPriceID] = domain.TierStandard
	}
	if prices.StandardAnnualPriceID != "" {
		m[prices.StandardAnnualPriceID] = domain.TierStandard
	}
	if prices.ProMonthlyPriceID != "" {
		m[prices.ProMonthlyPriceID] = domain.TierPro
	}
	if prices.ProAnnualPriceID != "" {
		m[prices.ProAnnualPriceID] = domain.TierPro
	}
	return m
}

// VerifySubscription looks up the customer by email and maps their active
// subscription to a tier. No customer or no active subscription is free.
func (s *stripeService) VerifySubscription(ctx context.Context, email string) (*domain.SubscriptionStatus, error) {
	if stripe.Key == "" {
		return nil, ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.Invalid("billing.VerifySubscription", "Missing userEmail")
	}

	cust, err := s.findCustomer(ctx, email)
	if err != nil {
		s.observe(domain.TierFree, "error")
		return nil, err
	}
	if cust == nil {
		s.observe(domain.TierFree, StatusNoCustomer)
		return &domain.SubscriptionStatus{Tier: domain.TierFree, Status: StatusNoCustomer}, nil
	}

	active, err := firstSubscription(ctx, cust.ID, string(stripe.SubscriptionStatusActive))
	if err != nil {
		s.observe(domain.TierFree, "error")
		return nil, err
	}
	if active != nil {
		status := s.statusFor(active)
		s.observe(status.Tier, status.Status)
		return status, nil
	}

	// No active subscription: report the latest one, e.g. past_due.
	latest, err := firstSubscription(ctx, cust.ID, "")
	if err != nil {
		s.observe(domain.TierFree, "error")
		return nil, err
	}
	if latest == nil {
		s.observe(domain.TierFree, StatusNoSubscription)
		return &domain.SubscriptionStatus{Tier: domain.TierFree, Status: StatusNoSubscription}, nil
	}
	status := &domain.SubscriptionStatus{
		Tier:     domain.TierFree,
		Status:   string(latest.Status),
		CancelAt: unixTime(latest.CancelAt),
	}
	s.observe(status.Tier, status.Status)
	return status, nil
}

// statusFor maps an active subscription to its tier.
func (s *stripeService) statusFor(sub *stripe.Subscription) *domain.SubscriptionStatus {
	var priceID string
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	return &domain.SubscriptionStatus{
		Tier:              s.TierForPriceID(priceID),
		Status:            string(sub.Status),
		CurrentPeriodEnd:  unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		PriceID:           priceID,
	}
}

func (s *stripeService) observe(tier domain.TierID, status string) {
	metrics.SubscriptionVerificationsTotal.WithLabelValues(string(tier), status).Inc()
}

func (s *stripeService) findCustomer(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := customer.List(params)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list customers: %w", err)
	}
	return nil, nil
}

func firstSubscription(ctx context.Context, customerID, status string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	if status != "" {
		params.Status = stripe.String(status)
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := subscription.List(params)
	for iter.Next() {
		return iter.Subscription(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list subscriptions: %w", err)
	}
	return nil, nil
}

func (s *stripeService) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if stripe.Key == "" {
		return nil, ErrNotConfigured
	}
	if p.PriceID == "" || p.UserID == "" {
		return nil, domain.Invalid("billing.CreateCheckoutSession", "Missing priceId or userId")
	}

	customerID, err := s.customerFor(ctx, p.Email, p.UserID)
	if err != nil {
		return nil, err
	}

	successURL, cancelURL := p.SuccessURL, p.CancelURL
	if successURL == "" {
		successURL = s.defaultURL + "/"
	}
	if cancelURL == "" {
		cancelURL = s.defaultURL + "/"
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(successURL),
		CancelURL:           stripe.String(cancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{userIDKey: p.UserID},
		},
	}
	params.Context = ctx
	params.AddMetadata(userIDKey, p.UserID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// customerFor returns the existing customer for email or creates one.
func (s *stripeService) customerFor(ctx context.Context, email, userID string) (string, error) {
	if email != "" {
		existing, err := s.findCustomer(ctx, email)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return existing.ID, nil
		}
	}

	params := &stripe.CustomerParams{}
	if email != "" {
		params.Email = stripe.String(email)
	}
	params.Context = ctx
	params.AddMetadata(userIDKey, userID)

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

// TierForPriceID maps a price to its tier. Unknown prices on an active
// subscription are treated as standard.
func (s *stripeService) TierForPriceID(priceID string) domain.TierID {
	if tier, ok := s.priceToTier[priceID]; ok {
		return tier
	}
	return domain.TierStandard
}

// UserIDFromEvent returns the app user id stored in the event object's metadata.
func UserIDFromEvent(event stripe.Event) string {
	if event.Data == nil || event.Data.Object == nil {
		return ""
	}
	md, ok := event.Data.Object["metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := md[userIDKey].(string)
	return id
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
