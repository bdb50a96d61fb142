// Package domain contains core business types and interfaces.
//
// This file defines the device-local subscription state and the calendar month
// used for monthly usage rollover.
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MonthKey is a calendar month. All month keys are computed in UTC so the
// rollover boundary does not depend on the device timezone.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) MonthKey {
	u := t.UTC()
	return MonthKey{Year: u.Year(), Month: u.Month()}
}

// ParseMonthKey parses the "YYYY-MM" form.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("parse month key %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

// IsZero reports whether the key is unset.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Equal compares two month keys.
func (m MonthKey) Equal(other MonthKey) bool {
	return m.Year == other.Year && m.Month == other.Month
}

// Before reports whether m is an earlier month than other. The zero key is
// before every real month.
func (m MonthKey) Before(other MonthKey) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Start returns the first instant of the month in UTC.
func (m MonthKey) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (m MonthKey) Next() MonthKey {
	return MonthOf(m.Start().AddDate(0, 1, 0))
}

// String renders "YYYY-MM", or "" when unset.
func (m MonthKey) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalJSON encodes the key as "YYYY-MM".
func (m MonthKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts "YYYY-MM" or an empty string. Anything else,
// including a value that is not a string, decodes to the zero key, which
// forces a rollover on the next check.
func (m *MonthKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		*m = MonthKey{}
		return nil
	}
	parsed, err := ParseMonthKey(s)
	if err != nil {
		*m = MonthKey{}
		return nil
	}
	*m = parsed
	return nil
}

// Subscription is the cached tier and monthly usage for the device user.
type Subscription struct {
	Tier           TierID   `json:"tier"`
	UsageThisMonth Usage    `json:"usageThisMonth"`
	MonthKey       MonthKey `json:"monthKey"`
}

// DefaultSubscription is the state of a user with no stored subscription.
func DefaultSubscription() Subscription {
	return Subscription{Tier: TierFree}
}

// SubscriptionStatus is the billing collaborator's view of a user's subscription.
type SubscriptionStatus struct {
	Tier              TierID     `json:"tier"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	CancelAt          *time.Time `json:"cancelAt,omitempty"`
	PriceID           string     `json:"priceId,omitempty"`
}
