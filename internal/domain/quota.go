// Package domain contains core business types and interfaces.
//
// This file defines quota types for gating practice actions by subscription tier.
package domain

import (
	"encoding/json"
	"strconv"
)

// QuotaType identifies the kind of monthly allowance being checked.
type QuotaType string

const (
	QuotaTypeQuestions       QuotaType = "questions"
	QuotaTypeCases           QuotaType = "cases"
	QuotaTypeManagerSessions QuotaType = "managerSessions"
)

// Valid checks if the quota type is known.
func (q QuotaType) Valid() bool {
	switch q {
	case QuotaTypeQuestions, QuotaTypeCases, QuotaTypeManagerSessions:
		return true
	default:
		return false
	}
}

// Label returns a human-readable name for messages.
func (q QuotaType) Label() string {
	switch q {
	case QuotaTypeQuestions:
		return "question"
	case QuotaTypeCases:
		return "case study"
	case QuotaTypeManagerSessions:
		return "manager session"
	default:
		return string(q)
	}
}

// Unlimited is the Limit value for an unbounded monthly allowance.
const Unlimited Limit = -1

// Limit is a monthly allowance. Negative values mean unlimited.
type Limit int64

// IsUnlimited reports whether the limit never runs out.
func (l Limit) IsUnlimited() bool {
	return l < 0
}

// Allows reports whether one more unit may be used given the current usage.
// An unlimited limit compares greater than any finite usage.
func (l Limit) Allows(used int64) bool {
	if l.IsUnlimited() {
		return true
	}
	return used < int64(l)
}

// String renders the limit, using "∞" for unlimited.
func (l Limit) String() string {
	if l.IsUnlimited() {
		return "∞"
	}
	return strconv.FormatInt(int64(l), 10)
}

// Remaining is the unused allowance for a quota type. The zero value is a
// finite zero, which is distinct from UnlimitedRemaining.
type Remaining struct {
	count     int64
	unlimited bool
}

// UnlimitedRemaining is the sentinel for tiers without a limit.
var UnlimitedRemaining = Remaining{unlimited: true}

// RemainingOf computes max(0, limit-used), or the unlimited sentinel.
func RemainingOf(limit Limit, used int64) Remaining {
	if limit.IsUnlimited() {
		return UnlimitedRemaining
	}
	left := int64(limit) - used
	if left < 0 {
		left = 0
	}
	return Remaining{count: left}
}

// IsUnlimited reports whether the remaining allowance is unbounded.
func (r Remaining) IsUnlimited() bool {
	return r.unlimited
}

// Count returns the finite remaining count. It is -1 for unlimited.
func (r Remaining) Count() int64 {
	if r.unlimited {
		return -1
	}
	return r.count
}

// Exhausted reports whether nothing is left. Never true for unlimited.
func (r Remaining) Exhausted() bool {
	return !r.unlimited && r.count == 0
}

func (r Remaining) String() string {
	if r.unlimited {
		return "∞"
	}
	return strconv.FormatInt(r.count, 10)
}

// MarshalJSON encodes unlimited as the string "unlimited" and finite values as numbers.
func (r Remaining) MarshalJSON() ([]byte, error) {
	if r.unlimited {
		return json.Marshal("unlimited")
	}
	return json.Marshal(r.count)
}

// Usage holds the per-month counters for each quota type.
type Usage struct {
	Questions       int64 `json:"questions"`
	Cases           int64 `json:"cases"`
	ManagerSessions int64 `json:"managerSessions"`
}

// Get returns the counter for a quota type.
func (u Usage) Get(kind QuotaType) int64 {
	switch kind {
	case QuotaTypeQuestions:
		return u.Questions
	case QuotaTypeCases:
		return u.Cases
	case QuotaTypeManagerSessions:
		return u.ManagerSessions
	default:
		return 0
	}
}

// Increment adds one to the counter for a quota type.
func (u *Usage) Increment(kind QuotaType) {
	switch kind {
	case QuotaTypeQuestions:
		u.Questions++
	case QuotaTypeCases:
		u.Cases++
	case QuotaTypeManagerSessions:
		u.ManagerSessions++
	}
}
