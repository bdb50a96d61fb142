// Package domain contains core business types and interfaces.
//
// This file defines the static subscription tier catalog.
package domain

// TierID identifies a subscription tier.
type TierID string

const (
	TierFree     TierID = "free"
	TierStandard TierID = "standard"
	TierPro      TierID = "pro"
)

// Valid checks if the tier is part of the catalog.
func (t TierID) Valid() bool {
	_, ok := Tiers[t]
	return ok
}

// Tier is an immutable record of monthly limits and feature flags.
type Tier struct {
	ID                      TierID
	Name                    string
	QuestionsPerMonth       Limit
	CasesPerMonth           Limit
	AIFeedback              bool
	AIPersonalised          bool
	ManagerAccess           bool
	ManagerSessionsPerMonth Limit
}

// Limit returns the monthly allowance for a quota type.
func (t Tier) Limit(kind QuotaType) Limit {
	switch kind {
	case QuotaTypeQuestions:
		return t.QuestionsPerMonth
	case QuotaTypeCases:
		return t.CasesPerMonth
	case QuotaTypeManagerSessions:
		return t.ManagerSessionsPerMonth
	default:
		return 0
	}
}

// Tiers maps tier IDs to their configuration.
var Tiers = map[TierID]Tier{
	TierFree: {
		ID:                      TierFree,
		Name:                    "Free",
		QuestionsPerMonth:       3,
		CasesPerMonth:           1,
		ManagerSessionsPerMonth: 0,
	},
	TierStandard: {
		ID:                      TierStandard,
		Name:                    "Standard",
		QuestionsPerMonth:       10,
		CasesPerMonth:           3,
		AIFeedback:              true,
		ManagerAccess:           true,
		ManagerSessionsPerMonth: 2,
	},
	TierPro: {
		ID:                      TierPro,
		Name:                    "Pro",
		QuestionsPerMonth:       Unlimited,
		CasesPerMonth:           Unlimited,
		AIFeedback:              true,
		AIPersonalised:          true,
		ManagerAccess:           true,
		ManagerSessionsPerMonth: Unlimited,
	},
}

// GetTier returns the tier for an ID, defaulting to free for unknown IDs.
func GetTier(id TierID) Tier {
	if tier, ok := Tiers[id]; ok {
		return tier
	}
	return Tiers[TierFree]
}
