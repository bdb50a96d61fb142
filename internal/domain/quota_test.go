package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit_Allows(t *testing.T) {
	tests := []struct {
		name  string
		limit Limit
		used  int64
		want  bool
	}{
		{"under limit", 3, 2, true},
		{"at limit", 3, 3, false},
		{"over limit", 3, 7, false},
		{"zero limit", 0, 0, false},
		{"unlimited with no usage", Unlimited, 0, true},
		{"unlimited with huge usage", Unlimited, 1 << 40, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.Allows(tt.used))
		})
	}
}

func TestRemainingOf(t *testing.T) {
	tests := []struct {
		name          string
		limit         Limit
		used          int64
		wantCount     int64
		wantString    string
		wantExhausted bool
	}{
		{"fresh", 10, 0, 10, "10", false},
		{"partly used", 10, 4, 6, "6", false},
		{"exactly used", 3, 3, 0, "0", true},
		{"overdrawn clamps to zero", 3, 5, 0, "0", true},
		{"unlimited", Unlimited, 99, -1, "∞", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RemainingOf(tt.limit, tt.used)
			assert.Equal(t, tt.wantCount, r.Count())
			assert.Equal(t, tt.wantString, r.String())
			assert.Equal(t, tt.wantExhausted, r.Exhausted())
		})
	}
}

func TestRemaining_UnlimitedIsNotZero(t *testing.T) {
	var zero Remaining
	assert.False(t, zero.IsUnlimited())
	assert.True(t, zero.Exhausted())
	assert.NotEqual(t, zero, UnlimitedRemaining)

	finite, err := json.Marshal(RemainingOf(3, 3))
	require.NoError(t, err)
	assert.Equal(t, "0", string(finite))

	unlimited, err := json.Marshal(UnlimitedRemaining)
	require.NoError(t, err)
	assert.Equal(t, `"unlimited"`, string(unlimited))
}

func TestUsage_IncrementAndGet(t *testing.T) {
	var u Usage
	u.Increment(QuotaTypeQuestions)
	u.Increment(QuotaTypeQuestions)
	u.Increment(QuotaTypeCases)
	u.Increment(QuotaTypeManagerSessions)
	u.Increment(QuotaType("bogus"))

	assert.Equal(t, int64(2), u.Get(QuotaTypeQuestions))
	assert.Equal(t, int64(1), u.Get(QuotaTypeCases))
	assert.Equal(t, int64(1), u.Get(QuotaTypeManagerSessions))
	assert.Equal(t, int64(0), u.Get(QuotaType("bogus")))
}

func TestGetTier(t *testing.T) {
	free := GetTier(TierFree)
	assert.Equal(t, Limit(3), free.Limit(QuotaTypeQuestions))
	assert.Equal(t, Limit(1), free.Limit(QuotaTypeCases))
	assert.Equal(t, Limit(0), free.Limit(QuotaTypeManagerSessions))
	assert.False(t, free.AIFeedback)

	standard := GetTier(TierStandard)
	assert.Equal(t, Limit(10), standard.Limit(QuotaTypeQuestions))
	assert.Equal(t, Limit(3), standard.Limit(QuotaTypeCases))
	assert.Equal(t, Limit(2), standard.Limit(QuotaTypeManagerSessions))
	assert.True(t, standard.AIFeedback)
	assert.False(t, standard.AIPersonalised)

	pro := GetTier(TierPro)
	assert.True(t, pro.Limit(QuotaTypeQuestions).IsUnlimited())
	assert.True(t, pro.Limit(QuotaTypeCases).IsUnlimited())
	assert.True(t, pro.Limit(QuotaTypeManagerSessions).IsUnlimited())
	assert.True(t, pro.AIPersonalised)

	assert.Equal(t, TierFree, GetTier("enterprise").ID)
	assert.False(t, TierID("enterprise").Valid())
}

func TestMonthKey(t *testing.T) {
	t.Run("computed in UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+10", 10*60*60)
		// 09:00 on 1 March at UTC+10 is still February in UTC.
		local := time.Date(2026, time.March, 1, 9, 0, 0, 0, loc)
		assert.Equal(t, "2026-02", MonthOf(local).String())
	})

	t.Run("next crosses year", func(t *testing.T) {
		m := MonthKey{Year: 2025, Month: time.December}
		assert.Equal(t, "2026-01", m.Next().String())
	})

	t.Run("json round trip", func(t *testing.T) {
		sub := Subscription{Tier: TierStandard, MonthKey: MonthKey{Year: 2026, Month: time.October}}
		data, err := json.Marshal(sub)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"monthKey":"2026-10"`)

		var decoded Subscription
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, decoded.MonthKey.Equal(sub.MonthKey))
	})

	t.Run("garbage decodes to zero", func(t *testing.T) {
		var sub Subscription
		require.NoError(t, json.Unmarshal([]byte(`{"tier":"free","monthKey":"last month"}`), &sub))
		assert.True(t, sub.MonthKey.IsZero())
		assert.Equal(t, "", sub.MonthKey.String())
	})

	t.Run("non-string keeps the rest of the subscription", func(t *testing.T) {
		for _, raw := range []string{`202610`, `null`, `{"year":2026}`, `["2026-10"]`} {
			var sub Subscription
			doc := `{"tier":"pro","usageThisMonth":{"questions":7},"monthKey":` + raw + `}`
			require.NoError(t, json.Unmarshal([]byte(doc), &sub), raw)
			assert.Equal(t, TierPro, sub.Tier, raw)
			assert.Equal(t, int64(7), sub.UsageThisMonth.Questions, raw)
			assert.True(t, sub.MonthKey.IsZero(), raw)
		}
	})
}

func TestQuotaExceeded(t *testing.T) {
	err := QuotaExceeded("practice.submit", QuotaTypeQuestions, 3, 3)

	assert.Equal(t, EPAYMENT, ErrorCode(err))
	assert.Contains(t, ErrorMessage(err), "question limit reached")

	var qe *QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, QuotaTypeQuestions, qe.Kind)
	assert.Equal(t, Limit(3), qe.Limit)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("upstream 529")
	err := Unavailable(cause, "practice.generate_bank", "Question generation is unavailable right now.")

	assert.Equal(t, EUNAVAILABLE, ErrorCode(err))
	assert.Equal(t, "Question generation is unavailable right now.", ErrorMessage(err))
	assert.ErrorIs(t, err, cause)
}
