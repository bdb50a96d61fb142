package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/kvstore"
)

var october = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newEngine(t *testing.T, tier domain.TierID) (*Engine, *kvstore.Store) {
	t.Helper()
	store := kvstore.New(kvstore.NewMemoryBackend(), discardLogger())
	e := New(context.Background(), store, fixedClock(october), discardLogger())
	e.SetTier(context.Background(), tier)
	return e, store
}

func TestEngine_FreeTierEndToEnd(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierFree)

	for i := 0; i < 3; i++ {
		assert.True(t, e.Consume(ctx, domain.QuotaTypeQuestions), "consume %d", i+1)
	}
	assert.False(t, e.Consume(ctx, domain.QuotaTypeQuestions))
	assert.Equal(t, int64(0), e.Remaining(domain.QuotaTypeQuestions).Count())
	assert.Equal(t, "0", e.Remaining(domain.QuotaTypeQuestions).String())
}

func TestEngine_RemainingMatchesCanConsume(t *testing.T) {
	ctx := context.Background()
	kinds := []domain.QuotaType{domain.QuotaTypeQuestions, domain.QuotaTypeCases, domain.QuotaTypeManagerSessions}

	for _, tier := range []domain.TierID{domain.TierFree, domain.TierStandard, domain.TierPro} {
		for _, kind := range kinds {
			t.Run(string(tier)+"/"+string(kind), func(t *testing.T) {
				e, _ := newEngine(t, tier)
				for i := 0; i < 20; i++ {
					r := e.Remaining(kind)
					if r.IsUnlimited() {
						assert.True(t, e.CanConsume(kind))
					} else {
						assert.Equal(t, r.Count() == 0, !e.CanConsume(kind))
					}
					e.Consume(ctx, kind)
				}
			})
		}
	}
}

func TestEngine_DeniedConsumeDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, domain.TierFree)

	require.True(t, e.Consume(ctx, domain.QuotaTypeCases))
	before := e.Subscription()

	assert.False(t, e.CanConsume(domain.QuotaTypeCases))
	assert.False(t, e.Consume(ctx, domain.QuotaTypeCases))
	assert.Equal(t, before, e.Subscription())

	var stored domain.Subscription
	require.True(t, store.Load(ctx, kvstore.KeySubscription, &stored))
	assert.Equal(t, before, stored)

	// Free has no manager sessions at all.
	assert.False(t, e.Consume(ctx, domain.QuotaTypeManagerSessions))
	assert.Equal(t, int64(0), e.Subscription().UsageThisMonth.ManagerSessions)
}

func TestEngine_RemainingAfterN(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierStandard)

	for n := 1; n <= 10; n++ {
		require.True(t, e.Consume(ctx, domain.QuotaTypeQuestions))
		assert.Equal(t, int64(10-n), e.Remaining(domain.QuotaTypeQuestions).Count())
	}
}

func TestEngine_UnlimitedNeverExhausts(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierPro)

	for i := 0; i < 500; i++ {
		require.True(t, e.Consume(ctx, domain.QuotaTypeCases))
	}
	r := e.Remaining(domain.QuotaTypeCases)
	assert.True(t, r.IsUnlimited())
	assert.False(t, r.Exhausted())
	assert.Equal(t, "∞", r.String())
}

func TestEngine_Rollover(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t, domain.TierStandard)

	e.Consume(ctx, domain.QuotaTypeQuestions)
	e.Consume(ctx, domain.QuotaTypeCases)
	e.Consume(ctx, domain.QuotaTypeManagerSessions)

	november := domain.MonthOf(october).Next()
	assert.True(t, e.RolloverIfNeeded(ctx, november))
	assert.Equal(t, domain.Usage{}, e.Subscription().UsageThisMonth)
	assert.Equal(t, "2026-11", e.Subscription().MonthKey.String())

	e.Consume(ctx, domain.QuotaTypeQuestions)
	assert.False(t, e.RolloverIfNeeded(ctx, november), "second call in the same month is a no-op")
	assert.Equal(t, int64(1), e.Subscription().UsageThisMonth.Questions)

	var stored domain.Subscription
	require.True(t, store.Load(ctx, kvstore.KeySubscription, &stored))
	assert.Equal(t, e.Subscription(), stored)
}

func TestEngine_LoadRollsOverStaleMonth(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemoryBackend()
	mem.Raw(kvstore.KeySubscription.String(),
		`{"tier":"standard","usageThisMonth":{"questions":9,"cases":3,"managerSessions":2},"monthKey":"2026-09"}`)
	store := kvstore.New(mem, discardLogger())

	e := New(ctx, store, fixedClock(october), discardLogger())

	assert.Equal(t, domain.TierStandard, e.Tier().ID)
	assert.Equal(t, domain.Usage{}, e.Subscription().UsageThisMonth)
	assert.Equal(t, "2026-10", e.Subscription().MonthKey.String())
}

func TestEngine_LoadKeepsCurrentMonth(t *testing.T) {
	mem := kvstore.NewMemoryBackend()
	mem.Raw(kvstore.KeySubscription.String(),
		`{"tier":"free","usageThisMonth":{"questions":2},"monthKey":"2026-10"}`)
	e := New(context.Background(), kvstore.New(mem, discardLogger()), fixedClock(october), discardLogger())

	assert.Equal(t, int64(1), e.Remaining(domain.QuotaTypeQuestions).Count())
}

func TestEngine_LoadCorruptFallsBackToFree(t *testing.T) {
	mem := kvstore.NewMemoryBackend()
	mem.Raw(kvstore.KeySubscription.String(), `{{{`)
	e := New(context.Background(), kvstore.New(mem, discardLogger()), fixedClock(october), discardLogger())

	assert.Equal(t, domain.TierFree, e.Tier().ID)
	assert.Equal(t, int64(3), e.Remaining(domain.QuotaTypeQuestions).Count())
}

func TestEngine_LoadUnknownTier(t *testing.T) {
	mem := kvstore.NewMemoryBackend()
	mem.Raw(kvstore.KeySubscription.String(), `{"tier":"platinum","monthKey":"2026-10"}`)
	e := New(context.Background(), kvstore.New(mem, discardLogger()), fixedClock(october), discardLogger())

	assert.Equal(t, domain.TierFree, e.Tier().ID)
}

func TestEngine_SetTierKeepsUsage(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierFree)

	for i := 0; i < 3; i++ {
		require.True(t, e.Consume(ctx, domain.QuotaTypeQuestions))
	}
	require.False(t, e.CanConsume(domain.QuotaTypeQuestions))

	e.SetTier(ctx, domain.TierStandard)
	assert.Equal(t, int64(3), e.Subscription().UsageThisMonth.Questions)
	assert.Equal(t, int64(7), e.Remaining(domain.QuotaTypeQuestions).Count())
	assert.True(t, e.HasAIFeedback())
	assert.True(t, e.HasManagerAccess())
	assert.False(t, e.IsPersonalised())

	e.SetTier(ctx, domain.TierFree)
	assert.Equal(t, int64(0), e.Remaining(domain.QuotaTypeQuestions).Count())
}

func TestEngine_Require(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierFree)

	require.NoError(t, e.Require(ctx, "test", domain.QuotaTypeCases))
	err := e.Require(ctx, "test", domain.QuotaTypeCases)
	require.Error(t, err)
	assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))

	var qe *domain.QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(1), qe.Used)
	assert.Equal(t, int64(1), e.Subscription().UsageThisMonth.Cases)
}

func TestEngine_ConcurrentConsumeNeverOvercharges(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierStandard)

	var wg sync.WaitGroup
	var granted atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.Consume(ctx, domain.QuotaTypeQuestions) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), granted.Load())
	assert.Equal(t, int64(10), e.Subscription().UsageThisMonth.Questions)
}

func TestEngine_SharedStoreNeverOvercharges(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryBackend(), discardLogger())
	first := New(ctx, store, fixedClock(october), discardLogger())
	second := New(ctx, store, fixedClock(october), discardLogger())

	granted := 0
	for i := 0; i < 6; i++ {
		e := first
		if i%2 == 1 {
			e = second
		}
		if e.Consume(ctx, domain.QuotaTypeQuestions) {
			granted++
		}
	}

	assert.Equal(t, 3, granted)
	assert.False(t, first.CanConsume(domain.QuotaTypeQuestions))
	assert.Equal(t, int64(3), second.Subscription().UsageThisMonth.Questions)

	var stored domain.Subscription
	require.True(t, store.Load(ctx, kvstore.KeySubscription, &stored))
	assert.Equal(t, int64(3), stored.UsageThisMonth.Questions)
}

func TestEngine_SeesTierChangedElsewhere(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryBackend(), discardLogger())
	first := New(ctx, store, fixedClock(october), discardLogger())
	second := New(ctx, store, fixedClock(october), discardLogger())

	second.SetTier(ctx, domain.TierPro)

	assert.Equal(t, domain.TierPro, first.Tier().ID)
	assert.True(t, first.Remaining(domain.QuotaTypeQuestions).IsUnlimited())
}

func TestEngine_ConsumeRollsOverEndedMonth(t *testing.T) {
	ctx := context.Background()
	mem := kvstore.NewMemoryBackend()
	store := kvstore.New(mem, discardLogger())
	e := New(ctx, store, fixedClock(october), discardLogger())
	for i := 0; i < 3; i++ {
		require.True(t, e.Consume(ctx, domain.QuotaTypeQuestions))
	}

	// Another process wrote a September document after this engine started.
	mem.Raw(kvstore.KeySubscription.String(),
		`{"tier":"free","usageThisMonth":{"questions":3},"monthKey":"2026-09"}`)

	assert.True(t, e.CanConsume(domain.QuotaTypeQuestions))
	require.True(t, e.Consume(ctx, domain.QuotaTypeQuestions))

	var stored domain.Subscription
	require.True(t, store.Load(ctx, kvstore.KeySubscription, &stored))
	assert.Equal(t, "2026-10", stored.MonthKey.String())
	assert.Equal(t, int64(1), stored.UsageThisMonth.Questions)
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, domain.TierPro)
	e.Consume(ctx, domain.QuotaTypeQuestions)

	e.Reset(ctx)
	snap := e.Snapshot()
	assert.Equal(t, domain.TierFree, snap.Tier.ID)
	assert.Equal(t, domain.Usage{}, snap.Usage)
	assert.Equal(t, "2026-10", snap.MonthKey.String())
	assert.Equal(t, int64(3), snap.Questions.Count())
	assert.Equal(t, int64(0), snap.ManagerSessions.Count())
}

func TestEngine_RunRollsOverOnTick(t *testing.T) {
	var mu sync.Mutex
	now := october
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	store := kvstore.New(kvstore.NewMemoryBackend(), discardLogger())
	e := New(context.Background(), store, clock, discardLogger())
	e.Consume(context.Background(), domain.QuotaTypeQuestions)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	mu.Lock()
	now = time.Date(2026, time.November, 1, 0, 0, 1, 0, time.UTC)
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return e.Subscription().MonthKey.String() == "2026-11"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), e.Subscription().UsageThisMonth.Questions)

	cancel()
	<-done
}
