// Package entitlement decides whether the device user may practise now and
// records that they did.
//
// The Engine keeps the Subscription under the "sub" key. Every read and
// mutation goes through one mutex, and every mutation is a single store
// update that re-reads the stored value first, so a check and its
// increment are never split by another caller in this process or another.
package entitlement

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/kvstore"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

// Store is the persistence the engine needs.
type Store interface {
	Load(ctx context.Context, key kvstore.Key, dst any) bool
	Update(ctx context.Context, key kvstore.Key, dst any, mutate func() bool)
}

// Engine is the single source of truth for tier limits and monthly usage.
type Engine struct {
	mu     sync.Mutex
	sub    domain.Subscription
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// Status is a point-in-time view of the engine for display.
type Status struct {
	Tier            domain.Tier      `json:"tier"`
	Usage           domain.Usage     `json:"usage"`
	MonthKey        domain.MonthKey  `json:"monthKey"`
	Questions       domain.Remaining `json:"questionsRemaining"`
	Cases           domain.Remaining `json:"casesRemaining"`
	ManagerSessions domain.Remaining `json:"managerSessionsRemaining"`
}

// New loads the stored subscription, or the free default, and rolls it over
// if it belongs to an earlier month. now defaults to time.Now.
func New(ctx context.Context, store Store, now func() time.Time, logger *slog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		sub:    domain.DefaultSubscription(),
		store:  store,
		now:    now,
		logger: logger,
	}

	store.Load(ctx, kvstore.KeySubscription, &e.sub)
	if !e.sub.Tier.Valid() {
		logger.Warn("stored subscription has unknown tier, using free", "tier", e.sub.Tier)
	}

	e.RolloverIfNeeded(ctx, domain.MonthOf(now()))
	return e
}

// CanConsume reports whether one more unit of kind fits this month's allowance.
func (e *Engine) CanConsume(kind domain.QuotaType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	return e.canConsumeLocked(kind)
}

func (e *Engine) canConsumeLocked(kind domain.QuotaType) bool {
	if !kind.Valid() {
		return false
	}
	return e.tierLocked().Limit(kind).Allows(e.sub.UsageThisMonth.Get(kind))
}

// Consume charges one unit of kind. It returns false and changes nothing
// when the allowance is exhausted.
func (e *Engine) Consume(ctx context.Context, kind domain.QuotaType) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.consumeLocked(ctx, kind)
}

// Require consumes one unit of kind or returns a payment-required error.
// The check and the increment run against the stored subscription in one
// store update, so engines in other processes sharing the store cannot
// both spend the last unit.
func (e *Engine) Require(ctx context.Context, op string, kind domain.QuotaType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.consumeLocked(ctx, kind) {
		return nil
	}

	tier := e.tierLocked()
	used := e.sub.UsageThisMonth.Get(kind)
	metrics.QuotaDenied(string(kind), string(tier.ID))
	e.logger.Info("quota exhausted",
		"kind", kind,
		"tier", tier.ID,
		"used", used,
		"limit", tier.Limit(kind).String(),
	)
	return domain.QuotaExceeded(op, kind, used, tier.Limit(kind))
}

// consumeLocked checks and increments against the stored subscription in
// one store update.
func (e *Engine) consumeLocked(ctx context.Context, kind domain.QuotaType) bool {
	allowed := false
	e.updateLocked(ctx, func() bool {
		allowed = e.canConsumeLocked(kind)
		if allowed {
			e.sub.UsageThisMonth.Increment(kind)
		}
		return allowed
	})
	return allowed
}

// Remaining returns max(0, limit-used), or the unlimited sentinel.
func (e *Engine) Remaining(kind domain.QuotaType) domain.Remaining {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	return e.remainingLocked(kind)
}

func (e *Engine) remainingLocked(kind domain.QuotaType) domain.Remaining {
	return domain.RemainingOf(e.tierLocked().Limit(kind), e.sub.UsageThisMonth.Get(kind))
}

// RolloverIfNeeded resets all counters when month differs from the stored
// month key. It reports whether a reset happened.
func (e *Engine) RolloverIfNeeded(ctx context.Context, month domain.MonthKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	var from domain.MonthKey
	rolled := false
	e.store.Update(ctx, kvstore.KeySubscription, &e.sub, func() bool {
		fixed := e.normalizeLocked()
		from = e.sub.MonthKey
		rolled = !from.Equal(month)
		if rolled {
			e.resetUsageLocked(month)
		}
		return rolled || fixed
	})
	if rolled {
		e.logRollover(from, month)
	}
	return rolled
}

// SetTier switches the active tier. Usage counters are kept.
func (e *Engine) SetTier(ctx context.Context, id domain.TierID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !id.Valid() {
		id = domain.TierFree
	}
	var from domain.TierID
	e.updateLocked(ctx, func() bool {
		from = e.sub.Tier
		e.sub.Tier = id
		return from != id
	})
	if from != id {
		e.logger.Info("subscription tier changed", "from", from, "to", id)
	}
}

// Reset returns the engine to a free subscription with zero usage.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Update(ctx, kvstore.KeySubscription, &e.sub, func() bool {
		e.sub = domain.DefaultSubscription()
		e.sub.MonthKey = domain.MonthOf(e.now())
		return true
	})
}

// Tier returns the active tier.
func (e *Engine) Tier() domain.Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	return e.tierLocked()
}

// HasAIFeedback reports whether the active tier includes written AI feedback.
func (e *Engine) HasAIFeedback() bool { return e.Tier().AIFeedback }

// IsPersonalised reports whether question banks are tailored to the user's
// CV and job description.
func (e *Engine) IsPersonalised() bool { return e.Tier().AIPersonalised }

// HasManagerAccess reports whether hiring-manager sessions are available.
func (e *Engine) HasManagerAccess() bool { return e.Tier().ManagerAccess }

// Subscription returns a copy of the stored subscription.
func (e *Engine) Subscription() domain.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	return e.sub
}

// Snapshot returns the tier, usage and remaining allowances together.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()
	return Status{
		Tier:            e.tierLocked(),
		Usage:           e.sub.UsageThisMonth,
		MonthKey:        e.sub.MonthKey,
		Questions:       e.remainingLocked(domain.QuotaTypeQuestions),
		Cases:           e.remainingLocked(domain.QuotaTypeCases),
		ManagerSessions: e.remainingLocked(domain.QuotaTypeManagerSessions),
	}
}

// Run checks for a month boundary every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RolloverIfNeeded(ctx, domain.MonthOf(e.now()))
		}
	}
}

func (e *Engine) tierLocked() domain.Tier {
	return domain.GetTier(e.sub.Tier)
}

// refreshLocked picks up writes made by other engines sharing the store.
// A month that has already ended reads as empty; the reset is persisted by
// the next update.
func (e *Engine) refreshLocked() {
	e.store.Load(context.Background(), kvstore.KeySubscription, &e.sub)
	e.normalizeLocked()
	if month := domain.MonthOf(e.now()); e.sub.MonthKey.Before(month) {
		e.resetUsageLocked(month)
	}
}

// updateLocked reloads the stored subscription, applies change and writes
// the result back in one store update. A month that has already ended is
// rolled over first.
func (e *Engine) updateLocked(ctx context.Context, change func() bool) {
	month := domain.MonthOf(e.now())
	var from domain.MonthKey
	rolled := false
	e.store.Update(ctx, kvstore.KeySubscription, &e.sub, func() bool {
		fixed := e.normalizeLocked()
		from = e.sub.MonthKey
		rolled = from.Before(month)
		if rolled {
			e.resetUsageLocked(month)
		}
		changed := change()
		return changed || rolled || fixed
	})
	if rolled {
		e.logRollover(from, month)
	}
}

// normalizeLocked maps an unknown tier to free and reports whether it did.
func (e *Engine) normalizeLocked() bool {
	if e.sub.Tier.Valid() {
		return false
	}
	e.sub.Tier = domain.TierFree
	return true
}

func (e *Engine) resetUsageLocked(month domain.MonthKey) {
	e.sub.UsageThisMonth = domain.Usage{}
	e.sub.MonthKey = month
}

func (e *Engine) logRollover(from, to domain.MonthKey) {
	e.logger.Info("monthly usage rollover",
		"from", from.String(),
		"to", to.String(),
	)
	metrics.MonthlyRolloversTotal.Inc()
}
