// Package history keeps the practice log and derives progress from it.
package history

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/DukeRupert/readyhire/internal/domain"
	"github.com/DukeRupert/readyhire/internal/kvstore"
	"github.com/DukeRupert/readyhire/internal/metrics"
)

const (
	// MaxEntries is how many sessions are kept, newest first.
	MaxEntries = 50

	// MaxWeakAreas is how many missed concepts are tracked.
	MaxWeakAreas = 10

	readinessWindow   = 10
	readinessWeight   = 0.7
	maxVolumeBonus    = 20
	streakWindow      = 7
	streakGap         = 24 * time.Hour
	reportSessionsMax = 20
)

// Store is the persistence the aggregator needs.
type Store interface {
	Load(ctx context.Context, key kvstore.Key, dst any) bool
	Save(ctx context.Context, key kvstore.Key, value any)
	Update(ctx context.Context, key kvstore.Key, dst any, mutate func() bool)
}

// Aggregator owns the session history and the weak-area tally.
type Aggregator struct {
	mu      sync.Mutex
	entries []domain.SessionRecord
	weak    []domain.WeakArea
	lastID  int64
	store   Store
	now     func() time.Time
	logger  *slog.Logger
}

// New loads history and weak areas from the store. now defaults to time.Now.
func New(ctx context.Context, store Store, now func() time.Time, logger *slog.Logger) *Aggregator {
	if now == nil {
		now = time.Now
	}
	a := &Aggregator{store: store, now: now, logger: logger}

	a.loadLocked(ctx)
	return a
}

// Add records a finished session. It assigns the id and date, keeps the
// newest MaxEntries sessions and tallies the missed concepts. Both lists
// are re-read and written back in one store update each, so sessions added
// by another process sharing the store are kept.
func (a *Aggregator) Add(ctx context.Context, rec domain.SessionRecord) domain.SessionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	rec.Date = now
	a.store.Update(ctx, kvstore.KeyHistory, &a.entries, func() bool {
		a.trimLocked()
		id := now.UnixMilli()
		if id <= a.lastID {
			id = a.lastID + 1
		}
		a.lastID = id
		rec.ID = id

		a.entries = slices.Insert(a.entries, 0, rec)
		if len(a.entries) > MaxEntries {
			a.entries = a.entries[:MaxEntries]
		}
		return true
	})

	if len(rec.Feedback.Missing) > 0 {
		a.store.Update(ctx, kvstore.KeyWeakAreas, &a.weak, func() bool {
			a.tallyLocked(rec.Feedback.Missing)
			return true
		})
	}

	metrics.SessionsRecordedTotal.WithLabelValues(string(rec.Type)).Inc()
	a.logger.Debug("session recorded", "id", rec.ID, "type", rec.Type, "score", rec.Score)
	return rec
}

// loadLocked reads both lists from the store. A list that cannot be read
// keeps its current value.
func (a *Aggregator) loadLocked(ctx context.Context) {
	a.store.Load(ctx, kvstore.KeyHistory, &a.entries)
	a.store.Load(ctx, kvstore.KeyWeakAreas, &a.weak)
	a.trimLocked()
}

// trimLocked caps the history and advances lastID past every stored id.
func (a *Aggregator) trimLocked() {
	if len(a.entries) > MaxEntries {
		a.entries = a.entries[:MaxEntries]
	}
	for _, e := range a.entries {
		a.lastID = max(a.lastID, e.ID)
	}
}

func (a *Aggregator) tallyLocked(missing []string) {
	for _, m := range missing {
		i := slices.IndexFunc(a.weak, func(w domain.WeakArea) bool { return w.Area == m })
		if i >= 0 {
			a.weak[i].Count++
		} else {
			a.weak = append(a.weak, domain.WeakArea{Area: m, Count: 1})
		}
	}
	slices.SortStableFunc(a.weak, func(x, y domain.WeakArea) int { return y.Count - x.Count })
	if len(a.weak) > MaxWeakAreas {
		a.weak = a.weak[:MaxWeakAreas]
	}
}

// Entries returns a copy of the history, newest first.
func (a *Aggregator) Entries() []domain.SessionRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(context.Background())
	return slices.Clone(a.entries)
}

// Len returns the number of recorded sessions.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(context.Background())
	return len(a.entries)
}

// WeakAreas returns the most-missed concepts, most frequent first.
func (a *Aggregator) WeakAreas() []domain.WeakArea {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(context.Background())
	return slices.Clone(a.weak)
}

// Readiness is 70% of the average of the last ten scores plus two points
// per session (at most 20), rounded and capped at 100. Zero when empty.
func (a *Aggregator) Readiness() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(context.Background())
	return readiness(a.entries)
}

func readiness(entries []domain.SessionRecord) int {
	if len(entries) == 0 {
		return 0
	}
	recent := entries[:min(len(entries), readinessWindow)]
	total := 0
	for _, e := range recent {
		total += e.Score
	}
	avg := float64(total) / float64(len(recent))
	bonus := min(len(entries)*2, maxVolumeBonus)
	return min(int(math.Round(avg*readinessWeight+float64(bonus))), 100)
}

// Streak counts consecutive sessions, newest first, that are at most one
// day apart. Only the latest seven sessions are considered.
func (a *Aggregator) Streak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(context.Background())
	return streak(a.entries)
}

func streak(entries []domain.SessionRecord) int {
	if len(entries) == 0 {
		return 0
	}
	s := 1
	for i := 1; i < min(len(entries), streakWindow); i++ {
		if entries[i-1].Date.Sub(entries[i].Date) > streakGap {
			break
		}
		s++
	}
	return s
}

// Clear drops all history and weak areas.
func (a *Aggregator) Clear(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = nil
	a.weak = nil
	a.store.Save(ctx, kvstore.KeyHistory, []domain.SessionRecord{})
	a.store.Save(ctx, kvstore.KeyWeakAreas, []domain.WeakArea{})
}

// Report assembles the data for the progress export.
func (a *Aggregator) Report(profile *domain.Profile) ReportData {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(context.Background())
	return ReportData{
		Generated: a.now(),
		Readiness: readiness(a.entries),
		Streak:    streak(a.entries),
		Profile:   profile,
		Sessions:  slices.Clone(a.entries[:min(len(a.entries), reportSessionsMax)]),
		WeakAreas: slices.Clone(a.weak),
	}
}
