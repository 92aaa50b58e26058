package lockout

import (
	"errors"
	"time"

	"github.com/illarion/envseal/internal/logger"
)

const (
	DefaultThreshold = 3
	DefaultDuration  = 3 * time.Hour
)

// Config tunes a Guard. Zero fields take the defaults.
type Config struct {
	Threshold int
	Duration  time.Duration
	Now       func() time.Time
}

// Status is the result of CheckLockout
type Status struct {
	Locked    bool
	Remaining time.Duration
}

// RemainingMs returns the remaining lock time in milliseconds
func (s Status) RemainingMs() int64 {
	return s.Remaining.Milliseconds()
}

// FailureResult is the result of RecordFailure. Locked is only reported
// once the lock has been persisted.
type FailureResult struct {
	Attempts  int
	Locked    bool
	Remaining time.Duration
}

// Guard implements the per-project Open/Locked state machine
type Guard struct {
	store     Store
	threshold int
	duration  time.Duration
	now       func() time.Time
	log       *logger.Logger
}

// NewGuard creates a guard persisting into store
func NewGuard(store Store, cfg Config, log *logger.Logger) *Guard {
	g := &Guard{
		store:     store,
		threshold: cfg.Threshold,
		duration:  cfg.Duration,
		now:       cfg.Now,
		log:       logger.OrNop(log).WithComponent("lockout"),
	}
	if g.threshold <= 0 {
		g.threshold = DefaultThreshold
	}
	if g.duration <= 0 {
		g.duration = DefaultDuration
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Threshold returns the number of failures that triggers a lock
func (g *Guard) Threshold() int {
	return g.threshold
}

// Duration returns how long a lock lasts
func (g *Guard) Duration() time.Duration {
	return g.duration
}

// CheckLockout reports whether id is locked. An expired lock is cleared
// and the cleared record persisted.
func (g *Guard) CheckLockout(id string) Status {
	now := g.now()
	rec := g.current(id, now)

	if rec.LockedUntil == nil {
		return Status{}
	}
	return Status{Locked: true, Remaining: rec.lockedUntil().Sub(now)}
}

// RecordFailure counts one failed verification and locks id when the
// threshold is reached.
func (g *Guard) RecordFailure(id string) FailureResult {
	now := g.now()
	rec := g.current(id, now)

	rec.Attempts++
	if rec.Attempts >= g.threshold && rec.LockedUntil == nil {
		rec.lock(now.Add(g.duration))
	}
	if !g.save(id, rec) || rec.LockedUntil == nil {
		return FailureResult{Attempts: rec.Attempts}
	}

	return FailureResult{
		Attempts:  rec.Attempts,
		Locked:    true,
		Remaining: rec.lockedUntil().Sub(now),
	}
}

// RemainingAttempts returns how many failures are left before a lock
func (g *Guard) RemainingAttempts(id string) int {
	rec := g.current(id, g.now())
	return max(g.threshold-rec.Attempts, 0)
}

// Clear resets id to Open with zero attempts
func (g *Guard) Clear(id string) {
	g.save(id, Record{})
}

// current loads the record for id, applying lazy expiry
func (g *Guard) current(id string, now time.Time) Record {
	rec := g.load(id)
	if rec.expired(now) {
		rec = Record{}
		g.save(id, rec)
	}
	return rec
}

func (g *Guard) load(id string) Record {
	data, err := g.store.Get(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.degrade("read", id, err)
		}
		return Record{}
	}

	rec, err := decodeRecord(data)
	if err != nil {
		g.log.Warn().Str("project", id).Err(err).Msg("discarding unreadable lockout record")
		return Record{}
	}
	return rec
}

// save persists rec and reports whether it was written
func (g *Guard) save(id string, rec Record) bool {
	data, err := encodeRecord(rec)
	if err != nil {
		g.degrade("encode", id, err)
		return false
	}
	if err := g.store.Set(id, data); err != nil {
		g.degrade("write", id, err)
		return false
	}
	return true
}

// degrade is the storage-failure policy: log and carry on as Open.
func (g *Guard) degrade(op, id string, err error) {
	g.log.Warn().
		Str("op", op).
		Str("project", id).
		Err(err).
		Msg("lockout storage unavailable, continuing without lockout protection")
}
