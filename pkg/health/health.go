package health

import (
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
)

// Tracker counts consecutive publish failures per destination, reports
// when the alert threshold is crossed (once per failure episode), and
// computes a progressive cooldown window during which a failing
// destination should be skipped. State lives for the process lifetime
// only; a restart forgives prior failures. Pure bookkeeping, never
// returns errors.
type Tracker struct {
	threshold   int
	cooldownCap time.Duration
	nowFn       func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

type record struct {
	failures int
	alerted  bool
	lastFail time.Time
}

// Status is a point-in-time view of one destination's health.
type Status struct {
	Failures    int       `json:"failures"`
	Alerted     bool      `json:"alerted"`
	InCooldown  bool      `json:"in_cooldown"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// cooldown grows two minutes per consecutive failure
const cooldownStep = 2 * time.Minute

// NewTracker creates a tracker firing an alert after threshold
// consecutive failures, with the cooldown window capped at cooldownCap.
func NewTracker(threshold int, cooldownCap time.Duration) *Tracker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldownCap <= 0 {
		cooldownCap = 30 * time.Minute
	}
	return &Tracker{
		threshold:   threshold,
		cooldownCap: cooldownCap,
		nowFn:       time.Now,
		records:     map[string]*record{},
	}
}

// RecordSuccess resets the destination to healthy, clearing the failure
// counter, the alert flag and the last-failure timestamp.
func (t *Tracker) RecordSuccess(destination string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(destination)
	if rec.failures > 0 {
		lgr.Printf("[INFO] %s recovered after %d consecutive failure(s)", destination, rec.failures)
	}
	rec.failures = 0
	rec.alerted = false
	rec.lastFail = time.Time{}
}

// RecordFailure increments the consecutive-failure counter and returns
// true exactly when the alert threshold is crossed for the first time
// since the last success. The caller notifies operators on true.
func (t *Tracker) RecordFailure(destination string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(destination)
	rec.failures++
	rec.lastFail = t.nowFn()
	lgr.Printf("[WARN] %s consecutive failure #%d", destination, rec.failures)

	if rec.failures >= t.threshold && !rec.alerted {
		rec.alerted = true
		lgr.Printf("[ERROR] %s failed %d times consecutively, alerting", destination, rec.failures)
		return true
	}
	return false
}

// InCooldown reports whether the destination should be skipped. The
// window only applies once alerted and is evaluated against wall-clock
// time since the last failure: min(failures * 2m, cap).
func (t *Tracker) InCooldown(destination string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.record(destination)
	if !rec.alerted {
		return false
	}
	return t.nowFn().Sub(rec.lastFail) < t.cooldownFor(rec.failures)
}

// Failures returns the current consecutive-failure count.
func (t *Tracker) Failures(destination string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record(destination).failures
}

// Snapshot returns the health status of every destination seen so far.
func (t *Tracker) Snapshot() map[string]Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := make(map[string]Status, len(t.records))
	now := t.nowFn()
	for dest, rec := range t.records {
		res[dest] = Status{
			Failures:    rec.failures,
			Alerted:     rec.alerted,
			InCooldown:  rec.alerted && now.Sub(rec.lastFail) < t.cooldownFor(rec.failures),
			LastFailure: rec.lastFail,
		}
	}
	return res
}

func (t *Tracker) cooldownFor(failures int) time.Duration {
	d := time.Duration(failures) * cooldownStep
	if d > t.cooldownCap {
		d = t.cooldownCap
	}
	return d
}

// record returns the destination record, creating it if needed. Callers
// must hold the mutex.
func (t *Tracker) record(destination string) *record {
	rec, ok := t.records[destination]
	if !ok {
		rec = &record{}
		t.records[destination] = rec
	}
	return rec
}
