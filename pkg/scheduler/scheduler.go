package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
	"github.com/feedrelay/feedrelay/pkg/feed"
	"github.com/feedrelay/feedrelay/pkg/health"
	"github.com/feedrelay/feedrelay/pkg/ledger"
)

//go:generate moq -out mocks/publisher.go -pkg mocks -skip-ensure -fmt goimports . Publisher
//go:generate moq -out mocks/poller.go -pkg mocks -skip-ensure -fmt goimports . Poller
//go:generate moq -out mocks/targets.go -pkg mocks -skip-ensure -fmt goimports . TargetsProvider
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier
//go:generate moq -out mocks/recorder.go -pkg mocks -skip-ensure -fmt goimports . Recorder

// Publisher is one destination platform. Publish returns nil only when
// the item was actually delivered; internal retry/backoff for transient
// failures is the publisher's own business.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, item domain.Item) error
	Close() error
}

// Poller fetches the feed with conditional caching.
type Poller interface {
	Poll(ctx context.Context, etag, modified string) (*feed.Snapshot, error)
}

// TargetsProvider reports which destinations are currently enabled.
// Queried once per tick so routing changes apply without a restart.
type TargetsProvider interface {
	Enabled() []string
}

// Notifier delivers operator alerts, best-effort.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// Recorder appends confirmed deliveries to an audit log, best-effort.
type Recorder interface {
	Record(ctx context.Context, destination string, item domain.Item) error
}

// Store persists the delivery ledger.
type Store interface {
	Load(ctx context.Context) *ledger.Ledger
	Save(ctx context.Context, l *ledger.Ledger) error
	MarkSent(l *ledger.Ledger, destination, id string)
}

// Scheduler drives the dispatch loop: every interval it polls the feed,
// walks the backlog oldest to newest and fans each item out to the
// enabled destinations, with the ledger persisted after every
// state-changing step. Ticks never overlap; a tick still running when
// the next is due delays it.
type Scheduler struct {
	store      Store
	poller     Poller
	publishers []Publisher
	targets    TargetsProvider
	notifier   Notifier
	recorder   Recorder
	health     *health.Tracker

	interval      time.Duration
	maxBacklog    int
	pacing        time.Duration
	catchupWindow int

	tickMu sync.Mutex // re-entrancy guard: manual ticks vs the loop

	mu       sync.Mutex
	lastTick time.Time
	cursor   string
}

// Params holds all scheduler dependencies and tunables. Zero tunables
// get safe defaults.
type Params struct {
	Store      Store
	Poller     Poller
	Publishers []Publisher // dispatch order follows slice order
	Targets    TargetsProvider
	Notifier   Notifier
	Recorder   Recorder // optional
	Health     *health.Tracker

	Interval      time.Duration
	MaxBacklog    int
	Pacing        time.Duration
	CatchupWindow int
}

// NewScheduler creates a scheduler from params.
func NewScheduler(p Params) *Scheduler {
	if p.Interval == 0 {
		p.Interval = 2 * time.Minute
	}
	if p.MaxBacklog == 0 {
		p.MaxBacklog = 20
	}
	if p.CatchupWindow == 0 {
		p.CatchupWindow = 5
	}
	if p.Health == nil {
		p.Health = health.NewTracker(0, 0)
	}

	return &Scheduler{
		store:         p.Store,
		poller:        p.Poller,
		publishers:    p.Publishers,
		targets:       p.Targets,
		notifier:      p.Notifier,
		recorder:      p.Recorder,
		health:        p.Health,
		interval:      p.Interval,
		maxBacklog:    p.MaxBacklog,
		pacing:        p.Pacing,
		catchupWindow: p.CatchupWindow,
	}
}

// Run executes the dispatch loop until the context is canceled. The
// first tick fires immediately. In-flight publishes finish (or time
// out) before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	lgr.Printf("[INFO] dispatch loop started, interval %v, max backlog %d, catchup window %d",
		s.interval, s.maxBacklog, s.catchupWindow)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			lgr.Printf("[INFO] dispatch loop stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one dispatch cycle. Safe to call concurrently with the
// loop: if a cycle is already running this call is skipped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		lgr.Printf("[WARN] previous tick still running, skipping")
		return
	}
	defer s.tickMu.Unlock()

	s.tick(ctx)

	s.mu.Lock()
	s.lastTick = time.Now()
	s.mu.Unlock()
}

// SyncCursor re-fetches the feed and moves the cursor to the newest
// item without publishing anything. Operator escape hatch for skipping
// a backlog on purpose.
func (s *Scheduler) SyncCursor(ctx context.Context) (string, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	led := s.store.Load(ctx)
	snap, err := s.poller.Poll(ctx, led.ETag, led.Modified)
	if err != nil {
		return "", fmt.Errorf("poll feed: %w", err)
	}
	s.applyValidators(led, snap)

	if len(snap.Items) == 0 {
		if err := s.save(ctx, led); err != nil {
			return "", err
		}
		return "", fmt.Errorf("feed empty or not modified, nothing to sync to")
	}

	led.LastID = snap.Items[0].ID
	if err := s.save(ctx, led); err != nil {
		return "", err
	}

	s.setCursor(led.LastID)
	lgr.Printf("[INFO] cursor synced to %q, no publishing", led.LastID)
	return led.LastID, nil
}

// Status is a point-in-time view of the dispatch loop for the ops endpoint.
type Status struct {
	Cursor       string                   `json:"cursor"`
	LastTick     time.Time                `json:"last_tick,omitzero"`
	Destinations map[string]health.Status `json:"destinations"`
}

// Status reports the last observed cursor, last tick time and
// per-destination health.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Cursor:       s.cursor,
		LastTick:     s.lastTick,
		Destinations: s.health.Snapshot(),
	}
}

// Close shuts down all publishers.
func (s *Scheduler) Close() error {
	var firstErr error
	for _, pub := range s.publishers {
		if err := pub.Close(); err != nil {
			lgr.Printf("[WARN] closing %s publisher: %v", pub.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Scheduler) setCursor(id string) {
	s.mu.Lock()
	s.cursor = id
	s.mu.Unlock()
}

// enabledSet resolves the current routing config to a set.
func (s *Scheduler) enabledSet() map[string]bool {
	res := map[string]bool{}
	for _, name := range s.targets.Enabled() {
		res[name] = true
	}
	return res
}

func (s *Scheduler) save(ctx context.Context, led *ledger.Ledger) error {
	if err := s.store.Save(ctx, led); err != nil {
		lgr.Printf("[ERROR] failed to persist ledger: %v", err)
		return err
	}
	return nil
}

// pause sleeps the pacing interval between delivered items, bailing out
// on cancellation.
func (s *Scheduler) pause(ctx context.Context) {
	if s.pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.pacing):
	}
}
