package scheduler

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
	"github.com/feedrelay/feedrelay/pkg/feed"
	"github.com/feedrelay/feedrelay/pkg/ledger"
)

// tick is one full dispatch cycle: poll, seed or walk the backlog, then
// reconcile lagging destinations over the newest items. Any failure
// leaves the ledger in a state the next tick can resume from.
func (s *Scheduler) tick(ctx context.Context) {
	led := s.store.Load(ctx)
	s.setCursor(led.LastID)

	snap, err := s.poller.Poll(ctx, led.ETag, led.Modified)
	if err != nil {
		lgr.Printf("[WARN] feed poll failed, tick is a no-op: %v", err)
		return
	}

	s.applyValidators(led, snap)
	if err := s.save(ctx, led); err != nil {
		return
	}

	if snap.NotModified {
		lgr.Printf("[DEBUG] feed not modified")
		return
	}
	if len(snap.Items) == 0 {
		lgr.Printf("[DEBUG] feed empty")
		return
	}

	enabled := s.enabledSet()

	if led.LastID == "" {
		s.seed(ctx, led, snap.Items, enabled, "first run, no cursor")
		return
	}

	backlog, found := feed.Backlog(snap.Items, led.LastID)
	if !found {
		// cursor fell out of the feed window, republishing the whole
		// window would flood every destination
		s.seed(ctx, led, snap.Items, enabled, fmt.Sprintf("cursor %q not in feed window", led.LastID))
		return
	}

	if len(backlog) > s.maxBacklog {
		lgr.Printf("[WARN] backlog of %d exceeds limit %d, dropping %d oldest items",
			len(backlog), s.maxBacklog, len(backlog)-s.maxBacklog)
		backlog = feed.Bound(backlog, s.maxBacklog)
	}

	if len(backlog) > 0 {
		lgr.Printf("[INFO] dispatching backlog of %d items to %d destinations", len(backlog), len(enabled))
	}

	for _, item := range backlog {
		delivered, resolved := s.dispatchItem(ctx, led, item, enabled)
		if !resolved {
			lgr.Printf("[WARN] item %q not delivered to all enabled destinations, cursor stays at %q",
				item.ID, led.LastID)
			return
		}

		led.LastID = item.ID
		if err := s.save(ctx, led); err != nil {
			return
		}
		s.setCursor(item.ID)

		if delivered {
			s.pause(ctx)
		}
		if ctx.Err() != nil {
			return
		}
	}

	s.catchup(ctx, led, snap.Items, enabled)
}

// dispatchItem fans one item out to every enabled destination that has
// not seen it yet. Reports whether at least one publish happened and
// whether every enabled destination now has the item marked sent, which
// is the condition for advancing the cursor past it.
func (s *Scheduler) dispatchItem(ctx context.Context, led *ledger.Ledger, item domain.Item, enabled map[string]bool) (delivered, resolved bool) {
	resolved = true
	for _, pub := range s.publishers {
		name := pub.Name()
		if !enabled[name] || led.HasSent(name, item.ID) {
			continue
		}
		if s.health.InCooldown(name) {
			lgr.Printf("[INFO] %s in cooldown, item %q deferred", name, item.ID)
			resolved = false
			continue
		}

		if err := pub.Publish(ctx, item); err != nil {
			lgr.Printf("[WARN] publish %q to %s failed: %v", item.ID, name, err)
			resolved = false
			s.reportFailure(ctx, name, err)
			continue
		}

		s.store.MarkSent(led, name, item.ID)
		if err := s.save(ctx, led); err != nil {
			return delivered, false
		}
		s.health.RecordSuccess(name)
		s.record(ctx, name, item)
		delivered = true
		lgr.Printf("[INFO] published %q to %s", item.ID, name)
	}
	return delivered, resolved
}

// seed adopts the current feed window as already-handled without
// publishing anything. Used on first run and when the cursor is gone
// from the window.
func (s *Scheduler) seed(ctx context.Context, led *ledger.Ledger, items []domain.Item, enabled map[string]bool, reason string) {
	lgr.Printf("[WARN] seeding cursor to %q without publishing: %s", items[0].ID, reason)

	led.LastID = items[0].ID
	// oldest first so ring eviction later drops the oldest entries
	for i := len(items) - 1; i >= 0; i-- {
		for name := range enabled {
			s.store.MarkSent(led, name, items[i].ID)
		}
	}
	if err := s.save(ctx, led); err != nil {
		return
	}
	s.setCursor(led.LastID)
}

// catchup walks the newest items and fills delivery gaps: a destination
// that missed an item gets it only if some other enabled destination
// already has it. That proof keeps catchup from re-walking ground the
// seeding path deliberately skipped.
func (s *Scheduler) catchup(ctx context.Context, led *ledger.Ledger, items []domain.Item, enabled map[string]bool) {
	window := items
	if len(window) > s.catchupWindow {
		window = window[:s.catchupWindow]
	}

	for _, item := range window {
		for _, pub := range s.publishers {
			name := pub.Name()
			if !enabled[name] || led.HasSent(name, item.ID) {
				continue
			}
			if !s.sentElsewhere(led, name, item.ID, enabled) {
				continue
			}
			if s.health.InCooldown(name) {
				continue
			}

			if err := pub.Publish(ctx, item); err != nil {
				lgr.Printf("[WARN] catchup publish %q to %s failed: %v", item.ID, name, err)
				s.reportFailure(ctx, name, err)
				continue
			}

			s.store.MarkSent(led, name, item.ID)
			if err := s.save(ctx, led); err != nil {
				return
			}
			s.health.RecordSuccess(name)
			s.record(ctx, name, item)
			lgr.Printf("[INFO] catchup published %q to %s", item.ID, name)
			s.pause(ctx)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// sentElsewhere reports whether any other enabled destination already
// delivered the item.
func (s *Scheduler) sentElsewhere(led *ledger.Ledger, dest, id string, enabled map[string]bool) bool {
	for name := range enabled {
		if name != dest && led.HasSent(name, id) {
			return true
		}
	}
	return false
}

func (s *Scheduler) applyValidators(led *ledger.Ledger, snap *feed.Snapshot) {
	if snap.ETag != "" {
		led.ETag = snap.ETag
	}
	if snap.Modified != "" {
		led.Modified = snap.Modified
	}
}

// reportFailure updates the failure counter and fires the one-shot
// alert when the destination crosses the threshold.
func (s *Scheduler) reportFailure(ctx context.Context, name string, err error) {
	if !s.health.RecordFailure(name) {
		return
	}
	if s.notifier == nil {
		return
	}
	s.notifier.Alert(ctx, fmt.Sprintf("destination %s failed %d times in a row, last error: %v",
		name, s.health.Failures(name), err))
}

func (s *Scheduler) record(ctx context.Context, name string, item domain.Item) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, name, item); err != nil {
		lgr.Printf("[WARN] audit record for %q to %s failed: %v", item.ID, name, err)
	}
}
