package feed

import "github.com/feedrelay/feedrelay/pkg/domain"

// Backlog computes the ordered list of items newer than the cursor.
// items must be in feed order (newest first); the result is oldest
// first, ready for in-order dispatch. cursorFound is false when the
// whole snapshot was consumed without meeting the cursor: the gap is
// too large or the feed was rewritten, and the caller must reseed
// instead of replaying possibly-already-seen history.
func Backlog(items []domain.Item, cursor string) (backlog []domain.Item, cursorFound bool) {
	collected := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.ID == cursor {
			cursorFound = true
			break
		}
		collected = append(collected, it)
	}

	// reverse to oldest-first
	backlog = make([]domain.Item, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		backlog = append(backlog, collected[i])
	}
	return backlog, cursorFound
}

// Bound truncates an oldest-first backlog to at most max items, keeping
// the newest ones. Dropped items are lost for delivery on purpose: the
// bound is a safety valve against replaying a huge gap, not a queue.
func Bound(backlog []domain.Item, max int) []domain.Item {
	if max <= 0 || len(backlog) <= max {
		return backlog
	}
	return backlog[len(backlog)-max:]
}
