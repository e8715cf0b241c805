package ledger

// Ledger is the durable delivery state: the cursor of the newest fully
// delivered item, HTTP cache validators for conditional refetch, and a
// bounded per-destination ring of delivered item IDs.
//
// An ID present in Sent[dest] means the item was delivered to that
// destination. Absence does not prove non-delivery (old entries are
// evicted), but for recent items absence means not-yet-delivered.
type Ledger struct {
	LastID   string              `json:"last_id"`
	ETag     string              `json:"etag"`
	Modified string              `json:"modified"`
	Sent     map[string][]string `json:"sent"`
}

// New returns an empty ledger with no cursor and no delivery history.
func New() *Ledger {
	return &Ledger{Sent: map[string][]string{}}
}

// HasSent reports whether the item was already delivered to the destination.
func (l *Ledger) HasSent(destination, id string) bool {
	for _, v := range l.Sent[destination] {
		if v == id {
			return true
		}
	}
	return false
}

// MarkSent records a confirmed delivery. Insertion is idempotent and
// keeps insertion order; the ring is truncated to ringSize, oldest first.
// Callers must only mark after the destination acknowledged the item:
// marking without having sent is never allowed.
func (l *Ledger) MarkSent(destination, id string, ringSize int) {
	if l.Sent == nil {
		l.Sent = map[string][]string{}
	}
	if !l.HasSent(destination, id) {
		l.Sent[destination] = append(l.Sent[destination], id)
	}
	if ringSize > 0 && len(l.Sent[destination]) > ringSize {
		l.Sent[destination] = l.Sent[destination][len(l.Sent[destination])-ringSize:]
	}
}

// Truncate bounds every destination ring to ringSize keeping the newest
// entries by insertion order.
func (l *Ledger) Truncate(ringSize int) {
	if ringSize <= 0 {
		return
	}
	for dest, ids := range l.Sent {
		if len(ids) > ringSize {
			l.Sent[dest] = ids[len(ids)-ringSize:]
		}
	}
}
