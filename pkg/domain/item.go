package domain

import "time"

// Item is one deliverable unit from the source feed. It is built once
// per fetch from raw feed data and never mutated; only its ID is
// persisted (in the ledger sent rings and as the cursor).
type Item struct {
	ID        string // stable identifier: guid, falling back to link, then title
	Title     string
	URL       string // canonical article URL
	Body      string // plain text, HTML already stripped
	Tags      []string
	Author    string
	Category  string
	Published time.Time // zero if the feed provided no usable timestamp
}
