package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

func items(ids ...string) []domain.Item {
	res := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		res = append(res, domain.Item{ID: id})
	}
	return res
}

func ids(items []domain.Item) []string {
	res := make([]string, 0, len(items))
	for _, it := range items {
		res = append(res, it.ID)
	}
	return res
}

func TestBacklog(t *testing.T) {
	tests := []struct {
		name      string
		feed      []string // newest first, as served
		cursor    string
		want      []string // oldest first
		wantFound bool
	}{
		{"cursor is newest, nothing new", []string{"id-5", "id-4", "id-3"}, "id-5", []string{}, true},
		{"one new item", []string{"id-6", "id-5", "id-4"}, "id-5", []string{"id-6"}, true},
		{"several new items ordered oldest first", []string{"id-8", "id-7", "id-6", "id-5"}, "id-5", []string{"id-6", "id-7", "id-8"}, true},
		{"cursor not in window", []string{"id-9", "id-8", "id-7"}, "id-2", []string{"id-7", "id-8", "id-9"}, false},
		{"empty snapshot", []string{}, "id-5", []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backlog, found := Backlog(items(tt.feed...), tt.cursor)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, ids(backlog))
		})
	}
}

func TestBound(t *testing.T) {
	backlog := items("id-1", "id-2", "id-3", "id-4", "id-5") // oldest first

	bounded := Bound(backlog, 2)
	assert.Equal(t, []string{"id-4", "id-5"}, ids(bounded), "newest kept, oldest dropped")

	assert.Len(t, Bound(backlog, 10), 5, "no-op when under the bound")
	assert.Len(t, Bound(backlog, 0), 5, "zero means unbounded")
}
