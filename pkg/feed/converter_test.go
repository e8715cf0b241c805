package feed

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
)

func TestConverter_IDFallbacks(t *testing.T) {
	c := NewConverter("http://example.com")

	tests := []struct {
		name string
		item gofeed.Item
		want string
	}{
		{"guid preferred", gofeed.Item{GUID: "guid-1", Link: "http://e/1", Title: "t"}, "guid-1"},
		{"link when no guid", gofeed.Item{Link: "http://e/1", Title: "t"}, "http://e/1"},
		{"title as last resort", gofeed.Item{Title: "only title"}, "only title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Convert(&tt.item).ID)
		})
	}
}

func TestConverter_BodyFallbacks(t *testing.T) {
	c := NewConverter("http://example.com")

	item := c.Convert(&gofeed.Item{Content: "<p>full content</p>", Description: "short"})
	assert.Equal(t, "full content", item.Body, "content preferred over description")

	item = c.Convert(&gofeed.Item{Description: "<b>short</b> description"})
	assert.Equal(t, "short description", item.Body)
}

func TestConverter_StripHTML(t *testing.T) {
	c := NewConverter("http://example.com")

	raw := "<p>first paragraph</p><p>second &amp; third<br/>with break</p><script>evil()</script>"
	item := c.Convert(&gofeed.Item{Description: raw})
	assert.Equal(t, "first paragraph\nsecond & third\nwith break", item.Body)
	assert.NotContains(t, item.Body, "evil")
}

func TestConverter_ResolvesRelativeLinks(t *testing.T) {
	c := NewConverter("https://example.com")

	item := c.Convert(&gofeed.Item{Link: "/articles/42"})
	assert.Equal(t, "https://example.com/articles/42", item.URL)

	item = c.Convert(&gofeed.Item{Link: "https://other.com/x"})
	assert.Equal(t, "https://other.com/x", item.URL, "absolute links untouched")
}

func TestConverter_PublishedFallback(t *testing.T) {
	c := NewConverter("http://example.com")
	pub := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	upd := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, pub, c.Convert(&gofeed.Item{PublishedParsed: &pub, UpdatedParsed: &upd}).Published)
	assert.Equal(t, upd, c.Convert(&gofeed.Item{UpdatedParsed: &upd}).Published)
	assert.True(t, c.Convert(&gofeed.Item{}).Published.IsZero())
}

func TestConverter_Author(t *testing.T) {
	c := NewConverter("http://example.com")

	item := c.Convert(&gofeed.Item{Authors: []*gofeed.Person{{Name: " Jane Doe "}}})
	assert.Equal(t, "Jane Doe", item.Author)

	item = c.Convert(&gofeed.Item{Author: &gofeed.Person{Name: "Legacy Field"}})
	assert.Equal(t, "Legacy Field", item.Author)
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
		want  []string
	}{
		{"plain terms", []string{"politics", "economy"}, []string{"#politics", "#economy"}},
		{"separators", []string{"a;b, c/d|e"}, []string{"#a", "#b", "#c", "#d", "#e"}},
		{"inline hashtags", []string{"#one #two"}, []string{"#one", "#two"}},
		{"inner spaces collapsed", []string{"machine learning"}, []string{"#machinelearning"}},
		{"case-insensitive dedup", []string{"News", "news", "NEWS"}, []string{"#News"}},
		{"empty and blank dropped", []string{"", "  ", "ok"}, []string{"#ok"}},
		{"nil input", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.terms))
		})
	}
}
