package feed

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// Converter maps raw gofeed items to the immutable Item value type with
// an explicit ordered fallback per attribute: id from guid, then link,
// then title; body from content, then description; publish time from
// published, then updated. No reflection, plain conditionals.
type Converter struct {
	base     *url.URL
	sanitize *bluemonday.Policy
}

// NewConverter creates a converter resolving relative links against baseURL.
func NewConverter(baseURL string) *Converter {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil // absolute item links still work
	}
	return &Converter{base: base, sanitize: bluemonday.StrictPolicy()}
}

// Convert builds an Item from a parsed feed entry.
func (c *Converter) Convert(it *gofeed.Item) domain.Item {
	res := domain.Item{
		ID:    itemID(it),
		Title: it.Title,
		URL:   c.resolveLink(it.Link),
		Body:  c.stripHTML(itemHTML(it)),
		Tags:  NormalizeTags(it.Categories),
	}

	if len(it.Authors) > 0 {
		res.Author = strings.TrimSpace(it.Authors[0].Name)
	} else if it.Author != nil {
		res.Author = strings.TrimSpace(it.Author.Name)
	}

	if len(it.Categories) > 0 {
		res.Category = strings.TrimSpace(it.Categories[0])
	}

	if it.PublishedParsed != nil {
		res.Published = *it.PublishedParsed
	} else if it.UpdatedParsed != nil {
		res.Published = *it.UpdatedParsed
	}
	return res
}

// itemID picks the stable identifier: guid, then link, then title.
func itemID(it *gofeed.Item) string {
	if it.GUID != "" {
		return it.GUID
	}
	if it.Link != "" {
		return it.Link
	}
	return it.Title
}

// itemHTML picks the raw body: full content when present, description otherwise.
func itemHTML(it *gofeed.Item) string {
	if it.Content != "" {
		return it.Content
	}
	return it.Description
}

func (c *Converter) resolveLink(link string) string {
	if link == "" || c.base == nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return c.base.ResolveReference(ref).String()
}

var (
	reBreaks     = regexp.MustCompile(`(?i)<br\s*/?>|</p\s*>`)
	reManyBlanks = regexp.MustCompile(`\n{3,}`)
)

// stripHTML converts an HTML fragment to plain text: block breaks become
// newlines, all remaining markup is removed, entities are unescaped and
// runs of blank lines collapsed.
func (c *Converter) stripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	txt := reBreaks.ReplaceAllString(raw, "\n")
	txt = c.sanitize.Sanitize(txt)
	txt = html.UnescapeString(txt)
	txt = reManyBlanks.ReplaceAllString(txt, "\n\n")
	return strings.TrimSpace(txt)
}

var (
	reTagSplit  = regexp.MustCompile(`[;,/|]\s*|\s+#`)
	reTagSpaces = regexp.MustCompile(`\s+`)
)

// NormalizeTags turns raw category terms into canonical "#tag" markers:
// terms are split on common separators and inline hashtags, whitespace
// inside a tag is dropped, and duplicates are removed case-insensitively
// keeping the first spelling.
func NormalizeTags(terms []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, term := range terms {
		term = strings.TrimSpace(strings.ReplaceAll(term, "#", " #"))
		if term == "" {
			continue
		}
		for _, part := range reTagSplit.Split(term, -1) {
			part = reTagSpaces.ReplaceAllString(strings.TrimSpace(part), "")
			part = strings.TrimPrefix(part, "#")
			if part == "" {
				continue
			}
			tag := "#" + part
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}
