package publisher

import (
	"strings"
	"unicode/utf8"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// Truncate cuts text to at most limit characters, ending with "..."
// when something was dropped. Limits count runes, not bytes: platform
// caps are character-based and a byte cut could land mid-rune.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// Message builds the shared plain-text rendition of an item: title,
// body excerpt, canonical URL and a tag line, bounded to limit
// characters. Platform-specific dressing (embeds, markup, images) is
// each publisher's own business.
func Message(item domain.Item, limit int) string {
	fixed := item.Title
	if item.URL != "" {
		fixed += "\n\n" + item.URL
	}
	if len(item.Tags) > 0 {
		fixed += "\n" + strings.Join(item.Tags, " ")
	}

	if item.Body == "" {
		return Truncate(fixed, limit)
	}

	// body gets whatever room the fixed parts leave
	room := limit - utf8.RuneCountInString(fixed) - utf8.RuneCountInString("\n\n")
	if limit > 0 && room < 20 { // not enough room for a meaningful excerpt
		return Truncate(fixed, limit)
	}

	excerpt := item.Body
	if limit > 0 {
		excerpt = Truncate(excerpt, room)
	}

	res := item.Title + "\n\n" + excerpt
	if item.URL != "" {
		res += "\n\n" + item.URL
	}
	if len(item.Tags) > 0 {
		res += "\n" + strings.Join(item.Tags, " ")
	}
	return res
}
