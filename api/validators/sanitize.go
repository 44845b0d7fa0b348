package validators

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// SanitizeString trims, drops control characters and caps the result at
// maxLen runes. Interior whitespace runs collapse to one space.
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	count := 0
	pendingSpace := false
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			pendingSpace = count > 0
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			if maxLen > 0 && count >= maxLen {
				break
			}
			b.WriteRune(' ')
			count++
			pendingSpace = false
		}
		if maxLen > 0 && count >= maxLen {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText is SanitizeString for free text shown back to people (names,
// addresses): any markup is stripped before the length cap applies.
func SanitizeText(input string, maxLen int) string {
	stripped := html.UnescapeString(textPolicy.Sanitize(input))
	return SanitizeString(stripped, maxLen)
}
