package validation

import (
	"regexp"
	"strings"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	htmlTag     = regexp.MustCompile(`<[^>]*>`)
)

// Sanitize removes embedded <script>...</script> blocks and surrounding
// whitespace. Removal repeats until nothing matches, so the result is a
// fixed point: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	return strings.TrimSpace(replaceAll(scriptBlock, s))
}

// StripTags removes anything shaped like an HTML tag and trims the result.
func StripTags(s string) string {
	return strings.TrimSpace(replaceAll(htmlTag, s))
}

func replaceAll(re *regexp.Regexp, s string) string {
	for {
		next := re.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}
