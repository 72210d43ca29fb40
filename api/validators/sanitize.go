package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the result at maxRunes
// characters. Multi-byte characters are never split, so cut notes like
// "sin cebolla, jalapeño" stay valid UTF-8.
func SanitizeString(input string, maxRunes int) string {
	clean := strings.TrimSpace(input)
	if maxRunes <= 0 {
		return clean
	}
	count := 0
	for i := range clean {
		if count == maxRunes {
			return strings.TrimSpace(clean[:i])
		}
		count++
	}
	return clean
}
