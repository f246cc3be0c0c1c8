// Package emoji canonicalises raw reaction tokens into lookup keys.
package emoji

import "regexp"

// Custom emoji markup: <:name:id> or <a:name:id> for animated, plus the
// bare API form name:id / a:name:id used in reaction endpoints.
var (
	customMarkup = regexp.MustCompile(`^<(a)?:([\w~]+):(\d+)>$`)
	customAPI    = regexp.MustCompile(`^(?:a:)?[\w~]+:(\d+)$`)
)

// Canonical resolves a raw emoji token into a canonical lookup key.
// Custom emoji resolve to their numeric id regardless of the animated flag
// or display name; unicode emoji resolve to the token itself. ok is false
// for malformed tokens, which callers must treat as a no-op.
func Canonical(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	if m := customMarkup.FindStringSubmatch(token); m != nil {
		return m[3], true
	}
	if m := customAPI.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	// Anything else containing markup characters is a malformed custom
	// token, not a unicode grapheme.
	for _, r := range token {
		if r == '<' || r == '>' || r == ':' {
			return "", false
		}
	}
	return token, true
}
