package service

import (
	"strings"
	"unicode/utf8"
)

// sanitizeUTF8 drops bytes that are not valid UTF-8. Recognizer output and
// reviewer-entered claim text pass through it before they reach the store,
// since Postgres TEXT columns reject invalid sequences.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}
