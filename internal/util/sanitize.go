package util

import (
	"strings"
	"unicode"
)

// MaxHeaderRunes keeps a folded header comfortably under the 998 octet line
// limit of RFC 5322.
const MaxHeaderRunes = 255

// SanitizeHeader makes user input safe for a single mail header value. Control
// characters (CR and LF included) and invisible format runes are dropped, runs
// of whitespace collapse to one space, and the result is truncated by runes.
func SanitizeHeader(value string) string {
	builder := strings.Builder{}
	builder.Grow(len(value))

	space := false
	for _, char := range value {
		switch {
		case unicode.IsSpace(char):
			space = builder.Len() > 0
			continue
		case unicode.IsControl(char) || isInvisibleUnicode(char):
			continue
		}

		if space {
			builder.WriteByte(' ')
			space = false
		}
		builder.WriteRune(char)
	}

	runes := []rune(builder.String())
	if len(runes) > MaxHeaderRunes {
		runes = runes[:MaxHeaderRunes]
	}

	return strings.TrimSpace(string(runes))
}

// isInvisibleUnicode reports zero-width and other format runes that render as
// nothing but survive into the header.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF': // BOM
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
