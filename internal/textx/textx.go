// Package textx provides the text normalization used to turn raw pack
// fields into narration scripts and frame captions. Everything here is
// Unicode-aware: pack authors paste from editors that love smart quotes
// and doubled spaces.
package textx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsBlank returns true if the string is empty or contains only whitespace
func IsBlank(s string) bool {
	if len(s) == 0 {
		return true
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// CollapseWhitespace trims the string and replaces every run of
// whitespace (including newlines) with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EnsureSentenceEnd appends a period when the string does not already
// end with sentence punctuation. TTS engines pause on terminal
// punctuation, so joined sections read as separate sentences.
func EnsureSentenceEnd(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if s == "" {
		return s
	}
	last, _ := utf8.DecodeLastRuneInString(s)
	switch last {
	case '.', '!', '?', ':', ';', '…':
		return s
	}
	return s + "."
}

// JoinSentences joins non-blank parts into one narration script. Each
// part is whitespace-collapsed and terminated so the synthesizer reads
// them as distinct sentences.
func JoinSentences(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = CollapseWhitespace(p)
		if p == "" {
			continue
		}
		out = append(out, EnsureSentenceEnd(p))
	}
	return strings.Join(out, " ")
}

// Truncate truncates a string to maxLen runes, adding an ellipsis if
// truncated. Multi-byte characters are never split.
func Truncate(s string, maxLen int, ellipsis string) string {
	if maxLen <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	ellipsisLen := utf8.RuneCountInString(ellipsis)
	if ellipsisLen >= maxLen {
		return string([]rune(s)[:maxLen])
	}

	return string([]rune(s)[:maxLen-ellipsisLen]) + ellipsis
}

// FirstNonBlank returns the first non-blank string from the provided
// strings, useful for field fallback chains
func FirstNonBlank(values ...string) string {
	for _, s := range values {
		if !IsBlank(s) {
			return s
		}
	}
	return ""
}

// Words splits a string into whitespace-separated words
func Words(s string) []string {
	return strings.Fields(s)
}
