package render

import (
	"golang.org/x/image/font"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
)

// wrapText packs words greedily onto lines whose measured pixel width
// stays within maxWidth. A single word wider than the budget is placed
// alone on its own line, never truncated or hyphenated. Empty input
// yields no lines.
func wrapText(face font.Face, text string, maxWidth int) []string {
	words := textx.Words(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""

	for _, word := range words {
		if current == "" {
			// A fresh line takes the word unconditionally.
			current = word
			continue
		}

		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
		} else {
			lines = append(lines, current)
			current = word
		}
	}

	if current != "" {
		lines = append(lines, current)
	}

	return lines
}

// lineWidth returns the measured pixel width of a rendered line
func lineWidth(face font.Face, line string) int {
	return font.MeasureString(face, line).Ceil()
}
