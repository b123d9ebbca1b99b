package render

import (
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// basicfont.Face7x13 advances 7px per glyph, which makes expected
// widths easy to compute by hand.
func TestWrapTextGreedyPacking(t *testing.T) {
	face := basicfont.Face7x13

	// 20 chars * 7px = 140px budget.
	lines := wrapText(face, "one two three four five", 140)

	want := []string{"one two three four", "five"}
	if len(lines) != len(want) {
		t.Fatalf("wrapText() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWrapTextNoLineExceedsBudget(t *testing.T) {
	face := basicfont.Face7x13
	text := "the quick brown fox jumps over the lazy dog again and again until done"
	maxWidth := 100

	lines := wrapText(face, text, maxWidth)
	if len(lines) == 0 {
		t.Fatal("wrapText() returned no lines")
	}

	for _, line := range lines {
		width := font.MeasureString(face, line).Ceil()
		if width > maxWidth && len(strings.Fields(line)) > 1 {
			t.Errorf("multi-word line %q is %dpx, exceeds budget %d", line, width, maxWidth)
		}
	}

	// Re-joining the lines must reproduce the words in order.
	rejoined := strings.Join(lines, " ")
	if rejoined != text {
		t.Errorf("wrapped lines lost words:\n got %q\nwant %q", rejoined, text)
	}
}

func TestWrapTextOverlongWordAlone(t *testing.T) {
	face := basicfont.Face7x13

	// 30 chars * 7px = 210px, far over a 70px budget.
	lines := wrapText(face, "tiny supercalifragilisticexpial tiny", 70)

	want := []string{"tiny", "supercalifragilisticexpial", "tiny"}
	if len(lines) != len(want) {
		t.Fatalf("wrapText() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWrapTextEmpty(t *testing.T) {
	face := basicfont.Face7x13

	if lines := wrapText(face, "", 100); lines != nil {
		t.Errorf("wrapText(empty) = %v, want nil", lines)
	}
	if lines := wrapText(face, "   \n  ", 100); lines != nil {
		t.Errorf("wrapText(blank) = %v, want nil", lines)
	}
}

func TestWrapTextSingleWordFits(t *testing.T) {
	face := basicfont.Face7x13

	lines := wrapText(face, "hook", 100)
	if len(lines) != 1 || lines[0] != "hook" {
		t.Errorf("wrapText() = %v, want [hook]", lines)
	}
}
