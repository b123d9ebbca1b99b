package textx

import (
	"testing"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty string", "", true},
		{"spaces only", "   ", true},
		{"tabs and newlines", "\t\n ", true},
		{"non-blank", "hook", false},
		{"unicode space", " ", true},
		{"text with spaces", "  x  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBlank(tt.input); got != tt.want {
				t.Errorf("IsBlank(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"doubled spaces", "stop  interrupting", "stop interrupting"},
		{"newlines", "let them\nfinish", "let them finish"},
		{"leading and trailing", "  padded  ", "padded"},
		{"already clean", "clean text", "clean text"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollapseWhitespace(tt.input); got != tt.want {
				t.Errorf("CollapseWhitespace(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnsureSentenceEnd(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text gets period", "Stop interrupting", "Stop interrupting."},
		{"period preserved", "Done.", "Done."},
		{"question preserved", "Really?", "Really?"},
		{"exclamation preserved", "Go!", "Go!"},
		{"trailing space trimmed first", "Go! ", "Go!"},
		{"ellipsis preserved", "Wait…", "Wait…"},
		{"empty stays empty", "", ""},
		{"whitespace only collapses to empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureSentenceEnd(tt.input); got != tt.want {
				t.Errorf("EnsureSentenceEnd(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinSentences(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{
			name:  "three sections",
			parts: []string{"Stop interrupting", "Let them finish their thought", "You're doing great"},
			want:  "Stop interrupting. Let them finish their thought. You're doing great.",
		},
		{
			name:  "blank middle section skipped",
			parts: []string{"Hook", "   ", "Closing"},
			want:  "Hook. Closing.",
		},
		{
			name:  "existing punctuation kept",
			parts: []string{"Really?", "Yes!"},
			want:  "Really? Yes!",
		},
		{
			name:  "all blank",
			parts: []string{"", "  "},
			want:  "",
		},
		{
			name:  "internal whitespace collapsed",
			parts: []string{"too   many\nspaces"},
			want:  "too many spaces.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinSentences(tt.parts...); got != tt.want {
				t.Errorf("JoinSentences(%v) = %q, want %q", tt.parts, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		ellipsis string
		want     string
	}{
		{"fits unchanged", "short", 10, "...", "short"},
		{"truncated with ellipsis", "a very long caption", 10, "...", "a very ..."},
		{"zero max", "anything", 0, "...", ""},
		{"ellipsis longer than max", "abcdef", 2, "...", "ab"},
		{"unicode not split", "héllo wörld", 7, "…", "héllo …"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen, tt.ellipsis); got != tt.want {
				t.Errorf("Truncate(%q, %d, %q) = %q, want %q", tt.input, tt.maxLen, tt.ellipsis, got, tt.want)
			}
		})
	}
}

func TestFirstNonBlank(t *testing.T) {
	if got := FirstNonBlank("", "  ", "fallback", "later"); got != "fallback" {
		t.Errorf("FirstNonBlank = %q, want fallback", got)
	}
	if got := FirstNonBlank("", "  "); got != "" {
		t.Errorf("FirstNonBlank of all blanks = %q, want empty", got)
	}
}

func TestWords(t *testing.T) {
	got := Words("  stop  interrupting now ")
	want := []string{"stop", "interrupting", "now"}

	if len(got) != len(want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Words()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
