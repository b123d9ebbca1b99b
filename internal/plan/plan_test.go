package plan

import (
	"math"
	"testing"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/content"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

var defaultTiming = Timing{Hook: 3, Body: 8, Closing: 4}

func sampleItem() content.Item {
	return content.Item{
		ID:       1,
		Category: "communication",
		Hook:     "Stop interrupting",
		Body:     "Let them finish their thought",
		Closing:  "You're doing great",
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildThreeSections(t *testing.T) {
	p, err := Build(sampleItem(), Spec{Timing: defaultTiming})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(p.Sections) != 3 {
		t.Fatalf("Build() produced %d sections, want 3", len(p.Sections))
	}

	wantOrder := []SectionName{SectionHook, SectionBody, SectionClosing}
	for i, want := range wantOrder {
		if p.Sections[i].Name != want {
			t.Errorf("section %d = %q, want %q", i, p.Sections[i].Name, want)
		}
	}

	if !almostEqual(p.Total(), 15) {
		t.Errorf("Total() = %v, want 15", p.Total())
	}

	for _, s := range p.Sections {
		if s.Duration <= 0 {
			t.Errorf("section %q has non-positive duration %v", s.Name, s.Duration)
		}
	}
}

func TestBuildWithTransition(t *testing.T) {
	spec := Spec{
		Timing:         Timing{Hook: 3, Transition: 2, Body: 8, Closing: 4},
		TransitionText: "The truth?",
	}

	p, err := Build(sampleItem(), spec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(p.Sections) != 4 {
		t.Fatalf("Build() produced %d sections, want 4", len(p.Sections))
	}
	if p.Sections[1].Name != SectionTransition {
		t.Errorf("section 1 = %q, want transition", p.Sections[1].Name)
	}
	if p.Sections[1].Text != "The truth?" {
		t.Errorf("transition text = %q", p.Sections[1].Text)
	}
	if !almostEqual(p.Total(), 17) {
		t.Errorf("Total() = %v, want 17", p.Total())
	}
}

func TestBuildEmptyBodyStillPlansSection(t *testing.T) {
	item := sampleItem()
	item.Body = ""

	p, err := Build(item, Spec{Timing: defaultTiming})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(p.Sections) != 3 {
		t.Fatalf("Build() produced %d sections, want 3", len(p.Sections))
	}
	if p.Sections[1].Text != "" {
		t.Errorf("body text = %q, want empty", p.Sections[1].Text)
	}
	if p.Sections[1].Duration != 8 {
		t.Errorf("body duration = %v, want 8", p.Sections[1].Duration)
	}
}

func TestBuildScalesToDurationTarget(t *testing.T) {
	item := sampleItem()
	item.DurationTarget = 30 // table sums to 15, so everything doubles

	p, err := Build(item, Spec{Timing: defaultTiming})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !almostEqual(p.Total(), 30) {
		t.Errorf("Total() = %v, want 30", p.Total())
	}
	if !almostEqual(p.Sections[0].Duration, 6) {
		t.Errorf("hook duration = %v, want 6", p.Sections[0].Duration)
	}
}

func TestBuildRejectsBadTiming(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"zero hook", Spec{Timing: Timing{Hook: 0, Body: 8, Closing: 4}}},
		{"negative body", Spec{Timing: Timing{Hook: 3, Body: -1, Closing: 4}}},
		{"transition text without duration", Spec{Timing: defaultTiming, TransitionText: "Truth?"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(sampleItem(), tt.spec)
			if err == nil {
				t.Fatal("Build() should fail")
			}
			if !kiinerrors.HasCode(err, kiinerrors.CodeInvalidConfig) {
				t.Errorf("error code = %v, want %v", kiinerrors.GetCode(err), kiinerrors.CodeInvalidConfig)
			}
		})
	}
}

func TestBuildCollapsesWhitespace(t *testing.T) {
	item := sampleItem()
	item.Hook = "Stop\n  interrupting"

	p, err := Build(item, Spec{Timing: defaultTiming})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Sections[0].Text != "Stop interrupting" {
		t.Errorf("hook text = %q, want whitespace collapsed", p.Sections[0].Text)
	}
}

func TestScript(t *testing.T) {
	p, err := Build(sampleItem(), Spec{Timing: defaultTiming})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := "Stop interrupting. Let them finish their thought. You're doing great."
	if got := p.Script(); got != want {
		t.Errorf("Script() = %q, want %q", got, want)
	}
}

func TestScriptSkipsBlankSections(t *testing.T) {
	item := sampleItem()
	item.Body = ""

	p, err := Build(item, Spec{Timing: defaultTiming})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := "Stop interrupting. You're doing great."
	if got := p.Script(); got != want {
		t.Errorf("Script() = %q, want %q", got, want)
	}
}

func TestReconcileStretchesLastSection(t *testing.T) {
	p, _ := Build(sampleItem(), Spec{Timing: defaultTiming})

	// Narration ran long: 18s measured vs 15s planned.
	adjusted, changed := p.Reconcile(18, 0.5)
	if !changed {
		t.Fatal("Reconcile() should report a change")
	}
	if !almostEqual(adjusted.Total(), 18) {
		t.Errorf("Total() = %v, want 18", adjusted.Total())
	}
	if !almostEqual(adjusted.Sections[2].Duration, 7) {
		t.Errorf("closing duration = %v, want 7", adjusted.Sections[2].Duration)
	}

	// Earlier sections untouched.
	if adjusted.Sections[0].Duration != 3 || adjusted.Sections[1].Duration != 8 {
		t.Error("Reconcile() should only touch the last section")
	}

	// Original plan unchanged.
	if !almostEqual(p.Total(), 15) {
		t.Error("Reconcile() mutated the original plan")
	}
}

func TestReconcileShrinksWithFloor(t *testing.T) {
	p, _ := Build(sampleItem(), Spec{Timing: defaultTiming})

	// Narration much shorter than planned: closing would go negative,
	// so it clamps to the floor.
	adjusted, changed := p.Reconcile(10, 0.5)
	if !changed {
		t.Fatal("Reconcile() should report a change")
	}
	if !almostEqual(adjusted.Sections[2].Duration, 0.5) {
		t.Errorf("closing duration = %v, want clamped to 0.5", adjusted.Sections[2].Duration)
	}

	// Mild shrink lands exactly.
	adjusted, _ = p.Reconcile(13, 0.5)
	if !almostEqual(adjusted.Sections[2].Duration, 2) {
		t.Errorf("closing duration = %v, want 2", adjusted.Sections[2].Duration)
	}
	if !almostEqual(adjusted.Total(), 13) {
		t.Errorf("Total() = %v, want 13", adjusted.Total())
	}
}

func TestReconcileNoopCases(t *testing.T) {
	p, _ := Build(sampleItem(), Spec{Timing: defaultTiming})

	if _, changed := p.Reconcile(15, 0.5); changed {
		t.Error("Reconcile() with matching duration should not change the plan")
	}
	if _, changed := p.Reconcile(0, 0.5); changed {
		t.Error("Reconcile() with zero measurement should not change the plan")
	}
	if _, changed := p.Reconcile(-3, 0.5); changed {
		t.Error("Reconcile() with negative measurement should not change the plan")
	}
}
