package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/plan"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
)

// testBrand uses a small canvas so frame generation stays fast. Font
// paths are empty, which forces the built-in bitmap face.
func testBrand() config.BrandConfig {
	return config.BrandConfig{
		Width:       270,
		Height:      480,
		FPS:         30,
		Margin:      24,
		TitleSize:   0, // unused with the built-in face
		BodySize:    0,
		LineSpacing: 4,
	}
}

func testStyle(t *testing.T) Style {
	t.Helper()
	style, err := NewStyle(Palette{
		Background:     "gradient",
		GradientTop:    "#1B2A4A",
		GradientBottom: "#3E5C96",
		TextColor:      "#FFFFFF",
		AccentColor:    "#FFD166",
	})
	if err != nil {
		t.Fatalf("NewStyle() error = %v", err)
	}
	return style
}

func TestNewFallsBackWithoutFonts(t *testing.T) {
	r := New(testBrand(), nil)

	if !r.UsingFallbackFonts() {
		t.Error("empty font paths should use the built-in face")
	}
}

func TestNewFallsBackOnBadFontFile(t *testing.T) {
	brand := testBrand()
	bad := filepath.Join(t.TempDir(), "not-a-font.ttf")
	if err := os.WriteFile(bad, []byte("definitely not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	brand.TitleFont = bad

	r := New(brand, nil)
	if !r.UsingFallbackFonts() {
		t.Error("unparseable font should fall back, not fail")
	}

	// Rendering must still work.
	section := plan.Section{Name: plan.SectionHook, Text: "Stop interrupting", Duration: 3}
	img := r.RenderSection(section, testStyle(t))
	if img == nil {
		t.Fatal("RenderSection() returned nil image")
	}
}

func TestRenderSectionCanvasSize(t *testing.T) {
	r := New(testBrand(), nil)
	section := plan.Section{Name: plan.SectionBody, Text: "Let them finish their thought", Duration: 8}

	img := r.RenderSection(section, testStyle(t))

	bounds := img.Bounds()
	if bounds.Dx() != 270 || bounds.Dy() != 480 {
		t.Errorf("frame size = %dx%d, want 270x480", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderSectionEmptyTextIsValid(t *testing.T) {
	r := New(testBrand(), nil)
	section := plan.Section{Name: plan.SectionBody, Text: "", Duration: 8}

	img := r.RenderSection(section, testStyle(t))
	if img == nil {
		t.Fatal("RenderSection() with empty text returned nil image")
	}
	if img.Bounds().Dx() != 270 || img.Bounds().Dy() != 480 {
		t.Errorf("textless frame size = %dx%d, want 270x480", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRenderSectionDeterministic(t *testing.T) {
	r := New(testBrand(), nil)
	section := plan.Section{Name: plan.SectionHook, Text: "Close the tabs", Duration: 3}
	style := testStyle(t)

	first := r.RenderSection(section, style)
	second := r.RenderSection(section, style)

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("same section and style should render identical pixels")
	}
}

func TestRenderSectionGradientRuns(t *testing.T) {
	r := New(testBrand(), nil)
	section := plan.Section{Name: plan.SectionBody, Text: "", Duration: 8}

	img := r.RenderSection(section, testStyle(t))

	// Top row should match the top gradient color, bottom row the
	// bottom color.
	topR, topG, topB, _ := img.At(10, 0).RGBA()
	botR, botG, botB, _ := img.At(10, 479).RGBA()

	if topR>>8 != 0x1B || topG>>8 != 0x2A || topB>>8 != 0x4A {
		t.Errorf("top pixel = %x/%x/%x, want 1b/2a/4a", topR>>8, topG>>8, topB>>8)
	}
	if botR>>8 != 0x3E || botG>>8 != 0x5C || botB>>8 != 0x96 {
		t.Errorf("bottom pixel = %x/%x/%x, want 3e/5c/96", botR>>8, botG>>8, botB>>8)
	}
}

func TestRenderPlanProducesFramePerSection(t *testing.T) {
	r := New(testBrand(), nil)
	p := plan.Plan{Sections: []plan.Section{
		{Name: plan.SectionHook, Text: "Stop interrupting", Duration: 3},
		{Name: plan.SectionBody, Text: "Let them finish", Duration: 8},
		{Name: plan.SectionClosing, Text: "You're doing great", Duration: 4},
	}}

	frames := r.RenderPlan(p, testStyle(t))

	if len(frames) != 3 {
		t.Fatalf("RenderPlan() returned %d frames, want 3", len(frames))
	}

	for i, frame := range frames {
		if frame.Section.Name != p.Sections[i].Name {
			t.Errorf("frame %d section = %q, want %q", i, frame.Section.Name, p.Sections[i].Name)
		}
		if frame.Image == nil {
			t.Errorf("frame %d has no image", i)
		}
	}

	// Different texts and anchors must produce distinct frames.
	if bytes.Equal(frames[0].Image.Pix, frames[1].Image.Pix) {
		t.Error("hook and body frames should differ")
	}
	if bytes.Equal(frames[1].Image.Pix, frames[2].Image.Pix) {
		t.Error("body and closing frames should differ")
	}
}
