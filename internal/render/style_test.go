package render

import (
	"image/color"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    color.RGBA
		wantErr bool
	}{
		{"six digit", "#1B2A4A", color.RGBA{0x1B, 0x2A, 0x4A, 0xFF}, false},
		{"lowercase", "#ffd166", color.RGBA{0xFF, 0xD1, 0x66, 0xFF}, false},
		{"three digit", "#F0A", color.RGBA{0xFF, 0x00, 0xAA, 0xFF}, false},
		{"no hash", "3E5C96", color.RGBA{0x3E, 0x5C, 0x96, 0xFF}, false},
		{"padded", " #000000 ", color.RGBA{0, 0, 0, 0xFF}, false},
		{"empty", "", color.RGBA{}, true},
		{"bad length", "#12345", color.RGBA{}, true},
		{"bad digit", "#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHexColor(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewStyleGradient(t *testing.T) {
	style, err := NewStyle(Palette{
		Background:     "gradient",
		GradientTop:    "#000000",
		GradientBottom: "#FFFFFF",
		TextColor:      "#FFD166",
		AccentColor:    "#FF6B6B",
	})
	if err != nil {
		t.Fatalf("NewStyle() error = %v", err)
	}

	if style.Background != BackgroundGradient {
		t.Error("Background should be gradient")
	}
	if !style.HasAccent {
		t.Error("HasAccent should be true")
	}
	if style.Text != (color.RGBA{0xFF, 0xD1, 0x66, 0xFF}) {
		t.Errorf("Text = %v", style.Text)
	}
}

func TestNewStyleSolid(t *testing.T) {
	style, err := NewStyle(Palette{
		Background: "solid",
		SolidColor: "#222233",
	})
	if err != nil {
		t.Fatalf("NewStyle() error = %v", err)
	}

	if style.Background != BackgroundSolid {
		t.Error("Background should be solid")
	}
	if style.HasAccent {
		t.Error("HasAccent should be false without accent color")
	}
	// Text color defaults to white.
	if style.Text != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("Text = %v, want white default", style.Text)
	}
}

func TestNewStyleErrors(t *testing.T) {
	tests := []struct {
		name    string
		palette Palette
	}{
		{"unknown background", Palette{Background: "plaid"}},
		{"bad gradient color", Palette{Background: "gradient", GradientTop: "#XYZ", GradientBottom: "#000"}},
		{"solid without color", Palette{Background: "solid"}},
		{"bad accent", Palette{Background: "solid", SolidColor: "#000", AccentColor: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStyle(tt.palette); err == nil {
				t.Error("NewStyle() should fail")
			}
		})
	}
}

func TestLerpColor(t *testing.T) {
	black := color.RGBA{0, 0, 0, 0xFF}
	white := color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}

	if got := lerpColor(black, white, 0); got != black {
		t.Errorf("lerp(0) = %v, want black", got)
	}
	if got := lerpColor(black, white, 1); got != white {
		t.Errorf("lerp(1) = %v, want white", got)
	}

	mid := lerpColor(black, white, 0.5)
	if mid.R < 0x7F || mid.R > 0x80 {
		t.Errorf("lerp(0.5).R = %#x, want about 0x80", mid.R)
	}

	// Out-of-range t is clamped.
	if got := lerpColor(black, white, -2); got != black {
		t.Errorf("lerp(-2) = %v, want black", got)
	}
	if got := lerpColor(black, white, 2); got != white {
		t.Errorf("lerp(2) = %v, want white", got)
	}
}
