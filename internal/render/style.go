package render

import (
	"fmt"
	"image/color"
	"strings"

	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// Background selects how a frame background is painted
type Background int

const (
	// BackgroundGradient paints a top-to-bottom linear gradient
	BackgroundGradient Background = iota

	// BackgroundSolid paints a single color
	BackgroundSolid
)

// Style holds the parsed palette for one content type. All colors are
// resolved up front so rendering itself cannot hit a config error.
type Style struct {
	Background     Background
	GradientTop    color.RGBA
	GradientBottom color.RGBA
	Solid          color.RGBA
	Text           color.RGBA
	Accent         color.RGBA
	HasAccent      bool
}

// Palette is the raw hex palette of a content type record
type Palette struct {
	Background     string // "gradient" or "solid"
	GradientTop    string
	GradientBottom string
	SolidColor     string
	TextColor      string
	AccentColor    string
}

// NewStyle parses a palette into a Style
func NewStyle(p Palette) (Style, error) {
	s := Style{}

	switch p.Background {
	case "", "gradient":
		s.Background = BackgroundGradient
		top, err := ParseHexColor(p.GradientTop)
		if err != nil {
			return Style{}, err
		}
		bottom, err := ParseHexColor(p.GradientBottom)
		if err != nil {
			return Style{}, err
		}
		s.GradientTop = top
		s.GradientBottom = bottom
	case "solid":
		s.Background = BackgroundSolid
		solid, err := ParseHexColor(p.SolidColor)
		if err != nil {
			return Style{}, err
		}
		s.Solid = solid
	default:
		return Style{}, kiinerrors.New(fmt.Sprintf("unknown background %q", p.Background)).
			WithCode(kiinerrors.CodeInvalidConfig)
	}

	text := p.TextColor
	if text == "" {
		text = "#FFFFFF"
	}
	textColor, err := ParseHexColor(text)
	if err != nil {
		return Style{}, err
	}
	s.Text = textColor

	if p.AccentColor != "" {
		accent, err := ParseHexColor(p.AccentColor)
		if err != nil {
			return Style{}, err
		}
		s.Accent = accent
		s.HasAccent = true
	}

	return s, nil
}

// ParseHexColor parses #RGB or #RRGGBB into an opaque RGBA color
func ParseHexColor(s string) (color.RGBA, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")

	invalid := func() (color.RGBA, error) {
		return color.RGBA{}, kiinerrors.New(fmt.Sprintf("invalid hex color %q", s)).
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("color", s)
	}

	switch len(raw) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = raw[i]
			expanded[2*i+1] = raw[i]
		}
		raw = string(expanded)
	case 6:
	default:
		return invalid()
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(raw[2*i])
		lo, ok2 := hexNibble(raw[2*i+1])
		if !ok1 || !ok2 {
			return invalid()
		}
		rgb[i] = hi<<4 | lo
	}

	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xFF}, nil
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// lerpColor linearly interpolates between two colors; t is clamped to [0,1]
func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{
		R: mix(a.R, b.R),
		G: mix(a.G, b.G),
		B: mix(a.B, b.B),
		A: 0xFF,
	}
}
