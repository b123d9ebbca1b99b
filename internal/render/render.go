// Package render synthesizes the static frames a video is cut from:
// one fixed-resolution raster image per planned section, painted with
// the content type's palette and the brand's fonts. Frames are plain
// in-memory images; writing them to disk is the assembler's business.
// Font problems are never fatal: any face that fails to load is
// swapped for a built-in bitmap font so a missing font file degrades
// looks, not runs.
package render

import (
	"image"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/plan"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/config"
	"github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/logging"
)

// Frame couples a rendered image with the section it was drawn from.
// Frames belong to the assembler for the lifetime of one generation.
type Frame struct {
	Section plan.Section
	Image   *image.RGBA
}

// faceSet couples a font face with the effective size used for line
// height math. The fallback flag records that the configured font
// could not be loaded.
type faceSet struct {
	face     font.Face
	size     float64
	fallback bool
}

// Renderer draws section frames for one brand. Font faces are not
// safe for concurrent use, so create one Renderer per worker.
type Renderer struct {
	brand config.BrandConfig
	title faceSet
	body  faceSet
	log   *logging.Logger
}

// New creates a renderer for the given brand. Fonts are loaded once;
// a face that cannot be loaded falls back to the built-in bitmap font
// with a warning.
func New(brand config.BrandConfig, log *logging.Logger) *Renderer {
	r := &Renderer{
		brand: brand,
		log:   log,
	}
	r.title = r.loadFace(brand.TitleFont, brand.TitleSize)
	r.body = r.loadFace(brand.BodyFont, brand.BodySize)
	return r
}

func (r *Renderer) loadFace(path string, size float64) faceSet {
	fallback := faceSet{
		face:     basicfont.Face7x13,
		size:     13,
		fallback: true,
	}

	if path == "" {
		return fallback
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.warnFallback(path, err)
		return fallback
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		r.warnFallback(path, err)
		return fallback
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		r.warnFallback(path, err)
		return fallback
	}

	return faceSet{face: face, size: size}
}

func (r *Renderer) warnFallback(path string, err error) {
	if r.log != nil {
		r.log.WarnWithErr("font unavailable, using built-in face", err,
			logging.String("font", path))
	}
}

// UsingFallbackFonts reports whether any configured font failed to load
func (r *Renderer) UsingFallbackFonts() bool {
	return r.title.fallback || r.body.fallback
}

// RenderPlan renders every section of a plan and returns the frames in
// timeline order.
func (r *Renderer) RenderPlan(p plan.Plan, style Style) []Frame {
	frames := make([]Frame, 0, len(p.Sections))
	for _, section := range p.Sections {
		frames = append(frames, Frame{
			Section: section,
			Image:   r.RenderSection(section, style),
		})
	}
	return frames
}

// RenderSection draws one section frame. Blank text yields a
// background-only frame. Rendering cannot fail: fonts have a built-in
// fallback and the style's colors are resolved before this is called.
func (r *Renderer) RenderSection(section plan.Section, style Style) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.brand.Width, r.brand.Height))

	r.paintBackground(img, style)

	fs := r.faceFor(section.Name)
	maxWidth := r.brand.Width - 2*r.brand.Margin
	lines := wrapText(fs.face, section.Text, maxWidth)

	if len(lines) > 0 {
		blockBottom := r.drawLines(img, fs, style, section.Name, lines, maxWidth)
		if style.HasAccent && section.Name == plan.SectionHook {
			r.drawAccentBar(img, style, blockBottom)
		}
	}

	return img
}

// faceFor selects the face for a section: hooks carry the title face,
// everything else reads in the body face.
func (r *Renderer) faceFor(name plan.SectionName) faceSet {
	if name == plan.SectionHook || name == plan.SectionTransition {
		return r.title
	}
	return r.body
}

func (r *Renderer) paintBackground(img *image.RGBA, style Style) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	for y := 0; y < h; y++ {
		c := style.Solid
		if style.Background == BackgroundGradient {
			t := 0.0
			if h > 1 {
				t = float64(y) / float64(h-1)
			}
			c = lerpColor(style.GradientTop, style.GradientBottom, t)
		}

		rowStart := img.PixOffset(0, y)
		for x := 0; x < w; x++ {
			i := rowStart + x*4
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
}

// drawLines lays the wrapped block out around the section's vertical
// anchor and draws each line horizontally centered. It returns the
// block's bottom y coordinate.
func (r *Renderer) drawLines(img *image.RGBA, fs faceSet, style Style, name plan.SectionName, lines []string, maxWidth int) int {
	lineHeight := int(fs.size) + r.brand.LineSpacing
	blockHeight := len(lines) * lineHeight

	startY := r.anchorCenterY(name) - blockHeight/2
	if startY+blockHeight > r.brand.Height-r.brand.Margin {
		startY = r.brand.Height - r.brand.Margin - blockHeight
	}
	if startY < r.brand.Margin {
		startY = r.brand.Margin
	}

	ascent := fs.face.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(style.Text),
		Face: fs.face,
	}

	for i, line := range lines {
		width := lineWidth(fs.face, line)
		x := (r.brand.Width - width) / 2
		if x < r.brand.Margin && width <= maxWidth {
			x = r.brand.Margin
		}
		y := startY + i*lineHeight + ascent

		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}

	return startY + blockHeight
}

// anchorCenterY places hook text high and closing text low; body and
// transition sections sit in the middle of the frame.
func (r *Renderer) anchorCenterY(name plan.SectionName) int {
	switch name {
	case plan.SectionHook:
		return int(float64(r.brand.Height) * 0.30)
	case plan.SectionClosing:
		return int(float64(r.brand.Height) * 0.72)
	default:
		return r.brand.Height / 2
	}
}

// drawAccentBar paints a short horizontal bar centered under the text
// block, the one decorative element the palettes carry.
func (r *Renderer) drawAccentBar(img *image.RGBA, style Style, blockBottom int) {
	barWidth := r.brand.Width / 6
	barHeight := 10
	gap := 36

	x0 := (r.brand.Width - barWidth) / 2
	y0 := blockBottom + gap
	if y0+barHeight > r.brand.Height-r.brand.Margin {
		return
	}

	for y := y0; y < y0+barHeight; y++ {
		rowStart := img.PixOffset(x0, y)
		for x := 0; x < barWidth; x++ {
			i := rowStart + x*4
			img.Pix[i] = style.Accent.R
			img.Pix[i+1] = style.Accent.G
			img.Pix[i+2] = style.Accent.B
			img.Pix[i+3] = style.Accent.A
		}
	}
}
