package draw

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultFace is used when no face is given.
var DefaultFace font.Face = basicfont.Face7x13

// LoadFont loads a TrueType font file as a face of size points at 72 DPI, so one
// point is one panel pixel.
func LoadFont(name string, size float64) (font.Face, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("draw: can't parse font %s: %w", name, err)
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Text draws s with the left end of its baseline at pt and returns the point
// where the next glyph would be drawn.
func Text(dst Image, pt image.Point, face font.Face, c color.Color, s string) image.Point {
	if face == nil {
		face = DefaultFace
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(s)
	return image.Pt(d.Dot.X.Round(), d.Dot.Y.Round())
}

// TextBounds returns the pixel bounds of s drawn with its baseline origin at (0, 0).
func TextBounds(face font.Face, s string) image.Rectangle {
	if face == nil {
		face = DefaultFace
	}
	b, _ := font.BoundString(face, s)
	return image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
}
