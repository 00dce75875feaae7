package pixel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/BeatGlow/sh1106/draw"
)

// Panel resolution.
const (
	Width  = 128
	Height = 64
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Bitmap is a fixed-size 1-bit per pixel grid of Height rows by Width columns.
//
// Row 0 is the topmost physical row. The zero value is a valid, all-off bitmap.
type Bitmap struct {
	pix [Height][Width]bool
}

// NewBitmap returns an all-off bitmap.
func NewBitmap() *Bitmap {
	return new(Bitmap)
}

// SetPixel sets the pixel at (row, col).
func (p *Bitmap) SetPixel(row, col int, on bool) error {
	if row < 0 || row >= Height || col < 0 || col >= Width {
		return fmt.Errorf("%w: row %d, col %d", ErrOutOfRange, row, col)
	}
	p.pix[row][col] = on
	return nil
}

// Pixel reports whether the pixel at (row, col) is on. Coordinates outside the
// grid read as off.
func (p *Bitmap) Pixel(row, col int) bool {
	if row < 0 || row >= Height || col < 0 || col >= Width {
		return false
	}
	return p.pix[row][col]
}

// Row returns the pixels of one row. It panics if row is out of range.
func (p *Bitmap) Row(row int) *[Width]bool {
	return &p.pix[row]
}

func (p *Bitmap) Clear() {
	p.pix = [Height][Width]bool{}
}

func (p *Bitmap) Fill(c color.Color) {
	on := monoModel(c).(Mono).On
	for y := range p.pix {
		for x := range p.pix[y] {
			p.pix[y][x] = on
		}
	}
}

func (p *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

func (p *Bitmap) ColorModel() color.Model {
	return MonoModel
}

func (p *Bitmap) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Bounds()) {
		return color.Transparent
	}
	return Mono{On: p.pix[y][x]}
}

func (p *Bitmap) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Bounds()) {
		return
	}
	p.pix[y][x] = monoModel(c).(Mono).On
}

// LoadSamples thresholds a row-major buffer of 8-bit grayscale samples into the
// bitmap. The declared size must be exactly Width×Height.
func (p *Bitmap) LoadSamples(pix []byte, w, h int) error {
	if w != Width || h != Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrDimensionMismatch, w, h, Width, Height)
	}
	if len(pix) != w*h {
		return fmt.Errorf("%w: got %d samples, want %d", ErrDimensionMismatch, len(pix), w*h)
	}
	for y := 0; y < Height; y++ {
		row := pix[y*Width : (y+1)*Width]
		for x, sample := range row {
			p.pix[y][x] = Threshold(sample)
		}
	}
	return nil
}

// LoadGray thresholds a grayscale image into the bitmap. It panics if src is nil.
func (p *Bitmap) LoadGray(src *image.Gray) error {
	size := src.Rect.Size()
	if size.X != Width || size.Y != Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrDimensionMismatch, size.X, size.Y, Width, Height)
	}
	for y := 0; y < Height; y++ {
		off := y * src.Stride
		for x := 0; x < Width; x++ {
			p.pix[y][x] = Threshold(src.Pix[off+x])
		}
	}
	return nil
}

// FromSamples returns a new bitmap thresholded from 8-bit grayscale samples.
func FromSamples(pix []byte, w, h int) (*Bitmap, error) {
	p := NewBitmap()
	if err := p.LoadSamples(pix, w, h); err != nil {
		return nil, err
	}
	return p, nil
}

// Interface checks.
var (
	_ Image = (*Bitmap)(nil)
)
