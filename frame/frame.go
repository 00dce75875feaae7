// Package frame loads image files as 128×64 grayscale frames.
package frame

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/MaxHalford/halfgone"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP, imaging registers the rest

	"github.com/BeatGlow/sh1106/draw"
	"github.com/BeatGlow/sh1106/pixel"
)

// Dither selects how grayscale is reduced before thresholding.
type Dither uint8

// Dithering methods.
const (
	NoDither Dither = iota
	FloydSteinberg
	SierraLite
)

func (d Dither) String() string {
	switch d {
	case FloydSteinberg:
		return "floyd-steinberg"
	case SierraLite:
		return "sierra-lite"
	default:
		return "none"
	}
}

// ParseDither parses the names returned by Dither.String.
func ParseDither(name string) (Dither, error) {
	switch strings.ToLower(name) {
	case "", "none", "no":
		return NoDither, nil
	case "floyd-steinberg", "fs":
		return FloydSteinberg, nil
	case "sierra-lite", "sierra":
		return SierraLite, nil
	default:
		return NoDither, fmt.Errorf("frame: unknown dithering %q", name)
	}
}

type ditherer interface {
	Apply(gray *image.Gray) *image.Gray
}

func (d Dither) ditherer() ditherer {
	switch d {
	case FloydSteinberg:
		return halfgone.FloydSteinbergDitherer{}
	case SierraLite:
		return halfgone.SierraLiteDitherer{}
	default:
		return nil
	}
}

// Options control the conversion of a decoded image.
type Options struct {
	// Fit scales and center crops the image to the panel. Without it, images of
	// any other size are rejected.
	Fit bool

	// Invert swaps dark and light.
	Invert bool

	Dither Dither
}

// Load opens and decodes the named file, honoring EXIF orientation.
func Load(name string, opts *Options) (*image.Gray, error) {
	img, err := imaging.Open(name, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	return Convert(img, opts)
}

// Decode is like Load for an encoded image read from r.
func Decode(r io.Reader, opts *Options) (*image.Gray, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	return Convert(img, opts)
}

// Convert turns img into a panel sized grayscale frame.
func Convert(img image.Image, opts *Options) (*image.Gray, error) {
	if opts == nil {
		opts = new(Options)
	}

	size := img.Bounds().Size()
	if size.X != pixel.Width || size.Y != pixel.Height {
		if !opts.Fit {
			return nil, fmt.Errorf("%w: image is %dx%d, want %dx%d",
				pixel.ErrDimensionMismatch, size.X, size.Y, pixel.Width, pixel.Height)
		}
		img = imaging.Fill(img, pixel.Width, pixel.Height, imaging.Center, imaging.Lanczos)
	}
	if opts.Invert {
		img = imaging.Invert(img)
	}

	r := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, pixel.Width, pixel.Height))
	draw.Draw(gray, gray.Bounds(), img, r.Min, draw.Src)

	if d := opts.Dither.ditherer(); d != nil {
		gray = d.Apply(gray)
	}
	return gray, nil
}
