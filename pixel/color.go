package pixel

import "image/color"

// ThresholdLevel is the cut line between pixel off and pixel on for 8-bit
// grayscale samples. Samples strictly above it turn the pixel on.
const ThresholdLevel = 0xFF / 2

// MonoModel converts any color to Mono by thresholding its luminance.
var MonoModel color.Model = color.ModelFunc(monoModel)

var (
	Off = Mono{false}
	On  = Mono{true}
)

// Mono represents a 1-bit monochrome color.
type Mono struct {
	On bool
}

func (c Mono) RGBA() (r, g, b, a uint32) {
	if c.On {
		return 0xffff, 0xffff, 0xffff, 0xffff
	}
	return 0, 0, 0, 0xffff
}

// Threshold converts one 8-bit grayscale sample to a pixel state.
func Threshold(sample uint8) bool {
	return sample > ThresholdLevel
}

func monoModel(c color.Color) color.Color {
	switch c := c.(type) {
	case Mono:
		return c
	case color.Gray:
		return Mono{On: Threshold(c.Y)}
	}
	r, g, b, _ := c.RGBA()

	// These coefficients (the fractions 0.299, 0.587 and 0.114) are the same
	// as those given by the JFIF specification and used by func RGBToYCbCr in
	// ycbcr.go.
	//
	// Note that 19595 + 38470 + 7471 equals 65536. The 24 is 16 + 8: the sum
	// is scaled back to 8 bits so it can be compared with ThresholdLevel.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 24

	return Mono{On: Threshold(uint8(y))}
}
