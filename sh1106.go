// Package sh1106 drives a Sino Wealth SH1106 128×64 monochrome OLED controller.
//
// A frame is a [pixel.Bitmap]. [Encode] turns it into eight page transfers, each a
// three byte addressing command followed by 128 column bytes, and [Display] streams
// those over a [Conn] that multiplexes commands and data with a single selector line.
//
// The panel is mounted so that logical page p is stored in controller page 7-p and
// logical column c in the mirrored column 127-c; the encoder takes care of both.
//
// Datasheet: https://cdn.velleman.eu/downloads/29/infosheets/sh1106_datasheet.pdf
package sh1106

import (
	"os"

	"github.com/BeatGlow/sh1106/pixel"
)

var debug bool

func init() {
	debug = os.Getenv("SH1106_DEBUG") != ""
}

// Panel geometry.
const (
	Width      = pixel.Width
	Height     = pixel.Height
	PageHeight = 8
	Pages      = Height / PageHeight
)

// Command opcodes.
const (
	setLowColumn  = 0x00
	setHighColumn = 0x10
	setContrast   = 0x81
	setNormal     = 0xA6
	setInverted   = 0xA7
	setDisplayOff = 0xAE
	setDisplayOn  = 0xAF
	setPageAddr   = 0xB0

	// columnOffset is the RAM column of the first visible pixel: the controller has
	// 132 columns of RAM and the 128 column glass is centered on it.
	columnOffset = 0x02
)
