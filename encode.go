package sh1106

import (
	"fmt"

	"github.com/BeatGlow/sh1106/pixel"
)

// Page is the wire form of one 8 row band: the addressing command and one byte
// per column.
type Page struct {
	Command [3]byte
	Data    [Width]byte
}

// PageCommand returns the command that addresses logical page p: set page
// address 7-p, then the column address low and high nibbles.
func PageCommand(p int) [3]byte {
	return [3]byte{
		setPageAddr + byte(Pages-1-p),
		setLowColumn | columnOffset,
		setHighColumn,
	}
}

// Encode converts a bitmap to the page transfers of one frame, in the order
// they must be sent.
func Encode(fb *pixel.Bitmap) (pages [Pages]Page) {
	EncodeInto(&pages, fb)
	return
}

// EncodeInto is like Encode but reuses pages.
func EncodeInto(pages *[Pages]Page, fb *pixel.Bitmap) {
	for p := range pages {
		pages[p].Command = PageCommand(p)
		encodePage(&pages[p].Data, fb, p)
	}
}

// encodePage packs rows [8p, 8p+8) column by column. The top row of the page
// is the most significant bit and columns are stored mirrored.
func encodePage(data *[Width]byte, fb *pixel.Bitmap, p int) {
	var rows [PageHeight]*[Width]bool
	for i := range rows {
		rows[i] = fb.Row(p*PageHeight + i)
	}
	for x := 0; x < Width; x++ {
		var b byte
		for i, row := range rows {
			if row[x] {
				b |= 0x80 >> i
			}
		}
		data[Width-1-x] = b
	}
}

// DecodePage unpacks the column bytes of logical page p into fb.
func DecodePage(fb *pixel.Bitmap, p int, data *[Width]byte) {
	for i := 0; i < PageHeight; i++ {
		row := fb.Row(p*PageHeight + i)
		for x := range row {
			row[x] = data[Width-1-x]&(0x80>>i) != 0
		}
	}
}

// Decode reconstructs the bitmap a frame of pages was encoded from. Each page is
// placed by its page address command.
func Decode(pages *[Pages]Page) (*pixel.Bitmap, error) {
	fb := pixel.NewBitmap()
	for i := range pages {
		addr := pages[i].Command[0]
		if addr < setPageAddr || addr >= setPageAddr+Pages {
			return nil, fmt.Errorf("sh1106: page %d has no page address command (%#02x)", i, addr)
		}
		DecodePage(fb, Pages-1-int(addr-setPageAddr), &pages[i].Data)
	}
	return fb, nil
}
