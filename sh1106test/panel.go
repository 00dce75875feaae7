// Package sh1106test provides an emulated SH1106 controller.
//
// A Panel implements sh1106.Conn. It records every transfer and interprets the
// command stream the way the controller does, so tests and dry runs can look at
// the resulting RAM or at the image a real panel would show.
package sh1106test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/sh1106"
	"github.com/BeatGlow/sh1106/pixel"
)

// Controller RAM geometry.
const (
	RAMWidth     = 132
	ColumnOffset = 2
)

// Controller defaults after reset.
const (
	DefaultContrast = 0x80
)

// Errors
var (
	ErrInjected = errors.New("sh1106test: injected failure")
	ErrClosed   = errors.New("sh1106test: panel is closed")
)

// Op is one recorded transfer.
type Op struct {
	Mode sh1106.Mode
	Data []byte
}

func (op Op) String() string {
	return fmt.Sprintf("%s % x", op.Mode, op.Data)
}

// Panel is an emulated SH1106. The zero value is ready to use.
type Panel struct {
	mu sync.Mutex

	// FailAt makes the n-th call to Send (counting from 1) fail with ErrInjected
	// without touching the emulated state. Zero disables it.
	FailAt int

	// ResetErr, when set, is returned by Reset.
	ResetErr error

	ops    []Op
	resets []gpio.Level
	sends  int
	closed bool

	on       bool
	inverted bool
	contrast byte
	page     int
	column   int
	pending  byte
	ram      [sh1106.Pages][RAMWidth]byte
}

// twoByte lists the commands followed by one argument byte.
var twoByte = map[byte]bool{
	0x81: true, // contrast
	0xA8: true, // multiplex ratio
	0xAD: true, // DC-DC control
	0xD3: true, // display offset
	0xD5: true, // clock divide
	0xD9: true, // precharge period
	0xDA: true, // common pads
	0xDB: true, // VCOM deselect level
}

func (p *Panel) String() string {
	return "SH1106 emulator"
}

// Close marks the panel closed; later transfers fail with ErrClosed.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Reset records level. Driving reset low puts the controller registers back to
// their power-on values; RAM is kept.
func (p *Panel) Reset(level gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ResetErr != nil {
		return p.ResetErr
	}
	p.resets = append(p.resets, level)
	if level == gpio.Low {
		p.on, p.inverted = false, false
		p.contrast = DefaultContrast
		p.page, p.column, p.pending = 0, 0, 0
	}
	return nil
}

func (p *Panel) Send(mode sh1106.Mode, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.sends++
	if p.FailAt > 0 && p.sends == p.FailAt {
		return ErrInjected
	}

	p.ops = append(p.ops, Op{Mode: mode, Data: append([]byte(nil), data...)})
	if mode == sh1106.Data {
		for _, b := range data {
			if p.column < RAMWidth {
				p.ram[p.page][p.column] = b
			}
			p.column++
		}
		return nil
	}
	for _, b := range data {
		p.command(b)
	}
	return nil
}

func (p *Panel) command(b byte) {
	if p.pending != 0 {
		if p.pending == 0x81 {
			p.contrast = b
		}
		p.pending = 0
		return
	}

	switch {
	case twoByte[b]:
		p.pending = b
	case b <= 0x0F:
		p.column = p.column&0xF0 | int(b)
	case b <= 0x1F:
		p.column = p.column&0x0F | int(b&0x0F)<<4
	case b == 0xA6, b == 0xA7:
		p.inverted = b == 0xA7
	case b == 0xAE, b == 0xAF:
		p.on = b == 0xAF
	case b >= 0xB0 && b <= 0xB7:
		p.page = int(b & 0x07)
	}
}

// Ops returns the recorded transfers.
func (p *Panel) Ops() []Op {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Op(nil), p.ops...)
}

// Resets returns the recorded reset line levels.
func (p *Panel) Resets() []gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gpio.Level(nil), p.resets...)
}

// On reports whether the display is switched on.
func (p *Panel) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Inverted reports whether the display is in reverse mode.
func (p *Panel) Inverted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inverted
}

// Contrast returns the contrast register.
func (p *Panel) Contrast() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contrast
}

// Closed reports whether Close was called.
func (p *Panel) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// RAM returns a copy of one RAM page.
func (p *Panel) RAM(page int) [RAMWidth]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ram[page]
}

// Image returns what the mounted panel shows, in logical orientation. Reverse
// mode is not applied.
func (p *Panel) Image() *pixel.Bitmap {
	p.mu.Lock()
	defer p.mu.Unlock()
	fb := pixel.NewBitmap()
	for page := range p.ram {
		visible := (*[sh1106.Width]byte)(p.ram[page][ColumnOffset : ColumnOffset+sh1106.Width])
		sh1106.DecodePage(fb, sh1106.Pages-1-page, visible)
	}
	return fb
}

// WriteText draws the panel image to w using half block characters, two rows
// per line.
func (p *Panel) WriteText(w io.Writer) error {
	fb := p.Image()
	var b strings.Builder
	for y := 0; y < sh1106.Height; y += 2 {
		for x := 0; x < sh1106.Width; x++ {
			top, bottom := fb.Pixel(y, x), fb.Pixel(y+1, x)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
