package sh1106

import (
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/sh1106/pixel"
)

// MinResetHold is the shortest time the reset line is held at each level.
const MinResetHold = 100 * time.Millisecond

var sleep = time.Sleep

// State of a Display.
type State uint8

// Driver states.
const (
	Uninitialized State = iota
	Configured
	Displaying
	Halted
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Displaying:
		return "displaying"
	case Halted:
		return "halted"
	default:
		return "uninitialized"
	}
}

// Config is the display configuration.
type Config struct {
	// ResetHold is how long reset is held low, and then high, before the
	// display is switched on. Values below MinResetHold are raised to it.
	ResetHold time.Duration
}

// Display is an SH1106 panel on a connection it owns.
//
// The embedded Bitmap is the frame drawn by Refresh; Render sends any other
// bitmap. A Display is not safe for concurrent use and a bitmap must not be
// modified while it is being rendered.
type Display struct {
	*pixel.Bitmap
	c         Conn
	state     State
	resetHold time.Duration
	pages     [Pages]Page
}

// New takes ownership of an opened connection. The display is left in the
// Configured state; call Init before rendering.
func New(c Conn, config *Config) (*Display, error) {
	if c == nil {
		return nil, acquisitionError("new display", errors.New("no connection"))
	}
	if config == nil {
		config = new(Config)
	}

	d := &Display{
		Bitmap:    pixel.NewBitmap(),
		c:         c,
		state:     Configured,
		resetHold: max(config.ResetHold, MinResetHold),
	}
	if debug {
		log.Printf("sh1106: %s configured", c)
	}
	return d, nil
}

func (d *Display) String() string {
	return fmt.Sprintf("SH1106 OLED %dx%d on %s", Width, Height, d.c)
}

// State returns the driver state.
func (d *Display) State() State {
	return d.state
}

// Init runs the hardware reset sequence and switches the display on. It must be
// called exactly once, before the first frame.
func (d *Display) Init() error {
	if d.state != Configured {
		return fmt.Errorf("%w: init while %s", ErrState, d.state)
	}

	if debug {
		log.Printf("sh1106: reset, holding %s", d.resetHold)
	}
	if err := d.c.Reset(gpio.Low); err != nil {
		return transferError("pull reset low", err)
	}
	sleep(d.resetHold)
	if err := d.c.Reset(gpio.High); err != nil {
		return transferError("pull reset high", err)
	}
	sleep(d.resetHold)

	if err := d.send("display on", Command, setDisplayOn); err != nil {
		return err
	}
	d.state = Displaying
	return nil
}

// Render sends fb to the controller, page by page. It panics if fb is nil.
func (d *Display) Render(fb *pixel.Bitmap) error {
	if d.state != Displaying {
		return fmt.Errorf("%w: render while %s", ErrState, d.state)
	}

	EncodeInto(&d.pages, fb)
	for p := range d.pages {
		page := &d.pages[p]
		if err := d.c.Send(Command, page.Command[:]); err != nil {
			return transferError(fmt.Sprintf("page %d command", p), err)
		}
		if err := d.c.Send(Data, page.Data[:]); err != nil {
			return transferError(fmt.Sprintf("page %d data", p), err)
		}
	}
	return nil
}

// Refresh renders the display's own bitmap.
func (d *Display) Refresh() error {
	return d.Render(d.Bitmap)
}

// RenderSamples thresholds a row-major Width×Height buffer of 8-bit grayscale
// samples into the display's bitmap and renders it. Nothing is sent when the
// dimensions do not match.
func (d *Display) RenderSamples(pix []byte, w, h int) error {
	if err := d.Bitmap.LoadSamples(pix, w, h); err != nil {
		return err
	}
	return d.Refresh()
}

// RenderGray is like RenderSamples for a grayscale image. It panics if img is nil.
func (d *Display) RenderGray(img *image.Gray) error {
	if err := d.Bitmap.LoadGray(img); err != nil {
		return err
	}
	return d.Refresh()
}

// Show toggles the display on or off. RAM contents are kept while off.
func (d *Display) Show(show bool) error {
	if d.state != Displaying {
		return fmt.Errorf("%w: show while %s", ErrState, d.state)
	}
	if show {
		return d.send("display on", Command, setDisplayOn)
	}
	return d.send("display off", Command, setDisplayOff)
}

// SetContrast adjusts the contrast level.
func (d *Display) SetContrast(level uint8) error {
	if d.state != Displaying {
		return fmt.Errorf("%w: set contrast while %s", ErrState, d.state)
	}
	return d.send("set contrast", Command, setContrast, level)
}

// Invert swaps on and off pixels in hardware.
func (d *Display) Invert(invert bool) error {
	if d.state != Displaying {
		return fmt.Errorf("%w: invert while %s", ErrState, d.state)
	}
	if invert {
		return d.send("invert", Command, setInverted)
	}
	return d.send("normal", Command, setNormal)
}

// Close switches the display off and releases the connection. Calling Close
// more than once is a no-op.
func (d *Display) Close() error {
	if d.state == Halted || d.c == nil {
		return nil
	}

	var err error
	if d.state == Displaying {
		err = d.send("display off", Command, setDisplayOff)
	}
	d.state = Halted
	if cerr := d.c.Close(); cerr != nil && err == nil {
		err = acquisitionError("release connection", cerr)
	}
	return err
}

func (d *Display) send(op string, mode Mode, data ...byte) error {
	if err := d.c.Send(mode, data); err != nil {
		return transferError(op, err)
	}
	return nil
}
