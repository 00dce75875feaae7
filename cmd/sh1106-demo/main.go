package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/image/font"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/sh1106"
	"github.com/BeatGlow/sh1106/draw"
	"github.com/BeatGlow/sh1106/frame"
	"github.com/BeatGlow/sh1106/pixel"
	"github.com/BeatGlow/sh1106/sh1106test"
)

// swayAmplitude is the largest horizontal offset of the sway animation, in pixels.
const swayAmplitude = 40

func main() {
	busFlag := flag.String("bus", "spi", "Bus type: spi, spidev, i2c or emulate")
	portFlag := flag.String("spi-port", "", "periph SPI port name (default: use first available)")
	spidevBusFlag := flag.Int("spidev-bus", 0, "spidev bus number")
	spidevDevFlag := flag.Int("spidev-dev", 0, "spidev device number")
	i2cBusFlag := flag.String("i2c-bus", "", "periph I²C bus name (default: use first available)")
	i2cAddrFlag := flag.Uint("i2c-addr", uint(sh1106.DefaultI2CConfig.Addr), "I²C device address")
	hzFlag := flag.Uint("hz", uint(sh1106.DefaultSPIConfig.SpeedHz), "SPI clock in Hz")
	dataLowFlag := flag.Bool("data-low", false, "Drive DC low for data and high for commands")
	resetPinFlag := flag.String("reset", sh1106.DefaultResetPin, "Reset GPIO pin")
	dcPinFlag := flag.String("dc", sh1106.DefaultDCPin, "Data/Command GPIO pin (DC)")
	imageFlag := flag.String("image", "", "Image file to display (default: test pattern)")
	fitFlag := flag.Bool("fit", false, "Scale and crop the image to 128x64")
	invertFlag := flag.Bool("invert", false, "Invert the image")
	ditherFlag := flag.String("dither", "none", "Dithering: none, floyd-steinberg or sierra-lite")
	textFlag := flag.String("text", "", "Caption drawn over the image")
	fontFlag := flag.String("font", "", "TrueType font for the caption (default: 7x13 bitmap font)")
	fontSizeFlag := flag.Float64("font-size", 12, "Caption font size in points")
	contrastFlag := flag.Int("contrast", -1, "Contrast level 0-255 (default: controller default)")
	fpsFlag := flag.Float64("fps", 20, "Frames per second, 0 renders as fast as the bus allows")
	swayFlag := flag.Bool("sway", false, "Sway the image left and right")
	framesFlag := flag.Int("frames", 0, "Stop after this many frames (default: run until interrupted)")
	flag.Parse()

	dither, err := frame.ParseDither(*ditherFlag)
	if err != nil {
		fatal(err)
	}

	var src *image.Gray
	if *imageFlag != "" {
		if src, err = frame.Load(*imageFlag, &frame.Options{
			Fit:    *fitFlag,
			Invert: *invertFlag,
			Dither: dither,
		}); err != nil {
			fatal(err)
		}
		fmt.Printf("Loaded image, %s\n", src.Bounds().Size())
	} else {
		src = testPattern()
	}

	face := draw.DefaultFace
	if *fontFlag != "" {
		if face, err = draw.LoadFont(*fontFlag, *fontSizeFlag); err != nil {
			fatal(err)
		}
	}

	fmt.Println("Setting up.")
	var (
		c     sh1106.Conn
		panel *sh1106test.Panel
	)
	if *busFlag == "emulate" {
		panel = new(sh1106test.Panel)
		c = panel
	} else {
		if _, err = host.Init(); err != nil {
			fatal(err)
		}
		reset, dc := pin(*resetPinFlag), pin(*dcPinFlag)
		switch *busFlag {
		case "spi":
			c, err = sh1106.OpenSPI(&sh1106.SPIConfig{
				Port:    *portFlag,
				SpeedHz: uint32(*hzFlag),
				DataLow: *dataLowFlag,
				Reset:   reset,
				DC:      dc,
			})
		case "spidev":
			c, err = sh1106.OpenSpidev(&sh1106.SpidevConfig{
				Bus:     *spidevBusFlag,
				Device:  *spidevDevFlag,
				SpeedHz: uint32(*hzFlag),
				DataLow: *dataLowFlag,
				Reset:   reset,
				DC:      dc,
			})
		case "i2c":
			c, err = sh1106.OpenI2C(&sh1106.I2CConfig{
				Bus:   *i2cBusFlag,
				Addr:  uint16(*i2cAddrFlag),
				Reset: reset,
			})
		default:
			err = fmt.Errorf("unsupported bus type %q", *busFlag)
		}
		if err != nil {
			fatal(err)
		}
	}
	fmt.Printf("using connection: %s\n", c)

	d, err := sh1106.New(c, nil)
	if err != nil {
		_ = c.Close()
		fatal(err)
	}
	defer d.Close()

	fmt.Println("Resetting.")
	if err = d.Init(); err != nil {
		fatal(err)
	}
	fmt.Println("Displaying.")

	if *contrastFlag >= 0 {
		if err = d.SetContrast(uint8(*contrastFlag)); err != nil {
			fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &animation{
		src:     src,
		sway:    *swayFlag,
		caption: *textFlag,
		face:    face,
	}
	if err = run(ctx, d, a, *fpsFlag, *framesFlag); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}

	if err = d.Close(); err != nil {
		fatal(err)
	}
	if panel != nil {
		if err = panel.WriteText(os.Stdout); err != nil {
			fatal(err)
		}
	}
	fmt.Println("Done.")
}

// pin looks up a GPIO pin by name; an empty name means the pin is not wired.
func pin(name string) gpio.PinIO {
	if name == "" {
		return nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		fatal(fmt.Errorf("no GPIO pin named %q", name))
	}
	return p
}

func run(ctx context.Context, d *sh1106.Display, a *animation, fps float64, frames int) error {
	var tick <-chan time.Time
	if fps > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; frames <= 0 || n < frames; n++ {
		a.step(d)
		if err := d.Refresh(); err != nil {
			return err
		}
		if tick == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
	return nil
}

type animation struct {
	src     *image.Gray
	sway    bool
	caption string
	face    font.Face
	t       float64
}

// step draws the next frame into d. The top and bottom rows are left blank.
func (a *animation) step(d *sh1106.Display) {
	d.Clear()

	var offset int
	if a.sway {
		offset = int(math.Sin(a.t) * swayAmplitude)
	}
	for y := 1; y < sh1106.Height-1; y++ {
		row := a.src.Pix[y*a.src.Stride:]
		for x := 0; x < sh1106.Width; x++ {
			if col := x + offset; col >= 0 && col < sh1106.Width {
				_ = d.SetPixel(y, col, pixel.Threshold(row[x]))
			}
		}
	}

	if a.caption != "" {
		bounds := draw.TextBounds(a.face, a.caption)
		pt := image.Pt((sh1106.Width-bounds.Dx())/2, sh1106.Height-2-bounds.Max.Y)
		draw.Text(d, pt, a.face, pixel.On, a.caption)
	}

	a.t += 0.05
}

// testPattern is a frame with a border and diagonal stripes.
func testPattern() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, sh1106.Width, sh1106.Height))
	for y := 0; y < sh1106.Height; y++ {
		for x := 0; x < sh1106.Width; x++ {
			if (x+y)%8 < 2 {
				img.Pix[y*img.Stride+x] = 0xFF
			}
		}
	}
	draw.Rectangle(img, img.Bounds(), pixel.On)
	return img
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
