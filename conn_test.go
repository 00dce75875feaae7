package sh1106_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/BeatGlow/sh1106"
)

// tx is one transfer seen by fakeBus, with the DC level at that time.
type tx struct {
	dc gpio.Level
	w  []byte
}

type fakeBus struct {
	dc  *gpiotest.Pin
	err error
	txs []tx

	freq  physic.Frequency
	mode  spi.Mode
	bits  int
	dials int
}

func (b *fakeBus) String() string { return "fake" }

func (b *fakeBus) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	b.dials++
	b.freq, b.mode, b.bits = f, mode, bits
	if b.err != nil {
		return nil, b.err
	}
	return b, nil
}

func (b *fakeBus) LimitSpeed(physic.Frequency) error { return nil }

func (b *fakeBus) Tx(w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	b.txs = append(b.txs, tx{dc: b.dc.L, w: append([]byte(nil), w...)})
	return nil
}

func (b *fakeBus) Duplex() conn.Duplex { return conn.Half }

func (b *fakeBus) TxPackets([]spi.Packet) error { return errors.New("not supported") }

func newPins() (reset, dc *gpiotest.Pin) {
	return &gpiotest.Pin{N: "GPIO24", Num: 24}, &gpiotest.Pin{N: "GPIO25", Num: 25}
}

func TestNewSPI(t *testing.T) {
	reset, dc := newPins()
	bus := &fakeBus{dc: dc}
	c, err := sh1106.NewSPI(bus, &sh1106.SPIConfig{Reset: reset, DC: dc})
	if err != nil {
		t.Fatal(err)
	}
	if bus.freq != physic.MegaHertz || bus.mode != spi.Mode0 || bus.bits != 8 {
		t.Errorf("expected 1MHz mode 0 8 bits, got %s mode %d %d bits", bus.freq, bus.mode, bus.bits)
	}
	if reset.L != gpio.High {
		t.Error("reset is not released")
	}
	if dc.L != gpio.Low {
		t.Error("DC does not select commands")
	}
	if v, want := c.String(), "SPI bus fake"; v != want {
		t.Errorf("expected %q, got %q", want, v)
	}

	if err = c.Reset(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if reset.L != gpio.Low {
		t.Error("reset not pulled low")
	}
	if err = c.Close(); err != nil {
		t.Error(err)
	}
}

func TestSPISend(t *testing.T) {
	tests := []struct {
		name    string
		dataLow bool
		command gpio.Level
		data    gpio.Level
	}{
		{"data high", false, gpio.Low, gpio.High},
		{"data low", true, gpio.High, gpio.Low},
	}
	for _, test := range tests {
		t.Run(test.name, func(it *testing.T) {
			reset, dc := newPins()
			bus := &fakeBus{dc: dc}
			c, err := sh1106.NewSPI(bus, &sh1106.SPIConfig{
				SpeedHz: 8_000_000,
				DataLow: test.dataLow,
				Reset:   reset,
				DC:      dc,
			})
			if err != nil {
				it.Fatal(err)
			}

			page := make([]byte, sh1106.Width)
			page[0] = 0x5a
			sends := []struct {
				mode  sh1106.Mode
				data  []byte
				level gpio.Level
			}{
				{sh1106.Command, []byte{0xB7, 0x02, 0x10}, test.command},
				{sh1106.Data, page, test.data},
				{sh1106.Data, page, test.data},
				{sh1106.Command, []byte{0xAF}, test.command},
			}
			for _, send := range sends {
				if err = c.Send(send.mode, send.data); err != nil {
					it.Fatal(err)
				}
			}

			if len(bus.txs) != len(sends) {
				it.Fatalf("expected %d transfers, got %d", len(sends), len(bus.txs))
			}
			for i, send := range sends {
				if bus.txs[i].dc != send.level {
					it.Errorf("transfer %d (%s): expected DC %s, got %s", i, send.mode, send.level, bus.txs[i].dc)
				}
				if !bytes.Equal(bus.txs[i].w, send.data) {
					it.Errorf("transfer %d: unexpected bytes % x", i, bus.txs[i].w)
				}
			}
		})
	}
}

func TestNewSPIErrors(t *testing.T) {
	failed := errors.New("bus gone")
	tests := []struct {
		name    string
		config  func(reset, dc *gpiotest.Pin) *sh1106.SPIConfig
		err     error
		want    error
		connect bool
	}{
		{
			name: "invalid speed",
			config: func(reset, dc *gpiotest.Pin) *sh1106.SPIConfig {
				return &sh1106.SPIConfig{SpeedHz: 1_234_567, Reset: reset, DC: dc}
			},
			want: sh1106.ErrAcquisition,
		},
		{
			name: "no DC pin",
			config: func(reset, _ *gpiotest.Pin) *sh1106.SPIConfig {
				return &sh1106.SPIConfig{Reset: reset}
			},
			want:    sh1106.ErrDCPin,
			connect: true,
		},
		{
			name: "no reset pin",
			config: func(_, dc *gpiotest.Pin) *sh1106.SPIConfig {
				return &sh1106.SPIConfig{DC: dc}
			},
			want:    sh1106.ErrResetPin,
			connect: true,
		},
		{
			name: "connect",
			config: func(reset, dc *gpiotest.Pin) *sh1106.SPIConfig {
				return &sh1106.SPIConfig{Reset: reset, DC: dc}
			},
			err:     failed,
			want:    failed,
			connect: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(it *testing.T) {
			reset, dc := newPins()
			bus := &fakeBus{dc: dc, err: test.err}
			c, err := sh1106.NewSPI(bus, test.config(reset, dc))
			if c != nil {
				it.Error("expected no connection")
			}
			if !errors.Is(err, sh1106.ErrAcquisition) || !errors.Is(err, test.want) {
				it.Errorf("expected %v, got %v", test.want, err)
			}
			if connected := bus.dials > 0; connected != test.connect {
				it.Errorf("expected connect %t, got %t", test.connect, connected)
			}
		})
	}
}

func TestSPISendError(t *testing.T) {
	reset, dc := newPins()
	bus := &fakeBus{dc: dc}
	c, err := sh1106.NewSPI(bus, &sh1106.SPIConfig{Reset: reset, DC: dc})
	if err != nil {
		t.Fatal(err)
	}
	bus.err = errors.New("bus gone")
	err = c.Send(sh1106.Data, []byte{1, 2, 3})
	if !errors.Is(err, sh1106.ErrTransfer) || !errors.Is(err, bus.err) {
		t.Errorf("expected wrapped transfer error, got %v", err)
	}
	if !strings.Contains(err.Error(), "data transfer") {
		t.Errorf("error %q does not name the transfer", err)
	}
}

func TestSPIRenderError(t *testing.T) {
	defer sh1106.SetSleep(func(time.Duration) {})()

	reset, dc := newPins()
	bus := &fakeBus{dc: dc}
	c, err := sh1106.NewSPI(bus, &sh1106.SPIConfig{Reset: reset, DC: dc})
	if err != nil {
		t.Fatal(err)
	}
	d, err := sh1106.New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err = d.Init(); err != nil {
		t.Fatal(err)
	}

	bus.err = errors.New("bus gone")
	err = d.Refresh()
	if !errors.Is(err, sh1106.ErrTransfer) || !errors.Is(err, bus.err) {
		t.Fatalf("expected wrapped transfer error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "page 0 command: ") {
		t.Errorf("error %q does not start with the failing operation", err)
	}
	if n := strings.Count(err.Error(), sh1106.ErrTransfer.Error()); n != 1 {
		t.Errorf("error %q tags the transfer failure %d times", err, n)
	}
}

func TestSPIConfigUnchanged(t *testing.T) {
	reset, dc := newPins()
	config := &sh1106.SPIConfig{Reset: reset, DC: dc}
	if _, err := sh1106.NewSPI(&fakeBus{dc: dc}, config); err != nil {
		t.Fatal(err)
	}
	if config.SpeedHz != 0 {
		t.Errorf("caller config was modified: SpeedHz=%d", config.SpeedHz)
	}
}

func TestI2CSend(t *testing.T) {
	var (
		bus      = &i2ctest.Record{}
		reset, _ = newPins()
		c        = sh1106.NewI2C(bus, 0x3c, reset)
	)
	if err := c.Send(sh1106.Command, []byte{0xB0, 0x02, 0x10}); err != nil {
		t.Fatal(err)
	}
	if err := c.Send(sh1106.Data, []byte{0xff, 0x01}); err != nil {
		t.Fatal(err)
	}
	if err := c.Reset(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if reset.L != gpio.Low {
		t.Error("reset not pulled low")
	}

	want := []i2ctest.IO{
		{Addr: 0x3c, W: []byte{0x00, 0xB0, 0x02, 0x10}},
		{Addr: 0x3c, W: []byte{0x40, 0xff, 0x01}},
	}
	if len(bus.Ops) != len(want) {
		t.Fatalf("expected %d transfers, got %d", len(want), len(bus.Ops))
	}
	for i, op := range bus.Ops {
		if op.Addr != want[i].Addr || !bytes.Equal(op.W, want[i].W) || len(op.R) != 0 {
			t.Errorf("transfer %d: expected %+v, got %+v", i, want[i], op)
		}
	}
}

func TestI2CSendError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	c := sh1106.NewI2C(bus, 0x3c, nil)
	err := c.Send(sh1106.Command, []byte{0xAF})
	if !errors.Is(err, sh1106.ErrTransfer) {
		t.Errorf("expected ErrTransfer, got %v", err)
	}
}

func TestI2CWithoutReset(t *testing.T) {
	c := sh1106.NewI2C(&i2ctest.Record{}, 0x3d, nil)
	if err := c.Reset(gpio.Low); err != nil {
		t.Errorf("expected no error without a reset pin, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Error(err)
	}
}

func TestModeString(t *testing.T) {
	if v := sh1106.Command.String(); v != "command" {
		t.Errorf("expected command, got %q", v)
	}
	if v := sh1106.Data.String(); v != "data" {
		t.Errorf("expected data, got %q", v)
	}
}
