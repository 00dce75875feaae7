package sh1106

import (
	"fmt"
	"io"
	"log"
	"slices"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/BeatGlow/sh1106/conn"
)

// Mode tags a transfer as command or pixel data.
type Mode uint8

// Transfer modes.
const (
	Command Mode = iota
	Data
)

func (m Mode) String() string {
	if m == Data {
		return "data"
	}
	return "command"
}

// Conn is the connection interface for communicating with hardware.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Send selects mode on the data/command line, then transfers data in one
	// blocking transfer. No response is read.
	Send(mode Mode, data []byte) error
}

// Default pin names, as wired on a Raspberry Pi header.
const (
	DefaultDCPin    = "GPIO25"
	DefaultResetPin = "GPIO24"
)

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Port is the periph SPI port name, use "" for the first available port.
	Port string

	// SpeedHz is the bus clock.
	SpeedHz uint32

	// DataLow drives the DC line low for data and high for commands.
	DataLow bool

	// Reset and DC pins, looked up by their default names when nil.
	Reset gpio.PinOut
	DC    gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	SpeedHz: 1_000_000,
}

// SpidevConfig describes a raw spidev connection, used on hosts periph has no SPI driver for.
type SpidevConfig struct {
	Bus     int
	Device  int
	SpeedHz uint32
	DataLow bool
	Reset   gpio.PinOut
	DC      gpio.PinOut
}

// DefaultSpidevConfig are the default configuration values.
var DefaultSpidevConfig = SpidevConfig{
	SpeedHz: 1_000_000,
}

// ValidSPISpeeds are common valid SPI bus speeds.
var ValidSPISpeeds = []uint32{
	500_000,
	1_000_000,
	2_000_000,
	4_000_000,
	8_000_000,
	10_000_000,
}

// txer is the half-duplex transfer primitive shared by periph and spidev buses.
type txer interface {
	Tx(w, r []byte) error
}

type spiConn struct {
	name    string
	bus     txer
	closer  io.Closer
	reset   gpio.PinOut
	dc      gpio.PinOut
	dcLevel gpio.Level
	dcValid bool
	dataLow bool
}

// OpenSPI opens a periph SPI port. The host drivers must be initialized first.
func OpenSPI(config *SPIConfig) (Conn, error) {
	cfg := DefaultSPIConfig
	if config != nil {
		cfg = *config
	}
	config = &cfg
	if config.Reset == nil {
		config.Reset = gpioreg.ByName(DefaultResetPin)
	}
	if config.DC == nil {
		config.DC = gpioreg.ByName(DefaultDCPin)
	}

	port, err := spireg.Open(config.Port)
	if err != nil {
		return nil, acquisitionError("open SPI port", err)
	}

	c, err := NewSPI(port, config)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	c.(*spiConn).closer = port
	return c, nil
}

// NewSPI connects to an already opened SPI port at config.SpeedHz, mode 0,
// 8 bits per word. Closing the returned Conn does not close the port.
func NewSPI(port spi.Port, config *SPIConfig) (Conn, error) {
	cfg := DefaultSPIConfig
	if config != nil {
		cfg = *config
	}
	config = &cfg
	if config.SpeedHz == 0 {
		config.SpeedHz = DefaultSPIConfig.SpeedHz
	}
	if err := validSpeed(config.SpeedHz); err != nil {
		return nil, err
	}

	c, err := port.Connect(physic.Frequency(config.SpeedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, acquisitionError("connect SPI port", err)
	}

	sc, err := newSPIConn(port.String(), c, config.Reset, config.DC, config.DataLow)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// OpenSpidev opens /dev/spidev<bus>.<device> directly.
func OpenSpidev(config *SpidevConfig) (Conn, error) {
	cfg := DefaultSpidevConfig
	if config != nil {
		cfg = *config
	}
	config = &cfg
	if config.SpeedHz == 0 {
		config.SpeedHz = DefaultSpidevConfig.SpeedHz
	}
	if config.Reset == nil {
		config.Reset = gpioreg.ByName(DefaultResetPin)
	}
	if config.DC == nil {
		config.DC = gpioreg.ByName(DefaultDCPin)
	}
	if err := validSpeed(config.SpeedHz); err != nil {
		return nil, err
	}

	bus, err := conn.OpenSPI(config.Bus, config.Device)
	if err != nil {
		return nil, acquisitionError("open spidev", err)
	}
	if err = bus.SetMode(conn.SPIMode0); err != nil {
		_ = bus.Close()
		return nil, acquisitionError("set SPI mode", err)
	}
	if err = bus.SetBitsPerWord(8); err != nil {
		_ = bus.Close()
		return nil, acquisitionError("set SPI bits per word", err)
	}
	if err = bus.SetMaxSpeed(int(config.SpeedHz)); err != nil {
		_ = bus.Close()
		return nil, acquisitionError("set SPI speed", err)
	}

	c, err := newSPIConn(bus.String(), bus, config.Reset, config.DC, config.DataLow)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	c.closer = bus
	return c, nil
}

func validSpeed(hz uint32) error {
	if !slices.Contains(ValidSPISpeeds, hz) {
		return acquisitionError("configure SPI", fmt.Errorf("invalid SPI speed %dHz", hz))
	}
	return nil
}

// newSPIConn puts both pins in output mode: reset released, DC selecting commands.
func newSPIConn(name string, bus txer, reset, dc gpio.PinOut, dataLow bool) (*spiConn, error) {
	if reset == nil || reset == gpio.INVALID {
		return nil, acquisitionError("configure pins", ErrResetPin)
	}
	if dc == nil || dc == gpio.INVALID {
		return nil, acquisitionError("configure pins", ErrDCPin)
	}

	c := &spiConn{
		name:    name,
		bus:     bus,
		reset:   reset,
		dc:      dc,
		dataLow: dataLow,
	}
	if err := reset.Out(gpio.High); err != nil {
		return nil, acquisitionError("configure reset pin", err)
	}
	if err := c.updateDC(Command); err != nil {
		return nil, acquisitionError("configure DC pin", err)
	}
	return c, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI bus %s", c.name)
}

func (c *spiConn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *spiConn) Reset(level gpio.Level) error {
	return c.reset.Out(level)
}

func (c *spiConn) updateDC(mode Mode) error {
	level := gpio.Level((mode == Data) != c.dataLow)
	if c.dcValid && c.dcLevel == level {
		return nil
	}
	if err := c.dc.Out(level); err != nil {
		return err
	}
	c.dcLevel, c.dcValid = level, true
	return nil
}

func (c *spiConn) Send(mode Mode, data []byte) error {
	if err := c.updateDC(mode); err != nil {
		return transferError("select "+mode.String(), err)
	}
	if debug {
		log.Printf("sh1106: %s %d bytes % x", mode, len(data), data)
	}
	if err := c.bus.Tx(data, nil); err != nil {
		return transferError(mode.String()+" transfer", err)
	}
	return nil
}

// I2CConfig describes the I²C bus configuration.
type I2CConfig struct {
	// Bus is the periph I²C bus name, use "" for the first available bus.
	Bus string

	// Addr is the I²C address.
	Addr uint16

	// Reset pin, optional.
	Reset gpio.PinOut
}

// DefaultI2CConfig are the default configuration values.
var DefaultI2CConfig = I2CConfig{
	Addr: 0x3c,
}

// I²C control bytes: Co = 0, D/C# selects command or data for the rest of the message.
const (
	i2cControlCommand = 0x00
	i2cControlData    = 0x40
)

type i2cConn struct {
	*conn.I2C
	reset gpio.PinOut
}

// OpenI2C opens a periph I²C bus. The host drivers must be initialized first.
func OpenI2C(config *I2CConfig) (Conn, error) {
	cfg := DefaultI2CConfig
	if config != nil {
		cfg = *config
	}
	config = &cfg
	if config.Addr == 0 {
		config.Addr = DefaultI2CConfig.Addr
	}

	c, err := conn.OpenI2C(config.Bus, config.Addr)
	if err != nil {
		return nil, acquisitionError("open I²C bus", err)
	}
	return &i2cConn{
		I2C:   c,
		reset: config.Reset,
	}, nil
}

// NewI2C addresses the controller on an already opened bus. The reset pin may be nil.
func NewI2C(bus i2c.Bus, addr uint16, reset gpio.PinOut) Conn {
	return &i2cConn{
		I2C:   conn.NewI2C(bus, addr),
		reset: reset,
	}
}

func (c *i2cConn) Reset(level gpio.Level) error {
	if c.reset == nil {
		return nil
	}
	return c.reset.Out(level)
}

func (c *i2cConn) Send(mode Mode, data []byte) error {
	control := byte(i2cControlCommand)
	if mode == Data {
		control = i2cControlData
	}
	if debug {
		log.Printf("sh1106: %s %d bytes % x", mode, len(data), data)
	}
	if _, err := c.I2C.Write(append([]byte{control}, data...)); err != nil {
		return transferError(mode.String()+" transfer", err)
	}
	return nil
}
