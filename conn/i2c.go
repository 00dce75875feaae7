package conn

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// I2C is a device on an I²C bus.
type I2C struct {
	bus    i2c.Bus
	closer io.Closer
	conn   conn.Conn
}

// OpenI2C opens the named I²C bus, use an empty name for the first available bus.
func OpenI2C(name string, addr uint16) (*I2C, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, err
	}

	c := NewI2C(bus, addr)
	c.closer = bus
	return c, nil
}

// NewI2C addresses a device on an already opened bus. Closing the returned
// device does not close the bus.
func NewI2C(bus i2c.Bus, addr uint16) *I2C {
	return &I2C{
		bus:  bus,
		conn: &i2c.Dev{Bus: bus, Addr: addr},
	}
}

func (c *I2C) String() string {
	return fmt.Sprintf("I²C bus %s", c.bus)
}

func (c *I2C) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *I2C) Read(p []byte) (int, error) {
	return len(p), c.conn.Tx(nil, p)
}

func (c *I2C) Write(p []byte) (int, error) {
	return len(p), c.conn.Tx(p, nil)
}
