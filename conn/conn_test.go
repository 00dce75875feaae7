package conn

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestOpenSPIMissing(t *testing.T) {
	defer func(path string) { spiDevPath = path }(spiDevPath)
	spiDevPath = filepath.Join(t.TempDir(), "spidev")

	if _, err := OpenSPI(0, 0); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestSPITransferLayout(t *testing.T) {
	if v := unsafe.Sizeof(spiIOCTransfer{}); v != 32 {
		t.Errorf("expected struct spi_ioc_transfer to be 32 bytes, got %d", v)
	}
}

func TestSPITxBufferMismatch(t *testing.T) {
	c := new(SPI)
	if err := c.Tx(nil, nil); err != nil {
		t.Errorf("expected empty transfer to be a no-op, got %v", err)
	}
	if err := c.Tx(make([]byte, 4), make([]byte, 2)); err == nil {
		t.Error("expected error for a short read buffer")
	}
}

func TestI2C(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x3c, W: []byte{0x00, 0xAF}},
			{Addr: 0x3c, R: []byte{0x47}},
		},
	}
	c := NewI2C(bus, 0x3c)
	if n, err := c.Write([]byte{0x00, 0xAF}); err != nil || n != 2 {
		t.Fatalf("write: %d %v", n, err)
	}
	p := make([]byte, 1)
	if _, err := c.Read(p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p, []byte{0x47}) {
		t.Errorf("expected status 0x47, got % x", p)
	}
	if err := c.Close(); err != nil {
		t.Error(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}
