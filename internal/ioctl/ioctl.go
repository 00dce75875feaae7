// Package ioctl encodes and issues Linux ioctl requests.
package ioctl

import (
	"fmt"
	"syscall"
	"unsafe"
)

// Mode is the data direction of a request, as seen from user space.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command is an encoded ioctl request number.
type Command uintptr

// Encode builds a request: direction in bits 30-31, argument size in bits
// 16-29 and the type and number in the low 16 bits.
func Encode(mode Mode, size uintptr, cmd uintptr) Command {
	return Command(mode&0x03)<<30 | Command(size&0x3fff)<<16 | Command(cmd&0xffff)
}

// For returns the request that passes a *T.
func For[T any](mode Mode, cmd uintptr) Command {
	var v T
	return Encode(mode, unsafe.Sizeof(v), cmd)
}

func (c Command) Mode() Mode {
	return Mode(c >> 30 & 0x03)
}

func (c Command) Size() int {
	return int(c >> 16 & 0x3fff)
}

func (c Command) String() string {
	var dir string
	if c.Mode()&Write != 0 {
		dir += " write"
	}
	if c.Mode()&Read != 0 {
		dir += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) %#04x", dir, c.Size(), uintptr(c&0xffff))
}

// Do issues cmd on fd with v as its argument.
func Do[T any](fd uintptr, mode Mode, cmd uintptr, v *T) error {
	req := For[T](mode, cmd)
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, uintptr(req), uintptr(unsafe.Pointer(v))); errno != 0 {
		return fmt.Errorf("%s failed: %w", req, errno)
	}
	return nil
}
