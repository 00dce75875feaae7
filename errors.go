package sh1106

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrAcquisition = errors.New("sh1106: acquisition failed")
	ErrTransfer    = errors.New("sh1106: transfer failed")
	ErrState       = errors.New("sh1106: invalid driver state")
	ErrResetPin    = errors.New("sh1106: reset GPIO pin is invalid")
	ErrDCPin       = errors.New("sh1106: data/command (DC) GPIO pin is invalid")
)

func acquisitionError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAcquisition, op, err)
}

// transferError adds op to err, tagging it with ErrTransfer unless it already is.
func transferError(op string, err error) error {
	if errors.Is(err, ErrTransfer) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransfer, op, err)
}
