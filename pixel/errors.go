package pixel

import "errors"

// Errors
var (
	ErrOutOfRange        = errors.New("pixel: coordinate out of range")
	ErrDimensionMismatch = errors.New("pixel: source dimensions do not match the panel")
)
