package attachment

import "errors"

// Taxonomía de fallos de ingesta. Los llamadores distinguen con errors.Is;
// el mensaje envuelto lleva la razón legible.
var (
	ErrTooLarge        = errors.New("attachment too large")
	ErrUnsupportedType = errors.New("attachment type not allowed")
	ErrCorruptFile     = errors.New("attachment content corrupt")
	ErrProcessing      = errors.New("attachment processing failed")
)
