package transform

import "errors"

var (
	// ErrSingularTransform reports that a linear part, or the system solved
	// to build a transform, is not invertible.
	ErrSingularTransform = errors.New("singular transform")

	ErrIndexOutOfRange = errors.New("parameter index out of range")
	ErrParameterCount  = errors.New("wrong number of parameters")

	// ErrMalformedMatrix is returned by strict 3x3 constructors when the
	// bottom row is not (0, 0, 1).
	ErrMalformedMatrix = errors.New("affine matrix bottom row is not (0, 0, 1)")
)
