package coords

// Matrix is the six-number affine layout used by PDF content streams:
// [a b c d e f] maps (x, y) to (a*x + c*y + e, b*x + d*y + f).
//
// The order coincides with the XX, YX, XY, YY, X, Y parameter order of an
// affine transform, so a Matrix can be handed directly to parameter-vector APIs.
type Matrix [6]float64
