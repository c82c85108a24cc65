package transform

import (
	"fmt"

	"github.com/wudi/geomkit/coords"
)

// FromTriple returns the unique affine transform A with A(p_i) = q_i for
// i = 1, 2, 3. It fails with ErrSingularTransform when the source points are
// collinear or repeated.
func FromTriple(p1, p2, p3, q1, q2, q3 coords.Point) (AffineTransform, error) {
	// Work on edge vectors relative to p1 and q1 so that a triple far from
	// the origin is solved as well as the same triple near it.
	frame := LinearFromMatrix(Matrix2{
		{p2.X - p1.X, p3.X - p1.X},
		{p2.Y - p1.Y, p3.Y - p1.Y},
	})
	inv, err := frame.Invert()
	if err != nil {
		return AffineTransform{}, fmt.Errorf("degenerate source triple: %w", err)
	}
	image := LinearFromMatrix(Matrix2{
		{q2.X - q1.X, q3.X - q1.X},
		{q2.Y - q1.Y, q3.Y - q1.Y},
	})

	// L maps the source edges onto the target edges; the translation then
	// pins p1 to q1.
	l := image.Compose(inv)
	return NewAffine(l, q1.Sub(l.ApplyPoint(p1))), nil
}
