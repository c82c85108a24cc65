// Package transform implements exact two dimensional linear and affine
// coordinate transforms.
//
// A LinearTransform is a 2x2 matrix. An AffineTransform adds a translation,
// which moves points but never extents. Both types are small values: methods
// with value receivers never modify the receiver, and the few pointer-receiver
// setters only modify the callee.
package transform

import (
	"fmt"
	"math"

	"github.com/wudi/geomkit/coords"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// Parameter indices. The order is fixed: fitting code relies on it.
const (
	XX = 0
	YX = 1
	XY = 2
	YY = 3
	X  = 4
	Y  = 5
)

// DefaultTolerance is the absolute-or-relative tolerance used by IsIdentity.
const DefaultTolerance = 1e-12

// A matrix is treated as singular when |det| <= singularThreshold * max|m_ij|^2,
// which is the pivot test of a fully pivoted LU on a 2x2 matrix.
var singularThreshold = 2 * (math.Nextafter(1, 2) - 1)

// Matrix2 is a row-major 2x2 matrix: Matrix2{{xx, xy}, {yx, yy}}.
type Matrix2 [2][2]float64

// LinearTransform maps (x, y) to (xx*x + xy*y, yx*x + yy*y).
//
// The zero value is the zero matrix; use NewLinearTransform for the identity.
type LinearTransform struct {
	m Matrix2
}

// NewLinearTransform returns the identity transform.
func NewLinearTransform() LinearTransform {
	return LinearTransform{m: Matrix2{{1, 0}, {0, 1}}}
}

func LinearFromMatrix(m Matrix2) LinearTransform { return LinearTransform{m: m} }

// LinearFromParameters builds a transform from a XX, YX, XY, YY slice.
func LinearFromParameters(p []float64) (LinearTransform, error) {
	var t LinearTransform
	if err := t.SetParameters(p); err != nil {
		return LinearTransform{}, err
	}
	return t, nil
}

// MakeLinearScaling returns diag(s, s).
func MakeLinearScaling(s float64) LinearTransform { return MakeLinearScalingXY(s, s) }

// MakeLinearScalingXY returns diag(s, t).
func MakeLinearScalingXY(s, t float64) LinearTransform {
	return LinearTransform{m: Matrix2{{s, 0}, {0, t}}}
}

// MakeLinearRotation returns a counter-clockwise rotation by a.
func MakeLinearRotation(a coords.Angle) LinearTransform {
	sin, cos := a.Sincos()
	return LinearTransform{m: Matrix2{{cos, -sin}, {sin, cos}}}
}

func (t LinearTransform) Matrix() Matrix2 { return t.m }

// Element returns the matrix entry at row, col.
func (t LinearTransform) Element(row, col int) (float64, error) {
	if row < 0 || row > 1 || col < 0 || col > 1 {
		return 0, fmt.Errorf("%w: (%d, %d)", ErrIndexOutOfRange, row, col)
	}
	return t.m[row][col], nil
}

func (t LinearTransform) ApplyPoint(p coords.Point) coords.Point {
	return coords.Point{X: t.m[0][0]*p.X + t.m[0][1]*p.Y, Y: t.m[1][0]*p.X + t.m[1][1]*p.Y}
}

func (t LinearTransform) ApplyExtent(e coords.Extent) coords.Extent {
	return coords.Extent{X: t.m[0][0]*e.X + t.m[0][1]*e.Y, Y: t.m[1][0]*e.X + t.m[1][1]*e.Y}
}

// Compose returns the transform p -> t(o(p)).
func (t LinearTransform) Compose(o LinearTransform) LinearTransform {
	a, b := t.m, o.m
	return LinearTransform{m: Matrix2{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}}
}

func (t LinearTransform) Determinant() float64 {
	return t.m[0][0]*t.m[1][1] - t.m[0][1]*t.m[1][0]
}

// Invert returns the inverse matrix, or ErrSingularTransform.
//
// The determinant and cofactors are taken on t / max|m_ij| so that entries
// near the float64 range limits neither overflow nor underflow.
func (t LinearTransform) Invert() (LinearTransform, error) {
	scale := math.Max(math.Max(math.Abs(t.m[0][0]), math.Abs(t.m[0][1])),
		math.Max(math.Abs(t.m[1][0]), math.Abs(t.m[1][1])))
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return LinearTransform{}, fmt.Errorf("%w: determinant %g", ErrSingularTransform, t.Determinant())
	}
	a, b := t.m[0][0]/scale, t.m[0][1]/scale
	c, d := t.m[1][0]/scale, t.m[1][1]/scale
	det := a*d - b*c
	if math.IsNaN(det) || math.Abs(det) <= singularThreshold {
		return LinearTransform{}, fmt.Errorf("%w: determinant %g", ErrSingularTransform, t.Determinant())
	}
	return LinearTransform{m: Matrix2{
		{d / det / scale, -b / det / scale},
		{-c / det / scale, a / det / scale},
	}}, nil
}

// IsIdentity reports whether t is the identity within DefaultTolerance.
func (t LinearTransform) IsIdentity() bool {
	return t.EqualWithin(NewLinearTransform(), DefaultTolerance)
}

// EqualWithin compares matrices element-wise using an absolute-or-relative tolerance.
func (t LinearTransform) EqualWithin(o LinearTransform, tol float64) bool {
	for i := range 2 {
		for j := range 2 {
			if !scalar.EqualWithinAbsOrRel(t.m[i][j], o.m[i][j], tol, tol) {
				return false
			}
		}
	}
	return true
}

// ParameterVector returns XX, YX, XY, YY.
func (t LinearTransform) ParameterVector() [4]float64 {
	return [4]float64{t.m[0][0], t.m[1][0], t.m[0][1], t.m[1][1]}
}

func (t *LinearTransform) SetParameterVector(v [4]float64) {
	t.m[0][0], t.m[1][0], t.m[0][1], t.m[1][1] = v[XX], v[YX], v[XY], v[YY]
}

func (t LinearTransform) Parameters() []float64 {
	v := t.ParameterVector()
	return v[:]
}

func (t *LinearTransform) SetParameters(p []float64) error {
	if len(p) != 4 {
		return fmt.Errorf("%w: linear transform takes 4, got %d", ErrParameterCount, len(p))
	}
	t.SetParameterVector([4]float64(p))
	return nil
}

// cell maps a parameter index onto the matrix.
func (t *LinearTransform) cell(i int) *float64 {
	switch i {
	case XX:
		return &t.m[0][0]
	case YX:
		return &t.m[1][0]
	case XY:
		return &t.m[0][1]
	case YY:
		return &t.m[1][1]
	}
	return nil
}

// At returns parameter i in XX, YX, XY, YY order.
func (t LinearTransform) At(i int) (float64, error) {
	c := t.cell(i)
	if c == nil {
		return 0, fmt.Errorf("%w: %d not in [0, 4)", ErrIndexOutOfRange, i)
	}
	return *c, nil
}

func (t *LinearTransform) SetAt(i int, v float64) error {
	c := t.cell(i)
	if c == nil {
		return fmt.Errorf("%w: %d not in [0, 4)", ErrIndexOutOfRange, i)
	}
	*c = v
	return nil
}

// Add returns the element-wise sum. It is not composition.
func (t LinearTransform) Add(o LinearTransform) LinearTransform {
	t.AddInPlace(o)
	return t
}

// Sub returns the element-wise difference.
func (t LinearTransform) Sub(o LinearTransform) LinearTransform {
	t.SubInPlace(o)
	return t
}

func (t *LinearTransform) AddInPlace(o LinearTransform) {
	for i := range 2 {
		for j := range 2 {
			t.m[i][j] += o.m[i][j]
		}
	}
}

func (t *LinearTransform) SubInPlace(o LinearTransform) {
	for i := range 2 {
		for j := range 2 {
			t.m[i][j] -= o.m[i][j]
		}
	}
}

// DTransform returns the 2x4 derivative of t(p) with respect to the
// parameters XX, YX, XY, YY.
func (t LinearTransform) DTransform(p coords.Point) *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		p.X, 0, p.Y, 0,
		0, p.X, 0, p.Y,
	})
}

func (t LinearTransform) DTransformExtent(e coords.Extent) *mat.Dense {
	return t.DTransform(coords.PointFromExtent(e))
}

// Dense returns a copy of the matrix as a gonum matrix.
func (t LinearTransform) Dense() *mat.Dense {
	return mat.NewDense(2, 2, []float64{t.m[0][0], t.m[0][1], t.m[1][0], t.m[1][1]})
}

func (t LinearTransform) String() string { return fmt.Sprint(t.m) }
