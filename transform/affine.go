package transform

import (
	"fmt"

	"github.com/wudi/geomkit/coords"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// Matrix3 is the row-major homogeneous form of an affine transform.
type Matrix3 [3][3]float64

// AffineTransform is a linear transform followed by a translation:
//
//	| xx xy x |
//	| yx yy y |
//	|  0  0 1 |
//
// The zero value maps everything to the origin; use NewAffineTransform for
// the identity.
type AffineTransform struct {
	linear      LinearTransform
	translation coords.Extent
}

// NewAffineTransform returns the identity transform.
func NewAffineTransform() AffineTransform {
	return AffineTransform{linear: NewLinearTransform()}
}

func NewAffine(linear LinearTransform, translation coords.Extent) AffineTransform {
	return AffineTransform{linear: linear, translation: translation}
}

// FromLinear returns linear with no translation.
func FromLinear(linear LinearTransform) AffineTransform {
	return AffineTransform{linear: linear}
}

// FromTranslation returns a pure translation by e.
func FromTranslation(e coords.Extent) AffineTransform {
	return AffineTransform{linear: NewLinearTransform(), translation: e}
}

func AffineFromMatrix2(m Matrix2) AffineTransform {
	return AffineTransform{linear: LinearFromMatrix(m)}
}

// AffineFromMatrix3 takes the upper 2x3 block of m. The bottom row is ignored.
func AffineFromMatrix3(m Matrix3) AffineTransform {
	return AffineTransform{
		linear:      LinearFromMatrix(Matrix2{{m[0][0], m[0][1]}, {m[1][0], m[1][1]}}),
		translation: coords.Extent{X: m[0][2], Y: m[1][2]},
	}
}

// AffineFromMatrix3Strict is AffineFromMatrix3 but rejects a bottom row other
// than (0, 0, 1).
func AffineFromMatrix3Strict(m Matrix3) (AffineTransform, error) {
	if m[2] != [3]float64{0, 0, 1} {
		return AffineTransform{}, fmt.Errorf("%w: got %v", ErrMalformedMatrix, m[2])
	}
	return AffineFromMatrix3(m), nil
}

// AffineFromParameters builds a transform from a XX, YX, XY, YY, X, Y slice.
func AffineFromParameters(p []float64) (AffineTransform, error) {
	var t AffineTransform
	if err := t.SetParameters(p); err != nil {
		return AffineTransform{}, err
	}
	return t, nil
}

func MakeScaling(s float64) AffineTransform { return FromLinear(MakeLinearScaling(s)) }

func MakeScalingXY(s, t float64) AffineTransform { return FromLinear(MakeLinearScalingXY(s, t)) }

// MakeRotation returns a counter-clockwise rotation about the origin.
func MakeRotation(a coords.Angle) AffineTransform { return FromLinear(MakeLinearRotation(a)) }

func MakeTranslation(e coords.Extent) AffineTransform { return FromTranslation(e) }

func (t AffineTransform) Linear() LinearTransform    { return t.linear }
func (t AffineTransform) Translation() coords.Extent { return t.translation }

// WithLinear returns a copy of t with its linear part replaced.
func (t AffineTransform) WithLinear(l LinearTransform) AffineTransform {
	t.linear = l
	return t
}

// WithTranslation returns a copy of t with its translation replaced.
func (t AffineTransform) WithTranslation(e coords.Extent) AffineTransform {
	t.translation = e
	return t
}

// ApplyPoint returns linear(p) + translation.
func (t AffineTransform) ApplyPoint(p coords.Point) coords.Point {
	return t.linear.ApplyPoint(p).Add(t.translation)
}

// ApplyExtent returns linear(e); extents do not translate.
func (t AffineTransform) ApplyExtent(e coords.Extent) coords.Extent {
	return t.linear.ApplyExtent(e)
}

// Compose returns the transform p -> t(o(p)).
func (t AffineTransform) Compose(o AffineTransform) AffineTransform {
	return AffineTransform{
		linear:      t.linear.Compose(o.linear),
		translation: t.linear.ApplyExtent(o.translation).Add(t.translation),
	}
}

// Invert returns the transform undoing t. It fails with ErrSingularTransform
// when the linear part cannot be inverted.
func (t AffineTransform) Invert() (AffineTransform, error) {
	inv, err := t.linear.Invert()
	if err != nil {
		return AffineTransform{}, err
	}
	return AffineTransform{linear: inv, translation: inv.ApplyExtent(t.translation).Neg()}, nil
}

func (t AffineTransform) IsIdentity() bool {
	return t.EqualWithin(NewAffineTransform(), DefaultTolerance)
}

func (t AffineTransform) EqualWithin(o AffineTransform, tol float64) bool {
	return t.linear.EqualWithin(o.linear, tol) &&
		scalar.EqualWithinAbsOrRel(t.translation.X, o.translation.X, tol, tol) &&
		scalar.EqualWithinAbsOrRel(t.translation.Y, o.translation.Y, tol, tol)
}

// Matrix returns the 3x3 homogeneous form. The bottom row is always (0, 0, 1).
func (t AffineTransform) Matrix() Matrix3 {
	l := t.linear.m
	return Matrix3{
		{l[0][0], l[0][1], t.translation.X},
		{l[1][0], l[1][1], t.translation.Y},
		{0, 0, 1},
	}
}

// ParameterVector returns XX, YX, XY, YY, X, Y.
func (t AffineTransform) ParameterVector() [6]float64 {
	l := t.linear.ParameterVector()
	return [6]float64{l[XX], l[YX], l[XY], l[YY], t.translation.X, t.translation.Y}
}

func (t *AffineTransform) SetParameterVector(v [6]float64) {
	t.linear.SetParameterVector([4]float64(v[:4]))
	t.translation = coords.Extent{X: v[X], Y: v[Y]}
}

func (t AffineTransform) Parameters() []float64 {
	v := t.ParameterVector()
	return v[:]
}

func (t *AffineTransform) SetParameters(p []float64) error {
	if len(p) != 6 {
		return fmt.Errorf("%w: affine transform takes 6, got %d", ErrParameterCount, len(p))
	}
	t.SetParameterVector([6]float64(p))
	return nil
}

// At returns parameter i; 0..3 index the linear part, 4 and 5 the translation.
func (t AffineTransform) At(i int) (float64, error) {
	switch i {
	case X:
		return t.translation.X, nil
	case Y:
		return t.translation.Y, nil
	}
	v, err := t.linear.At(i)
	if err != nil {
		return 0, fmt.Errorf("%w: %d not in [0, 6)", ErrIndexOutOfRange, i)
	}
	return v, nil
}

func (t *AffineTransform) SetAt(i int, v float64) error {
	switch i {
	case X:
		t.translation.X = v
		return nil
	case Y:
		t.translation.Y = v
		return nil
	}
	if err := t.linear.SetAt(i, v); err != nil {
		return fmt.Errorf("%w: %d not in [0, 6)", ErrIndexOutOfRange, i)
	}
	return nil
}

// Add returns the element-wise sum of both parts. It is not composition.
func (t AffineTransform) Add(o AffineTransform) AffineTransform {
	t.AddInPlace(o)
	return t
}

func (t AffineTransform) Sub(o AffineTransform) AffineTransform {
	t.SubInPlace(o)
	return t
}

func (t *AffineTransform) AddInPlace(o AffineTransform) {
	t.linear.AddInPlace(o.linear)
	t.translation = t.translation.Add(o.translation)
}

func (t *AffineTransform) SubInPlace(o AffineTransform) {
	t.linear.SubInPlace(o.linear)
	t.translation = t.translation.Sub(o.translation)
}

// DTransform returns the 2x6 derivative of t(p) with respect to the
// parameters XX, YX, XY, YY, X, Y. Row 0 is d x_out, row 1 is d y_out.
func (t AffineTransform) DTransform(p coords.Point) *mat.Dense {
	return mat.NewDense(2, 6, []float64{
		p.X, 0, p.Y, 0, 1, 0,
		0, p.X, 0, p.Y, 0, 1,
	})
}

// DTransformExtent is DTransform for an extent: the translation columns are zero.
func (t AffineTransform) DTransformExtent(e coords.Extent) *mat.Dense {
	return mat.NewDense(2, 6, []float64{
		e.X, 0, e.Y, 0, 0, 0,
		0, e.X, 0, e.Y, 0, 0,
	})
}

func (t AffineTransform) Dense() *mat.Dense {
	m := t.Matrix()
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func (t AffineTransform) String() string { return fmt.Sprint(t.Matrix()) }
