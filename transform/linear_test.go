package transform

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wudi/geomkit/coords"
)

const tol = 1e-9

func randomLinear(r *rand.Rand) LinearTransform {
	for {
		t := LinearFromMatrix(Matrix2{
			{r.Float64()*4 - 2, r.Float64()*4 - 2},
			{r.Float64()*4 - 2, r.Float64()*4 - 2},
		})
		if math.Abs(t.Determinant()) > 0.1 {
			return t
		}
	}
}

func assertPointNear(t *testing.T, want, got coords.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x of %v vs %v", want, got)
	assert.InDelta(t, want.Y, got.Y, tol, "y of %v vs %v", want, got)
}

func assertExtentNear(t *testing.T, want, got coords.Extent) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, "x of %v vs %v", want, got)
	assert.InDelta(t, want.Y, got.Y, tol, "y of %v vs %v", want, got)
}

func TestLinearIdentity(t *testing.T) {
	id := NewLinearTransform()
	require.True(t, id.IsIdentity())
	p := coords.Point{X: 3, Y: -4.5}
	e := coords.Extent{X: -1, Y: 2}
	assert.Equal(t, p, id.ApplyPoint(p))
	assert.Equal(t, e, id.ApplyExtent(e))
	assert.Equal(t, [4]float64{1, 0, 0, 1}, id.ParameterVector())

	assert.False(t, LinearTransform{}.IsIdentity())
	assert.True(t, LinearFromMatrix(Matrix2{{1 + 1e-14, 0}, {0, 1}}).IsIdentity())
}

func TestLinearFactories(t *testing.T) {
	assert.Equal(t, Matrix2{{2, 0}, {0, 2}}, MakeLinearScaling(2).Matrix())
	assert.Equal(t, Matrix2{{2, 0}, {0, 3}}, MakeLinearScalingXY(2, 3).Matrix())

	r := MakeLinearRotation(coords.Radians(math.Pi / 2))
	assertPointNear(t, coords.Point{X: 0, Y: 1}, r.ApplyPoint(coords.Point{X: 1}))
	m := MakeLinearRotation(coords.Radians(1)).Matrix()
	assert.Equal(t, math.Cos(1), m[0][0])
	assert.Equal(t, -math.Sin(1), m[0][1])
	assert.Equal(t, math.Sin(1), m[1][0])
	assert.Equal(t, math.Cos(1), m[1][1])
}

func TestLinearPointAndExtentAgree(t *testing.T) {
	l := LinearFromMatrix(Matrix2{{1, 2}, {3, 4}})
	p := coords.Point{X: 3, Y: 4.5}
	assert.Equal(t, coords.Point{X: 12, Y: 27}, l.ApplyPoint(p))
	assert.Equal(t, l.ApplyPoint(p).Extent(), l.ApplyExtent(p.Extent()))
}

func TestLinearComposeOrder(t *testing.T) {
	s := MakeLinearScalingXY(2, 1)
	r := MakeLinearRotation(coords.Radians(math.Pi / 2))
	p := coords.Point{X: 1, Y: 0}

	assertPointNear(t, s.ApplyPoint(r.ApplyPoint(p)), s.Compose(r).ApplyPoint(p))
	assertPointNear(t, r.ApplyPoint(s.ApplyPoint(p)), r.Compose(s).ApplyPoint(p))
	assert.False(t, s.Compose(r).EqualWithin(r.Compose(s), tol))
}

func TestLinearAssociativity(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		a, b, c := randomLinear(r), randomLinear(r), randomLinear(r)
		assert.True(t, a.Compose(b).Compose(c).EqualWithin(a.Compose(b.Compose(c)), tol))
	}
}

func TestLinearInvert(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 50 {
		l := randomLinear(r)
		inv, err := l.Invert()
		require.NoError(t, err)
		p := coords.Point{X: r.Float64()*100 - 50, Y: r.Float64()*100 - 50}
		assertPointNear(t, p, inv.ApplyPoint(l.ApplyPoint(p)))
		e := p.Extent()
		assertExtentNear(t, e, inv.ApplyExtent(l.ApplyExtent(e)))
		assert.True(t, l.Compose(inv).EqualWithin(NewLinearTransform(), tol))
	}
}

func TestLinearSingular(t *testing.T) {
	cases := map[string]Matrix2{
		"zero":           {},
		"identical rows": {{1, 2}, {1, 2}},
		"dependent cols": {{2, 4}, {1, 2}},
		"tiny residual":  {{1, 1}, {1, 1 + 1e-17}},
		"nan":            {{math.NaN(), 0}, {0, 1}},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LinearFromMatrix(m).Invert()
			require.ErrorIs(t, err, ErrSingularTransform)
		})
	}

	_, err := MakeLinearScaling(1e-100).Invert()
	assert.NoError(t, err, "uniform tiny scaling is well conditioned")
}

func TestLinearInvertExtremeMagnitudes(t *testing.T) {
	for _, s := range []float64{1e200, 1e-200} {
		inv, err := MakeLinearScaling(s).Invert()
		require.NoError(t, err, "scale %g", s)
		assert.InEpsilon(t, 1/s, inv.Matrix()[0][0], 1e-12, "scale %g", s)
		assert.InEpsilon(t, 1/s, inv.Matrix()[1][1], 1e-12, "scale %g", s)

		l := MakeLinearScaling(s).Compose(MakeLinearRotation(0.7))
		inv, err = l.Invert()
		require.NoError(t, err, "scale %g", s)
		assert.True(t, l.Compose(inv).EqualWithin(NewLinearTransform(), tol), "scale %g: %v", s, l.Compose(inv))

		a := NewAffine(l, coords.Extent{X: s, Y: -s})
		ainv, err := a.Invert()
		require.NoError(t, err, "scale %g", s)
		assert.True(t, ainv.Compose(a).EqualWithin(NewAffineTransform(), tol), "scale %g", s)
	}
}

func TestLinearDeterminant(t *testing.T) {
	assert.Equal(t, -2.0, LinearFromMatrix(Matrix2{{1, 2}, {3, 4}}).Determinant())
	assert.Equal(t, 6.0, MakeLinearScalingXY(2, 3).Determinant())
}

func TestLinearParameters(t *testing.T) {
	l := LinearFromMatrix(Matrix2{{1, 2}, {3, 4}})
	assert.Equal(t, [4]float64{1, 3, 2, 4}, l.ParameterVector())

	want := map[int][2]int{XX: {0, 0}, YX: {1, 0}, XY: {0, 1}, YY: {1, 1}}
	for i, rc := range want {
		v, err := l.At(i)
		require.NoError(t, err)
		e, err := l.Element(rc[0], rc[1])
		require.NoError(t, err)
		assert.Equal(t, e, v, "index %d", i)
	}

	var rt LinearTransform
	rt.SetParameterVector(l.ParameterVector())
	assert.Equal(t, l, rt)

	got, err := LinearFromParameters(l.Parameters())
	require.NoError(t, err)
	assert.Equal(t, l, got)

	_, err = LinearFromParameters([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrParameterCount)

	require.NoError(t, l.SetAt(XY, 9))
	assert.Equal(t, 9.0, l.Matrix()[0][1])

	_, err = l.At(4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, l.SetAt(-1, 0), ErrIndexOutOfRange)
	_, err = l.Element(2, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLinearElementwise(t *testing.T) {
	a := LinearFromMatrix(Matrix2{{1, 2}, {3, 4}})
	b := LinearFromMatrix(Matrix2{{10, 20}, {30, 40}})

	assert.Equal(t, Matrix2{{11, 22}, {33, 44}}, a.Add(b).Matrix())
	assert.Equal(t, Matrix2{{9, 18}, {27, 36}}, b.Sub(a).Matrix())
	assert.Equal(t, Matrix2{{1, 2}, {3, 4}}, a.Matrix(), "Add must not modify the receiver")

	a.AddInPlace(b)
	assert.Equal(t, Matrix2{{11, 22}, {33, 44}}, a.Matrix())
	a.SubInPlace(b)
	assert.Equal(t, Matrix2{{1, 2}, {3, 4}}, a.Matrix())
}

func TestLinearDTransform(t *testing.T) {
	d := NewLinearTransform().DTransform(coords.Point{X: 3, Y: 4})
	r, c := d.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 4, c)
	assert.Equal(t, []float64{3, 0, 4, 0, 0, 3, 0, 4}, d.RawMatrix().Data)
	assert.Equal(t, d.RawMatrix().Data, NewLinearTransform().DTransformExtent(coords.Extent{X: 3, Y: 4}).RawMatrix().Data)
}

func TestLinearString(t *testing.T) {
	assert.Equal(t, "[[1 2] [3 4]]", LinearFromMatrix(Matrix2{{1, 2}, {3, 4}}).String())
	d := LinearFromMatrix(Matrix2{{1, 2}, {3, 4}}).Dense()
	assert.Equal(t, 2.0, d.At(0, 1))
	assert.Equal(t, 3.0, d.At(1, 0))
}
