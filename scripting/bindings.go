package scripting

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/notation"
	"github.com/wudi/geomkit/transform"
)

// Script-side values. Exported fields and methods are visible to scripts
// with their first letter lowered: p.x, t.apply(p), t.isIdentity().

type Point struct{ X, Y float64 }

func (p *Point) ToString() string { return coords.Point(*p).String() }

type Extent struct{ X, Y float64 }

func (e *Extent) ToString() string { return coords.Extent(*e).String() }

type Linear struct{ t transform.LinearTransform }

type Affine struct{ t transform.AffineTransform }

var (
	errNotGeometry = errors.New("argument must be a Point or an Extent")
	errNotLinear   = errors.New("argument must be a LinearTransform")
	errNotAffine   = errors.New("argument must be an AffineTransform")
	errNotPoint    = errors.New("argument must be a Point")
	errNotExtent   = errors.New("argument must be an Extent")
)

func (l *Linear) Apply(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case *Point:
		p := l.t.ApplyPoint(coords.Point(*v))
		return &Point{p.X, p.Y}, nil
	case *Extent:
		e := l.t.ApplyExtent(coords.Extent(*v))
		return &Extent{e.X, e.Y}, nil
	}
	return nil, errNotGeometry
}

func (l *Linear) Get(i int) (float64, error) { return l.t.At(i) }

func (l *Linear) Set(i int, v float64) error { return l.t.SetAt(i, v) }

// A missing or null script argument arrives as a nil pointer.

func (l *Linear) Mul(o *Linear) (*Linear, error) {
	if o == nil {
		return nil, errNotLinear
	}
	return &Linear{l.t.Compose(o.t)}, nil
}

func (l *Linear) Add(o *Linear) (*Linear, error) {
	if o == nil {
		return nil, errNotLinear
	}
	return &Linear{l.t.Add(o.t)}, nil
}

func (l *Linear) Sub(o *Linear) (*Linear, error) {
	if o == nil {
		return nil, errNotLinear
	}
	return &Linear{l.t.Sub(o.t)}, nil
}

func (l *Linear) Invert() (*Linear, error) {
	inv, err := l.t.Invert()
	if err != nil {
		return nil, err
	}
	return &Linear{inv}, nil
}

func (l *Linear) Determinant() float64  { return l.t.Determinant() }
func (l *Linear) IsIdentity() bool      { return l.t.IsIdentity() }
func (l *Linear) Parameters() []float64 { return l.t.Parameters() }

// Matrix is the reduce half of serialization; LinearTransform(m) rebuilds it.
func (l *Linear) Matrix() [][]float64 {
	m := l.t.Matrix()
	return [][]float64{m[0][:], m[1][:]}
}

func (l *Linear) DTransform(v interface{}) ([][]float64, error) {
	p, err := pointOf(v)
	if err != nil {
		return nil, err
	}
	d := l.t.DTransform(p)
	return [][]float64{d.RawRowView(0), d.RawRowView(1)}, nil
}

func (l *Linear) ToString() string { return "LinearTransform(" + l.t.String() + ")" }

func (a *Affine) Apply(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case *Point:
		p := a.t.ApplyPoint(coords.Point(*v))
		return &Point{p.X, p.Y}, nil
	case *Extent:
		e := a.t.ApplyExtent(coords.Extent(*v))
		return &Extent{e.X, e.Y}, nil
	}
	return nil, errNotGeometry
}

func (a *Affine) Get(i int) (float64, error) { return a.t.At(i) }

func (a *Affine) Set(i int, v float64) error { return a.t.SetAt(i, v) }

func (a *Affine) Mul(o *Affine) (*Affine, error) {
	if o == nil {
		return nil, errNotAffine
	}
	return &Affine{a.t.Compose(o.t)}, nil
}

func (a *Affine) Add(o *Affine) (*Affine, error) {
	if o == nil {
		return nil, errNotAffine
	}
	return &Affine{a.t.Add(o.t)}, nil
}

func (a *Affine) Sub(o *Affine) (*Affine, error) {
	if o == nil {
		return nil, errNotAffine
	}
	return &Affine{a.t.Sub(o.t)}, nil
}

func (a *Affine) Invert() (*Affine, error) {
	inv, err := a.t.Invert()
	if err != nil {
		return nil, err
	}
	return &Affine{inv}, nil
}

func (a *Affine) Determinant() float64  { return a.t.Linear().Determinant() }
func (a *Affine) IsIdentity() bool      { return a.t.IsIdentity() }
func (a *Affine) Parameters() []float64 { return a.t.Parameters() }
func (a *Affine) Linear() *Linear       { return &Linear{a.t.Linear()} }

func (a *Affine) Translation() *Extent {
	e := a.t.Translation()
	return &Extent{e.X, e.Y}
}

func (a *Affine) Matrix() [][]float64 {
	m := a.t.Matrix()
	return [][]float64{m[0][:], m[1][:], m[2][:]}
}

// DTransform returns the 2x6 parameter derivative at a point or extent.
func (a *Affine) DTransform(v interface{}) ([][]float64, error) {
	switch v := v.(type) {
	case *Point:
		d := a.t.DTransform(coords.Point(*v))
		return [][]float64{d.RawRowView(0), d.RawRowView(1)}, nil
	case *Extent:
		d := a.t.DTransformExtent(coords.Extent(*v))
		return [][]float64{d.RawRowView(0), d.RawRowView(1)}, nil
	}
	return nil, errNotGeometry
}

func (a *Affine) ToString() string { return "AffineTransform(" + a.t.String() + ")" }

func pointOf(v interface{}) (coords.Point, error) {
	switch v := v.(type) {
	case *Point:
		return coords.Point(*v), nil
	case *Extent:
		return coords.Point(*v), nil
	}
	return coords.Point{}, errNotGeometry
}

func registerBindings(vm *goja.Runtime) error {
	number := func(call goja.FunctionCall, i int) float64 {
		return call.Argument(i).ToFloat()
	}
	matrix := func(v goja.Value, n int) ([][]float64, error) {
		var m [][]float64
		if err := vm.ExportTo(v, &m); err != nil {
			return nil, err
		}
		if len(m) != n {
			return nil, fmt.Errorf("matrix must have %d rows, got %d", n, len(m))
		}
		for i, row := range m {
			if len(row) != n {
				return nil, fmt.Errorf("matrix row %d must have %d values, got %d", i, n, len(row))
			}
		}
		return m, nil
	}
	throw := func(err error) goja.Value {
		panic(vm.NewGoError(err))
	}

	globals := map[string]interface{}{
		"Point": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(&Point{number(call, 0), number(call, 1)})
		},
		"Extent": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(&Extent{number(call, 0), number(call, 1)})
		},
		"fromTriple": func(p1, p2, p3, q1, q2, q3 *Point) (*Affine, error) {
			var pts [6]coords.Point
			for i, p := range []*Point{p1, p2, p3, q1, q2, q3} {
				if p == nil {
					return nil, fmt.Errorf("fromTriple argument %d: %w", i+1, errNotPoint)
				}
				pts[i] = coords.Point(*p)
			}
			t, err := transform.FromTriple(pts[0], pts[1], pts[2], pts[3], pts[4], pts[5])
			if err != nil {
				return nil, err
			}
			return &Affine{t}, nil
		},
		"parseTransform": func(expr string) (*Affine, error) {
			t, err := notation.ParseExpr(expr)
			if err != nil {
				return nil, err
			}
			return &Affine{t}, nil
		},
	}
	for name, fn := range globals {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}

	linearCtor := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if goja.IsUndefined(call.Argument(0)) {
			return vm.ToValue(&Linear{transform.NewLinearTransform()})
		}
		m, err := matrix(call.Argument(0), 2)
		if err != nil {
			return throw(err)
		}
		return vm.ToValue(&Linear{transform.LinearFromMatrix(transform.Matrix2{[2]float64(m[0]), [2]float64(m[1])})})
	}).(*goja.Object)
	linearStatics := map[string]interface{}{
		"XX": transform.XX, "YX": transform.YX, "XY": transform.XY, "YY": transform.YY,
		"makeScaling": func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 1 {
				return vm.ToValue(&Linear{transform.MakeLinearScalingXY(number(call, 0), number(call, 1))})
			}
			return vm.ToValue(&Linear{transform.MakeLinearScaling(number(call, 0))})
		},
		"makeRotation": func(angle float64) *Linear {
			return &Linear{transform.MakeLinearRotation(coords.Radians(angle))}
		},
	}
	for name, v := range linearStatics {
		if err := linearCtor.Set(name, v); err != nil {
			return err
		}
	}
	if err := vm.Set("LinearTransform", linearCtor); err != nil {
		return err
	}

	affineCtor := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		arg := call.Argument(0)
		if goja.IsUndefined(arg) {
			return vm.ToValue(&Affine{transform.NewAffineTransform()})
		}
		if l, ok := arg.Export().(*Linear); ok {
			return vm.ToValue(&Affine{transform.FromLinear(l.t)})
		}
		if e, ok := arg.Export().(*Extent); ok {
			return vm.ToValue(&Affine{transform.FromTranslation(coords.Extent(*e))})
		}
		m, err := matrix(arg, 3)
		if err != nil {
			return throw(err)
		}
		return vm.ToValue(&Affine{transform.AffineFromMatrix3(transform.Matrix3{
			[3]float64(m[0]), [3]float64(m[1]), [3]float64(m[2]),
		})})
	}).(*goja.Object)
	affineStatics := map[string]interface{}{
		"XX": transform.XX, "YX": transform.YX, "XY": transform.XY, "YY": transform.YY,
		"X": transform.X, "Y": transform.Y,
		"makeScaling": func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 1 {
				return vm.ToValue(&Affine{transform.MakeScalingXY(number(call, 0), number(call, 1))})
			}
			return vm.ToValue(&Affine{transform.MakeScaling(number(call, 0))})
		},
		"makeRotation": func(angle float64) *Affine {
			return &Affine{transform.MakeRotation(coords.Radians(angle))}
		},
		"makeTranslation": func(e *Extent) (*Affine, error) {
			if e == nil {
				return nil, errNotExtent
			}
			return &Affine{transform.MakeTranslation(coords.Extent(*e))}, nil
		},
	}
	for name, v := range affineStatics {
		if err := affineCtor.Set(name, v); err != nil {
			return err
		}
	}
	return vm.Set("AffineTransform", affineCtor)
}
