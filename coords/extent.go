package coords

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Extent is a displacement between two points. Translations leave it unchanged.
type Extent struct{ X, Y float64 }

// ExtentFromPoint duplicates a point as its offset from the origin.
func ExtentFromPoint(p Point) Extent { return Extent{X: p.X, Y: p.Y} }

func ExtentFromVec(v r2.Vec) Extent { return Extent{X: v.X, Y: v.Y} }

func (e Extent) Add(o Extent) Extent { return Extent{X: e.X + o.X, Y: e.Y + o.Y} }
func (e Extent) Sub(o Extent) Extent { return Extent{X: e.X - o.X, Y: e.Y - o.Y} }
func (e Extent) Neg() Extent         { return Extent{X: -e.X, Y: -e.Y} }

func (e Extent) Scale(s float64) Extent { return ExtentFromVec(r2.Scale(s, e.Vec())) }
func (e Extent) Dot(o Extent) float64   { return r2.Dot(e.Vec(), o.Vec()) }

// Cross returns the z component of the cross product of e and o.
func (e Extent) Cross(o Extent) float64 { return r2.Cross(e.Vec(), o.Vec()) }
func (e Extent) Norm() float64          { return r2.Norm(e.Vec()) }

func (e Extent) Vec() r2.Vec { return r2.Vec{X: e.X, Y: e.Y} }

func (e Extent) String() string { return fmt.Sprintf("Extent(%g, %g)", e.X, e.Y) }
