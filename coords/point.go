// Package coords holds the small value types the transform algebra operates
// on: absolute points, translation-invariant extents and angles.
package coords

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is an absolute 2D position. Translations move points.
type Point struct{ X, Y float64 }

// PointFromExtent treats an extent as the offset of a point from the origin.
func PointFromExtent(e Extent) Point { return Point{X: e.X, Y: e.Y} }

// PointFromVec converts a gonum vector into a point.
func PointFromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Extent { return Extent{X: p.X - q.X, Y: p.Y - q.Y} }

// Add offsets p by e.
func (p Point) Add(e Extent) Point { return Point{X: p.X + e.X, Y: p.Y + e.Y} }

// Extent duplicates p as an offset from the origin.
func (p Point) Extent() Extent { return Extent{X: p.X, Y: p.Y} }

func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 { return r2.Norm(r2.Sub(p.Vec(), q.Vec())) }

func (p Point) String() string { return fmt.Sprintf("Point(%g, %g)", p.X, p.Y) }
