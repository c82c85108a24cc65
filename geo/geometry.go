package geo

import (
	"context"
	"fmt"
	"runtime"

	"github.com/twpayne/go-geom"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/transform"
	"golang.org/x/sync/errgroup"
)

// TransformGeometry returns a copy of g with the X and Y ordinates of every
// coordinate mapped through t. Z and M ordinates are carried unchanged.
func TransformGeometry(g geom.T, t transform.AffineTransform) (geom.T, error) {
	switch g := g.(type) {
	case *geom.Point:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.LineString:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.LinearRing:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.Polygon:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.MultiPoint:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.MultiLineString:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.MultiPolygon:
		c := g.Clone()
		applyFlat(c.FlatCoords(), c.Stride(), t)
		return c, nil
	case *geom.GeometryCollection:
		out := geom.NewGeometryCollection()
		for i := range g.NumGeoms() {
			child, err := TransformGeometry(g.Geom(i), t)
			if err != nil {
				return nil, err
			}
			if err := out.Push(child); err != nil {
				return nil, err
			}
		}
		return out.SetSRID(g.SRID()), nil
	case nil:
		return nil, fmt.Errorf("transform geometry: nil geometry")
	default:
		return nil, fmt.Errorf("transform geometry: unsupported type %T", g)
	}
}

func applyFlat(flat []float64, stride int, t transform.AffineTransform) {
	if stride < 2 {
		return
	}
	for i := 0; i+1 < len(flat); i += stride {
		p := t.ApplyPoint(coords.Point{X: flat[i], Y: flat[i+1]})
		flat[i], flat[i+1] = p.X, p.Y
	}
}

// TransformGeometries maps every geometry in gs through t using at most
// concurrency workers (GOMAXPROCS when concurrency <= 0). The result keeps the
// order of gs. The first failure cancels the remaining work.
func TransformGeometries(ctx context.Context, gs []geom.T, t transform.AffineTransform, concurrency int) ([]geom.T, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	out := make([]geom.T, len(gs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, in := range gs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := TransformGeometry(in, t)
			if err != nil {
				return fmt.Errorf("geometry %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func withSRID(g geom.T, srid int) geom.T {
	switch g := g.(type) {
	case *geom.Point:
		return g.SetSRID(srid)
	case *geom.LineString:
		return g.SetSRID(srid)
	case *geom.LinearRing:
		return g.SetSRID(srid)
	case *geom.Polygon:
		return g.SetSRID(srid)
	case *geom.MultiPoint:
		return g.SetSRID(srid)
	case *geom.MultiLineString:
		return g.SetSRID(srid)
	case *geom.MultiPolygon:
		return g.SetSRID(srid)
	case *geom.GeometryCollection:
		return g.SetSRID(srid)
	}
	return g
}
