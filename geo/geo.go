package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/fit"
	"github.com/wudi/geomkit/observability"
	"github.com/wudi/geomkit/transform"
)

var (
	// ErrTooFewControlPoints is returned when a Measure carries fewer than
	// three LPTS/GPTS pairs.
	ErrTooFewControlPoints = errors.New("need at least 3 control points for affine transform")
	ErrNoMeasure           = errors.New("viewport has no measure")
)

// Viewport specifies a rectangular region of a page (PDF 2.0).
type Viewport struct {
	BBox    []float64 // [llx lly urx ury]
	Name    string
	Measure *Measure
}

// Contains returns true if the point (x, y) is within the viewport.
func (v *Viewport) Contains(x, y float64) bool {
	if len(v.BBox) < 4 {
		return false
	}
	return x >= v.BBox[0] && x <= v.BBox[2] && y >= v.BBox[1] && y <= v.BBox[3]
}

// Transform maps (x, y) through the viewport's measure. Points outside BBox
// are still mapped; callers that care check Contains first.
func (v *Viewport) Transform(x, y float64) (float64, float64, error) {
	if v.Measure == nil {
		return 0, 0, ErrNoMeasure
	}
	return v.Measure.Transform(x, y)
}

// Measure dictionary (Type /Measure).
type Measure struct {
	Subtype string // /RL (Rectilinear) or /GEO (Geospatial)
	Bounds  []float64
	GCS     *CoordinateSystem // Geo Coordinate System
	GPTS    []float64         // Lat/Lon coords
	LPTS    []float64         // Page coords
}

// ControlPairs zips LPTS with GPTS. Trailing odd values and unmatched points
// are ignored.
func (m *Measure) ControlPairs() []fit.Pair {
	n := min(len(m.LPTS), len(m.GPTS)) / 2
	pairs := make([]fit.Pair, n)
	for i := range n {
		pairs[i] = fit.Pair{
			Src: coords.Point{X: m.LPTS[2*i], Y: m.LPTS[2*i+1]},
			Dst: coords.Point{X: m.GPTS[2*i], Y: m.GPTS[2*i+1]},
		}
	}
	return pairs
}

// Affine returns the page to geospatial transform. Three control points are
// interpolated exactly; more are fitted in the least-squares sense.
func (m *Measure) Affine(ctx context.Context, opts ...fit.Option) (transform.AffineTransform, error) {
	pairs := m.ControlPairs()
	switch {
	case len(pairs) < 3:
		return transform.AffineTransform{}, ErrTooFewControlPoints
	case len(pairs) == 3:
		t, err := transform.FromTriple(
			pairs[0].Src, pairs[1].Src, pairs[2].Src,
			pairs[0].Dst, pairs[1].Dst, pairs[2].Dst,
		)
		if err != nil {
			return transform.AffineTransform{}, fmt.Errorf("collinear control points: %w", err)
		}
		return t, nil
	}

	res, err := fit.Fit(ctx, pairs, opts...)
	if err != nil {
		return transform.AffineTransform{}, fmt.Errorf("fit control points: %w", err)
	}
	return res.Transform, nil
}

// Transform maps page coordinates (x, y) to geospatial coordinates (lat, lon).
func (m *Measure) Transform(x, y float64) (float64, float64, error) {
	t, err := m.Affine(context.Background())
	if err != nil {
		return 0, 0, err
	}
	p := t.ApplyPoint(coords.Point{X: x, Y: y})
	return p.X, p.Y, nil
}

// SRID returns the EPSG code of the measure's coordinate system, or 0 when
// none is known.
func (m *Measure) SRID() int {
	if m.GCS == nil {
		return 0
	}
	return m.GCS.EPSG
}

// MapGeometries maps page-space geometries into the measure's geospatial
// space. Results carry SRID() when it is non-zero and the input's SRID
// otherwise.
func (m *Measure) MapGeometries(ctx context.Context, gs []geom.T, logger observability.Logger) ([]geom.T, error) {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	t, err := m.Affine(ctx, fit.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	out, err := TransformGeometries(ctx, gs, t, 0)
	if err != nil {
		return nil, err
	}
	srid := m.SRID()
	if srid != 0 {
		for i, g := range out {
			out[i] = withSRID(g, srid)
		}
	}
	logger.Debug("mapped geometries",
		observability.Int(observability.MetricGeometryCount, len(out)),
		observability.Int("srid", srid))
	return out, nil
}

// CoordinateSystem defines the projection.
type CoordinateSystem struct {
	Type string // /PROJCS or /GEOGCS
	WKT  string // Well-Known Text
	EPSG int    // Optional EPSG code if parsed
}
