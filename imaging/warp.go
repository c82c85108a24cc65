// Package imaging resamples raster images through affine transforms.
package imaging

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/observability"
	"github.com/wudi/geomkit/transform"
	"golang.org/x/image/draw"
)

type options struct {
	interp draw.Interpolator
	op     draw.Op
	logger observability.Logger
}

type Option func(*options)

// WithInterpolator selects the resampling kernel. Default is draw.BiLinear.
func WithInterpolator(i draw.Interpolator) Option {
	return func(o *options) {
		if i != nil {
			o.interp = i
		}
	}
}

// WithOp selects the compositing operator. Default is draw.Over.
func WithOp(op draw.Op) Option {
	return func(o *options) {
		o.op = op
	}
}

func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// InterpolatorByName resolves the names accepted on the command line and in
// config files.
func InterpolatorByName(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "", "bilinear":
		return draw.BiLinear, nil
	case "nearest", "nearestneighbor":
		return draw.NearestNeighbor, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown interpolator %q", name)
}

// Warp draws src onto dst so that the src pixel coordinate p lands on t(p).
// Only the part of the result that falls inside dst.Bounds() is written.
func Warp(dst draw.Image, src image.Image, t transform.AffineTransform, opts ...Option) error {
	o := options{
		interp: draw.BiLinear,
		op:     draw.Over,
		logger: observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	// draw inverts s2d itself and does not guard against a zero determinant
	if _, err := t.Invert(); err != nil {
		return fmt.Errorf("warp: %w", err)
	}

	start := time.Now()
	o.interp.Transform(dst, t.Aff3(), src, src.Bounds(), o.op, nil)
	o.logger.Debug("image warped",
		observability.String("src", src.Bounds().String()),
		observability.String("dst", dst.Bounds().String()),
		observability.Any(observability.MetricWarpDuration, time.Since(start)),
	)
	return nil
}

// WarpedBounds returns the smallest integer rectangle holding the image of r
// under t.
func WarpedBounds(r image.Rectangle, t transform.AffineTransform) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	corners := [4]coords.Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		p := t.ApplyPoint(c)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(snap(minX))), int(math.Floor(snap(minY))),
		int(math.Ceil(snap(maxX))), int(math.Ceil(snap(maxY))),
	)
}

// snap absorbs rounding noise such as cos(pi/2) so that exact quarter turns
// do not grow the bounds by a pixel.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-9 {
		return r
	}
	return v
}

// Fit returns t followed by the translation that moves WarpedBounds(r, t) to
// the origin, with the size of the resulting canvas.
func Fit(r image.Rectangle, t transform.AffineTransform) (transform.AffineTransform, image.Rectangle) {
	b := WarpedBounds(r, t)
	shift := transform.MakeTranslation(coords.Extent{X: float64(-b.Min.X), Y: float64(-b.Min.Y)})
	return shift.Compose(t), b.Sub(b.Min)
}
