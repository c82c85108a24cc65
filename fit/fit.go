// Package fit estimates affine transforms from point correspondences.
//
// The model A(p) is linear in its six parameters, so the Jacobian returned by
// AffineTransform.DTransform doubles as the least-squares design matrix.
package fit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/observability"
	"github.com/wudi/geomkit/transform"
	"gonum.org/v1/gonum/mat"
)

// ErrTooFewPairs is returned when fewer than three correspondences remain.
var ErrTooFewPairs = errors.New("fit needs at least 3 point pairs")

// SpanName names the span opened around every Fit call.
const SpanName = "geom.fit"

// rankTolerance bounds the ratio of the singular values of the centred
// source cloud below which the sources are treated as collinear.
const rankTolerance = 1e-10

// Pair maps Src onto Dst.
type Pair struct {
	Src coords.Point
	Dst coords.Point
}

type Result struct {
	Transform transform.AffineTransform
	// Residuals holds |A(src) - dst| for every input pair, inliers or not.
	Residuals   []float64
	Inliers     []bool
	RMS         float64 // over inliers
	MaxResidual float64 // over inliers
	Iterations  int
}

// InlierCount returns the number of pairs used by the final solve.
func (r Result) InlierCount() int {
	n := 0
	for _, in := range r.Inliers {
		if in {
			n++
		}
	}
	return n
}

type Option func(*Fitter)

func WithLogger(l observability.Logger) Option {
	return func(f *Fitter) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(f *Fitter) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithRejectThreshold enables iterative outlier rejection: after each solve,
// pairs whose residual exceeds sigma times the inlier RMS are dropped.
// Zero disables rejection.
func WithRejectThreshold(sigma float64) Option {
	return func(f *Fitter) { f.rejectSigma = sigma }
}

// WithRejectFloor sets the residual below which a pair is never rejected,
// whatever the current RMS. The default is 1e-9.
func WithRejectFloor(floor float64) Option {
	return func(f *Fitter) { f.rejectFloor = floor }
}

// WithMaxIterations bounds the number of solves. Pairs are only rejected
// when another solve is allowed to follow, so Inliers always matches the
// returned Transform.
func WithMaxIterations(n int) Option {
	return func(f *Fitter) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// Fitter holds fitting options. It is safe for concurrent use.
type Fitter struct {
	logger        observability.Logger
	tracer        observability.Tracer
	rejectSigma   float64
	rejectFloor   float64
	maxIterations int
}

func New(opts ...Option) *Fitter {
	f := &Fitter{
		logger:        observability.NopLogger{},
		tracer:        observability.NopTracer(),
		rejectFloor:   1e-9,
		maxIterations: 10,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit is shorthand for New(opts...).Fit(ctx, pairs).
func Fit(ctx context.Context, pairs []Pair, opts ...Option) (Result, error) {
	return New(opts...).Fit(ctx, pairs)
}

// Fit returns the affine transform minimising the squared distance between
// A(src) and dst over the inlier pairs.
func (f *Fitter) Fit(ctx context.Context, pairs []Pair) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := f.tracer.StartSpan(ctx, SpanName)
	defer span.Finish()
	start := time.Now()
	span.SetTag(observability.MetricFitPairs, len(pairs))

	res := Result{Inliers: make([]bool, len(pairs))}
	for i := range res.Inliers {
		res.Inliers[i] = true
	}

	for res.Iterations < f.maxIterations {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			return Result{}, err
		}
		res.Iterations++

		t, err := solve(pairs, res.Inliers)
		if err != nil {
			span.SetError(err)
			return Result{}, err
		}
		res.Transform = t
		res.Residuals = residuals(t, pairs)
		res.RMS, res.MaxResidual = summarize(res.Residuals, res.Inliers)

		f.logger.Debug("fit iteration",
			observability.Int("iteration", res.Iterations),
			observability.Int("inliers", res.InlierCount()),
			observability.Float64("rms", res.RMS),
			observability.Float64("max", res.MaxResidual))

		// Rejecting on the last allowed pass would leave Inliers describing
		// a set that Transform and RMS were never computed from.
		if f.rejectSigma <= 0 || res.Iterations == f.maxIterations {
			break
		}
		limit := math.Max(f.rejectSigma*res.RMS, f.rejectFloor)
		changed := false
		for i, r := range res.Residuals {
			if res.Inliers[i] && r > limit {
				res.Inliers[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
		f.logger.Info("rejected outliers",
			observability.Int("inliers", res.InlierCount()),
			observability.Float64("limit", limit))
	}

	span.SetTag(observability.MetricFitIterations, res.Iterations)
	span.SetTag(observability.MetricFitDuration, time.Since(start))
	return res, nil
}

func solve(pairs []Pair, inliers []bool) (transform.AffineTransform, error) {
	n := 0
	for _, in := range inliers {
		if in {
			n++
		}
	}
	if n < 3 {
		return transform.AffineTransform{}, fmt.Errorf("%w: have %d", ErrTooFewPairs, n)
	}

	var basis transform.AffineTransform
	design := mat.NewDense(2*n, 6, nil)
	rhs := mat.NewVecDense(2*n, nil)
	cloud := mat.NewDense(n, 2, nil)
	var cx, cy float64
	row := 0
	for i, p := range pairs {
		if !inliers[i] {
			continue
		}
		d := basis.DTransform(p.Src)
		design.SetRow(2*row, mat.Row(nil, 0, d))
		design.SetRow(2*row+1, mat.Row(nil, 1, d))
		rhs.SetVec(2*row, p.Dst.X)
		rhs.SetVec(2*row+1, p.Dst.Y)
		cloud.Set(row, 0, p.Src.X)
		cloud.Set(row, 1, p.Src.Y)
		cx += p.Src.X
		cy += p.Src.Y
		row++
	}

	cx /= float64(n)
	cy /= float64(n)
	for r := range n {
		cloud.Set(r, 0, cloud.At(r, 0)-cx)
		cloud.Set(r, 1, cloud.At(r, 1)-cy)
	}
	var svd mat.SVD
	if !svd.Factorize(cloud, mat.SVDNone) {
		return transform.AffineTransform{}, fmt.Errorf("%w: source factorization failed", transform.ErrSingularTransform)
	}
	sv := svd.Values(nil)
	if sv[0] == 0 || sv[1] <= rankTolerance*sv[0] {
		return transform.AffineTransform{}, fmt.Errorf("%w: source points are collinear", transform.ErrSingularTransform)
	}

	var params mat.VecDense
	if err := params.SolveVec(design, rhs); err != nil {
		return transform.AffineTransform{}, fmt.Errorf("%w: %v", transform.ErrSingularTransform, err)
	}
	return transform.AffineFromParameters(params.RawVector().Data)
}

func residuals(t transform.AffineTransform, pairs []Pair) []float64 {
	out := make([]float64, len(pairs))
	for i, p := range pairs {
		out[i] = t.ApplyPoint(p.Src).Distance(p.Dst)
	}
	return out
}

func summarize(res []float64, inliers []bool) (rms, peak float64) {
	var sum float64
	n := 0
	for i, r := range res {
		if !inliers[i] {
			continue
		}
		sum += r * r
		peak = math.Max(peak, r)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return math.Sqrt(sum / float64(n)), peak
}
