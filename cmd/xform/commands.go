package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/fit"
	"github.com/wudi/geomkit/imaging"
	"github.com/wudi/geomkit/notation"
	"github.com/wudi/geomkit/observability"
	"github.com/wudi/geomkit/scripting"
	"github.com/wudi/geomkit/transform"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

func (a *app) applyCmd() *cobra.Command {
	var (
		expr    string
		extents bool
		inverse bool
	)
	cmd := &cobra.Command{
		Use:   "apply -t EXPR [x,y ...]",
		Short: "Map points or extents through a transform",
		Long: `Map each x,y argument through the transform. Without arguments,
pairs are read from stdin, one per line. Put -- before arguments that
start with a minus sign.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolve(expr)
			if err != nil {
				return err
			}
			if inverse {
				if t, err = t.Invert(); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			emit := func(p coords.Point) {
				if extents {
					e := t.ApplyExtent(p.Extent())
					fmt.Fprintf(out, "%g %g\n", e.X, e.Y)
					return
				}
				q := t.ApplyPoint(p)
				fmt.Fprintf(out, "%g %g\n", q.X, q.Y)
			}

			if len(args) > 0 {
				for _, arg := range args {
					p, err := parsePoint(arg)
					if err != nil {
						return err
					}
					emit(p)
				}
				return nil
			}
			return scanRows(cmd.InOrStdin(), 2, func(v []float64) {
				emit(coords.Point{X: v[0], Y: v[1]})
			})
		},
	}
	cmd.Flags().StringVarP(&expr, "transform", "t", "", "transform expression or config name")
	cmd.Flags().BoolVar(&extents, "extent", false, "treat inputs as displacements (translation ignored)")
	cmd.Flags().BoolVar(&inverse, "inverse", false, "apply the inverse transform")
	return cmd
}

func (a *app) invertCmd() *cobra.Command {
	var (
		expr string
		pdf  bool
	)
	cmd := &cobra.Command{
		Use:   "invert -t EXPR",
		Short: "Print the inverse of a transform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.resolve(expr)
			if err != nil {
				return err
			}
			inv, err := t.Invert()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTransform(inv, pdf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "transform", "t", "", "transform expression or config name")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "print the result as a PDF [a b c d e f] matrix")
	return cmd
}

func (a *app) deriveCmd() *cobra.Command {
	var (
		expr   string
		extent bool
	)
	cmd := &cobra.Command{
		Use:   "derive -t EXPR x,y",
		Short: "Print d(output)/d(parameters) at a point",
		Long: `Print the 2x6 Jacobian of the transform output with respect to its
parameters XX, YX, XY, YY, X, Y.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolve(expr)
			if err != nil {
				return err
			}
			p, err := parsePoint(args[0])
			if err != nil {
				return err
			}
			var d *mat.Dense
			if extent {
				d = t.DTransformExtent(p.Extent())
			} else {
				d = t.DTransform(p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", mat.Formatted(d))
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "transform", "t", "", "transform expression or config name")
	cmd.Flags().BoolVar(&extent, "extent", false, "differentiate for a displacement")
	return cmd
}

func (a *app) solveCmd() *cobra.Command {
	var pdf bool
	cmd := &cobra.Command{
		Use:   "solve p1 p2 p3 q1 q2 q3",
		Short: "Find the transform mapping three points onto three others",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pts [6]coords.Point
			for i, arg := range args {
				p, err := parsePoint(arg)
				if err != nil {
					return err
				}
				pts[i] = p
			}
			t, err := transform.FromTriple(pts[0], pts[1], pts[2], pts[3], pts[4], pts[5])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTransform(t, pdf))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pdf, "pdf", false, "print the result as a PDF [a b c d e f] matrix")
	return cmd
}

func (a *app) fitCmd() *cobra.Command {
	var (
		sigma float64
		pdf   bool
	)
	cmd := &cobra.Command{
		Use:   "fit FILE",
		Short: "Least-squares fit of a transform to point pairs",
		Long: `Read whitespace or comma separated rows "sx sy dx dy" from FILE
("-" for stdin) and print the transform that best maps src onto dst.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			var pairs []fit.Pair
			err = scanRows(r, 4, func(v []float64) {
				pairs = append(pairs, fit.Pair{
					Src: coords.Point{X: v[0], Y: v[1]},
					Dst: coords.Point{X: v[2], Y: v[3]},
				})
			})
			if err != nil {
				return err
			}

			opts := append(a.cfg.FitOptions(), fit.WithLogger(a.logger))
			if sigma > 0 {
				opts = append(opts, fit.WithRejectThreshold(sigma))
			}
			res, err := fit.Fit(cmd.Context(), pairs, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatTransform(res.Transform, pdf))
			fmt.Fprintf(out, "rms %g max %g inliers %d/%d\n",
				res.RMS, res.MaxResidual, res.InlierCount(), len(pairs))
			return nil
		},
	}
	cmd.Flags().Float64Var(&sigma, "reject", 0, "drop pairs with residual above this many RMS")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "print the result as a PDF [a b c d e f] matrix")
	return cmd
}

func (a *app) evalCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "eval SCRIPT",
		Short: "Run a JavaScript file with the geometry bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			src, err := io.ReadAll(r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			engine := scripting.NewEngine(scripting.WithLogger(a.logger))
			err = engine.RegisterGeometry(scripting.HostFunc(func(msg string) {
				fmt.Fprintln(out, msg)
			}))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			v, err := engine.Execute(ctx, string(src))
			if err != nil {
				return err
			}
			if v != nil {
				fmt.Fprintln(out, v)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the script after this long")
	return cmd
}

func (a *app) warpCmd() *cobra.Command {
	var (
		expr   string
		interp string
		grow   bool
	)
	cmd := &cobra.Command{
		Use:   "warp -t EXPR in.png out.png",
		Short: "Resample an image through a transform",
		Long: `Resample an image so that source pixel p lands on t(p). PNG, JPEG,
GIF, BMP, TIFF and WebP are read; WebP output is not supported. The
output has the input's size unless --fit grows it to hold the whole
transformed image.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolve(expr)
			if err != nil {
				return err
			}
			if interp == "" {
				interp = a.cfg.Warp.Interpolator
			}
			kernel, err := imaging.InterpolatorByName(interp)
			if err != nil {
				return err
			}

			src, err := imaging.ReadFile(args[0])
			if err != nil {
				return err
			}
			bounds := src.Bounds()
			if grow {
				t, bounds = imaging.Fit(src.Bounds(), t)
			}
			dst := image.NewRGBA(bounds)
			if err := imaging.Warp(dst, src, t,
				imaging.WithInterpolator(kernel),
				imaging.WithOp(draw.Src),
				imaging.WithLogger(a.logger),
			); err != nil {
				return err
			}
			a.logger.Info("warped",
				observability.String("in", args[0]),
				observability.String("out", args[1]),
				observability.String("transform", notation.FormatExpr(t)),
			)
			return imaging.WriteFile(args[1], dst)
		},
	}
	cmd.Flags().StringVarP(&expr, "transform", "t", "", "transform expression or config name")
	cmd.Flags().StringVar(&interp, "interp", "", "nearest, approxbilinear, bilinear or catmullrom")
	cmd.Flags().BoolVar(&grow, "fit", false, "size the output to the transformed image")
	return cmd
}

func formatTransform(t transform.AffineTransform, pdf bool) string {
	if pdf {
		return formatPDFMatrix(t.PDFMatrix())
	}
	return notation.FormatExpr(t)
}

func openInput(cmd *cobra.Command, name string) (io.Reader, func(), error) {
	if name == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// scanRows calls fn for every non-blank, non-comment line holding exactly n
// numbers.
func scanRows(r io.Reader, n int, fn func([]float64)) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := parseNumbers(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(v) != n {
			return fmt.Errorf("line %d: want %d numbers, got %d", line, n, len(v))
		}
		fn(v)
	}
	return sc.Err()
}
