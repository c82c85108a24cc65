// Package notation reads transforms back from text: the matrix form printed
// by String, and a small expression language for building transforms from
// canonical parameterizations.
//
//	identity
//	scale(s) scale(s, t)
//	rotate(1.2) rotate(1.2rad) rotate(90deg)
//	translate(x, y)
//	matrix(xx, xy, yx, yy) matrix(xx, xy, x, yx, yy, y)
//	params(XX, YX, XY, YY) params(XX, YX, XY, YY, X, Y)
//	inverse(expr)
//	[[xx xy] [yx yy]] [[xx xy x] [yx yy y] [0 0 1]]
//
// Terms are joined with "*", which composes: "a * b" applies b first.
package notation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/transform"
)

var ErrSyntax = errors.New("notation syntax error")

var (
	exprParser = participle.MustBuild[Expr](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
	matrixParser = participle.MustBuild[Matrix](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
)

// ParseExpr parses and evaluates an expression. Singular inverse() terms
// fail with transform.ErrSingularTransform.
func ParseExpr(s string) (transform.AffineTransform, error) {
	ast, err := exprParser.ParseString("", s)
	if err != nil {
		return transform.AffineTransform{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return ast.Eval()
}

// MustParseExpr is like ParseExpr but panics on error. It is meant for
// constants and tests.
func MustParseExpr(s string) transform.AffineTransform {
	t, err := ParseExpr(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseAffine reads the 3x3 form produced by AffineTransform.String. Like
// transform.AffineFromMatrix3 it does not check the bottom row.
func ParseAffine(s string) (transform.AffineTransform, error) {
	m, err := parseMatrix(s, 3)
	if err != nil {
		return transform.AffineTransform{}, err
	}
	return transform.AffineFromMatrix3(transform.Matrix3{
		[3]float64(m[0]), [3]float64(m[1]), [3]float64(m[2]),
	}), nil
}

// ParseLinear reads the 2x2 form produced by LinearTransform.String.
func ParseLinear(s string) (transform.LinearTransform, error) {
	m, err := parseMatrix(s, 2)
	if err != nil {
		return transform.LinearTransform{}, err
	}
	return transform.LinearFromMatrix(transform.Matrix2{[2]float64(m[0]), [2]float64(m[1])}), nil
}

func parseMatrix(s string, n int) ([][]float64, error) {
	ast, err := matrixParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if err := ast.checkSquare(n); err != nil {
		return nil, err
	}
	out := make([][]float64, n)
	for i, r := range ast.Rows {
		out[i] = r.Values
	}
	return out, nil
}

// FormatExpr renders t as a matrix(...) term that ParseExpr reads back exactly.
func FormatExpr(t transform.AffineTransform) string {
	m := t.Matrix()
	vals := []float64{m[0][0], m[0][1], m[0][2], m[1][0], m[1][1], m[1][2]}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "matrix(" + strings.Join(parts, ", ") + ")"
}

// Eval composes the terms of e.
func (e *Expr) Eval() (transform.AffineTransform, error) {
	out := transform.NewAffineTransform()
	for _, term := range e.Terms {
		t, err := term.eval()
		if err != nil {
			return transform.AffineTransform{}, err
		}
		out = out.Compose(t)
	}
	return out, nil
}

func (t *Term) eval() (transform.AffineTransform, error) {
	switch {
	case t.Matrix != nil:
		return t.Matrix.eval()
	case t.Call != nil:
		return t.Call.eval()
	default:
		return t.Group.Eval()
	}
}

func (m *Matrix) checkSquare(n int) error {
	if len(m.Rows) != n {
		return fmt.Errorf("%w: %s: want %d rows, got %d", ErrSyntax, m.Pos, n, len(m.Rows))
	}
	for i, r := range m.Rows {
		if len(r.Values) != n {
			return fmt.Errorf("%w: %s: row %d has %d values, want %d", ErrSyntax, m.Pos, i, len(r.Values), n)
		}
	}
	return nil
}

func (m *Matrix) eval() (transform.AffineTransform, error) {
	switch len(m.Rows) {
	case 2:
		if err := m.checkSquare(2); err != nil {
			return transform.AffineTransform{}, err
		}
		r := m.Rows
		return transform.AffineFromMatrix2(transform.Matrix2{
			{r[0].Values[0], r[0].Values[1]},
			{r[1].Values[0], r[1].Values[1]},
		}), nil
	case 3:
		if err := m.checkSquare(3); err != nil {
			return transform.AffineTransform{}, err
		}
		r := m.Rows
		return transform.AffineFromMatrix3(transform.Matrix3{
			[3]float64(r[0].Values), [3]float64(r[1].Values), [3]float64(r[2].Values),
		}), nil
	}
	return transform.AffineTransform{}, fmt.Errorf("%w: %s: matrix must be 2x2 or 3x3", ErrSyntax, m.Pos)
}

func (c *Call) numbers(counts ...int) ([]float64, error) {
	vals := make([]float64, len(c.Args))
	for i, a := range c.Args {
		if a.Number == nil {
			return nil, fmt.Errorf("%w: %s: %s takes numbers", ErrSyntax, c.Pos, c.Name)
		}
		if a.Number.Unit != "" && c.Name != "rotate" {
			return nil, fmt.Errorf("%w: %s: unit %q not allowed in %s", ErrSyntax, c.Pos, a.Number.Unit, c.Name)
		}
		vals[i] = a.Number.Value
	}
	for _, n := range counts {
		if len(vals) == n {
			return vals, nil
		}
	}
	return nil, fmt.Errorf("%w: %s: %s takes %v arguments, got %d", ErrSyntax, c.Pos, c.Name, counts, len(vals))
}

func (c *Call) eval() (transform.AffineTransform, error) {
	switch c.Name {
	case "identity":
		if _, err := c.numbers(0); err != nil {
			return transform.AffineTransform{}, err
		}
		return transform.NewAffineTransform(), nil
	case "scale":
		v, err := c.numbers(1, 2)
		if err != nil {
			return transform.AffineTransform{}, err
		}
		if len(v) == 1 {
			return transform.MakeScaling(v[0]), nil
		}
		return transform.MakeScalingXY(v[0], v[1]), nil
	case "rotate":
		v, err := c.numbers(1)
		if err != nil {
			return transform.AffineTransform{}, err
		}
		a := coords.Radians(v[0])
		if c.Args[0].Number.Unit == "deg" {
			a = coords.Degrees(v[0])
		}
		return transform.MakeRotation(a), nil
	case "translate":
		v, err := c.numbers(2)
		if err != nil {
			return transform.AffineTransform{}, err
		}
		return transform.MakeTranslation(coords.Extent{X: v[0], Y: v[1]}), nil
	case "matrix":
		v, err := c.numbers(4, 6)
		if err != nil {
			return transform.AffineTransform{}, err
		}
		if len(v) == 4 {
			return transform.AffineFromMatrix2(transform.Matrix2{{v[0], v[1]}, {v[2], v[3]}}), nil
		}
		return transform.AffineFromMatrix3(transform.Matrix3{{v[0], v[1], v[2]}, {v[3], v[4], v[5]}, {0, 0, 1}}), nil
	case "params":
		v, err := c.numbers(4, 6)
		if err != nil {
			return transform.AffineTransform{}, err
		}
		if len(v) == 4 {
			l, err := transform.LinearFromParameters(v)
			return transform.FromLinear(l), err
		}
		return transform.AffineFromParameters(v)
	case "inverse":
		if len(c.Args) != 1 || c.Args[0].Expr == nil {
			return transform.AffineTransform{}, fmt.Errorf("%w: %s: inverse takes one expression", ErrSyntax, c.Pos)
		}
		inner, err := c.Args[0].Expr.Eval()
		if err != nil {
			return transform.AffineTransform{}, err
		}
		inv, err := inner.Invert()
		if err != nil {
			return transform.AffineTransform{}, fmt.Errorf("%s: %w", c.Pos, err)
		}
		return inv, nil
	}
	return transform.AffineTransform{}, fmt.Errorf("%w: %s: unknown function %q", ErrSyntax, c.Pos, c.Name)
}
