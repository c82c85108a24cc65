package main

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/imaging"
	"github.com/wudi/geomkit/notation"
	"github.com/wudi/geomkit/transform"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// firstLine parses the matrix(...) line printed by invert, solve and fit.
func firstLine(t *testing.T, out string) transform.AffineTransform {
	t.Helper()
	line, _, _ := strings.Cut(out, "\n")
	a, err := notation.ParseExpr(line)
	require.NoError(t, err, line)
	return a
}

func TestApply(t *testing.T) {
	out, err := execute(t, "", "apply", "-t", "translate(1, 2)", "3,4", "5,6")
	require.NoError(t, err)
	assert.Equal(t, "4 6\n6 8\n", out)

	out, err = execute(t, "1 1\n# comment\n\n2,3\n", "apply", "-t", "scale(2)")
	require.NoError(t, err)
	assert.Equal(t, "2 2\n4 6\n", out)

	out, err = execute(t, "", "apply", "-t", "translate(1, 2)", "--extent", "3,4")
	require.NoError(t, err)
	assert.Equal(t, "3 4\n", out)

	out, err = execute(t, "", "apply", "-t", "scale(2)", "--inverse", "4,6")
	require.NoError(t, err)
	assert.Equal(t, "2 3\n", out)

	out, err = execute(t, "", "apply", "-t", "translate(1, 1)", "--", "-1,-1")
	require.NoError(t, err)
	assert.Equal(t, "0 0\n", out)
}

func TestApplyErrors(t *testing.T) {
	_, err := execute(t, "", "apply", "1,1")
	assert.ErrorContains(t, err, "missing transform")

	_, err = execute(t, "", "apply", "-t", "scale(", "1,1")
	assert.ErrorIs(t, err, notation.ErrSyntax)

	_, err = execute(t, "", "apply", "-t", "scale(2)", "1,x")
	assert.ErrorContains(t, err, "bad number")

	_, err = execute(t, "1 2 3\n", "apply", "-t", "scale(2)")
	assert.ErrorContains(t, err, "line 1")

	_, err = execute(t, "", "apply", "-t", "scale(0)", "--inverse", "1,1")
	assert.ErrorIs(t, err, transform.ErrSingularTransform)
}

func TestInvert(t *testing.T) {
	expr := "scale(1.5) * rotate(1) * translate(15, 10.3)"
	out, err := execute(t, "", "invert", "-t", expr)
	require.NoError(t, err)

	inv := firstLine(t, out)
	a := notation.MustParseExpr(expr)
	assert.True(t, a.Compose(inv).EqualWithin(transform.NewAffineTransform(), 1e-9))

	_, err = execute(t, "", "invert", "-t", "matrix(1, 2, 0, 2, 4, 0)")
	assert.ErrorIs(t, err, transform.ErrSingularTransform)
}

func TestPDFMatrix(t *testing.T) {
	out, err := execute(t, "", "solve", "--pdf", "0,0", "1,0", "0,1", "10,10", "12,10", "10,13")
	require.NoError(t, err)
	assert.Equal(t, "[2 0 0 3 10 10]\n", out)

	out, err = execute(t, "", "apply", "-t", "[2 0 0 3 10 10]", "1,1")
	require.NoError(t, err)
	assert.Equal(t, "12 13\n", out)

	out, err = execute(t, "", "invert", "--pdf", "-t", "[2 0 0 4 1 1]")
	require.NoError(t, err)
	assert.Equal(t, "[0.5 0 0 0.25 -0.5 -0.25]\n", out)

	_, err = execute(t, "", "apply", "-t", "[1 0 0 1 0]", "1,1")
	assert.ErrorContains(t, err, "want 6")

	_, err = execute(t, "", "apply", "-t", "[1 0 0 1 0 0", "1,1")
	assert.ErrorContains(t, err, "want [a b c d e f]")
}

func TestDerive(t *testing.T) {
	out, err := execute(t, "", "derive", "-t", "identity()", "3,4.5")
	require.NoError(t, err)
	assert.Contains(t, out, "4.5")
	assert.Equal(t, 2, strings.Count(out, "\n"))

	_, err = execute(t, "", "derive", "-t", "identity()")
	assert.Error(t, err)
}

func TestSolve(t *testing.T) {
	out, err := execute(t, "", "solve", "0,0", "1,0", "0,1", "10,10", "12,10", "10,13")
	require.NoError(t, err)
	want := transform.AffineFromMatrix3(transform.Matrix3{{2, 0, 10}, {0, 3, 10}, {0, 0, 1}})
	assert.True(t, firstLine(t, out).EqualWithin(want, 1e-9))

	_, err = execute(t, "", "solve", "0,0", "1,1", "2,2", "10,10", "12,10", "10,13")
	assert.ErrorIs(t, err, transform.ErrSingularTransform)
}

func TestFit(t *testing.T) {
	truth := notation.MustParseExpr("translate(5, -1) * rotate(30deg) * scale(2, 0.5)")
	var rows strings.Builder
	for _, p := range []coords.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 2, Y: 1}} {
		q := truth.ApplyPoint(p)
		rows.WriteString(strings.Join([]string{ftoa(p.X), ftoa(p.Y), ftoa(q.X), ftoa(q.Y)}, " "))
		rows.WriteString("\n")
	}

	path := filepath.Join(t.TempDir(), "pairs.txt")
	require.NoError(t, os.WriteFile(path, []byte(rows.String()), 0o644))

	out, err := execute(t, "", "fit", path)
	require.NoError(t, err)
	assert.True(t, firstLine(t, out).EqualWithin(truth, 1e-9))
	assert.Contains(t, out, "inliers 5/5")

	out, err = execute(t, rows.String(), "fit", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "inliers 5/5")

	_, err = execute(t, "0 0 1 1\n", "fit", "-")
	assert.Error(t, err)
}

func TestEval(t *testing.T) {
	out, err := execute(t, "print(Point(1, 2).toString()); 1 + 1", "eval", "-")
	require.NoError(t, err)
	assert.Equal(t, "Point(1, 2)\n2\n", out)

	_, err = execute(t, "while (true) {}", "eval", "--timeout", "20ms", "-")
	assert.Error(t, err)
}

func TestWarp(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(0, 0, color.RGBA{G: 255, A: 255})
	require.NoError(t, imaging.WriteFile(in, src))

	_, err := execute(t, "", "warp", "-t", "translate(2, 1)", "--interp", "nearest", in, out)
	require.NoError(t, err)

	got, err := imaging.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	_, g, _, a := got.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), a)

	_, err = execute(t, "", "warp", "-t", "rotate(90deg)", "--fit", in, out)
	require.NoError(t, err)
	got, err = imaging.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())

	_, err = execute(t, "", "warp", "-t", "scale(2)", "--interp", "lanczos", in, out)
	assert.ErrorContains(t, err, "unknown interpolator")
}

func TestConfigTransforms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: warn
transforms:
  double:
    - {kind: scale, scale: 2}
    - {kind: translate, x: 1, y: 0}
`), 0o644))

	out, err := execute(t, "", "apply", "--config", path, "-t", "double", "1,1")
	require.NoError(t, err)
	assert.Equal(t, "4 2\n", out)

	out, err = execute(t, "", "apply", "--config", path, "-v", "-t", "scale(3)", "1,1")
	require.NoError(t, err)
	assert.Equal(t, "3 3\n", out)

	_, err = execute(t, "", "apply", "--config", filepath.Join(t.TempDir(), "none.yaml"), "-t", "double", "1,1")
	assert.Error(t, err)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
