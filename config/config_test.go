package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/transform"
)

const sample = `
log:
  level: debug
fit:
  reject_sigma: 3
transforms:
  canonical:
    - {kind: scale, scale: 1.5}
    - {kind: rotate, angle: 1}
    - {kind: translate, x: 15, y: 10.3}
  flip:
    - kind: matrix
      matrix: [[1, 0], [0, -1]]
  quarter:
    - {kind: rotate, angle: 90, unit: deg}
  shifted:
    - {kind: expr, expr: "translate(1, 2)"}
    - {kind: params, params: [2, 0, 0, 2, 0, 0]}
`

func canonical() transform.AffineTransform {
	return transform.MakeScaling(1.5).
		Compose(transform.MakeRotation(coords.Radians(1))).
		Compose(transform.MakeTranslation(coords.Extent{X: 15, Y: 10.3}))
}

func TestLoadYAML(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "console", c.Log.Encoding, "unset fields keep defaults")
	assert.Equal(t, 3.0, c.Fit.RejectSigma)
	assert.Equal(t, 10, c.Fit.MaxIterations)
	assert.Len(t, c.FitOptions(), 3)

	got, err := c.Transform("canonical")
	require.NoError(t, err)
	assert.Equal(t, canonical(), got)

	flip, err := c.Transform("flip")
	require.NoError(t, err)
	assert.Equal(t, coords.Point{X: 2, Y: -3}, flip.ApplyPoint(coords.Point{X: 2, Y: 3}))

	quarter, err := c.Transform("quarter")
	require.NoError(t, err)
	p := quarter.ApplyPoint(coords.Point{X: 1, Y: 0})
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)

	shifted, err := c.Transform("shifted")
	require.NoError(t, err)
	assert.Equal(t, coords.Point{X: 3, Y: 4}, shifted.ApplyPoint(coords.Point{X: 1, Y: 1}))

	_, err = c.Transform("missing")
	assert.ErrorIs(t, err, ErrUnknownTransform)
}

func TestLoadJSON(t *testing.T) {
	c, err := LoadJSON(strings.NewReader(`{
		"transforms": {"t": [{"kind": "matrix", "matrix": [[1, 0, 5], [0, 1, 6], [0, 0, 1]]}]}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "info", c.Log.Level)

	got, err := c.Transform("t")
	require.NoError(t, err)
	assert.Equal(t, coords.Extent{X: 5, Y: 6}, got.Translation())
}

func TestStepErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want error
	}{
		{"bottom row", Step{Kind: "matrix", Matrix: [][]float64{{1, 0, 0}, {0, 1, 0}, {1, 0, 1}}}, transform.ErrMalformedMatrix},
		{"ragged", Step{Kind: "matrix", Matrix: [][]float64{{1, 0}, {0}}}, transform.ErrMalformedMatrix},
		{"size", Step{Kind: "matrix", Matrix: [][]float64{{1}}}, transform.ErrMalformedMatrix},
		{"params", Step{Kind: "params", Params: []float64{1, 2, 3}}, transform.ErrParameterCount},
		{"unit", Step{Kind: "rotate", Angle: 1, Unit: "grad"}, nil},
		{"kind", Step{Kind: "shear"}, nil},
		{"empty", Step{}, nil},
		{"expr", Step{Kind: "expr", Expr: "scale("}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.step.Build()
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestChainBuild(t *testing.T) {
	id, err := Chain{}.Build()
	require.NoError(t, err)
	assert.True(t, id.IsIdentity())

	_, err = Chain{{Kind: "identity"}, {Kind: "bogus"}}.Build()
	assert.ErrorContains(t, err, "step 1")

	three := 3.0
	sc, err := Chain{{Kind: "scale", Scale: 2, ScaleY: &three}}.Build()
	require.NoError(t, err)
	assert.Equal(t, coords.Point{X: 2, Y: 3}, sc.ApplyPoint(coords.Point{X: 1, Y: 1}))

	sc, err = Chain{{Kind: "scale", Scale: 2}}.Build()
	require.NoError(t, err)
	assert.Equal(t, coords.Point{X: 2, Y: 2}, sc.ApplyPoint(coords.Point{X: 1, Y: 1}))
}

func TestScaleYZeroIsExplicit(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(`
transforms:
  flatten:
    - {kind: scale, scale: 2, scale_y: 0}
`))
	require.NoError(t, err)
	require.NotNil(t, c.Transforms["flatten"][0].ScaleY)

	flat, err := c.Transform("flatten")
	require.NoError(t, err)
	assert.Equal(t, coords.Point{X: 2, Y: 0}, flat.ApplyPoint(coords.Point{X: 1, Y: 1}))
	assert.Equal(t, 0.0, flat.Linear().Determinant())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "xform.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(sample), 0o644))
	c, err := LoadFile(yml)
	require.NoError(t, err)
	assert.Contains(t, c.Transforms, "canonical")

	bad := filepath.Join(dir, "xform.yaml.bak")
	require.NoError(t, os.WriteFile(bad, []byte(sample), 0o644))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "unsupported extension")

	broken := filepath.Join(dir, "broken.yml")
	require.NoError(t, os.WriteFile(broken, []byte("transforms:\n  x:\n    - {kind: nope}\n"), 0o644))
	_, err = LoadFile(broken)
	assert.ErrorContains(t, err, `transform "x"`)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDefaultLogger(t *testing.T) {
	l, err := Default().Logger()
	require.NoError(t, err)
	l.Info("configured")
}
