// Package config loads named transform chains together with logging and
// fitting options from YAML or JSON.
//
// A chain lists steps in the order they are written in an expression:
//
//	transforms:
//	  page-to-map:
//	    - {kind: scale, scale: 2}
//	    - {kind: rotate, angle: 90, unit: deg}
//	    - {kind: translate, x: 10, y: -4}
//
// builds scale(2) * rotate(90deg) * translate(10, -4), which translates first.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/geomkit/coords"
	"github.com/wudi/geomkit/fit"
	"github.com/wudi/geomkit/notation"
	"github.com/wudi/geomkit/observability"
	"github.com/wudi/geomkit/transform"
	"gopkg.in/yaml.v3"
)

var ErrUnknownTransform = errors.New("unknown transform")

type Config struct {
	Log        LogConfig        `json:"log" yaml:"log"`
	Fit        FitConfig        `json:"fit" yaml:"fit"`
	Warp       WarpConfig       `json:"warp" yaml:"warp"`
	Transforms map[string]Chain `json:"transforms" yaml:"transforms"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

type FitConfig struct {
	RejectSigma   float64 `json:"reject_sigma,omitempty" yaml:"reject_sigma,omitempty"`
	RejectFloor   float64 `json:"reject_floor,omitempty" yaml:"reject_floor,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
}

type WarpConfig struct {
	Interpolator string `json:"interpolator,omitempty" yaml:"interpolator,omitempty"`
}

// Chain is an ordered list of steps composed left to right.
type Chain []Step

type Step struct {
	Kind   string      `json:"kind" yaml:"kind"`
	Scale  float64     `json:"scale,omitempty" yaml:"scale,omitempty"`
	ScaleY *float64    `json:"scale_y,omitempty" yaml:"scale_y,omitempty"` // nil means Scale; 0 is a real zero
	Angle  float64     `json:"angle,omitempty" yaml:"angle,omitempty"`
	Unit   string      `json:"unit,omitempty" yaml:"unit,omitempty"` // rad (default) or deg
	X      float64     `json:"x,omitempty" yaml:"x,omitempty"`
	Y      float64     `json:"y,omitempty" yaml:"y,omitempty"`
	Matrix [][]float64 `json:"matrix,omitempty" yaml:"matrix,omitempty"`
	Params []float64   `json:"params,omitempty" yaml:"params,omitempty"`
	Expr   string      `json:"expr,omitempty" yaml:"expr,omitempty"`
}

func Default() *Config {
	return &Config{
		Log:        LogConfig{Level: "info", Encoding: "console"},
		Fit:        FitConfig{RejectFloor: 1e-9, MaxIterations: 10},
		Warp:       WarpConfig{Interpolator: "bilinear"},
		Transforms: map[string]Chain{},
	}
}

// LoadJSON loads config from JSON reader. Missing sections keep their
// defaults.
func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(c); err != nil {
		return nil, err
	}
	return c, c.validate()
}

// LoadYAML loads config from YAML reader. Missing sections keep their
// defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return c, c.validate()
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c *Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		c, err = LoadYAML(f)
	case ".json":
		c, err = LoadJSON(f)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Transforms == nil {
		c.Transforms = map[string]Chain{}
	}
	for name, chain := range c.Transforms {
		if _, err := chain.Build(); err != nil {
			return fmt.Errorf("transform %q: %w", name, err)
		}
	}
	return nil
}

// Transform builds the named chain.
func (c *Config) Transform(name string) (transform.AffineTransform, error) {
	chain, ok := c.Transforms[name]
	if !ok {
		return transform.AffineTransform{}, fmt.Errorf("%w: %s", ErrUnknownTransform, name)
	}
	return chain.Build()
}

// Logger builds the zap-backed logger described by c.Log.
func (c *Config) Logger() (*observability.ZapLogger, error) {
	return observability.NewZapLogger(c.Log.Level, c.Log.Encoding)
}

// FitOptions translates c.Fit into fit options. Zero fields keep the fitter's
// defaults.
func (c *Config) FitOptions() []fit.Option {
	var opts []fit.Option
	if c.Fit.RejectSigma > 0 {
		opts = append(opts, fit.WithRejectThreshold(c.Fit.RejectSigma))
	}
	if c.Fit.RejectFloor > 0 {
		opts = append(opts, fit.WithRejectFloor(c.Fit.RejectFloor))
	}
	if c.Fit.MaxIterations > 0 {
		opts = append(opts, fit.WithMaxIterations(c.Fit.MaxIterations))
	}
	return opts
}

// Build composes the chain: steps[0] * steps[1] * ... An empty chain is the
// identity.
func (ch Chain) Build() (transform.AffineTransform, error) {
	out := transform.NewAffineTransform()
	for i, s := range ch {
		t, err := s.Build()
		if err != nil {
			return transform.AffineTransform{}, fmt.Errorf("step %d: %w", i, err)
		}
		out = out.Compose(t)
	}
	return out, nil
}

func (s Step) Build() (transform.AffineTransform, error) {
	switch strings.ToLower(s.Kind) {
	case "identity":
		return transform.NewAffineTransform(), nil
	case "scale":
		sy := s.Scale
		if s.ScaleY != nil {
			sy = *s.ScaleY
		}
		return transform.MakeScalingXY(s.Scale, sy), nil
	case "rotate":
		a, err := s.angle()
		if err != nil {
			return transform.AffineTransform{}, err
		}
		return transform.MakeRotation(a), nil
	case "translate":
		return transform.MakeTranslation(coords.Extent{X: s.X, Y: s.Y}), nil
	case "matrix":
		return s.matrix()
	case "params":
		switch len(s.Params) {
		case 4:
			l, err := transform.LinearFromParameters(s.Params)
			return transform.FromLinear(l), err
		default:
			return transform.AffineFromParameters(s.Params)
		}
	case "expr":
		return notation.ParseExpr(s.Expr)
	case "":
		return transform.AffineTransform{}, errors.New("step kind is required")
	}
	return transform.AffineTransform{}, fmt.Errorf("unknown step kind %q", s.Kind)
}

func (s Step) angle() (coords.Angle, error) {
	switch strings.ToLower(s.Unit) {
	case "", "rad", "radians":
		return coords.Radians(s.Angle), nil
	case "deg", "degrees":
		return coords.Degrees(s.Angle), nil
	}
	return 0, fmt.Errorf("unknown angle unit %q", s.Unit)
}

// matrix accepts a 2x2 linear matrix or a 3x3 homogeneous one whose bottom
// row must be (0, 0, 1).
func (s Step) matrix() (transform.AffineTransform, error) {
	rows := s.Matrix
	for i, r := range rows {
		if len(r) != len(rows) {
			return transform.AffineTransform{}, fmt.Errorf("%w: row %d has %d values, want %d",
				transform.ErrMalformedMatrix, i, len(r), len(rows))
		}
	}
	switch len(rows) {
	case 2:
		return transform.AffineFromMatrix2(transform.Matrix2{
			[2]float64(rows[0]), [2]float64(rows[1]),
		}), nil
	case 3:
		return transform.AffineFromMatrix3Strict(transform.Matrix3{
			[3]float64(rows[0]), [3]float64(rows[1]), [3]float64(rows[2]),
		})
	}
	return transform.AffineTransform{}, fmt.Errorf("%w: matrix must be 2x2 or 3x3, got %d rows",
		transform.ErrMalformedMatrix, len(rows))
}
