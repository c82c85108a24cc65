package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wudi/geomkit/coords"
)

// parseNumbers splits on commas and whitespace.
func parseNumbers(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parsePoint(s string) (coords.Point, error) {
	v, err := parseNumbers(s)
	if err != nil {
		return coords.Point{}, err
	}
	if len(v) != 2 {
		return coords.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	return coords.Point{X: v[0], Y: v[1]}, nil
}

// parsePDFMatrix reads a content-stream style "[a b c d e f]" array.
func parsePDFMatrix(s string) (coords.Matrix, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(s), "[")
	if ok {
		body, ok = strings.CutSuffix(body, "]")
	}
	if !ok {
		return coords.Matrix{}, fmt.Errorf("want [a b c d e f], got %q", s)
	}
	v, err := parseNumbers(body)
	if err != nil {
		return coords.Matrix{}, err
	}
	if len(v) != 6 {
		return coords.Matrix{}, fmt.Errorf("want 6 matrix numbers, got %d", len(v))
	}
	return coords.Matrix(v), nil
}

// formatPDFMatrix is the inverse of parsePDFMatrix.
func formatPDFMatrix(m coords.Matrix) string {
	parts := make([]string, len(m))
	for i, v := range m {
		if v == 0 {
			v = 0 // no "-0"
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
