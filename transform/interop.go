package transform

import (
	"github.com/wudi/geomkit/coords"
	"golang.org/x/image/math/f64"
)

// Aff3 returns the upper two rows of t in the layout used by x/image/draw.
func (t AffineTransform) Aff3() f64.Aff3 {
	m := t.Matrix()
	return f64.Aff3{m[0][0], m[0][1], m[0][2], m[1][0], m[1][1], m[1][2]}
}

func AffineFromAff3(a f64.Aff3) AffineTransform {
	return AffineFromMatrix3(Matrix3{{a[0], a[1], a[2]}, {a[3], a[4], a[5]}, {0, 0, 1}})
}

// PDFMatrix returns t as a six-number [a b c d e f] matrix.
func (t AffineTransform) PDFMatrix() coords.Matrix {
	return coords.Matrix(t.ParameterVector())
}

func AffineFromPDFMatrix(m coords.Matrix) AffineTransform {
	var t AffineTransform
	t.SetParameterVector(m)
	return t
}
