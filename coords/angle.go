package coords

import "math"

// Angle is measured in radians.
type Angle float64

func Radians(v float64) Angle { return Angle(v) }
func Degrees(v float64) Angle { return Angle(v * math.Pi / 180) }

func (a Angle) Radians() float64 { return float64(a) }
func (a Angle) Degrees() float64 { return float64(a) * 180 / math.Pi }

// Sincos returns sin(a), cos(a).
func (a Angle) Sincos() (sin, cos float64) { return math.Sincos(float64(a)) }
