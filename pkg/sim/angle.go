package sim

import "math"

const degree = math.Pi / 180

// Angle is a heading in radians, counter-clockwise from the X axis,
// kept within [-Pi, Pi].
type Angle float64

// AngleFromDegrees converts degrees.
func AngleFromDegrees(d float64) Angle {
	return AngleFromRadians(d * degree)
}

// AngleFromRadians wraps r into range.
func AngleFromRadians(r float64) Angle {
	return Angle(math.Remainder(r, 2*math.Pi))
}

// AddRadians turns by r, positive is counter-clockwise.
func (a Angle) AddRadians(r float64) Angle {
	return AngleFromRadians(float64(a) + r)
}

// AddDegrees turns by d degrees.
func (a Angle) AddDegrees(d float64) Angle {
	return a.AddRadians(d * degree)
}

// Radians returns the raw value.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees converts to degrees.
func (a Angle) Degrees() float64 {
	return float64(a) / degree
}

// Cos of the heading.
func (a Angle) Cos() float64 {
	return math.Cos(float64(a))
}

// Sin of the heading.
func (a Angle) Sin() float64 {
	return math.Sin(float64(a))
}

// Project returns the displacement of moving dist along the heading.
func (a Angle) Project(dist float64) Pos2D {
	sin, cos := math.Sincos(float64(a))
	return Pos2D{X: dist * cos, Y: dist * sin}
}
