package common

import "math"

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Degrees360 wraps an angle in degrees into [0, 360).
func Degrees360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleDiffPosNeg returns a-b wrapped into (-180, 180].
func AngleDiffPosNeg(a, b float64) float64 {
	d := Degrees360(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

// HeadingOf returns the heading in degrees of the vector (x, y), where 0
// points along +Y and 90 along +X.
func HeadingOf(x, y float64) float64 {
	return Degrees360(math.Atan2(x, y) * 180 / math.Pi)
}

// HeadingVector is the unit vector for a heading in degrees.
func HeadingVector(heading float64) (x, y float64) {
	r := heading * math.Pi / 180
	return math.Sin(r), math.Cos(r)
}
