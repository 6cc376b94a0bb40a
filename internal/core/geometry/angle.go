package geometry

import "math"

func Radians(degrees float64) float64 { return degrees * math.Pi / 180 }
func Degrees(radians float64) float64 { return radians * 180 / math.Pi }

// Fix normalizes an angle in degrees into [0, 360).
func Fix(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	// Mod of a tiny negative value can round up to exactly 360.
	if d >= 360 {
		d = 0
	}
	return d
}

// MinimumAngleDelta returns the signed rotation with the smallest magnitude
// that takes current to target. The result is always within [-180, 180].
func MinimumAngleDelta(current, target float64) float64 {
	forward := Fix(target - current)
	backward := Fix(current - target)
	if forward <= backward {
		return forward
	}
	return -backward
}

// Bearing is the direction from a to b in degrees, measured counter-clockwise
// from the +X axis and normalized to [0, 360).
func Bearing(a, b Point) float64 {
	return Fix(Degrees(math.Atan2(b.Y-a.Y, b.X-a.X)))
}

// AnglesEqual compares two angles modulo 360 within eps degrees.
func AnglesEqual(a, b, eps float64) bool {
	return math.Abs(MinimumAngleDelta(a, b)) <= eps
}
