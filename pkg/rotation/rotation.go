// Package rotation has the angle math for rotating a photo inside its cell.
// Angles are in degrees, clockwise, in screen coordinates (y down).
package rotation

import "math"

// Normalize maps deg into [0, 360). Non-finite input yields 0.
func Normalize(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngleFromPointer is the angle of the pointer around the cell centre,
// with 0 pointing straight up.
func AngleFromPointer(cx, cy, px, py float64) float64 {
	dx := px - cx
	dy := py - cy
	if dx == 0 && dy == 0 {
		return 0
	}
	return Normalize(math.Atan2(dx, -dy) * 180 / math.Pi)
}

// FitScale is the largest scale at which a w×h rectangle rotated by deg
// still fits inside an unrotated w×h box. It never exceeds 1.
func FitScale(deg, w, h float64) float64 {
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return 1
	}
	theta := Normalize(deg) * math.Pi / 180
	c := math.Abs(math.Cos(theta))
	s := math.Abs(math.Sin(theta))
	bbW := w*c + h*s
	bbH := w*s + h*c
	return math.Min(1, math.Min(w/bbW, h/bbH))
}

// Step nudges an angle by delta degrees, as the keyboard rotate does.
func Step(deg, delta float64) float64 {
	return Normalize(deg + delta)
}
