package rotation

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{45, 45},
		{360, 0},
		{725, 5},
		{-90, 270},
		{-720, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); !near(got, tc.want) {
			t.Errorf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAngleFromPointer(t *testing.T) {
	tests := []struct {
		name   string
		px, py float64
		want   float64
	}{
		{name: "centre", px: 50, py: 50, want: 0},
		{name: "up", px: 50, py: 0, want: 0},
		{name: "right", px: 100, py: 50, want: 90},
		{name: "down", px: 50, py: 100, want: 180},
		{name: "left", px: 0, py: 50, want: 270},
		{name: "up-right", px: 100, py: 0, want: 45},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AngleFromPointer(50, 50, tc.px, tc.py); !near(got, tc.want) {
				t.Errorf("AngleFromPointer() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name string
		deg  float64
		w, h float64
		want float64
	}{
		{name: "unrotated", deg: 0, w: 400, h: 300, want: 1},
		{name: "half turn", deg: 180, w: 400, h: 300, want: 1},
		{name: "square at 45", deg: 45, w: 100, h: 100, want: 1 / math.Sqrt2},
		{name: "landscape quarter turn", deg: 90, w: 400, h: 200, want: 0.5},
		{name: "zero width", deg: 30, w: 0, h: 100, want: 1},
		{name: "negative height", deg: 30, w: 100, h: -1, want: 1},
		{name: "nan", deg: 30, w: math.NaN(), h: 100, want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FitScale(tc.deg, tc.w, tc.h); !near(got, tc.want) {
				t.Errorf("FitScale(%v, %v, %v) = %v, want %v", tc.deg, tc.w, tc.h, got, tc.want)
			}
		})
	}
}

// The rotated, scaled rectangle must fit inside the cell for any angle.
func TestFitScaleContains(t *testing.T) {
	for deg := 0.0; deg < 360; deg += 7.5 {
		for _, d := range [][2]float64{{400, 300}, {300, 400}, {100, 100}, {1080, 90}} {
			w, h := d[0], d[1]
			s := FitScale(deg, w, h)
			if s <= 0 || s > 1 {
				t.Fatalf("FitScale(%v,%v,%v) = %v", deg, w, h, s)
			}
			th := deg * math.Pi / 180
			bw := s * (w*math.Abs(math.Cos(th)) + h*math.Abs(math.Sin(th)))
			bh := s * (w*math.Abs(math.Sin(th)) + h*math.Abs(math.Cos(th)))
			if bw > w+1e-6 || bh > h+1e-6 {
				t.Errorf("deg=%v %vx%v: bbox %vx%v exceeds cell", deg, w, h, bw, bh)
			}
		}
	}
}

func TestStep(t *testing.T) {
	if got := Step(359, 1); !near(got, 0) {
		t.Errorf("Step(359, 1) = %v, want 0", got)
	}
	if got := Step(0, -1); !near(got, 359) {
		t.Errorf("Step(0, -1) = %v, want 359", got)
	}
}
