// Package track converts grid track ratios into pixel geometry and applies
// interactive boundary drags to them.
package track

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrBoundary is returned when a resize boundary does not sit between two tracks.
	ErrBoundary = errors.New("boundary out of range")
	// ErrMinFraction is returned when the minimum fraction is not in (0,1).
	ErrMinFraction = errors.New("min fraction must be in (0,1)")
	// ErrTotal is returned when the total extent is not positive.
	ErrTotal = errors.New("total extent must be positive")
	// ErrRatios is returned for fewer than two tracks or a non-positive ratio.
	ErrRatios = errors.New("invalid ratios")
)

// Span is a 1-based, end-exclusive grid area.
type Span struct {
	RowStart int
	RowEnd   int
	ColStart int
	ColEnd   int
}

// Rect is an integer pixel rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Grid holds track ratios and the pixel extent they are distributed over.
// A zero Height means rows reuse the column unit, giving square base cells.
type Grid struct {
	Cols   []float64
	Rows   []float64
	Gap    int
	Width  int
	Height int
}

// Uniform returns n equal ratios.
func Uniform(n int) []float64 {
	rs := make([]float64, n)
	for i := range rs {
		rs[i] = 1
	}
	return rs
}

func sum(rs []float64) float64 {
	s := 0.0
	for _, r := range rs {
		s += r
	}
	return s
}

// Sizes distributes totalPx minus the inter-track gaps across ratios.
func Sizes(ratios []float64, totalPx float64, gap int) []float64 {
	n := len(ratios)
	if n == 0 {
		return nil
	}
	s := sum(ratios)
	avail := totalPx - float64(gap*(n-1))
	out := make([]float64, n)
	for i, r := range ratios {
		if s > 0 {
			out[i] = r / s * avail
		}
	}
	return out
}

// Positions returns the start offset of each track.
func Positions(sizes []float64, gap int) []float64 {
	out := make([]float64, len(sizes))
	acc := 0.0
	for i, s := range sizes {
		out[i] = acc
		acc += s + float64(gap)
	}
	return out
}

func (g Grid) colSizes() []float64 {
	return Sizes(g.Cols, float64(g.Width), g.Gap)
}

func (g Grid) rowSizes() []float64 {
	if g.Height > 0 {
		return Sizes(g.Rows, float64(g.Height), g.Gap)
	}
	n := len(g.Rows)
	if n == 0 {
		return nil
	}
	unit := 0.0
	if nc := len(g.Cols); nc > 0 {
		unit = (float64(g.Width) - float64(g.Gap*(nc-1))) / float64(nc)
	}
	return Sizes(g.Rows, float64(n)*unit+float64(g.Gap*(n-1)), g.Gap)
}

// CanvasHeight is the explicit Height, or the height implied by square base cells.
func (g Grid) CanvasHeight() int {
	if g.Height > 0 {
		return g.Height
	}
	n := len(g.Rows)
	if n == 0 || len(g.Cols) == 0 {
		return 0
	}
	unit := (float64(g.Width) - float64(g.Gap*(len(g.Cols)-1))) / float64(len(g.Cols))
	return int(math.Round(float64(n)*unit + float64(g.Gap*(n-1))))
}

func extent(sizes, pos []float64, start, end, gap int) (float64, float64) {
	a, b := start-1, end-1
	if a < 0 || b > len(sizes) || a >= b {
		return 0, 0
	}
	span := 0.0
	for i := a; i < b; i++ {
		span += sizes[i]
	}
	span += float64(gap * (b - a - 1))
	return pos[a], span
}

// Place computes the pixel rectangle covered by a span.
func (g Grid) Place(s Span) Rect {
	cs := g.colSizes()
	rs := g.rowSizes()
	return g.rect(cs, rs, Positions(cs, g.Gap), Positions(rs, g.Gap), s)
}

// rect rounds both edges of a span, so a cell never extends past the canvas
// and the far edge of one cell lands where its neighbour's rounding puts it.
func (g Grid) rect(cs, rs, cp, rp []float64, s Span) Rect {
	x, w := extent(cs, cp, s.ColStart, s.ColEnd, g.Gap)
	y, h := extent(rs, rp, s.RowStart, s.RowEnd, g.Gap)
	x0, x1 := edges(x, w, g.Width)
	y0, y1 := edges(y, h, g.CanvasHeight())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func edges(pos, size float64, limit int) (int, int) {
	a := int(math.Round(pos))
	b := int(math.Round(pos + size))
	if limit > 0 {
		b = min(b, limit)
	}
	return a, max(a, b)
}

// PlaceAll places every span.
func (g Grid) PlaceAll(spans []Span) []Rect {
	cs := g.colSizes()
	rs := g.rowSizes()
	cp := Positions(cs, g.Gap)
	rp := Positions(rs, g.Gap)

	out := make([]Rect, len(spans))
	for i, s := range spans {
		out[i] = g.rect(cs, rs, cp, rp, s)
	}
	return out
}

// Adjust moves the boundary between track boundary and boundary+1 by deltaPx.
// The ratio sum is preserved and neither track drops below
// minFraction times the mean ratio. ratios is not modified.
func Adjust(ratios []float64, boundary int, deltaPx, totalPx, minFraction float64) ([]float64, error) {
	n := len(ratios)
	if n < 2 {
		return nil, fmt.Errorf("%d tracks: %w", n, ErrRatios)
	}
	for i, r := range ratios {
		if !(r > 0) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("ratio %d is %v: %w", i, r, ErrRatios)
		}
	}
	if boundary < 0 || boundary >= n-1 {
		return nil, fmt.Errorf("boundary %d of %d tracks: %w", boundary, n, ErrBoundary)
	}
	if !(minFraction > 0 && minFraction < 1) {
		return nil, fmt.Errorf("%v: %w", minFraction, ErrMinFraction)
	}
	if !(totalPx > 0) {
		return nil, fmt.Errorf("%v: %w", totalPx, ErrTotal)
	}

	out := make([]float64, n)
	copy(out, ratios)
	if deltaPx == 0 || math.IsNaN(deltaPx) {
		return out, nil
	}

	s := sum(ratios)
	delta := deltaPx / (totalPx / s)
	minVal := s / float64(n) * minFraction

	a, b := out[boundary], out[boundary+1]
	pair := a + b
	if pair < 2*minVal {
		return out, nil
	}

	a += delta
	a = math.Max(minVal, math.Min(a, pair-minVal))
	out[boundary] = a
	out[boundary+1] = pair - a
	return out, nil
}
