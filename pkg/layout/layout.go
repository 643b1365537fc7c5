// Package layout picks the template that best fits a set of photos and keeps
// the resulting grid geometry in sync with resize and swap edits.
package layout

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"time"

	"github.com/tstromberg/mosaik/pkg/catalog"
	"github.com/tstromberg/mosaik/pkg/rotation"
	"github.com/tstromberg/mosaik/pkg/track"
)

const (
	DefaultGap    = 4
	MaxGap        = 20
	DefaultWidth  = 1080
	DefaultHeight = 1350
	FrameMin      = 320
	FrameMax      = 4096

	// MinFraction bounds how small a dragged track can get, relative to the mean.
	MinFraction = 0.2

	// Auto selects the best-scoring template.
	Auto = "auto"
)

// ErrEmptyPhotoSet is returned when there is nothing to lay out.
var ErrEmptyPhotoSet = errors.New("empty photo set")

// Photo is the part of a photo that layout cares about.
type Photo struct {
	Width      int
	Height     int
	Angle      float64
	CapturedAt time.Time
}

// Ratio is width over height. Degenerate dimensions count as square.
func (p Photo) Ratio() float64 {
	if p.Width <= 0 || p.Height <= 0 {
		return 1
	}
	return float64(p.Width) / float64(p.Height)
}

// SetAngle stores a normalized rotation.
func (p *Photo) SetAngle(deg float64) {
	p.Angle = rotation.Normalize(deg)
}

// Options control template selection and canvas size.
type Options struct {
	Gap          int
	OutputWidth  int
	OutputHeight int
	TemplateID   string
}

// DefaultOptions is a 1080×1350 canvas with a 4px gap.
func DefaultOptions() Options {
	return Options{Gap: DefaultGap, OutputWidth: DefaultWidth, OutputHeight: DefaultHeight, TemplateID: Auto}
}

// ClampFrame limits an output dimension to [FrameMin, FrameMax].
func ClampFrame(v int) int {
	return min(FrameMax, max(FrameMin, v))
}

func (o Options) normalized() Options {
	if o.OutputWidth == 0 {
		o.OutputWidth = DefaultWidth
	}
	if o.OutputHeight == 0 {
		o.OutputHeight = DefaultHeight
	}
	o.OutputWidth = ClampFrame(o.OutputWidth)
	o.OutputHeight = ClampFrame(o.OutputHeight)
	o.Gap = min(MaxGap, max(0, o.Gap))
	if o.TemplateID == "" {
		o.TemplateID = Auto
	}
	return o
}

// Cell is one placed slot: its grid span and derived pixel rectangle.
type Cell struct {
	RowStart int
	RowEnd   int
	ColStart int
	ColEnd   int

	X      int
	Y      int
	Width  int
	Height int
}

// Rect returns the cell's pixel bounds.
func (c Cell) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

func (c Cell) span() track.Span {
	return track.Span{RowStart: c.RowStart, RowEnd: c.RowEnd, ColStart: c.ColStart, ColEnd: c.ColEnd}
}

// Layout is a template instantiated on a canvas, with editable track ratios.
type Layout struct {
	TemplateID   string
	BaseRows     int
	BaseCols     int
	Gap          int
	CanvasWidth  int
	CanvasHeight int
	ColRatios    []float64
	RowRatios    []float64
	Cells        []Cell
	PhotoOrder   Permutation
}

func (l *Layout) grid() track.Grid {
	return track.Grid{Cols: l.ColRatios, Rows: l.RowRatios, Gap: l.Gap, Width: l.CanvasWidth, Height: l.CanvasHeight}
}

// Recompute derives cell rectangles from the current ratios.
func (l *Layout) Recompute() {
	g := l.grid()
	spans := make([]track.Span, len(l.Cells))
	for i, c := range l.Cells {
		spans[i] = c.span()
	}
	for i, r := range g.PlaceAll(spans) {
		l.Cells[i].X = r.X
		l.Cells[i].Y = r.Y
		l.Cells[i].Width = r.Width
		l.Cells[i].Height = r.Height
	}
}

// ResizeColumn drags the boundary after column boundary by deltaPx.
func (l *Layout) ResizeColumn(boundary int, deltaPx float64) error {
	rs, err := track.Adjust(l.ColRatios, boundary, deltaPx, float64(l.CanvasWidth), MinFraction)
	if err != nil {
		return fmt.Errorf("resize column: %w", err)
	}
	l.ColRatios = rs
	l.Recompute()
	return nil
}

// ResizeRow drags the boundary after row boundary by deltaPx.
func (l *Layout) ResizeRow(boundary int, deltaPx float64) error {
	rs, err := track.Adjust(l.RowRatios, boundary, deltaPx, float64(l.CanvasHeight), MinFraction)
	if err != nil {
		return fmt.Errorf("resize row: %w", err)
	}
	l.RowRatios = rs
	l.Recompute()
	return nil
}

// SwapCells exchanges the photos shown in cells i and j.
func (l *Layout) SwapCells(i, j int) error {
	p, err := l.PhotoOrder.Swap(i, j)
	if err != nil {
		return fmt.Errorf("swap cells: %w", err)
	}
	l.PhotoOrder = p
	return nil
}

// Clone returns a deep copy.
func (l *Layout) Clone() *Layout {
	c := *l
	c.ColRatios = append([]float64(nil), l.ColRatios...)
	c.RowRatios = append([]float64(nil), l.RowRatios...)
	c.Cells = append([]Cell(nil), l.Cells...)
	c.PhotoOrder = Permutation{idx: l.PhotoOrder.Indices()}
	return &c
}

// Validate checks that the layout is internally consistent.
func (l *Layout) Validate() error {
	if len(l.ColRatios) != l.BaseCols || len(l.RowRatios) != l.BaseRows {
		return fmt.Errorf("ratios %dx%d for %dx%d grid", len(l.RowRatios), len(l.ColRatios), l.BaseRows, l.BaseCols)
	}
	for _, r := range append(append([]float64(nil), l.ColRatios...), l.RowRatios...) {
		if !(r > 0) {
			return fmt.Errorf("non-positive ratio %v", r)
		}
	}
	if l.PhotoOrder.Len() != len(l.Cells) {
		return fmt.Errorf("%d cells but order of %d", len(l.Cells), l.PhotoOrder.Len())
	}
	if _, err := NewPermutation(l.PhotoOrder.idx); err != nil {
		return err
	}
	return nil
}

// Select picks the template for photos and assigns photos to its cells.
func Select(photos []Photo, opts Options) (*Layout, error) {
	if len(photos) == 0 {
		return nil, ErrEmptyPhotoSet
	}
	opts = opts.normalized()

	cands, err := catalog.ForCount(len(photos))
	if err != nil {
		return nil, err
	}
	if opts.TemplateID != Auto {
		if t, ok := catalog.Lookup(len(photos), opts.TemplateID); ok {
			cands = []catalog.Template{t}
		}
	}

	pr := make([]float64, len(photos))
	for i, p := range photos {
		pr[i] = p.Ratio()
	}
	porder := ascending(pr)

	var best catalog.Template
	var bestOrder []int
	bestScore := math.Inf(-1)
	for _, t := range cands {
		sr := slotRatios(t, opts)
		sorder := ascending(sr)
		mismatch := 0.0
		for k := range sorder {
			mismatch += math.Abs(math.Log(sr[sorder[k]]) - math.Log(pr[porder[k]]))
		}
		if score := -mismatch; score > bestScore {
			best, bestScore, bestOrder = t, score, sorder
		}
	}

	order := make([]int, len(photos))
	for k, cell := range bestOrder {
		order[cell] = porder[k]
	}

	l := &Layout{
		TemplateID:   best.ID,
		BaseRows:     best.BaseRows,
		BaseCols:     best.BaseCols,
		Gap:          opts.Gap,
		CanvasWidth:  opts.OutputWidth,
		CanvasHeight: opts.OutputHeight,
		ColRatios:    track.Uniform(best.BaseCols),
		RowRatios:    track.Uniform(best.BaseRows),
		Cells:        make([]Cell, len(best.Slots)),
		PhotoOrder:   Permutation{idx: order},
	}
	for i, s := range best.Slots {
		l.Cells[i] = Cell{RowStart: s.RowStart, RowEnd: s.RowEnd, ColStart: s.ColStart, ColEnd: s.ColEnd}
	}
	l.Recompute()
	return l, nil
}

// slotRatios measures each slot's pixel aspect ratio on a uniform grid.
func slotRatios(t catalog.Template, o Options) []float64 {
	g := track.Grid{
		Cols:   track.Uniform(t.BaseCols),
		Rows:   track.Uniform(t.BaseRows),
		Gap:    o.Gap,
		Width:  o.OutputWidth,
		Height: o.OutputHeight,
	}
	out := make([]float64, len(t.Slots))
	for i, s := range t.Slots {
		r := g.Place(track.Span{RowStart: s.RowStart, RowEnd: s.RowEnd, ColStart: s.ColStart, ColEnd: s.ColEnd})
		if r.Width <= 0 || r.Height <= 0 {
			out[i] = 1
			continue
		}
		out[i] = float64(r.Width) / float64(r.Height)
	}
	return out
}

// ascending returns indexes of vs ordered by value, ties in input order.
func ascending(vs []float64) []int {
	idx := make([]int, len(vs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vs[idx[a]] < vs[idx[b]] })
	return idx
}
