package composite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

var (
	regularFont = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(goregular.TTF) })
	boldFont    = sync.OnceValues(func() (*opentype.Font, error) { return opentype.Parse(gobold.TTF) })
)

// hAlign and vAlign locate the anchor point on a rendered label.
type hAlign int

const (
	alignLeft hAlign = iota
	alignCenter
	alignRight
)

type vAlign int

const (
	alignTop vAlign = iota
	alignMiddle
	alignBottom
)

// label is a line of text rendered onto a transparent tile.
type label struct {
	img     *image.RGBA
	width   int
	ascent  int
	descent int
}

// newLabel renders s at px pixels. Faces are not safe for concurrent use,
// so each label gets its own.
func newLabel(s string, px float64, bold bool, c color.NRGBA) (*label, error) {
	load := regularFont
	if bold {
		load = boldFont
	}
	f, err := load()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    math.Max(1, px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer face.Close()

	m := face.Metrics()
	l := &label{
		width:   font.MeasureString(face, s).Ceil(),
		ascent:  m.Ascent.Ceil(),
		descent: m.Descent.Ceil(),
	}
	l.img = image.NewRGBA(image.Rect(0, 0, max(1, l.width), max(1, l.ascent+l.descent)))

	d := &font.Drawer{
		Dst:  l.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, l.ascent),
	}
	d.DrawString(s)
	return l, nil
}

// anchor returns the label-local point that should land on the target position.
func (l *label) anchor(h hAlign, v vAlign) (float64, float64) {
	x := 0.0
	switch h {
	case alignCenter:
		x = float64(l.width) / 2
	case alignRight:
		x = float64(l.width)
	}
	y := 0.0
	switch v {
	case alignMiddle:
		y = float64(l.ascent+l.descent) / 2
	case alignBottom:
		y = float64(l.ascent + l.descent)
	}
	return x, y
}

// draw composites the label so its anchor sits at (x, y), rotated by deg
// degrees clockwise about that point.
func (l *label) draw(dst draw.Image, x, y float64, h hAlign, v vAlign, deg float64) {
	ax, ay := l.anchor(h, v)
	if deg == 0 {
		at := image.Pt(int(math.Round(x-ax)), int(math.Round(y-ay)))
		draw.Draw(dst, l.img.Bounds().Add(at), l.img, image.Point{}, draw.Over)
		return
	}
	xdraw.BiLinear.Transform(dst, affine(deg, 1, ax, ay, x, y), l.img, l.img.Bounds(), xdraw.Over, nil)
}

// affine maps source point (sx, sy) onto (dx, dy), rotating by deg clockwise
// and scaling by s about it.
func affine(deg, s, sx, sy, dx, dy float64) f64.Aff3 {
	th := deg * math.Pi / 180
	c := s * math.Cos(th)
	n := s * math.Sin(th)
	return f64.Aff3{
		c, -n, dx - (c*sx - n*sy),
		n, c, dy - (n*sx + c*sy),
	}
}
