package composite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/tstromberg/mosaik/pkg/rotation"
)

// stamp geometry, relative to cell width
const (
	stampFont   = 0.025
	stampMargin = 0.02
	stampAlpha  = 0.625
)

// NewCanvas returns a w×h surface filled with bg.
func NewCanvas(w, h int, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return img
}

// DrawCell draws photo into cell on dst: rotated about the cell centre by
// angle degrees, fitted, filtered, vignetted, and stamped with date.
// The rotated content is scaled down so no corner leaves the cell.
func DrawCell(dst *image.RGBA, photo image.Image, cell image.Rectangle, angle float64, date string, o Options) error {
	o = o.Normalize()
	w, h := cell.Dx(), cell.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	f, err := ParseFilter(o.Filter)
	if err != nil {
		return err
	}
	bg := ParseColor(o.Background)

	tile := NewCanvas(w, h, bg)
	fitPhoto(tile, photo, o.FitMode, f)
	if o.Vignette.Enabled {
		vignette(tile, o.Vignette.Strength)
	}
	if o.Stamp.Enabled && date != "" {
		if err := stamp(tile, date, bg, o.Stamp); err != nil {
			return fmt.Errorf("date stamp: %w", err)
		}
	}

	angle = rotation.Normalize(angle)
	if angle == 0 {
		draw.Draw(dst, cell, tile, image.Point{}, draw.Over)
		return nil
	}
	s := rotation.FitScale(angle, float64(w), float64(h))
	cx := float64(cell.Min.X) + float64(w)/2
	cy := float64(cell.Min.Y) + float64(h)/2
	m := affine(angle, s, float64(w)/2, float64(h)/2, cx, cy)
	xdraw.BiLinear.Transform(dst, m, tile, tile.Bounds(), xdraw.Over, nil)
	return nil
}

// fitPhoto scales photo into tile. Cover crops the overflowing axis
// equally from both sides; contain centres the photo over the background.
func fitPhoto(tile *image.RGBA, photo image.Image, mode FitMode, f Filter) {
	w, h := tile.Bounds().Dx(), tile.Bounds().Dy()
	sb := photo.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw <= 0 || sh <= 0 {
		return
	}
	srcRatio := sw / sh
	cellRatio := float64(w) / float64(h)

	if mode == Contain {
		dw, dh := float64(w), float64(h)
		if srcRatio > cellRatio {
			dh = dw / srcRatio
		} else {
			dw = dh * srcRatio
		}
		rw := max(1, int(math.Round(dw)))
		rh := max(1, int(math.Round(dh)))
		scaled := f.Apply(transform.Resize(photo, rw, rh, transform.Linear))
		at := image.Pt(int(math.Round((float64(w)-dw)/2)), int(math.Round((float64(h)-dh)/2)))
		draw.Draw(tile, image.Rect(at.X, at.Y, at.X+rw, at.Y+rh), scaled, scaled.Bounds().Min, draw.Over)
		return
	}

	crop := sb
	if srcRatio > cellRatio {
		cw := sh * cellRatio
		x0 := sb.Min.X + int(math.Round((sw-cw)/2))
		crop = image.Rect(x0, sb.Min.Y, x0+max(1, int(math.Round(cw))), sb.Max.Y)
	} else {
		ch := sw / cellRatio
		y0 := sb.Min.Y + int(math.Round((sh-ch)/2))
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+max(1, int(math.Round(ch))))
	}
	src := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(src, src.Bounds(), photo, crop.Min, draw.Src)

	scaled := f.Apply(transform.Resize(src, w, h, transform.Linear))
	draw.Draw(tile, tile.Bounds(), scaled, scaled.Bounds().Min, draw.Over)
}

// vignette darkens img towards black, transparent at the centre and
// reaching strength at radius max(w,h)/2.
func vignette(img *image.RGBA, strength float64) {
	if strength <= 0 {
		return
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	g := gg.NewRadialGradientBrush(w/2, h/2, 0, math.Max(w, h)/2).
		AddColorStop(0, gg.RGBA2(0, 0, 0, 0)).
		AddColorStop(1, gg.RGBA2(0, 0, 0, strength))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := g.ColorAt(float64(x-b.Min.X)+0.5, float64(y-b.Min.Y)+0.5).A
			if a <= 0 {
				continue
			}
			i := img.PixOffset(x, y)
			p := img.Pix[i : i+4 : i+4]
			k := 1 - a
			p[0] = uint8(float64(p[0])*k + 0.5)
			p[1] = uint8(float64(p[1])*k + 0.5)
			p[2] = uint8(float64(p[2])*k + 0.5)
			p[3] = uint8(math.Min(255, a*255+float64(p[3])*k+0.5))
		}
	}
}

// stamp prints text in a corner of tile.
func stamp(tile *image.RGBA, text string, bg color.Color, s DateStamp) error {
	w := float64(tile.Bounds().Dx())
	h := float64(tile.Bounds().Dy())
	px := math.Max(1, math.Round(w*stampFont*s.FontScale))
	margin := math.Round(w * stampMargin)
	alpha := clamp(MinTextOpacity, MaxTextOpacity, s.Opacity) * stampAlpha

	l, err := newLabel(text, px, false, withAlpha(TextColor(bg), alpha))
	if err != nil {
		return err
	}
	switch s.Position {
	case TopLeft:
		l.draw(tile, margin, margin, alignLeft, alignTop, 0)
	case TopRight:
		l.draw(tile, w-margin, margin, alignRight, alignTop, 0)
	case BottomRight:
		l.draw(tile, w-margin, h-margin, alignRight, alignBottom, 0)
	default:
		l.draw(tile, margin, h-margin, alignLeft, alignBottom, 0)
	}
	return nil
}
