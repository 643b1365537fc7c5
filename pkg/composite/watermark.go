package composite

import (
	"image"
	"image/color"
	"math"
	"strings"
	"time"
)

// WatermarkType selects where watermark text comes from.
type WatermarkType string

const (
	WatermarkNone      WatermarkType = "none"
	WatermarkText      WatermarkType = "text"
	WatermarkDateTime  WatermarkType = "datetime"
	WatermarkCopyright WatermarkType = "copyright"
)

// WatermarkPosition is a corner, the centre, or a repeating pattern.
type WatermarkPosition string

const (
	WatermarkCenter      WatermarkPosition = "center"
	WatermarkTiled       WatermarkPosition = "tiled"
	WatermarkTopLeft     WatermarkPosition = "top-left"
	WatermarkTopRight    WatermarkPosition = "top-right"
	WatermarkBottomLeft  WatermarkPosition = "bottom-left"
	WatermarkBottomRight WatermarkPosition = "bottom-right"
)

const (
	wmAngle = -30

	centerFont  = 0.08
	centerAlpha = 0.38

	cornerFont   = 0.025
	cornerMargin = 0.02
	cornerAlpha  = 0.625

	tiledFont    = 0.03
	tiledAlpha   = 0.1875
	tiledSpacing = 0.2
)

// Watermark is text drawn once over the finished canvas.
type Watermark struct {
	Type      WatermarkType     `yaml:"type"`
	Text      string            `yaml:"text"`
	Position  WatermarkPosition `yaml:"position"`
	Opacity   float64           `yaml:"opacity"`
	FontScale float64           `yaml:"font_scale"`

	// Now and FormatTime produce datetime text. They default to
	// time.Now and a fixed "2006-01-02 15:04" layout.
	Now        func() time.Time       `yaml:"-"`
	FormatTime func(time.Time) string `yaml:"-"`
}

// ResolveWatermarkText returns the text to draw; "" means draw nothing.
func ResolveWatermarkText(typ WatermarkType, text string, now time.Time, format func(time.Time) string) string {
	switch typ {
	case WatermarkText:
		return strings.TrimSpace(text)
	case WatermarkDateTime:
		if format == nil {
			return now.Format("2006-01-02 15:04")
		}
		return format(now)
	case WatermarkCopyright:
		name := strings.TrimSpace(text)
		if name == "" {
			return "©"
		}
		return "© " + name
	}
	return ""
}

// resolved is the watermark text at the current time.
func (wm Watermark) resolved() string {
	now := time.Now
	if wm.Now != nil {
		now = wm.Now
	}
	return ResolveWatermarkText(wm.Type, wm.Text, now(), wm.FormatTime)
}

// DrawWatermark draws wm over dst. Text colour contrasts with bg.
func DrawWatermark(dst *image.RGBA, wm Watermark, bg color.Color) error {
	text := wm.resolved()
	if text == "" {
		return nil
	}

	opacity := wm.Opacity
	if opacity == 0 {
		opacity = DefaultWMOpac
	}
	opacity = clamp(MinTextOpacity, MaxTextOpacity, opacity)
	scale := wm.FontScale
	if !(scale > 0) {
		scale = 1
	}

	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	ink := TextColor(bg)

	switch wm.Position {
	case WatermarkCenter:
		l, err := newLabel(text, math.Round(w*centerFont*scale), true, withAlpha(ink, opacity*centerAlpha))
		if err != nil {
			return err
		}
		l.draw(dst, float64(b.Min.X)+w/2, float64(b.Min.Y)+h/2, alignCenter, alignMiddle, wmAngle)

	case WatermarkTiled:
		px := math.Round(w * tiledFont * scale)
		l, err := newLabel(text, px, false, withAlpha(ink, opacity*tiledAlpha))
		if err != nil {
			return err
		}
		spacing := math.Max(float64(l.width)+2*px, w*tiledSpacing)
		diag := math.Hypot(w, h)
		reach := math.Hypot(float64(l.width), float64(l.ascent+l.descent))
		th := wmAngle * math.Pi / 180
		cos, sin := math.Cos(th), math.Sin(th)
		cx, cy := float64(b.Min.X)+w/2, float64(b.Min.Y)+h/2
		for ty := -diag; ty <= diag; ty += spacing {
			for tx := -diag; tx <= diag; tx += spacing {
				x := cx + cos*tx - sin*ty
				y := cy + sin*tx + cos*ty
				if x < float64(b.Min.X)-reach || x > float64(b.Max.X)+reach || y < float64(b.Min.Y)-reach || y > float64(b.Max.Y)+reach {
					continue
				}
				l.draw(dst, x, y, alignCenter, alignMiddle, wmAngle)
			}
		}

	default:
		px := math.Round(w * cornerFont * scale)
		margin := math.Round(w * cornerMargin)
		l, err := newLabel(text, px, false, withAlpha(ink, opacity*cornerAlpha))
		if err != nil {
			return err
		}
		x0, y0 := float64(b.Min.X), float64(b.Min.Y)
		switch wm.Position {
		case WatermarkTopLeft:
			l.draw(dst, x0+margin, y0+margin, alignLeft, alignTop, 0)
		case WatermarkTopRight:
			l.draw(dst, x0+w-margin, y0+margin, alignRight, alignTop, 0)
		case WatermarkBottomLeft:
			l.draw(dst, x0+margin, y0+h-margin, alignLeft, alignBottom, 0)
		default:
			l.draw(dst, x0+w-margin, y0+h-margin, alignRight, alignBottom, 0)
		}
	}
	return nil
}
