// Package composite draws photos, effects and overlays onto a collage canvas.
package composite

import (
	"image/color"
	"strings"

	"github.com/gogpu/gg"
)

// FitMode is how a photo fills its cell.
type FitMode string

const (
	// Cover crops the photo so it fills the cell.
	Cover FitMode = "cover"
	// Contain shows the whole photo with background bars.
	Contain FitMode = "contain"
)

// Corner anchors an overlay to a canvas or cell corner.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// Defaults and limits for overlay settings.
const (
	DefaultVignette  = 0.5
	MinVignette      = 0.2
	MaxVignette      = 0.8
	DefaultStampOpac = 0.7
	DefaultWMOpac    = 0.8
	MinTextOpacity   = 0.3
	MaxTextOpacity   = 0.9
	DefaultBG        = "#ffffff"
)

// Vignette darkens cell edges.
type Vignette struct {
	Enabled  bool    `yaml:"enabled"`
	Strength float64 `yaml:"strength"`
}

// DateStamp prints the capture date in a cell corner.
type DateStamp struct {
	Enabled   bool    `yaml:"enabled"`
	Position  Corner  `yaml:"position"`
	Opacity   float64 `yaml:"opacity"`
	FontScale float64 `yaml:"font_scale"`
}

// Options control how each cell is drawn.
type Options struct {
	FitMode    FitMode   `yaml:"fit"`
	Background string    `yaml:"background"`
	Filter     string    `yaml:"filter"`
	Vignette   Vignette  `yaml:"vignette"`
	Stamp      DateStamp `yaml:"date_stamp"`
}

// DefaultOptions covers cells on a white canvas with no effects.
func DefaultOptions() Options {
	return Options{
		FitMode:    Cover,
		Background: DefaultBG,
		Filter:     "none",
		Vignette:   Vignette{Strength: DefaultVignette},
		Stamp:      DateStamp{Position: BottomLeft, Opacity: DefaultStampOpac, FontScale: 1},
	}
}

func clamp(lo, hi, v float64) float64 {
	return min(hi, max(lo, v))
}

// Normalize fills unset fields with defaults and clamps ranges.
func (o Options) Normalize() Options {
	if o.FitMode != Contain {
		o.FitMode = Cover
	}
	if strings.TrimSpace(o.Background) == "" {
		o.Background = DefaultBG
	}
	if o.Vignette.Strength == 0 {
		o.Vignette.Strength = DefaultVignette
	}
	o.Vignette.Strength = clamp(MinVignette, MaxVignette, o.Vignette.Strength)

	switch o.Stamp.Position {
	case TopLeft, TopRight, BottomLeft, BottomRight:
	default:
		o.Stamp.Position = BottomLeft
	}
	if o.Stamp.Opacity == 0 {
		o.Stamp.Opacity = DefaultStampOpac
	}
	o.Stamp.Opacity = clamp(MinTextOpacity, MaxTextOpacity, o.Stamp.Opacity)
	if !(o.Stamp.FontScale > 0) {
		o.Stamp.FontScale = 1
	}
	return o
}

// ParseColor reads a CSS-style hex colour such as "#fff" or "#1e1e1e".
// Unparseable input yields opaque black.
func ParseColor(hex string) color.NRGBA {
	c := gg.Hex(strings.TrimSpace(hex))
	return c.Color().(color.NRGBA)
}
