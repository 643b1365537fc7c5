package composite

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func solid(w, h int, c color.Color) *image.RGBA {
	return NewCanvas(w, h, c)
}

func TestLuminanceAndTextColor(t *testing.T) {
	tests := []struct {
		hex  string
		want color.NRGBA
	}{
		{hex: "#ffffff", want: color.NRGBA{A: 255}},
		{hex: "#fff", want: color.NRGBA{A: 255}},
		{hex: "#000000", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{hex: "#1e1e1e", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{hex: "#ffff00", want: color.NRGBA{A: 255}},
		{hex: "#0000ff", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	}
	for _, tc := range tests {
		t.Run(tc.hex, func(t *testing.T) {
			if got := TextColor(ParseColor(tc.hex)); got != tc.want {
				t.Errorf("TextColor(%s) = %v, want %v (luminance %.3f)", tc.hex, got, tc.want, Luminance(ParseColor(tc.hex)))
			}
		})
	}
}

func TestResolveWatermarkText(t *testing.T) {
	now := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		typ  WatermarkType
		text string
		want string
	}{
		{name: "none", typ: WatermarkNone, text: "ignored", want: ""},
		{name: "text trimmed", typ: WatermarkText, text: "  hello  ", want: "hello"},
		{name: "blank text", typ: WatermarkText, text: "   ", want: ""},
		{name: "datetime", typ: WatermarkDateTime, want: "2024-06-01 14:30"},
		{name: "copyright named", typ: WatermarkCopyright, text: " Ana ", want: "© Ana"},
		{name: "copyright bare", typ: WatermarkCopyright, want: "©"},
		{name: "unknown type", typ: "banner", text: "x", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveWatermarkText(tc.typ, tc.text, now, nil); got != tc.want {
				t.Errorf("ResolveWatermarkText() = %q, want %q", got, tc.want)
			}
		})
	}

	got := ResolveWatermarkText(WatermarkDateTime, "", now, func(t time.Time) string { return t.Format("Jan 2") })
	if got != "Jun 1" {
		t.Errorf("custom formatter = %q", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "none", want: nil},
		{in: "Sepia", want: Filter{{"sepia", 0.8}}},
		{in: "vintage", want: Filter{{"sepia", 0.35}, {"brightness", 1.05}, {"contrast", 1.1}}},
		{in: "grayscale(100%)", want: Filter{{"grayscale", 1}}},
		{in: "sepia(80%) brightness(1.15)", want: Filter{{"sepia", 0.8}, {"brightness", 1.15}}},
		{in: "blur(1.5px)", want: Filter{{"blur", 1.5}}},
		{in: "sepia(3)", want: Filter{{"sepia", 1}}},
		{in: "hue-rotate(90)", wantErr: true},
		{in: "sparkle", wantErr: true},
		{in: "sepia(1) junk", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFilter(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrFilter) {
					t.Errorf("ParseFilter(%q) error = %v, want %v", tc.in, err, ErrFilter)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter(%q) error: %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseFilter(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestGrayscaleFilter(t *testing.T) {
	f, err := ParseFilter("grayscale")
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	out := f.Apply(solid(4, 4, red))
	r, g, b, _ := out.At(1, 1).RGBA()
	if r != g || g != b {
		t.Errorf("grayscale pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestNormalize(t *testing.T) {
	got := Options{Vignette: Vignette{Enabled: true, Strength: 5}, Stamp: DateStamp{Opacity: 0.1, Position: "middle"}}.Normalize()
	want := Options{
		FitMode:    Cover,
		Background: DefaultBG,
		Vignette:   Vignette{Enabled: true, Strength: MaxVignette},
		Stamp:      DateStamp{Position: BottomLeft, Opacity: MinTextOpacity, FontScale: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestDrawCellCover(t *testing.T) {
	dst := NewCanvas(100, 60, white)
	// A wide photo with a red centre band and blue edges; cover keeps only the centre.
	photo := solid(300, 100, color.RGBA{B: 255, A: 255})
	for y := 0; y < 100; y++ {
		for x := 100; x < 200; x++ {
			photo.Set(x, y, red)
		}
	}
	cell := image.Rect(10, 10, 60, 60)
	if err := DrawCell(dst, photo, cell, 0, "", DefaultOptions()); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	for _, p := range []image.Point{{12, 12}, {35, 35}, {57, 57}} {
		if got := color.RGBAModel.Convert(dst.At(p.X, p.Y)).(color.RGBA); !approx(got, red) {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
	if got := color.RGBAModel.Convert(dst.At(5, 5)).(color.RGBA); got != white {
		t.Errorf("outside cell = %v, want background", got)
	}
}

func TestDrawCellContain(t *testing.T) {
	dst := NewCanvas(100, 100, white)
	o := DefaultOptions()
	o.FitMode = Contain
	o.Background = "#000000"
	if err := DrawCell(dst, solid(200, 100, red), image.Rect(0, 0, 100, 100), 0, "", o); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	black := color.RGBA{A: 255}
	tests := []struct {
		p    image.Point
		want color.RGBA
	}{
		{p: image.Pt(50, 5), want: black},
		{p: image.Pt(50, 50), want: red},
		{p: image.Pt(50, 95), want: black},
	}
	for _, tc := range tests {
		if got := color.RGBAModel.Convert(dst.At(tc.p.X, tc.p.Y)).(color.RGBA); !approx(got, tc.want) {
			t.Errorf("pixel %v = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestDrawCellRotatedStaysInCell(t *testing.T) {
	dst := NewCanvas(120, 120, white)
	cell := image.Rect(10, 10, 110, 110)
	if err := DrawCell(dst, solid(100, 100, red), cell, 45, "", DefaultOptions()); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			if image.Pt(x, y).In(cell) {
				continue
			}
			if got := color.RGBAModel.Convert(dst.At(x, y)).(color.RGBA); got != white {
				t.Fatalf("pixel (%d,%d) outside cell = %v", x, y, got)
			}
		}
	}
	// Corners of the cell are uncovered by the rotated photo.
	if got := color.RGBAModel.Convert(dst.At(12, 12)).(color.RGBA); got != white {
		t.Errorf("cell corner = %v, want background", got)
	}
	if got := color.RGBAModel.Convert(dst.At(60, 60)).(color.RGBA); !approx(got, red) {
		t.Errorf("cell centre = %v, want red", got)
	}
}

func TestDrawCellFullTurnMatchesUnrotated(t *testing.T) {
	a := NewCanvas(80, 80, white)
	b := NewCanvas(80, 80, white)
	photo := solid(64, 48, red)
	cell := image.Rect(0, 0, 80, 80)
	if err := DrawCell(a, photo, cell, 0, "", DefaultOptions()); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	if err := DrawCell(b, photo, cell, 360, "", DefaultOptions()); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Errorf("360° rotation differs from 0°")
	}
}

func TestVignetteDarkensEdges(t *testing.T) {
	dst := NewCanvas(100, 100, white)
	o := DefaultOptions()
	o.Vignette = Vignette{Enabled: true, Strength: 0.8}
	if err := DrawCell(dst, solid(100, 100, white), image.Rect(0, 0, 100, 100), 0, "", o); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	centre := color.RGBAModel.Convert(dst.At(50, 50)).(color.RGBA)
	corner := color.RGBAModel.Convert(dst.At(0, 0)).(color.RGBA)
	if centre.R < 250 {
		t.Errorf("centre darkened to %v", centre)
	}
	if corner.R > 100 {
		t.Errorf("corner not darkened: %v", corner)
	}
}

func TestDateStampInk(t *testing.T) {
	dst := NewCanvas(400, 400, white)
	o := DefaultOptions()
	o.Stamp = DateStamp{Enabled: true, Position: BottomRight, Opacity: 0.9, FontScale: 3}
	cell := image.Rect(0, 0, 400, 400)
	if err := DrawCell(dst, solid(400, 400, white), cell, 0, "Jun 1, 2024", o); err != nil {
		t.Fatalf("DrawCell: %v", err)
	}
	if !hasInk(dst, image.Rect(200, 300, 400, 400)) {
		t.Errorf("no stamp in bottom-right quadrant")
	}
	if hasInk(dst, image.Rect(0, 0, 200, 200)) {
		t.Errorf("unexpected ink in top-left quadrant")
	}
}

func TestDrawWatermark(t *testing.T) {
	tests := []struct {
		name   string
		pos    WatermarkPosition
		region image.Rectangle
	}{
		{name: "center", pos: WatermarkCenter, region: image.Rect(100, 150, 300, 250)},
		{name: "tiled", pos: WatermarkTiled, region: image.Rect(0, 0, 400, 400)},
		{name: "top-left", pos: WatermarkTopLeft, region: image.Rect(0, 0, 200, 60)},
		{name: "bottom-right", pos: WatermarkBottomRight, region: image.Rect(200, 340, 400, 400)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dst := NewCanvas(400, 400, white)
			wm := Watermark{Type: WatermarkText, Text: "mosaik", Position: tc.pos, Opacity: 0.9, FontScale: 2}
			if err := DrawWatermark(dst, wm, white); err != nil {
				t.Fatalf("DrawWatermark: %v", err)
			}
			if !hasInk(dst, tc.region) {
				t.Errorf("no watermark ink in %v", tc.region)
			}
		})
	}
}

func TestWatermarkNoneIsNoop(t *testing.T) {
	for _, typ := range []WatermarkType{WatermarkNone, WatermarkText} {
		dst := NewCanvas(200, 200, white)
		before := append([]byte(nil), dst.Pix...)
		if err := DrawWatermark(dst, Watermark{Type: typ, Text: "  ", Position: WatermarkCenter}, white); err != nil {
			t.Fatalf("DrawWatermark: %v", err)
		}
		if !bytes.Equal(before, dst.Pix) {
			t.Errorf("%s watermark with empty text changed pixels", typ)
		}
	}
}

// hasInk reports whether any pixel in r differs from white.
func hasInk(img *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if color.RGBAModel.Convert(img.At(x, y)).(color.RGBA) != white {
				return true
			}
		}
	}
	return false
}

// approx tolerates resampling error.
func approx(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return int(x)-int(y) < 8 && int(y)-int(x) < 8 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}
