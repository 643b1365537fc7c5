package composite

import "image/color"

// Luminance is the perceived brightness of c in [0,1].
func Luminance(c color.Color) float64 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return (0.299*float64(n.R) + 0.587*float64(n.G) + 0.114*float64(n.B)) / 255
}

// TextColor picks white text on dark backgrounds and black text otherwise.
func TextColor(bg color.Color) color.NRGBA {
	if Luminance(bg) < 0.5 {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.NRGBA{A: 255}
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(clamp(0, 1, alpha)*255 + 0.5)
	return c
}
