package composite

import (
	"errors"
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// ErrFilter is returned for filter strings that cannot be parsed.
var ErrFilter = errors.New("invalid filter")

// FilterOp is one step of a filter chain, such as sepia(0.8).
type FilterOp struct {
	Name   string
	Amount float64
}

// Filter is an ordered chain of operations. A nil Filter changes nothing.
type Filter []FilterOp

var presets = map[string]Filter{
	"none":       nil,
	"grayscale":  {{"grayscale", 1}},
	"sepia":      {{"sepia", 0.8}},
	"brightness": {{"brightness", 1.15}},
	"contrast":   {{"contrast", 1.2}},
	"saturated":  {{"saturate", 1.4}},
	"faded":      {{"saturate", 0.65}, {"brightness", 1.05}},
	"fade":       {{"saturate", 0.65}, {"brightness", 1.05}},
	"vintage":    {{"sepia", 0.35}, {"brightness", 1.05}, {"contrast", 1.1}},
	"blur":       {{"blur", 1.5}},
}

var filterFunc = regexp.MustCompile(`([a-z-]+)\(\s*([0-9.]+)\s*(%|px)?\s*\)`)

// ParseFilter accepts a preset name or a list of functions like
// "sepia(80%) brightness(1.15) blur(1.5px)".
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	if f, ok := presets[s]; ok {
		return f, nil
	}

	ms := filterFunc.FindAllStringSubmatchIndex(s, -1)
	if len(ms) == 0 {
		return nil, fmt.Errorf("%q: %w", s, ErrFilter)
	}

	f := Filter{}
	last := 0
	for _, m := range ms {
		if strings.TrimSpace(s[last:m[0]]) != "" {
			return nil, fmt.Errorf("%q: unexpected %q: %w", s, s[last:m[0]], ErrFilter)
		}
		last = m[1]

		name := s[m[2]:m[3]]
		v, err := strconv.ParseFloat(s[m[4]:m[5]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s amount: %w", name, err)
		}
		if m[6] >= 0 && s[m[6]:m[7]] == "%" {
			v /= 100
		}

		switch name {
		case "grayscale", "sepia":
			v = clamp(0, 1, v)
		case "brightness", "contrast", "saturate", "blur":
		default:
			return nil, fmt.Errorf("unknown function %q: %w", name, ErrFilter)
		}
		f = append(f, FilterOp{Name: name, Amount: v})
	}
	if strings.TrimSpace(s[last:]) != "" {
		return nil, fmt.Errorf("%q: trailing %q: %w", s, s[last:], ErrFilter)
	}
	return f, nil
}

// Apply runs the chain over img.
func (f Filter) Apply(img image.Image) image.Image {
	for _, op := range f {
		img = op.apply(img)
	}
	return img
}

func (op FilterOp) apply(img image.Image) image.Image {
	switch op.Name {
	case "grayscale":
		if op.Amount <= 0 {
			return img
		}
		return blend.Opacity(img, effect.Grayscale(img), op.Amount)
	case "sepia":
		if op.Amount <= 0 {
			return img
		}
		return blend.Opacity(img, effect.Sepia(img), op.Amount)
	case "brightness":
		return adjust.Brightness(img, op.Amount-1)
	case "contrast":
		return adjust.Contrast(img, op.Amount-1)
	case "saturate":
		return adjust.Saturation(img, op.Amount-1)
	case "blur":
		if op.Amount <= 0 {
			return img
		}
		return blur.Gaussian(img, op.Amount)
	}
	return img
}
