package mosaik

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tstromberg/mosaik/pkg/composite"
	"github.com/tstromberg/mosaik/pkg/export"
	"github.com/tstromberg/mosaik/pkg/layout"
)

// Config holds configuration for mosaik.
type Config struct {
	InDirs []string
	OutDir string

	// Name prefixes output files; each sheet appends its album path.
	Name       string
	DateSuffix bool

	Format        export.Format
	Quality       int
	Layout        layout.Options
	Composite     composite.Options
	Watermark     composite.Watermark
	Locale        string
	Preview       ThumbOpts
	KeepOriginals bool
}

// DefaultConfig renders 1080×1350 JPEGs with no effects.
func DefaultConfig() *Config {
	return &Config{
		Name:      DefaultName,
		Format:    export.JPEG,
		Quality:   export.DefaultQuality,
		Layout:    layout.DefaultOptions(),
		Composite: composite.DefaultOptions(),
		Watermark: composite.Watermark{Type: composite.WatermarkNone, Position: composite.WatermarkBottomRight, Opacity: composite.DefaultWMOpac, FontScale: 1},
		Locale:    "en",
		Preview:   defaultPreview,
	}
}

// ErrOverlap is returned when an input directory lies inside the output directory.
var ErrOverlap = errors.New("input directory inside output directory")

// Validate rejects configurations whose outputs would be collected as inputs.
// An output directory below an input directory is allowed; Collect skips it.
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return nil
	}
	for _, d := range c.InDirs {
		if within(d, c.OutDir) {
			return fmt.Errorf("%s in %s: %w", d, c.OutDir, ErrOverlap)
		}
	}
	return nil
}

// IsOutput reports whether path lies inside the output directory.
func (c *Config) IsOutput(path string) bool {
	return c.OutDir != "" && within(path, c.OutDir)
}

// Preset is the YAML form of the render settings. Omitted keys keep their current value.
type Preset struct {
	Name          string               `yaml:"name"`
	DateSuffix    *bool                `yaml:"date_suffix"`
	Format        string               `yaml:"format"`
	Quality       int                  `yaml:"quality"`
	Gap           *int                 `yaml:"gap"`
	Width         int                  `yaml:"width"`
	Height        int                  `yaml:"height"`
	Template      string               `yaml:"template"`
	Composite     *composite.Options   `yaml:"composite"`
	Watermark     *composite.Watermark `yaml:"watermark"`
	Locale        string               `yaml:"locale"`
	Preview       *ThumbOpts           `yaml:"preview"`
	KeepOriginals *bool                `yaml:"keep_originals"`
}

// LoadPreset applies the YAML preset at path to c.
func LoadPreset(path string, c *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	// Nested blocks decode over the current values.
	co, wm, pv := c.Composite, c.Watermark, c.Preview
	p := Preset{Composite: &co, Watermark: &wm, Preview: &pv}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return p.Apply(c)
}

// Apply copies the preset's set fields onto c.
func (p Preset) Apply(c *Config) error {
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.DateSuffix != nil {
		c.DateSuffix = *p.DateSuffix
	}
	if p.Format != "" {
		f, err := ParseFormat(p.Format)
		if err != nil {
			return err
		}
		c.Format = f
	}
	if p.Quality != 0 {
		c.Quality = p.Quality
	}
	if p.Gap != nil {
		c.Layout.Gap = *p.Gap
	}
	if p.Width != 0 {
		c.Layout.OutputWidth = p.Width
	}
	if p.Height != 0 {
		c.Layout.OutputHeight = p.Height
	}
	if p.Template != "" {
		c.Layout.TemplateID = p.Template
	}
	if p.Composite != nil {
		c.Composite = *p.Composite
	}
	if p.Watermark != nil {
		c.Watermark = *p.Watermark
	}
	if p.Locale != "" {
		c.Locale = p.Locale
	}
	if p.Preview != nil {
		c.Preview = *p.Preview
	}
	if p.KeepOriginals != nil {
		c.KeepOriginals = *p.KeepOriginals
	}
	if _, err := composite.ParseFilter(c.Composite.Filter); err != nil {
		return fmt.Errorf("preset filter: %w", err)
	}
	return nil
}

// ParseFormat accepts jpeg, jpg or png.
func ParseFormat(s string) (export.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return export.JPEG, nil
	case "png":
		return export.PNG, nil
	}
	return "", fmt.Errorf("%q: %w", s, export.ErrUnsupportedFormat)
}

// ApplyEnv overrides c from MOSAIK_* environment variables.
func ApplyEnv(c *Config) error {
	if v := os.Getenv("MOSAIK_OUT"); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv("MOSAIK_FORMAT"); v != "" {
		f, err := ParseFormat(v)
		if err != nil {
			return fmt.Errorf("MOSAIK_FORMAT: %w", err)
		}
		c.Format = f
	}
	c.Quality = envInt("MOSAIK_QUALITY", c.Quality)
	c.Layout.OutputWidth = envInt("MOSAIK_WIDTH", c.Layout.OutputWidth)
	c.Layout.OutputHeight = envInt("MOSAIK_HEIGHT", c.Layout.OutputHeight)
	if v := os.Getenv("MOSAIK_LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("MOSAIK_BACKGROUND"); v != "" {
		c.Composite.Background = v
	}
	if v := os.Getenv("MOSAIK_COPYRIGHT"); v != "" {
		c.Watermark.Type = composite.WatermarkCopyright
		c.Watermark.Text = v
	}
	return nil
}

// envInt returns the positive integer in key, or def.
func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
