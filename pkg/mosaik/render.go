package mosaik

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/mosaik/pkg/export"
	"github.com/tstromberg/mosaik/pkg/layout"
)

// OriginalsDir holds copies of source photos, relative to the output directory.
const OriginalsDir = "originals"

// Render writes one collage per sheet of the assembly.
func Render(ctx context.Context, c *Config, a *Assembly) ([]Output, error) {
	klog.Infof("rendering %d albums to %s", len(a.Albums), c.OutDir)
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	outs := []Output{}
	for _, s := range a.Sheets() {
		o, err := RenderSheet(ctx, c, s)
		if err != nil {
			return outs, fmt.Errorf("sheet %s: %w", s.Name, err)
		}
		outs = append(outs, *o)

		if c.KeepOriginals {
			for _, i := range s.Images {
				if err := keepOriginal(i, c.OutDir); err != nil {
					return outs, fmt.Errorf("keep original: %w", err)
				}
			}
		}
	}
	return outs, nil
}

// exportOptions maps c onto export settings.
func exportOptions(c *Config) export.Options {
	dates := DateFormatter(c.Locale)
	wm := c.Watermark
	if wm.FormatTime == nil {
		wm.FormatTime = func(t time.Time) string {
			return dates(t) + " " + t.Format("15:04")
		}
	}
	return export.Options{
		Format:     c.Format,
		Quality:    c.Quality,
		Composite:  c.Composite,
		Watermark:  wm,
		FormatDate: dates,
	}
}

// RenderSheet lays out, composites and writes a single sheet.
func RenderSheet(ctx context.Context, c *Config, s *Sheet) (*Output, error) {
	photos := make([]export.Photo, len(s.Images))
	lps := make([]layout.Photo, len(s.Images))
	for k, i := range s.Images {
		bs, err := os.ReadFile(i.InPath)
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		photos[k] = export.Photo{Data: bs, Angle: i.Angle, CapturedAt: i.Taken}
		lps[k] = i.Photo()
	}

	l, err := layout.Select(lps, c.Layout)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	klog.V(1).Infof("%s: template %s, %dx%d", s.Name, l.TemplateID, l.CanvasWidth, l.CanvasHeight)

	res, err := export.Export(ctx, l, photos, exportOptions(c))
	if err != nil {
		klog.Errorf("export %s failed (%s): %v", s.Name, export.KindOf(err), err)
		return nil, fmt.Errorf("export: %w", err)
	}

	path := filepath.Join(c.OutDir, s.Name+"."+res.Format.Extension())
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	klog.Infof("wrote %s (%s, %d photos, %d bytes)", path, l.TemplateID, len(s.Images), len(res.Data))

	o := &Output{Path: path, TemplateID: l.TemplateID, Width: res.Width, Height: res.Height, Bytes: len(res.Data)}
	if !c.Preview.Enabled() {
		return o, nil
	}

	img, _, err := image.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	o.Preview = filepath.Join(c.OutDir, previewRelPath(s.Name, c.Preview))
	if _, err := createPreview(img, o.Preview, c.Preview); err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return o, nil
}

// keepOriginal copies a source photo into the output tree unless an
// identical-looking copy is already there.
func keepOriginal(i *Image, outDir string) error {
	dest := filepath.Join(outDir, OriginalsDir, i.RelPath)

	sst, err := os.Stat(i.InPath)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	dst, err := os.Stat(dest)
	if err == nil && sst.Size() == dst.Size() && !sst.ModTime().After(dst.ModTime()) {
		klog.V(1).Infof("%s is up to date", dest)
		return nil
	}

	klog.V(1).Infof("copying %s -> %s", i.InPath, dest)
	if err := copy.Copy(i.InPath, dest); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
