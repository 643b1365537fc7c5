package mosaik

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// PreviewDir holds preview images, relative to the output directory.
const PreviewDir = "_"

// ThumbOpts are preview thumbnail options. A zero X and Y disables previews.
type ThumbOpts struct {
	X       int `yaml:"x"`
	Y       int `yaml:"y"`
	Quality int `yaml:"quality"`
}

var defaultPreview = ThumbOpts{X: 480, Quality: 85}

// Enabled reports whether a preview should be written.
func (t ThumbOpts) Enabled() bool {
	return t.X > 0 || t.Y > 0
}

// previewRelPath returns a relative path for the preview of a sheet.
func previewRelPath(name string, t ThumbOpts) string {
	dimensions := ""
	if t.X != 0 {
		dimensions = fmt.Sprintf("x%d", t.X)
	}
	if t.Y != 0 {
		dimensions = fmt.Sprintf("y%d", t.Y)
	}
	return filepath.Join(PreviewDir, fmt.Sprintf("%s@%s.jpg", name, dimensions))
}

func createPreview(i image.Image, path string, t ThumbOpts) (image.Point, error) {
	klog.V(1).Infof("creating %dx%d preview: %s - %+v", t.X, t.Y, path, i.Bounds())
	x := t.X
	y := t.Y

	if i.Bounds().Dy() == 0 {
		return image.Point{}, fmt.Errorf("no Y for %+v", i.Bounds())
	}

	if i.Bounds().Dx() == 0 {
		return image.Point{}, fmt.Errorf("no X for %+v", i.Bounds())
	}

	if t.X == 0 {
		scale := float64(i.Bounds().Dy()) / float64(t.Y)
		x = int(float64(i.Bounds().Dx()) / scale)
	}

	if t.Y == 0 {
		scale := float64(i.Bounds().Dx()) / float64(t.X)
		y = int(float64(i.Bounds().Dy()) / scale)
	}

	q := t.Quality
	if q <= 0 {
		q = defaultPreview.Quality
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return image.Point{}, fmt.Errorf("mkdir: %w", err)
	}

	rimg := transform.Resize(i, max(1, x), max(1, y), transform.Lanczos)
	if err := imgio.Save(path, rimg, imgio.JPEGEncoder(q)); err != nil {
		klog.Errorf("save failed: %s", err)
		return image.Point{}, fmt.Errorf("save: %w", err)
	}

	return image.Pt(rimg.Bounds().Dx(), rimg.Bounds().Dy()), nil
}
