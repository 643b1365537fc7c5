package mosaik

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func read(path string, et *exiftool.Exiftool) (Image, error) {
	fis := et.ExtractMetadata(path)
	fi := fis[0]
	i := Image{}
	var err error

	if fi.Err != nil {
		return i, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v\n", k, v)
	}

	h, err := fi.GetInt("ImageHeight")
	if err != nil {
		return i, fmt.Errorf("get ImageHeight: %w", err)
	}

	w, err := fi.GetInt("ImageWidth")
	if err != nil {
		return i, fmt.Errorf("get ImageWidth: %w", err)
	}
	i.Width, i.Height = int(w), int(h)

	// Decoders ignore EXIF orientation, so the stored dimensions are what gets drawn.
	if o, err := fi.GetString("Orientation"); err == nil {
		klog.V(2).Infof("%s orientation: %s", path, o)
	}

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
		return i, nil
	}

	i.Taken, err = time.Parse(exifDate, ds)
	if err != nil {
		return i, fmt.Errorf("parse time %q: %w", ds, err)
	}

	return i, nil
}

// probe reads dimensions from the file header when exiftool is unavailable.
func probe(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return Image{}, fmt.Errorf("decode config: %w", err)
	}
	return Image{Width: ic.Width, Height: ic.Height}, nil
}

// Find returns the photos under root, skipping any directory within skip.
func Find(root string, skip ...string) ([]*Image, error) {
	found := []*Image{}

	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Warningf("exiftool unavailable, capture dates disabled: %v", err)
		et = nil
	} else {
		defer et.Close()
	}

	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if filepath.Base(path)[0] == '.' && path != root {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}

			if de.IsDir() && path != root {
				for _, d := range skip {
					if within(path, d) {
						klog.V(1).Infof("skipping %s", path)
						return godirwalk.SkipThis
					}
				}
			}

			if de.IsDir() || !photoExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			klog.V(1).Infof("found %s", path)
			var i Image
			var err error
			if et != nil {
				i, err = read(path, et)
			} else {
				i, err = probe(path)
			}
			if err != nil {
				klog.Errorf("read failure: %v", err)
				return err
			}

			i.InPath = path
			i.RelPath, err = filepath.Rel(root, path)
			if err != nil {
				return err
			}

			fi, err := os.Stat(path)
			if err != nil {
				klog.Errorf("stat failure: %v", err)
				return err
			}
			i.ModTime = fi.ModTime()

			found = append(found, &i)
			return nil
		},
	})

	return found, err
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	ap, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	ad, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(ad, ap)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
