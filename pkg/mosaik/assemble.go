package mosaik

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/tstromberg/mosaik/pkg/catalog"
)

// an Assembly is an assembled collection of images.
type Assembly struct {
	Images []*Image
	Albums []*Album
}

// Sheets returns every sheet in album order.
func (a *Assembly) Sheets() []*Sheet {
	ss := []*Sheet{}
	for _, al := range a.Albums {
		ss = append(ss, al.Sheets...)
	}
	return ss
}

// Collect collects an assembly of photos
func Collect(c *Config) (*Assembly, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var skip []string
	if c.OutDir != "" {
		skip = append(skip, c.OutDir)
	}

	labels := rootLabels(c.InDirs)
	is := []*Image{}
	for k, d := range c.InDirs {
		klog.Infof("collect: %s", d)
		found, err := Find(d, skip...)
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		// With several roots, relative paths are kept apart by a root prefix.
		if len(c.InDirs) > 1 {
			for _, i := range found {
				i.RelPath = filepath.Join(labels[k], i.RelPath)
			}
		}
		is = append(is, found...)
	}
	return assemble(c, is), nil
}

// rootLabels names each input root by its base name, numbering repeats.
func rootLabels(dirs []string) []string {
	seen := map[string]int{}
	out := make([]string, len(dirs))
	for k, d := range dirs {
		b := filepath.Base(filepath.Clean(d))
		if abs, err := filepath.Abs(d); err == nil {
			b = filepath.Base(abs)
		}
		seen[b]++
		if n := seen[b]; n > 1 {
			b = fmt.Sprintf("%s-%d", b, n)
		}
		out[k] = b
	}
	return out
}

func assemble(c *Config, is []*Image) *Assembly {
	albums := map[string]*Album{}
	for _, i := range is {
		rd := filepath.Dir(i.RelPath)
		if albums[rd] == nil {
			albums[rd] = &Album{
				InPath: rd,
				Images: []*Image{},
				Title:  filepath.Base(rd),
			}
		}
		albums[rd].Images = append(albums[rd].Images, i)
	}

	as := []*Album{}
	for _, a := range albums {
		sort.SliceStable(a.Images, func(i, j int) bool {
			x, y := a.Images[i], a.Images[j]
			if !x.Taken.Equal(y.Taken) {
				return x.Taken.Before(y.Taken)
			}
			return x.RelPath < y.RelPath
		})
		a.StartTime = a.Images[0].Taken
		a.EndTime = a.Images[len(a.Images)-1].Taken
		a.Sheets = split(c, a)
		as = append(as, a)
	}
	sort.Slice(as, func(i, j int) bool {
		return as[i].InPath < as[j].InPath
	})

	return &Assembly{Images: is, Albums: as}
}

// split divides an album into balanced sheets of at most catalog.MaxPhotos.
func split(c *Config, a *Album) []*Sheet {
	n := (len(a.Images) + catalog.MaxPhotos - 1) / catalog.MaxPhotos
	base := c.Name
	if a.InPath != "." {
		base = base + "-" + strings.ReplaceAll(a.InPath, string(filepath.Separator), "-")
	}
	if c.DateSuffix && !a.StartTime.IsZero() {
		base = withDate(base, a.StartTime)
	}

	ss := make([]*Sheet, 0, n)
	start := 0
	for k := 0; k < n; k++ {
		size := len(a.Images) / n
		if k < len(a.Images)%n {
			size++
		}
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d", base, k+1)
		}
		ss = append(ss, &Sheet{
			Name:   SanitizeName(name, DefaultName),
			Album:  a,
			Images: a.Images[start : start+size],
		})
		start += size
	}
	return ss
}
