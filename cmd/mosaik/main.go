// mosaik renders photo albums into collage sheets.
package main

import (
	"context"
	"flag"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/tstromberg/mosaik/pkg/composite"
	"github.com/tstromberg/mosaik/pkg/mosaik"
)

var (
	inDirs      = flag.String("in", "", "Comma-separated input directories")
	outDir      = flag.String("out", "", "Location of output directory")
	preset      = flag.String("preset", "", "YAML preset to load before flags are applied")
	name        = flag.String("name", "", "Prefix for output file names")
	dateSuffix  = flag.Bool("date-suffix", false, "append the album start date to output names")
	format      = flag.String("format", "", "output format: jpeg or png")
	quality     = flag.Int("quality", 0, "JPEG quality (1-100)")
	width       = flag.Int("width", 0, "output width in pixels")
	height      = flag.Int("height", 0, "output height in pixels")
	gap         = flag.Int("gap", -1, "gap between cells in pixels")
	template    = flag.String("template", "", "template id, or auto")
	fit         = flag.String("fit", "", "cover or contain")
	bg          = flag.String("bg", "", "background color, as #rrggbb")
	filter      = flag.String("filter", "", "filter preset or chain, such as sepia(80%)")
	vignette    = flag.Float64("vignette", 0, "vignette strength; 0 disables")
	dateStamp   = flag.String("date-stamp", "", "date stamp corner, such as bottom-left")
	wmType      = flag.String("watermark", "", "watermark type: none, text, datetime, copyright")
	wmText      = flag.String("watermark-text", "", "watermark text")
	wmPosition  = flag.String("watermark-position", "", "watermark position: center, tiled or a corner")
	wmOpacity   = flag.Float64("watermark-opacity", 0, "watermark opacity")
	locale      = flag.String("locale", "", "locale for printed dates")
	keepOrig    = flag.Bool("keep-originals", false, "copy source photos into the output directory")
	listen      = flag.Bool("listen", false, "serve content via HTTP")
	addr        = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
	watchFlag   = flag.Bool("watch", false, "watch for changes to input directories and rebuild")
	timeoutFlag = flag.Duration("timeout", 5*time.Minute, "how long to wait for each render")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		klog.V(1).Infof("loaded .env")
	}

	c := mosaik.DefaultConfig()
	if *preset != "" {
		if err := mosaik.LoadPreset(*preset, c); err != nil {
			klog.Exitf("preset: %v", err)
		}
	}
	if err := mosaik.ApplyEnv(c); err != nil {
		klog.Exitf("env: %v", err)
	}
	if err := applyFlags(c); err != nil {
		klog.Exitf("flags: %v", err)
	}

	if len(c.InDirs) == 0 {
		klog.Exitf("--in is a required flag")
	}
	if c.OutDir == "" {
		klog.Exitf("--out is a required flag")
	}
	if err := c.Validate(); err != nil {
		klog.Exitf("config: %v", err)
	}

	a, err := build(c)
	if err != nil {
		klog.Exitf("build failed: %v", err)
	}

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(c, a); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(c.OutDir, *addr)
		}()
	}

	wg.Wait()
}

// applyFlags copies explicitly set flags onto c.
func applyFlags(c *mosaik.Config) error {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *inDirs != "" {
		c.InDirs = nil
		for _, d := range strings.Split(*inDirs, ",") {
			if d = strings.TrimSpace(d); d != "" {
				c.InDirs = append(c.InDirs, d)
			}
		}
	}
	if *outDir != "" {
		c.OutDir = *outDir
	}
	if *name != "" {
		c.Name = *name
	}
	if set["date-suffix"] {
		c.DateSuffix = *dateSuffix
	}
	if *format != "" {
		f, err := mosaik.ParseFormat(*format)
		if err != nil {
			return err
		}
		c.Format = f
	}
	if *quality > 0 {
		c.Quality = *quality
	}
	if *width > 0 {
		c.Layout.OutputWidth = *width
	}
	if *height > 0 {
		c.Layout.OutputHeight = *height
	}
	if *gap >= 0 {
		c.Layout.Gap = *gap
	}
	if *template != "" {
		c.Layout.TemplateID = *template
	}
	if *fit != "" {
		c.Composite.FitMode = composite.FitMode(*fit)
	}
	if *bg != "" {
		c.Composite.Background = *bg
	}
	if *filter != "" {
		if _, err := composite.ParseFilter(*filter); err != nil {
			return err
		}
		c.Composite.Filter = *filter
	}
	if set["vignette"] {
		c.Composite.Vignette = composite.Vignette{Enabled: *vignette > 0, Strength: *vignette}
	}
	if *dateStamp != "" {
		c.Composite.Stamp.Enabled = *dateStamp != "none"
		if c.Composite.Stamp.Enabled {
			c.Composite.Stamp.Position = composite.Corner(*dateStamp)
		}
	}
	if *wmType != "" {
		c.Watermark.Type = composite.WatermarkType(*wmType)
	}
	if *wmText != "" {
		c.Watermark.Text = *wmText
	}
	if *wmPosition != "" {
		c.Watermark.Position = composite.WatermarkPosition(*wmPosition)
	}
	if *wmOpacity > 0 {
		c.Watermark.Opacity = *wmOpacity
	}
	if *locale != "" {
		c.Locale = *locale
	}
	if set["keep-originals"] {
		c.KeepOriginals = *keepOrig
	}
	return nil
}

// build collects and renders every album.
func build(c *mosaik.Config) (*mosaik.Assembly, error) {
	a, err := mosaik.Collect(c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	outs, err := mosaik.Render(ctx, c, a)
	if err != nil {
		return a, err
	}
	klog.Infof("rendered %d sheets from %d photos", len(outs), len(a.Images))
	return a, nil
}

// serve serves a static web directory via HTTP
func serve(path string, addr string) {
	fs := http.FileServer(http.Dir(path))
	http.Handle("/", fs)

	klog.Infof("Listening on %s...", addr)
	err := http.ListenAndServe(addr, nil)
	if err != nil {
		klog.Exitf("listen failed: %v", err)
	}
}

// watch watches the input directories for changes and rebuilds
func watch(c *mosaik.Config, a *mosaik.Assembly) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				klog.V(1).Infof("event: %s", event)
				if strings.HasPrefix(filepath.Base(event.Name), ".") || c.IsOutput(event.Name) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					if _, err := build(c); err != nil {
						klog.Errorf("rebuild failed: %v", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				klog.Errorf("watch error: %v", err)
			}
		}
	}()

	dirs := slices.Clone(c.InDirs)
	for _, i := range a.Images {
		dirs = append(dirs, filepath.Dir(i.InPath))
	}
	dirs = slices.DeleteFunc(dirs, c.IsOutput)
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}

	<-make(chan struct{})
	return nil
}
