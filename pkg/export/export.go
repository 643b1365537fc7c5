// Package export turns a layout and its photos into one encoded image.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/imgio"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/mosaik/pkg/catalog"
	"github.com/tstromberg/mosaik/pkg/composite"
	"github.com/tstromberg/mosaik/pkg/layout"
)

// Format is an output encoding.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"

	DefaultQuality = 92

	// DateLayout is used for date stamps when no formatter is supplied.
	DateLayout = "Jan 2, 2006"
)

// MIME is the media type of the format.
func (f Format) MIME() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	}
	return ""
}

// Extension is the usual file suffix, without the dot.
func (f Format) Extension() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// Photo is one encoded source photo.
type Photo struct {
	Data       []byte
	Angle      float64
	CapturedAt time.Time
}

// Launcher starts task on some other unit of execution, or reports why it cannot.
type Launcher func(task func()) error

func goLauncher(task func()) error {
	go task()
	return nil
}

// Options control encoding and compositing.
type Options struct {
	Format    Format
	Quality   int
	Composite composite.Options
	Watermark composite.Watermark

	// FormatDate renders capture dates for the date stamp.
	FormatDate func(time.Time) string
	// Launcher runs the background unit; nil means a goroutine.
	Launcher Launcher
	// Inline skips the background unit.
	Inline bool
}

// Result is a finished export.
type Result struct {
	Data       []byte
	Format     Format
	MIME       string
	Width      int
	Height     int
	Background bool
}

// State is where a Job is in its lifecycle.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Job is a single export.
type Job struct {
	mu     sync.Mutex
	state  State
	layout *layout.Layout
	photos []Photo
	opts   Options
}

// NewJob prepares an export of photos arranged by l.
func NewJob(l *layout.Layout, photos []Photo, o Options) *Job {
	return &Job{layout: l, photos: photos, opts: o}
}

// State returns the current state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// Run composites and encodes. The background unit is tried first unless
// Options.Inline is set; any failure there falls back to compositing inline.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	j.mu.Lock()
	if j.state != Idle {
		j.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	j.state = Running
	j.mu.Unlock()

	var res *Result
	var err error
	if j.opts.Inline {
		res, err = CompositeSync(j.layout, j.photos, j.opts)
	} else {
		res, err = CompositeAsync(ctx, j.layout, j.photos, j.opts)
	}
	if err != nil {
		j.setState(Failed)
		return nil, err
	}
	j.setState(Succeeded)
	return res, nil
}

// Export runs a new Job.
func Export(ctx context.Context, l *layout.Layout, photos []Photo, o Options) (*Result, error) {
	return NewJob(l, photos, o).Run(ctx)
}

// input is a validated, self-contained export request.
type input struct {
	layout *layout.Layout
	photos []Photo
	dates  []string
	opts   Options
}

func prepare(l *layout.Layout, photos []Photo, o Options) (*input, error) {
	if l == nil || len(l.Cells) == 0 || len(photos) == 0 {
		return nil, ErrEmptyPhotoSet
	}
	if len(l.Cells) > catalog.MaxPhotos {
		return nil, fmt.Errorf("%d cells: %w", len(l.Cells), ErrUnsupportedPhotoCount)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if len(photos) != l.PhotoOrder.Len() {
		return nil, fmt.Errorf("%d photos for %d cells: %w", len(photos), l.PhotoOrder.Len(), ErrPhotoCount)
	}

	if o.Format == "" {
		o.Format = JPEG
	}
	if o.Format.MIME() == "" {
		return nil, fmt.Errorf("%q: %w", o.Format, ErrUnsupportedFormat)
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	o.Composite = o.Composite.Normalize()
	o.Watermark = freeze(o.Watermark)

	in := &input{layout: l, photos: photos, dates: make([]string, len(photos)), opts: o}
	if o.Composite.Stamp.Enabled {
		format := o.FormatDate
		if format == nil {
			format = func(t time.Time) string { return t.Format(DateLayout) }
		}
		for i, p := range photos {
			if !p.CapturedAt.IsZero() {
				in.dates[i] = format(p.CapturedAt)
			}
		}
	}
	return in, nil
}

// freeze resolves watermark text once so both compositing paths draw the same thing.
func freeze(wm composite.Watermark) composite.Watermark {
	now := time.Now
	if wm.Now != nil {
		now = wm.Now
	}
	wm.Text = composite.ResolveWatermarkText(wm.Type, wm.Text, now(), wm.FormatTime)
	wm.Type = composite.WatermarkText
	wm.Now = nil
	wm.FormatTime = nil
	return wm
}

// clone deep-copies everything the background unit touches.
func (in *input) clone() *input {
	c := &input{
		layout: in.layout.Clone(),
		photos: make([]Photo, len(in.photos)),
		dates:  append([]string(nil), in.dates...),
		opts:   in.opts,
	}
	for i, p := range in.photos {
		p.Data = append([]byte(nil), p.Data...)
		c.photos[i] = p
	}
	return c
}

// CompositeSync composites and encodes on the calling goroutine.
func CompositeSync(l *layout.Layout, photos []Photo, o Options) (*Result, error) {
	in, err := prepare(l, photos, o)
	if err != nil {
		return nil, err
	}
	return in.run(decodeSerial)
}

// CompositeAsync composites in an isolated background unit, falling back to
// CompositeSync if the unit cannot start or fails.
func CompositeAsync(ctx context.Context, l *layout.Layout, photos []Photo, o Options) (*Result, error) {
	in, err := prepare(l, photos, o)
	if err != nil {
		return nil, err
	}

	res, err := in.clone().background(ctx)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("wait: %w", ctx.Err())
	}
	klog.V(1).Infof("background export failed, compositing inline: %v", err)
	return in.run(decodeSerial)
}

type message struct {
	res *Result
	err error
}

func (in *input) background(ctx context.Context) (*Result, error) {
	launch := in.opts.Launcher
	if launch == nil {
		launch = goLauncher
	}

	ch := make(chan message, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				select {
				case ch <- message{err: fmt.Errorf("panic: %v", r)}:
				default:
				}
			}
		}()
		res, err := in.run(backgroundDecoder)
		ch <- message{res: res, err: err}
	}
	if err := launch(task); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackgroundUnavailable, err)
	}

	select {
	case m := <-ch:
		if m.err != nil {
			return nil, m.err
		}
		m.res.Background = true
		return m.res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type decoder func([]Photo) ([]image.Image, error)

var backgroundDecoder decoder = decodeParallel

// decode rasterizes photo i. A panicking decoder is reported as a DecodeError.
func decode(i int, p Photo) (img image.Image, err error) {
	if len(p.Data) == 0 {
		return nil, &DecodeError{Index: i, Err: errors.New("no data")}
	}
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, &DecodeError{Index: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	img, _, err = image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, &DecodeError{Index: i, Err: err}
	}
	return img, nil
}

func decodeSerial(ps []Photo) ([]image.Image, error) {
	out := make([]image.Image, len(ps))
	for i, p := range ps {
		img, err := decode(i, p)
		if err != nil {
			return nil, err
		}
		out[i] = img
	}
	return out, nil
}

func decodeParallel(ps []Photo) ([]image.Image, error) {
	out := make([]image.Image, len(ps))
	var g errgroup.Group
	for i, p := range ps {
		g.Go(func() error {
			img, err := decode(i, p)
			if err != nil {
				return err
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (in *input) run(dec decoder) (*Result, error) {
	imgs, err := dec(in.photos)
	if err != nil {
		return nil, err
	}
	canvas, err := in.composite(imgs)
	if err != nil {
		return nil, err
	}
	return encode(canvas, in.opts.Format, in.opts.Quality)
}

func (in *input) composite(imgs []image.Image) (*image.RGBA, error) {
	l := in.layout
	o := in.opts.Composite
	bg := composite.ParseColor(o.Background)
	canvas := composite.NewCanvas(l.CanvasWidth, l.CanvasHeight, bg)

	for i, c := range l.Cells {
		p := l.PhotoOrder.At(i)
		if err := composite.DrawCell(canvas, imgs[p], c.Rect(), in.photos[p].Angle, in.dates[p], o); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}
	if err := composite.DrawWatermark(canvas, in.opts.Watermark, bg); err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	return canvas, nil
}

func encode(img image.Image, f Format, quality int) (*Result, error) {
	enc := imgio.PNGEncoder()
	if f == JPEG {
		enc = imgio.JPEGEncoder(quality)
	}
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		return nil, &EncodeError{Format: f, Err: err}
	}
	return &Result{
		Data:   buf.Bytes(),
		Format: f,
		MIME:   f.MIME(),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
