package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tstromberg/mosaik/pkg/composite"
	"github.com/tstromberg/mosaik/pkg/layout"
)

func encoded(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := composite.NewCanvas(w, h, c)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func fixture(t *testing.T) (*layout.Layout, []Photo) {
	t.Helper()
	colors := []color.Color{
		color.RGBA{R: 200, A: 255},
		color.RGBA{G: 200, A: 255},
		color.RGBA{B: 200, A: 255},
	}
	dims := [][2]int{{150, 100}, {100, 150}, {120, 120}}
	photos := make([]Photo, len(colors))
	lps := make([]layout.Photo, len(colors))
	for i, c := range colors {
		photos[i] = Photo{
			Data:       encoded(t, dims[i][0], dims[i][1], c),
			Angle:      float64(i * 15),
			CapturedAt: time.Date(2023, time.Month(i+1), 5, 10, 0, 0, 0, time.UTC),
		}
		lps[i] = layout.Photo{Width: dims[i][0], Height: dims[i][1]}
	}
	l, err := layout.Select(lps, layout.Options{Gap: 4, OutputWidth: 360, OutputHeight: 450})
	if err != nil {
		t.Fatalf("layout.Select: %v", err)
	}
	return l, photos
}

func options() Options {
	o := Options{Format: PNG, Composite: composite.DefaultOptions()}
	o.Composite.Vignette.Enabled = true
	o.Composite.Stamp.Enabled = true
	o.Composite.Filter = "vintage"
	o.Watermark = composite.Watermark{Type: composite.WatermarkCopyright, Text: "Ana", Position: composite.WatermarkTiled}
	return o
}

func TestSyncAndBackgroundMatch(t *testing.T) {
	l, photos := fixture(t)
	o := options()

	sync, err := CompositeSync(l, photos, o)
	if err != nil {
		t.Fatalf("CompositeSync: %v", err)
	}
	bg, err := CompositeAsync(context.Background(), l, photos, o)
	if err != nil {
		t.Fatalf("CompositeAsync: %v", err)
	}
	if !bg.Background || sync.Background {
		t.Errorf("Background flags: async=%v sync=%v", bg.Background, sync.Background)
	}
	if !bytes.Equal(sync.Data, bg.Data) {
		t.Errorf("background output differs from inline output")
	}
	if sync.MIME != "image/png" || sync.Width != 360 || sync.Height != 450 {
		t.Errorf("result = %s %dx%d", sync.MIME, sync.Width, sync.Height)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(sync.Data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "png" || cfg.Width != 360 || cfg.Height != 450 {
		t.Errorf("decoded %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestFallbackWhenBackgroundUnavailable(t *testing.T) {
	l, photos := fixture(t)
	o := options()
	var calls int32
	o.Launcher = func(func()) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("no workers")
	}

	res, err := Export(context.Background(), l, photos, o)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Background {
		t.Errorf("result claims background path")
	}
	if calls != 1 {
		t.Errorf("launcher called %d times, want 1", calls)
	}

	o.Launcher = nil
	o.Inline = true
	want, err := Export(context.Background(), l, photos, o)
	if err != nil {
		t.Fatalf("Export inline: %v", err)
	}
	if !bytes.Equal(res.Data, want.Data) {
		t.Errorf("fallback output differs from inline output")
	}
}

func TestFallbackWhenBackgroundPanics(t *testing.T) {
	l, photos := fixture(t)
	o := options()

	orig := backgroundDecoder
	backgroundDecoder = func([]Photo) ([]image.Image, error) { panic("decoder exploded") }
	t.Cleanup(func() { backgroundDecoder = orig })

	res, err := Export(context.Background(), l, photos, o)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Background {
		t.Errorf("result claims background path")
	}

	o.Inline = true
	want, err := Export(context.Background(), l, photos, o)
	if err != nil {
		t.Fatalf("Export inline: %v", err)
	}
	if !bytes.Equal(res.Data, want.Data) {
		t.Errorf("fallback output differs from inline output")
	}
}

func TestDecodeFailure(t *testing.T) {
	l, photos := fixture(t)
	photos[1].Data = []byte("definitely not an image")

	for _, inline := range []bool{true, false} {
		o := options()
		o.Inline = inline
		_, err := Export(context.Background(), l, photos, o)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("inline=%v: error = %v, want DecodeError", inline, err)
		}
		if de.Index != 1 {
			t.Errorf("inline=%v: DecodeError.Index = %d, want 1", inline, de.Index)
		}
		if KindOf(err) != KindPhotoDecodeFailed {
			t.Errorf("KindOf = %v", KindOf(err))
		}
	}
}

// explosive is an image format whose decoder panics.
const explosive = "BOOM!"

func init() {
	image.RegisterFormat("boom", explosive,
		func(io.Reader) (image.Image, error) { panic("decoder exploded") },
		func(io.Reader) (image.Config, error) { panic("decoder exploded") })
}

func TestDecoderPanic(t *testing.T) {
	l, photos := fixture(t)
	photos[1].Data = []byte(explosive + "payload")

	for _, inline := range []bool{true, false} {
		o := options()
		o.Inline = inline
		res, err := Export(context.Background(), l, photos, o)
		if res != nil {
			t.Errorf("inline=%v: got a result from a failed decode", inline)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("inline=%v: error = %v, want DecodeError", inline, err)
		}
		if de.Index != 1 {
			t.Errorf("inline=%v: DecodeError.Index = %d, want 1", inline, de.Index)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Idle, "idle"},
		{Running, "running"},
		{Succeeded, "succeeded"},
		{Failed, "failed"},
		{State(42), "State(42)"},
		{State(-1), "State(-1)"},
	}
	for _, tc := range tests {
		if got := tc.s.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tc.s), got, tc.want)
		}
	}
}

func TestInvalidInput(t *testing.T) {
	l, photos := fixture(t)
	tests := []struct {
		name   string
		layout *layout.Layout
		photos []Photo
		format Format
		want   error
		kind   Kind
	}{
		{name: "nil layout", layout: nil, photos: photos, want: ErrEmptyPhotoSet, kind: KindEmptyPhotoSet},
		{name: "no photos", layout: l, photos: nil, want: ErrEmptyPhotoSet, kind: KindEmptyPhotoSet},
		{name: "too few photos", layout: l, photos: photos[:2], want: ErrPhotoCount, kind: KindInvalidInput},
		{name: "too many photos", layout: l, photos: append(append([]Photo(nil), photos...), photos[0]), want: ErrPhotoCount, kind: KindInvalidInput},
		{name: "bad format", layout: l, photos: photos, format: "gif", want: ErrUnsupportedFormat, kind: KindInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := options()
			if tc.format != "" {
				o.Format = tc.format
			}
			_, err := Export(context.Background(), tc.layout, tc.photos, o)
			if !errors.Is(err, tc.want) {
				t.Errorf("Export() error = %v, want %v", err, tc.want)
			}
			if got := KindOf(err); got != tc.kind {
				t.Errorf("KindOf() = %v, want %v", got, tc.kind)
			}
		})
	}
}

func TestJobStates(t *testing.T) {
	l, photos := fixture(t)
	j := NewJob(l, photos, options())
	if j.State() != Idle {
		t.Fatalf("initial state = %v", j.State())
	}
	if _, err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if j.State() != Succeeded {
		t.Errorf("state = %v, want %v", j.State(), Succeeded)
	}
	if _, err := j.Run(context.Background()); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("second Run error = %v, want %v", err, ErrAlreadyRun)
	}

	bad := NewJob(nil, nil, options())
	if _, err := bad.Run(context.Background()); err == nil {
		t.Fatalf("Run on empty job succeeded")
	}
	if bad.State() != Failed {
		t.Errorf("state = %v, want %v", bad.State(), Failed)
	}
}

func TestWatermarkNoneMatchesOmitted(t *testing.T) {
	l, photos := fixture(t)
	a := options()
	a.Inline = true
	a.Watermark = composite.Watermark{}
	b := a
	b.Watermark = composite.Watermark{Type: composite.WatermarkNone, Text: "ignored", Position: composite.WatermarkCenter}

	ra, err := Export(context.Background(), l, photos, a)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	rb, err := Export(context.Background(), l, photos, b)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(ra.Data, rb.Data) {
		t.Errorf("watermark type none changed the output")
	}
}

func TestDateFormatterCalledOncePerPhoto(t *testing.T) {
	l, photos := fixture(t)
	photos[2].CapturedAt = time.Time{}
	o := options()
	var calls int32
	o.FormatDate = func(t time.Time) string {
		atomic.AddInt32(&calls, 1)
		return t.Format("2006-01-02")
	}
	if _, err := Export(context.Background(), l, photos, o); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if calls != 2 {
		t.Errorf("formatter called %d times, want 2", calls)
	}
}

func TestJPEG(t *testing.T) {
	l, photos := fixture(t)
	o := options()
	o.Format = JPEG
	o.Quality = 0
	res, err := Export(context.Background(), l, photos, o)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.MIME != "image/jpeg" || res.Format.Extension() != "jpg" {
		t.Errorf("result %s / %s", res.MIME, res.Format.Extension())
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(res.Data)); err != nil || format != "jpeg" {
		t.Errorf("DecodeConfig = %s, %v", format, err)
	}
}

func TestContextCancelled(t *testing.T) {
	l, photos := fixture(t)
	o := options()
	o.Launcher = func(func()) error { return nil } // never runs the task
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Export(ctx, l, photos, o); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() error = %v, want %v", err, context.Canceled)
	}
}
