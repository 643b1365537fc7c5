package export

import (
	"errors"
	"fmt"

	"github.com/tstromberg/mosaik/pkg/catalog"
	"github.com/tstromberg/mosaik/pkg/layout"
)

var (
	// ErrEmptyPhotoSet is returned when there is nothing to export.
	ErrEmptyPhotoSet = layout.ErrEmptyPhotoSet
	// ErrUnsupportedPhotoCount is returned for layouts outside the catalog.
	ErrUnsupportedPhotoCount = catalog.ErrUnsupportedPhotoCount
	// ErrUnsupportedFormat is returned for output formats other than jpeg and png.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrPhotoCount is returned when the photo count differs from the layout's cell count.
	ErrPhotoCount = errors.New("photo count does not match layout")
	// ErrAlreadyRun is returned when a Job is run twice.
	ErrAlreadyRun = errors.New("export already run")
	// ErrBackgroundUnavailable means the background unit could not be started.
	// Run recovers from it by compositing inline.
	ErrBackgroundUnavailable = errors.New("background compositing unavailable")
)

// DecodeError reports a photo whose bytes could not be decoded.
type DecodeError struct {
	Index int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode photo %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a failure to encode the finished canvas.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Kind classifies export errors for presentation.
type Kind int

const (
	KindNone Kind = iota
	KindEmptyPhotoSet
	KindUnsupportedPhotoCount
	KindPhotoDecodeFailed
	KindEncodeFailed
	KindInvalidInput
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEmptyPhotoSet:
		return "EmptyPhotoSet"
	case KindUnsupportedPhotoCount:
		return "UnsupportedPhotoCount"
	case KindPhotoDecodeFailed:
		return "PhotoDecodeFailed"
	case KindEncodeFailed:
		return "EncodeFailed"
	case KindInvalidInput:
		return "InvalidInput"
	}
	return "Unknown"
}

// KindOf maps err onto a Kind.
func KindOf(err error) Kind {
	var de *DecodeError
	var ee *EncodeError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyPhotoSet):
		return KindEmptyPhotoSet
	case errors.Is(err, ErrUnsupportedPhotoCount):
		return KindUnsupportedPhotoCount
	case errors.As(err, &de):
		return KindPhotoDecodeFailed
	case errors.As(err, &ee):
		return KindEncodeFailed
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrPhotoCount), errors.Is(err, ErrAlreadyRun):
		return KindInvalidInput
	}
	return KindUnknown
}
