package mosaik

import (
	"time"

	"github.com/tstromberg/mosaik/pkg/layout"
)

// Image represents a source photo with the metadata layout needs.
type Image struct {
	InPath  string
	RelPath string
	ModTime time.Time
	Taken   time.Time

	Width  int
	Height int

	// Angle is the clockwise rotation applied inside its cell.
	Angle float64
}

// Photo converts i for template selection.
func (i *Image) Photo() layout.Photo {
	return layout.Photo{Width: i.Width, Height: i.Height, Angle: i.Angle, CapturedAt: i.Taken}
}

// Album represents the photos of one input directory.
type Album struct {
	StartTime time.Time
	EndTime   time.Time

	InPath string
	Title  string

	Images []*Image
	Sheets []*Sheet
}

// Sheet is one collage: up to nine photos from an album.
type Sheet struct {
	Name   string
	Album  *Album
	Images []*Image
}

// Output describes a written collage.
type Output struct {
	Path       string
	Preview    string
	TemplateID string
	Width      int
	Height     int
	Bytes      int
}
