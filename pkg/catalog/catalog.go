// Package catalog holds the fixed set of grid templates, indexed by photo count.
package catalog

import (
	"errors"
	"fmt"
)

// Version identifies the template table. Bump it when slots change.
const Version = 1

// MaxPhotos is the largest photo count with a template.
const MaxPhotos = 9

// ErrUnsupportedPhotoCount is returned for counts with no templates.
var ErrUnsupportedPhotoCount = errors.New("unsupported photo count")

// Slot is a 1-based, end-exclusive area of a template grid.
type Slot struct {
	RowStart int
	RowEnd   int
	ColStart int
	ColEnd   int
}

// Template is a named grid with one slot per photo.
type Template struct {
	ID         string
	PhotoCount int
	BaseRows   int
	BaseCols   int
	Slots      []Slot
}

func s(rs, re, cs, ce int) Slot {
	return Slot{RowStart: rs, RowEnd: re, ColStart: cs, ColEnd: ce}
}

func grid(rows, cols int) []Slot {
	out := []Slot{}
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			out = append(out, s(r, r+1, c, c+1))
		}
	}
	return out
}

var templates = []Template{
	{ID: "1A", BaseRows: 1, BaseCols: 1, Slots: grid(1, 1)},

	{ID: "2H", BaseRows: 1, BaseCols: 2, Slots: grid(1, 2)},
	{ID: "2V", BaseRows: 2, BaseCols: 1, Slots: grid(2, 1)},

	{ID: "3T", BaseRows: 2, BaseCols: 2, Slots: []Slot{s(1, 2, 1, 3), s(2, 3, 1, 2), s(2, 3, 2, 3)}},
	{ID: "3L", BaseRows: 2, BaseCols: 2, Slots: []Slot{s(1, 3, 1, 2), s(1, 2, 2, 3), s(2, 3, 2, 3)}},

	{ID: "4G", BaseRows: 2, BaseCols: 2, Slots: grid(2, 2)},
	{ID: "4T", BaseRows: 2, BaseCols: 3, Slots: []Slot{s(1, 2, 1, 4), s(2, 3, 1, 2), s(2, 3, 2, 3), s(2, 3, 3, 4)}},
	{ID: "4L", BaseRows: 3, BaseCols: 2, Slots: []Slot{s(1, 4, 1, 2), s(1, 2, 2, 3), s(2, 3, 2, 3), s(3, 4, 2, 3)}},

	{ID: "5T", BaseRows: 2, BaseCols: 6, Slots: []Slot{s(1, 2, 1, 4), s(1, 2, 4, 7), s(2, 3, 1, 3), s(2, 3, 3, 5), s(2, 3, 5, 7)}},
	{ID: "5L", BaseRows: 2, BaseCols: 3, Slots: []Slot{s(1, 3, 1, 2), s(1, 2, 2, 3), s(1, 2, 3, 4), s(2, 3, 2, 3), s(2, 3, 3, 4)}},

	{ID: "6H", BaseRows: 2, BaseCols: 3, Slots: grid(2, 3)},
	{ID: "6V", BaseRows: 3, BaseCols: 2, Slots: grid(3, 2)},

	{ID: "7T", BaseRows: 3, BaseCols: 3, Slots: append([]Slot{s(1, 2, 1, 4)}, shift(grid(2, 3), 1)...)},

	{ID: "8T", BaseRows: 4, BaseCols: 6, Slots: []Slot{
		s(1, 3, 1, 4), s(1, 3, 4, 7),
		s(3, 5, 1, 2), s(3, 5, 2, 3), s(3, 5, 3, 4), s(3, 5, 4, 5), s(3, 5, 5, 6), s(3, 5, 6, 7),
	}},

	{ID: "9G", BaseRows: 3, BaseCols: 3, Slots: grid(3, 3)},
}

// shift moves slots down by n rows.
func shift(slots []Slot, n int) []Slot {
	for i := range slots {
		slots[i].RowStart += n
		slots[i].RowEnd += n
	}
	return slots
}

var byCount = index(templates)

func index(ts []Template) map[int][]Template {
	m := map[int][]Template{}
	for i := range ts {
		ts[i].PhotoCount = len(ts[i].Slots)
		m[ts[i].PhotoCount] = append(m[ts[i].PhotoCount], ts[i])
	}
	return m
}

func (t Template) clone() Template {
	c := t
	c.Slots = append([]Slot(nil), t.Slots...)
	return c
}

// ForCount returns the templates for n photos, in catalog order.
func ForCount(n int) ([]Template, error) {
	ts := byCount[n]
	if len(ts) == 0 {
		return nil, fmt.Errorf("%d photos: %w", n, ErrUnsupportedPhotoCount)
	}
	out := make([]Template, len(ts))
	for i, t := range ts {
		out[i] = t.clone()
	}
	return out, nil
}

// Lookup finds a template by ID among those for n photos.
func Lookup(n int, id string) (Template, bool) {
	for _, t := range byCount[n] {
		if t.ID == id {
			return t.clone(), true
		}
	}
	return Template{}, false
}

// All returns every template in catalog order.
func All() []Template {
	out := make([]Template, len(templates))
	for i, t := range templates {
		out[i] = t.clone()
	}
	return out
}
