// layout prints the collage layout chosen for a set of photo sizes.
//
//	layout 4032x3024 3024x4032 3024x4032
//	layout --resize-col 0:120 --swap 0:1 1600x900 900x1600
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"k8s.io/klog/v2"

	"github.com/tstromberg/mosaik/pkg/catalog"
	"github.com/tstromberg/mosaik/pkg/layout"
	"github.com/tstromberg/mosaik/pkg/rotation"
)

var (
	templates = flag.Bool("templates", false, "list the template catalog and exit")
	width     = flag.Int("width", layout.DefaultWidth, "output width in pixels")
	height    = flag.Int("height", layout.DefaultHeight, "output height in pixels")
	gap       = flag.Int("gap", layout.DefaultGap, "gap between cells in pixels")
	template  = flag.String("template", layout.Auto, "template id, or auto")
	resizeCol = flag.String("resize-col", "", "move a column boundary, as boundary:pixels")
	resizeRow = flag.String("resize-row", "", "move a row boundary, as boundary:pixels")
	swap      = flag.String("swap", "", "swap the photos of two cells, as i:j")
	rotate    = flag.String("rotate", "", "rotate the photo in a cell by a step, as cell:degrees")
	point     = flag.String("point", "", "aim the photo in a cell at a canvas point, as cell:x,y")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *templates {
		listTemplates()
		return
	}

	if flag.NArg() == 0 {
		klog.Exitf("usage: layout [flags] WxH...")
	}

	ps := []layout.Photo{}
	for _, arg := range flag.Args() {
		p, err := parsePhoto(arg)
		if err != nil {
			klog.Exitf("%s: %v", arg, err)
		}
		ps = append(ps, p)
	}

	l, err := layout.Select(ps, layout.Options{Gap: *gap, OutputWidth: *width, OutputHeight: *height, TemplateID: *template})
	if err != nil {
		klog.Exitf("select failed: %v", err)
	}

	if *resizeCol != "" {
		b, d, err := parsePair(*resizeCol)
		if err != nil {
			klog.Exitf("--resize-col: %v", err)
		}
		if err := l.ResizeColumn(int(b), d); err != nil {
			klog.Exitf("resize column: %v", err)
		}
	}
	if *resizeRow != "" {
		b, d, err := parsePair(*resizeRow)
		if err != nil {
			klog.Exitf("--resize-row: %v", err)
		}
		if err := l.ResizeRow(int(b), d); err != nil {
			klog.Exitf("resize row: %v", err)
		}
	}
	if *swap != "" {
		i, j, err := parsePair(*swap)
		if err != nil {
			klog.Exitf("--swap: %v", err)
		}
		if err := l.SwapCells(int(i), int(j)); err != nil {
			klog.Exitf("swap: %v", err)
		}
	}

	if *rotate != "" {
		k, d, err := parsePair(*rotate)
		if err != nil {
			klog.Exitf("--rotate: %v", err)
		}
		p := &ps[photoAt(l, k)]
		p.SetAngle(rotation.Step(p.Angle, d))
	}
	if *point != "" {
		if err := aim(l, ps, *point); err != nil {
			klog.Exitf("--point: %v", err)
		}
	}

	if err := l.Validate(); err != nil {
		klog.Errorf("layout is inconsistent: %v", err)
	}
	printLayout(l, ps)
}

// parsePhoto parses WIDTHxHEIGHT with an optional @angle suffix.
func parsePhoto(s string) (layout.Photo, error) {
	var p layout.Photo
	dims, angle, rotated := strings.Cut(s, "@")
	w, h, ok := strings.Cut(dims, "x")
	if !ok {
		return p, fmt.Errorf("want WIDTHxHEIGHT")
	}
	var err error
	if p.Width, err = strconv.Atoi(w); err != nil {
		return p, fmt.Errorf("width: %w", err)
	}
	if p.Height, err = strconv.Atoi(h); err != nil {
		return p, fmt.Errorf("height: %w", err)
	}
	if rotated {
		deg, err := strconv.ParseFloat(angle, 64)
		if err != nil {
			return p, fmt.Errorf("angle: %w", err)
		}
		p.SetAngle(deg)
	}
	return p, nil
}

// photoAt returns the photo index shown in cell k.
func photoAt(l *layout.Layout, k int64) int {
	if k < 0 || int(k) >= len(l.Cells) {
		klog.Exitf("cell %d out of range [0,%d)", k, len(l.Cells))
	}
	return l.PhotoOrder.At(int(k))
}

// aim sets the angle of a cell's photo so its top faces the point "cell:x,y".
func aim(l *layout.Layout, ps []layout.Photo, s string) error {
	cs, xy, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("%q: want cell:x,y", s)
	}
	k, err := strconv.ParseInt(cs, 10, 64)
	if err != nil {
		return err
	}
	xs, ys, ok := strings.Cut(xy, ",")
	if !ok {
		return fmt.Errorf("%q: want x,y", xy)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return err
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return err
	}
	i := photoAt(l, k)
	c := l.Cells[k]
	cx := float64(c.X) + float64(c.Width)/2
	cy := float64(c.Y) + float64(c.Height)/2
	ps[i].SetAngle(rotation.AngleFromPointer(cx, cy, x, y))
	return nil
}

func parsePair(s string) (int64, float64, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q: want a:b", s)
	}
	i, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	f, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, err
	}
	return i, f, nil
}

func listTemplates() {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tPHOTOS\tGRID\tSLOTS\n")
	for _, t := range catalog.All() {
		slots := []string{}
		for _, s := range t.Slots {
			slots = append(slots, fmt.Sprintf("r%d-%d/c%d-%d", s.RowStart, s.RowEnd, s.ColStart, s.ColEnd))
		}
		fmt.Fprintf(tw, "%s\t%d\t%dx%d\t%s\n", t.ID, t.PhotoCount, t.BaseRows, t.BaseCols, strings.Join(slots, " "))
	}
	tw.Flush()
}

func printLayout(l *layout.Layout, ps []layout.Photo) {
	fmt.Printf("template %s on %dx%d, gap %d (catalog v%d)\n", l.TemplateID, l.CanvasWidth, l.CanvasHeight, l.Gap, catalog.Version)
	fmt.Printf("columns %.3f\nrows    %.3f\n", l.ColRatios, l.RowRatios)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "CELL\tPHOTO\tX\tY\tW\tH\tANGLE\tSCALE\n")
	for k, c := range l.Cells {
		p := ps[l.PhotoOrder.At(k)]
		scale := rotation.FitScale(p.Angle, float64(c.Width), float64(c.Height))
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%.1f\t%.3f\n", k, l.PhotoOrder.At(k), c.X, c.Y, c.Width, c.Height, p.Angle, scale)
	}
	tw.Flush()
}
