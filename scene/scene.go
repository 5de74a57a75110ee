// Package scene describes laid out image as a flat list of drawing items in
// pixel coordinates. It is produced by layout and consumed by SVG writer and
// rasterizer.
package scene

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"ogcard/utils/debug"
)

type Point struct {
	X, Y float64
}

// Bounds is axis aligned box.
type Bounds struct {
	X, Y, W, H float64
}

func (b Bounds) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Radii are corner radii: top-left, top-right, bottom-right, bottom-left.
type Radii [4]float64

func (r Radii) Zero() bool {
	return r == Radii{}
}

// Clamp scales radii down so adjacent corners do not overlap in box of
// given size.
func (r Radii) Clamp(w, h float64) Radii {
	f := 1.0
	for _, s := range [...]struct{ sum, side float64 }{
		{r[0] + r[1], w}, {r[3] + r[2], w}, {r[0] + r[3], h}, {r[1] + r[2], h},
	} {
		if s.sum > s.side && s.sum > 0 {
			f = min(f, s.side/s.sum)
		}
	}
	if f == 1 {
		return r
	}
	for i := range r {
		r[i] *= f
	}
	return r
}

// PaintKind selects how Paint fills area.
type PaintKind int

const (
	PaintSolid PaintKind = iota
	PaintLinear
	PaintRadial
)

type GradientStop struct {
	Offset float64
	Color  color.NRGBA
}

// Paint is solid color or gradient. Gradient geometry is absolute.
type Paint struct {
	Kind  PaintKind
	Color color.NRGBA

	// linear gradient line
	X1, Y1, X2, Y2 float64
	// radial gradient center and radii
	CX, CY, RX, RY float64

	Stops []GradientStop
}

func Solid(c color.NRGBA) *Paint {
	return &Paint{Kind: PaintSolid, Color: c}
}

// Sides holds per side values: top, right, bottom, left.
type Sides [4]float64

func (s Sides) Zero() bool {
	return s == Sides{}
}

type Border struct {
	Widths Sides
	Colors [4]color.NRGBA
}

// Item is one of *Rect, *Path or *Image.
type Item interface {
	item()
}

// Rect is a box with optional background, border and rounded corners. Rect
// without fill and border is only shown in debug mode.
type Rect struct {
	Bounds  Bounds
	Fill    *Paint
	Radii   Radii
	Border  Border
	Opacity float64
	// Tag of the element box belongs to, informational.
	Tag string
}

// SegmentOp is path command.
type SegmentOp int

const (
	MoveTo SegmentOp = iota
	LineTo
	QuadTo
	CubeTo
	Close
)

func (op SegmentOp) String() string {
	switch op {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case QuadTo:
		return "Q"
	case CubeTo:
		return "C"
	case Close:
		return "Z"
	}
	return "SegmentOp(" + strconv.Itoa(int(op)) + ")"
}

// Segment uses 1 (MoveTo, LineTo), 2 (QuadTo) or 3 (CubeTo) points.
type Segment struct {
	Op  SegmentOp
	Pts [3]Point
}

// Path is filled outline (nonzero rule), used for glyphs.
type Path struct {
	Segments []Segment
	Fill     color.NRGBA
	Opacity  float64
	// Text the path was produced from, informational.
	Text string
}

// Image draws Src part of Img stretched to Bounds.
type Image struct {
	Bounds  Bounds
	Img     image.Image
	Src     image.Rectangle
	Radii   Radii
	Opacity float64
}

func (*Rect) item()  {}
func (*Path) item()  {}
func (*Image) item() {}

// Scene is painted in order, later items are on top.
type Scene struct {
	Width, Height int
	Items         []Item
}

func New(w, h int) *Scene {
	return &Scene{Width: w, Height: h}
}

func (s *Scene) Add(items ...Item) {
	s.Items = append(s.Items, items...)
}

func f2s(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (b Bounds) String() string {
	return fmt.Sprintf("%s,%s %sx%s", f2s(b.X), f2s(b.Y), f2s(b.W), f2s(b.H))
}

func colorString(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Dump returns listing of scene items for logs and debug reports.
func (s *Scene) Dump() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "scene %dx%d (%d items)", s.Width, s.Height, len(s.Items))
	for _, it := range s.Items {
		switch v := it.(type) {
		case *Rect:
			tw.Line(1, "rect <%s> %s", v.Tag, v.Bounds)
			if v.Fill != nil {
				tw.Field(2, "fill", paintString(v.Fill))
			}
			if !v.Radii.Zero() {
				tw.Line(2, "radii: %s %s %s %s", f2s(v.Radii[0]), f2s(v.Radii[1]), f2s(v.Radii[2]), f2s(v.Radii[3]))
			}
			if !v.Border.Widths.Zero() {
				tw.Line(2, "border: %s %s %s %s", f2s(v.Border.Widths[0]), f2s(v.Border.Widths[1]), f2s(v.Border.Widths[2]), f2s(v.Border.Widths[3]))
			}
			if v.Opacity < 1 {
				tw.Line(2, "opacity: %s", f2s(v.Opacity))
			}
		case *Path:
			tw.Line(1, "path %d segments %s", len(v.Segments), colorString(v.Fill))
			if v.Text != "" {
				tw.Text(2, v.Text)
			}
		case *Image:
			b := v.Img.Bounds()
			tw.Line(1, "image %dx%d -> %s", b.Dx(), b.Dy(), v.Bounds)
		}
	}
	return tw.String()
}

func paintString(p *Paint) string {
	switch p.Kind {
	case PaintLinear:
		return fmt.Sprintf("linear %d stops", len(p.Stops))
	case PaintRadial:
		return fmt.Sprintf("radial %d stops", len(p.Stops))
	}
	return colorString(p.Color)
}
