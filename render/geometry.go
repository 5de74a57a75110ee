package render

import (
	"image/color"

	"ogcard/scene"
)

// kappa places cubic control points so the curve approximates a quarter of
// a circle.
const kappa = 0.5522847498

var debugColor = color.NRGBA{R: 0xff, A: 0xff}

// shape is a filled outline, holes are subpaths in opposite direction.
type shape struct {
	segs []scene.Segment
	fill color.NRGBA
}

func pt(x, y float64) scene.Point {
	return scene.Point{X: x, Y: y}
}

func moveTo(x, y float64) scene.Segment {
	return scene.Segment{Op: scene.MoveTo, Pts: [3]scene.Point{pt(x, y)}}
}

func lineTo(x, y float64) scene.Segment {
	return scene.Segment{Op: scene.LineTo, Pts: [3]scene.Point{pt(x, y)}}
}

func cubeTo(x1, y1, x2, y2, x, y float64) scene.Segment {
	return scene.Segment{Op: scene.CubeTo, Pts: [3]scene.Point{pt(x1, y1), pt(x2, y2), pt(x, y)}}
}

var closePath = scene.Segment{Op: scene.Close}

// roundRect returns clockwise outline of the box with rounded corners.
func roundRect(b scene.Bounds, r scene.Radii) []scene.Segment {
	r = r.Clamp(b.W, b.H)
	x0, y0, x1, y1 := b.X, b.Y, b.X+b.W, b.Y+b.H
	if r.Zero() {
		return []scene.Segment{moveTo(x0, y0), lineTo(x1, y0), lineTo(x1, y1), lineTo(x0, y1), closePath}
	}

	segs := make([]scene.Segment, 0, 10)
	segs = append(segs, moveTo(x0+r[0], y0), lineTo(x1-r[1], y0))
	if k := r[1]; k > 0 {
		segs = append(segs, cubeTo(x1-k+k*kappa, y0, x1, y0+k-k*kappa, x1, y0+k))
	}
	segs = append(segs, lineTo(x1, y1-r[2]))
	if k := r[2]; k > 0 {
		segs = append(segs, cubeTo(x1, y1-k+k*kappa, x1-k+k*kappa, y1, x1-k, y1))
	}
	segs = append(segs, lineTo(x0+r[3], y1))
	if k := r[3]; k > 0 {
		segs = append(segs, cubeTo(x0+k-k*kappa, y1, x0, y1-k+k*kappa, x0, y1-k))
	}
	segs = append(segs, lineTo(x0, y0+r[0]))
	if k := r[0]; k > 0 {
		segs = append(segs, cubeTo(x0, y0+k-k*kappa, x0+k-k*kappa, y0, x0+k, y0))
	}
	return append(segs, closePath)
}

// reversePath reverses direction of single closed subpath.
func reversePath(segs []scene.Segment) []scene.Segment {
	if len(segs) == 0 || segs[0].Op != scene.MoveTo {
		return segs
	}
	// end point of every drawing segment, ends[0] is the start
	ends := []scene.Point{segs[0].Pts[0]}
	var body []scene.Segment
	for _, s := range segs[1:] {
		switch s.Op {
		case scene.LineTo:
			ends = append(ends, s.Pts[0])
		case scene.QuadTo:
			ends = append(ends, s.Pts[1])
		case scene.CubeTo:
			ends = append(ends, s.Pts[2])
		default:
			continue
		}
		body = append(body, s)
	}

	last := ends[len(ends)-1]
	res := make([]scene.Segment, 0, len(segs))
	res = append(res, scene.Segment{Op: scene.MoveTo, Pts: [3]scene.Point{last}})
	for i := len(body) - 1; i >= 0; i-- {
		s, to := body[i], ends[i]
		switch s.Op {
		case scene.LineTo:
			res = append(res, scene.Segment{Op: scene.LineTo, Pts: [3]scene.Point{to}})
		case scene.QuadTo:
			res = append(res, scene.Segment{Op: scene.QuadTo, Pts: [3]scene.Point{s.Pts[0], to}})
		case scene.CubeTo:
			res = append(res, scene.Segment{Op: scene.CubeTo, Pts: [3]scene.Point{s.Pts[1], s.Pts[0], to}})
		}
	}
	return append(res, closePath)
}

// inset shrinks box and its radii by per side widths.
func inset(b scene.Bounds, r scene.Radii, w scene.Sides) (scene.Bounds, scene.Radii) {
	in := scene.Bounds{X: b.X + w[3], Y: b.Y + w[0], W: b.W - w[1] - w[3], H: b.H - w[0] - w[2]}
	// corners are adjacent to: top-left, top-right, bottom-right, bottom-left
	adj := [4][2]int{{0, 3}, {0, 1}, {2, 1}, {2, 3}}
	r = r.Clamp(b.W, b.H)
	for i, a := range adj {
		r[i] = max(0, r[i]-max(w[a[0]], w[a[1]]))
	}
	return in, r
}

// ring is outline of the box with hole cut by widths.
func ring(b scene.Bounds, r scene.Radii, w scene.Sides) []scene.Segment {
	segs := roundRect(b, r)
	in, ir := inset(b, r, w)
	if in.Empty() {
		return segs
	}
	return append(segs, reversePath(roundRect(in, ir))...)
}

func sameColors(c [4]color.NRGBA, w scene.Sides) bool {
	var first *color.NRGBA
	for i := range c {
		if w[i] <= 0 {
			continue
		}
		if first == nil {
			first = &c[i]
			continue
		}
		if c[i] != *first {
			return false
		}
	}
	return true
}

// borderShapes returns filled outlines for rect border. Borders of single
// color follow rounded corners, multicolor borders are drawn as four
// trapezoids with square corners.
func borderShapes(r *scene.Rect) []shape {
	w := r.Border.Widths
	if w.Zero() || r.Bounds.Empty() {
		return nil
	}
	if sameColors(r.Border.Colors, w) {
		var c color.NRGBA
		for i := range w {
			if w[i] > 0 {
				c = r.Border.Colors[i]
				break
			}
		}
		if c.A == 0 {
			return nil
		}
		return []shape{{segs: ring(r.Bounds, r.Radii, w), fill: c}}
	}

	b := r.Bounds
	x0, y0, x1, y1 := b.X, b.Y, b.X+b.W, b.Y+b.H
	ix0, iy0, ix1, iy1 := x0+w[3], y0+w[0], x1-w[1], y1-w[2]
	quads := [4][4]scene.Point{
		{pt(x0, y0), pt(x1, y0), pt(ix1, iy0), pt(ix0, iy0)},
		{pt(x1, y0), pt(x1, y1), pt(ix1, iy1), pt(ix1, iy0)},
		{pt(x1, y1), pt(x0, y1), pt(ix0, iy1), pt(ix1, iy1)},
		{pt(x0, y1), pt(x0, y0), pt(ix0, iy0), pt(ix0, iy1)},
	}
	var res []shape
	for i, q := range quads {
		if w[i] <= 0 || r.Border.Colors[i].A == 0 {
			continue
		}
		res = append(res, shape{
			segs: []scene.Segment{moveTo(q[0].X, q[0].Y), lineTo(q[1].X, q[1].Y), lineTo(q[2].X, q[2].Y), lineTo(q[3].X, q[3].Y), closePath},
			fill: r.Border.Colors[i],
		})
	}
	return res
}

// outlineOnly reports rect which exists only to be outlined in debug mode.
func outlineOnly(r *scene.Rect) bool {
	return r.Fill == nil && r.Border.Widths.Zero()
}

func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity < 1 {
		c.A = uint8(float64(c.A)*max(opacity, 0) + 0.5)
	}
	return c
}
