package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"ogcard/scene"
)

// rasterizer paints scene items in order over transparent canvas.
type rasterizer struct {
	img    *image.RGBA
	filler *rasterx.Filler
}

// Rasterize paints scene into image of scene size. Rects without fill and
// border are outlined in red, layout only produces them in debug mode.
func Rasterize(sc *scene.Scene) *image.NRGBA {
	w, h := max(sc.Width, 1), max(sc.Height, 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r := &rasterizer{
		img:    img,
		filler: rasterx.NewFiller(w, h, rasterx.NewScannerGV(w, h, img, img.Bounds())),
	}
	for _, it := range sc.Items {
		switch v := it.(type) {
		case *scene.Rect:
			r.rect(v)
		case *scene.Path:
			r.fill(r.filler, v.Segments, withOpacity(v.Fill, v.Opacity))
		case *scene.Image:
			r.image(v)
		}
	}
	return imaging.Clone(img)
}

func fixedPt(p scene.Point) fixed.Point26_6 {
	return rasterx.ToFixedP(p.X, p.Y)
}

// addPath feeds scene segments to rasterx adder.
func addPath(a rasterx.Adder, segs []scene.Segment) {
	open := false
	for _, s := range segs {
		switch s.Op {
		case scene.MoveTo:
			if open {
				a.Stop(true)
			}
			a.Start(fixedPt(s.Pts[0]))
			open = true
		case scene.LineTo:
			a.Line(fixedPt(s.Pts[0]))
		case scene.QuadTo:
			a.QuadBezier(fixedPt(s.Pts[0]), fixedPt(s.Pts[1]))
		case scene.CubeTo:
			a.CubeBezier(fixedPt(s.Pts[0]), fixedPt(s.Pts[1]), fixedPt(s.Pts[2]))
		case scene.Close:
			if open {
				a.Stop(true)
				open = false
			}
		}
	}
	if open {
		a.Stop(true)
	}
}

// fill draws path with color or rasterx color function.
func (r *rasterizer) fill(f *rasterx.Filler, segs []scene.Segment, clr any) {
	if len(segs) == 0 {
		return
	}
	if c, ok := clr.(color.NRGBA); ok && c.A == 0 {
		return
	}
	f.Clear()
	addPath(f, segs)
	f.SetColor(clr)
	f.Draw()
	f.Clear()
}

func (r *rasterizer) rect(v *scene.Rect) {
	if v.Bounds.Empty() {
		return
	}
	if outlineOnly(v) {
		r.fill(r.filler, ring(v.Bounds, scene.Radii{}, scene.Sides{1, 1, 1, 1}), debugColor)
		return
	}
	if v.Fill != nil {
		r.fill(r.filler, roundRect(v.Bounds, v.Radii), paintColor(v.Fill, v.Bounds, v.Opacity))
	}
	for _, s := range borderShapes(v) {
		r.fill(r.filler, s.segs, withOpacity(s.fill, v.Opacity))
	}
}

// paintColor converts paint to value accepted by rasterx scanner.
func paintColor(p *scene.Paint, b scene.Bounds, opacity float64) any {
	if p.Kind == scene.PaintSolid || len(p.Stops) < 2 {
		c := p.Color
		if p.Kind != scene.PaintSolid && len(p.Stops) == 1 {
			c = p.Stops[0].Color
		}
		return withOpacity(c, opacity)
	}

	g := &rasterx.Gradient{
		Units:  rasterx.UserSpaceOnUse,
		Matrix: rasterx.Identity,
		Spread: rasterx.PadSpread,
	}
	g.Bounds.X, g.Bounds.Y, g.Bounds.W, g.Bounds.H = b.X, b.Y, max(b.W, 1), max(b.H, 1)
	for _, s := range p.Stops {
		c := s.Color
		c.A = 0xff
		g.Stops = append(g.Stops, rasterx.GradStop{StopColor: c, Offset: s.Offset, Opacity: float64(s.Color.A) / 0xff})
	}

	switch p.Kind {
	case scene.PaintLinear:
		if p.X1 == p.X2 && p.Y1 == p.Y2 {
			return withOpacity(p.Stops[len(p.Stops)-1].Color, opacity)
		}
		g.Points = [5]float64{p.X1, p.Y1, p.X2, p.Y2}
	case scene.PaintRadial:
		if p.RX <= 0 || p.RY <= 0 {
			return withOpacity(p.Stops[len(p.Stops)-1].Color, opacity)
		}
		// unit circle at origin, ellipse and center come from the matrix
		g.IsRadial = true
		g.Points = [5]float64{0, 0, 0, 0, 1}
		g.Matrix = rasterx.Matrix2D{A: p.RX, D: p.RY, E: p.CX, F: p.CY}
	}
	return g.GetColorFunction(math.Min(math.Max(opacity, 0), 1))
}

// pixelRect snaps bounds to pixel grid.
func pixelRect(b scene.Bounds) image.Rectangle {
	return image.Rect(
		int(math.Round(b.X)), int(math.Round(b.Y)),
		int(math.Round(b.X+b.W)), int(math.Round(b.Y+b.H)),
	)
}

// image scales source part of the picture to destination and composites it
// through mask carrying rounded corners and opacity.
func (r *rasterizer) image(v *scene.Image) {
	dst := pixelRect(v.Bounds).Intersect(r.img.Bounds())
	full := pixelRect(v.Bounds)
	if dst.Empty() || v.Img == nil || v.Opacity <= 0 {
		return
	}
	src := v.Src
	if src.Empty() {
		src = v.Img.Bounds()
	}
	scaled := imaging.Resize(imaging.Crop(v.Img, src), full.Dx(), full.Dy(), imaging.Lanczos)

	w, h := r.img.Bounds().Dx(), r.img.Bounds().Dy()
	mask := image.NewAlpha(r.img.Bounds())
	mf := rasterx.NewFiller(w, h, rasterx.NewScannerGV(w, h, mask, mask.Bounds()))
	alpha := color.Alpha{A: uint8(math.Min(v.Opacity, 1)*0xff + 0.5)}
	r.fill(mf, roundRect(v.Bounds, v.Radii), alpha)

	draw.DrawMask(r.img, dst, scaled, dst.Min.Sub(full.Min), mask, dst.Min, draw.Over)
}
