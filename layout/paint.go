package layout

import (
	"image"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"ogcard/css"
	"ogcard/fonts"
	"ogcard/scene"
	"ogcard/utils/images"
)

func (l *layouter) paint(sc *scene.Scene, b *box, ox, oy, opacity float64) {
	x, y := ox+b.x, oy+b.y
	op := opacity * b.st.opacity
	if op <= 0 {
		return
	}
	bounds := scene.Bounds{X: x, Y: y, W: b.w, H: b.h}

	if b.kind == boxText {
		if l.opts.Debug {
			sc.Add(&scene.Rect{Bounds: bounds, Opacity: op, Tag: b.tag})
		}
		l.paintText(sc, b, x, y, op)
		return
	}

	radii := l.radii(b)
	l.paintBackground(sc, b, bounds, radii, op)
	if b.kind == boxImage {
		l.paintImage(sc, b, bounds, radii, op)
	}
	for _, c := range b.children {
		if !c.absolute() {
			l.paint(sc, c, x, y, op)
		}
	}
	for _, c := range b.children {
		if c.absolute() {
			l.paint(sc, c, x, y, op)
		}
	}
}

func (l *layouter) radii(b *box) scene.Radii {
	var r scene.Radii
	for i, v := range b.st.radii {
		r[i] = math.Max(0, l.length(b, v, b.w))
	}
	return r.Clamp(b.w, b.h)
}

func (l *layouter) paintBackground(sc *scene.Scene, b *box, bounds scene.Bounds, radii scene.Radii, op float64) {
	painted := false
	if c := b.st.background; c != nil && c.A > 0 {
		sc.Add(&scene.Rect{Bounds: bounds, Fill: scene.Solid(*c), Radii: radii, Opacity: op, Tag: b.tag})
		painted = true
	}
	if b.st.bgImage != "" {
		layers := css.SplitComma(b.st.bgImage)
		// first layer is on top
		for i := len(layers) - 1; i >= 0; i-- {
			if item := l.backgroundLayer(b, layers[i], bounds, radii, op); item != nil {
				sc.Add(item)
				painted = true
			}
		}
	}
	var border scene.Border
	for i := range 4 {
		border.Widths[i] = b.border[i]
		border.Colors[i] = b.st.borderC[i]
	}
	if !border.Widths.Zero() {
		sc.Add(&scene.Rect{Bounds: bounds, Radii: radii, Border: border, Opacity: op, Tag: b.tag})
		painted = true
	}
	if !painted && l.opts.Debug {
		sc.Add(&scene.Rect{Bounds: bounds, Radii: radii, Opacity: op, Tag: b.tag})
	}
}

func (l *layouter) backgroundLayer(b *box, layer string, bounds scene.Bounds, radii scene.Radii, op float64) scene.Item {
	if g, ok := css.ParseGradient(layer, b.st.color); ok {
		return &scene.Rect{Bounds: bounds, Fill: l.gradientPaint(b, g, bounds), Radii: radii, Opacity: op, Tag: b.tag}
	}
	if src, ok := css.URL(layer); ok {
		pic := l.images[src]
		if pic == nil {
			return nil
		}
		img := l.raster(pic, bounds.W, bounds.H)
		if img == nil {
			return nil
		}
		return &scene.Image{Bounds: bounds, Img: img, Src: img.Bounds(), Radii: radii, Opacity: op}
	}
	l.log.Debug("Unsupported background layer ignored", zap.String("tag", b.tag), zap.String("value", layer))
	return nil
}

func (l *layouter) gradientPaint(b *box, g *css.Gradient, bounds scene.Bounds) *scene.Paint {
	ctx := l.lengthContext(b, 0)
	stops := func(length float64) []scene.GradientStop {
		rs := g.ResolveStops(length, ctx)
		out := make([]scene.GradientStop, len(rs))
		for i, s := range rs {
			out[i] = scene.GradientStop{Offset: s.Offset, Color: s.Color}
		}
		return out
	}
	if !g.Radial {
		x1, y1, x2, y2 := g.LinearPoints(bounds.W, bounds.H)
		return &scene.Paint{
			Kind: scene.PaintLinear,
			X1:   bounds.X + x1, Y1: bounds.Y + y1,
			X2: bounds.X + x2, Y2: bounds.Y + y2,
			Stops: stops(math.Hypot(x2-x1, y2-y1)),
		}
	}
	cx := l.length(b, g.CX, bounds.W)
	cy := l.length(b, g.CY, bounds.H)
	// farthest-corner
	dx := math.Max(cx, bounds.W-cx)
	dy := math.Max(cy, bounds.H-cy)
	rx, ry := dx*math.Sqrt2, dy*math.Sqrt2
	if g.Circle {
		rx = math.Hypot(dx, dy)
		ry = rx
	}
	return &scene.Paint{
		Kind: scene.PaintRadial,
		CX:   bounds.X + cx, CY: bounds.Y + cy,
		RX: rx, RY: ry,
		Stops: stops(rx),
	}
}

// raster returns picture pixels, svg is rasterized at requested size.
func (l *layouter) raster(pic *picture, w, h float64) image.Image {
	if pic.svg == nil {
		return pic.img
	}
	img, err := images.RasterizeSVG(pic.svg, max(1, int(math.Round(w))), max(1, int(math.Round(h))))
	if err != nil {
		l.log.Warn("Unable to rasterize svg image", zap.String("src", shorten(pic.src)), zap.Error(err))
		return nil
	}
	return img
}

// fit computes destination rectangle and visible part of the picture (in
// intrinsic units) for object-fit mode.
func fit(mode string, content scene.Bounds, iw, ih float64) (dst, src scene.Bounds) {
	dst, src = content, scene.Bounds{W: iw, H: ih}
	center := func(w, h float64) scene.Bounds {
		return scene.Bounds{X: content.X + (content.W-w)/2, Y: content.Y + (content.H-h)/2, W: w, H: h}
	}
	switch mode {
	case "contain", "scale-down":
		s := math.Min(content.W/iw, content.H/ih)
		if mode == "scale-down" {
			s = math.Min(s, 1)
		}
		dst = center(iw*s, ih*s)
	case "cover":
		s := math.Max(content.W/iw, content.H/ih)
		vw, vh := content.W/s, content.H/s
		src = scene.Bounds{X: (iw - vw) / 2, Y: (ih - vh) / 2, W: vw, H: vh}
	case "none":
		vw, vh := math.Min(iw, content.W), math.Min(ih, content.H)
		src = scene.Bounds{X: (iw - vw) / 2, Y: (ih - vh) / 2, W: vw, H: vh}
		dst = center(vw, vh)
	}
	return dst, src
}

func (l *layouter) paintImage(sc *scene.Scene, b *box, bounds scene.Bounds, radii scene.Radii, op float64) {
	pic := b.pic
	if pic == nil || pic.iw <= 0 || pic.ih <= 0 {
		return
	}
	content := scene.Bounds{
		X: bounds.X + b.contentLeft(),
		Y: bounds.Y + b.contentTop(),
		W: b.w - b.edgeW(),
		H: b.h - b.edgeH(),
	}
	if content.Empty() {
		return
	}
	dst, src := fit(b.st.objectFit, content, pic.iw, pic.ih)

	img := pic.img
	if pic.svg != nil {
		img = l.raster(pic, pic.iw*dst.W/src.W, pic.ih*dst.H/src.H)
	}
	if img == nil {
		return
	}
	// raster pixels per intrinsic unit
	kx := float64(img.Bounds().Dx()) / pic.iw
	ky := float64(img.Bounds().Dy()) / pic.ih
	origin := img.Bounds().Min
	r := image.Rect(
		origin.X+int(math.Round(src.X*kx)), origin.Y+int(math.Round(src.Y*ky)),
		origin.X+int(math.Round((src.X+src.W)*kx)), origin.Y+int(math.Round((src.Y+src.H)*ky)),
	).Intersect(img.Bounds())
	if r.Empty() {
		return
	}

	var inner scene.Radii
	for i := range radii {
		inner[i] = math.Max(0, radii[i]-math.Max(b.border[i], b.padding[i]))
	}
	sc.Add(&scene.Image{Bounds: dst, Img: img, Src: r, Radii: inner.Clamp(dst.W, dst.H), Opacity: op})
}

func (l *layouter) paintText(sc *scene.Scene, b *box, x, y, op float64) {
	for _, ln := range b.lines {
		base := y + ln.y + ln.ascent
		for _, it := range ln.items {
			p, px := it.p, x+it.x
			if p.st.decoration != "" && p.kind != pieceBreak {
				sc.Add(decoration(p, px, base, op))
			}
			if p.kind != pieceWord {
				continue
			}
			var segs []scene.Segment
			for _, g := range p.glyphs {
				if g.emoji != "" {
					l.paintEmoji(sc, g.emoji, p, px+g.x, base, op)
					continue
				}
				segs = append(segs, glyphPath(g.face, g.index, p.st.fontSize, px+g.x, base)...)
			}
			if len(segs) > 0 {
				sc.Add(&scene.Path{Segments: segs, Fill: p.st.color, Opacity: op, Text: p.text})
			}
		}
	}
}

func decoration(p *piece, x, base, op float64) *scene.Rect {
	size := p.st.fontSize
	thick := math.Max(1, size/16)
	y := base + size*0.1
	if p.st.decoration == "line-through" {
		y = base - size*0.3
	}
	return &scene.Rect{
		Bounds:  scene.Bounds{X: x, Y: y, W: p.width, H: thick},
		Fill:    scene.Solid(p.st.color),
		Opacity: op,
		Tag:     p.st.decoration,
	}
}

func (l *layouter) paintEmoji(sc *scene.Scene, cluster string, p *piece, x, base, op float64) {
	pic := l.loadEmoji(cluster)
	if pic == nil {
		return
	}
	size := p.st.fontSize
	asc, desc := size*0.8, size*0.2
	if p.face != nil {
		m := p.face.Metrics(size)
		asc, desc = m.Ascent, m.Descent
	}
	top := base - size*asc/(asc+desc)
	img := l.raster(pic, size, size)
	if img == nil {
		return
	}
	sc.Add(&scene.Image{Bounds: scene.Bounds{X: x, Y: top, W: size, H: size}, Img: img, Src: img.Bounds(), Opacity: op})
}

// loadEmoji returns nil when emoji could not be loaded, text is drawn
// without it.
func (l *layouter) loadEmoji(cluster string) *picture {
	if pic, ok := l.emoji[cluster]; ok {
		return pic
	}
	data, err := l.opts.Emoji.Load(l.ctx, cluster)
	var pic *picture
	if err == nil {
		pic, err = decodePicture(cluster, data)
	}
	if err != nil {
		l.log.Warn("Unable to load emoji, skipping", zap.String("emoji", cluster), zap.Error(err))
	}
	l.emoji[cluster] = pic
	return pic
}

// glyphPath converts glyph outline to path segments with origin at x on
// baseline y.
func glyphPath(face *fonts.Face, idx sfnt.GlyphIndex, size, x, y float64) []scene.Segment {
	segs, err := face.Outline(idx)
	if err != nil || len(segs) == 0 {
		return nil
	}
	k := face.Scale(size)
	pt := func(p fixed.Point26_6) scene.Point {
		return scene.Point{X: x + float64(p.X)*k, Y: y + float64(p.Y)*k}
	}
	out := make([]scene.Segment, 0, len(segs)+4)
	for i, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			// sfnt never closes contours itself
			if i > 0 {
				out = append(out, scene.Segment{Op: scene.Close})
			}
			out = append(out, scene.Segment{Op: scene.MoveTo, Pts: [3]scene.Point{pt(s.Args[0])}})
		case sfnt.SegmentOpLineTo:
			out = append(out, scene.Segment{Op: scene.LineTo, Pts: [3]scene.Point{pt(s.Args[0])}})
		case sfnt.SegmentOpQuadTo:
			out = append(out, scene.Segment{Op: scene.QuadTo, Pts: [3]scene.Point{pt(s.Args[0]), pt(s.Args[1])}})
		case sfnt.SegmentOpCubeTo:
			out = append(out, scene.Segment{Op: scene.CubeTo, Pts: [3]scene.Point{pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2])}})
		}
	}
	return append(out, scene.Segment{Op: scene.Close})
}
