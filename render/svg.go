package render

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"ogcard/scene"
	"ogcard/utils/images"
)

const (
	svgNS        = "http://www.w3.org/2000/svg"
	svgMediaType = "image/svg+xml"
)

// svgWriter accumulates scene items into etree document.
type svgWriter struct {
	root  *etree.Element
	defs  *etree.Element
	debug bool
	ids   int
}

// WriteSVG writes scene as standalone SVG document. In debug mode every box
// gets red outline.
func WriteSVG(w io.Writer, sc *scene.Scene, debug bool) error {
	doc := etree.NewDocument()
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}

	root := doc.CreateElement("svg")
	root.CreateAttr("xmlns", svgNS)
	root.CreateAttr("width", strconv.Itoa(sc.Width))
	root.CreateAttr("height", strconv.Itoa(sc.Height))
	root.CreateAttr("viewBox", fmt.Sprintf("0 0 %d %d", sc.Width, sc.Height))

	s := &svgWriter{root: root, defs: root.CreateElement("defs"), debug: debug}
	for _, it := range sc.Items {
		switch v := it.(type) {
		case *scene.Rect:
			s.rect(v)
		case *scene.Path:
			s.path(v)
		case *scene.Image:
			if err := s.image(v); err != nil {
				return err
			}
		}
	}
	if len(s.defs.ChildElements()) == 0 {
		root.RemoveChild(s.defs)
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write svg: %w", err)
	}
	return nil
}

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc(svgMediaType, svg.Minify)
	})
	return minifier
}

// MinifySVG shortens SVG document produced by WriteSVG.
func MinifySVG(data []byte) ([]byte, error) {
	out, err := getMinifier().Bytes(svgMediaType, data)
	if err != nil {
		return nil, fmt.Errorf("unable to minify svg: %w", err)
	}
	return out, nil
}

func (s *svgWriter) nextID(prefix string) string {
	s.ids++
	return prefix + strconv.Itoa(s.ids)
}

// num formats coordinate with two decimals at most.
func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func pathData(segs []scene.Segment) string {
	var sb strings.Builder
	for _, sg := range segs {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(sg.Op.String())
		var n int
		switch sg.Op {
		case scene.MoveTo, scene.LineTo:
			n = 1
		case scene.QuadTo:
			n = 2
		case scene.CubeTo:
			n = 3
		}
		for i := range n {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(num(sg.Pts[i].X))
			sb.WriteByte(' ')
			sb.WriteString(num(sg.Pts[i].Y))
		}
	}
	return sb.String()
}

// container returns parent for items sharing opacity.
func (s *svgWriter) container(opacity float64) *etree.Element {
	if opacity >= 1 {
		return s.root
	}
	g := s.root.CreateElement("g")
	g.CreateAttr("opacity", num(max(opacity, 0)))
	return g
}

// setFill writes fill color and its alpha.
func setFill(el *etree.Element, r, g, b, a uint8) {
	el.CreateAttr("fill", hexColor(r, g, b))
	if a < 0xff {
		el.CreateAttr("fill-opacity", num(float64(a)/0xff))
	}
}

// boxElement creates rect element, or path when corners differ.
func boxElement(parent *etree.Element, b scene.Bounds, r scene.Radii) *etree.Element {
	r = r.Clamp(b.W, b.H)
	if r[0] != r[1] || r[1] != r[2] || r[2] != r[3] {
		el := parent.CreateElement("path")
		el.CreateAttr("d", pathData(roundRect(b, r)))
		return el
	}
	el := parent.CreateElement("rect")
	el.CreateAttr("x", num(b.X))
	el.CreateAttr("y", num(b.Y))
	el.CreateAttr("width", num(b.W))
	el.CreateAttr("height", num(b.H))
	if r[0] > 0 {
		el.CreateAttr("rx", num(r[0]))
	}
	return el
}

func (s *svgWriter) gradient(p *scene.Paint) string {
	var el *etree.Element
	id := s.nextID("g")
	switch p.Kind {
	case scene.PaintLinear:
		el = s.defs.CreateElement("linearGradient")
		el.CreateAttr("id", id)
		el.CreateAttr("gradientUnits", "userSpaceOnUse")
		el.CreateAttr("x1", num(p.X1))
		el.CreateAttr("y1", num(p.Y1))
		el.CreateAttr("x2", num(p.X2))
		el.CreateAttr("y2", num(p.Y2))
	default:
		el = s.defs.CreateElement("radialGradient")
		el.CreateAttr("id", id)
		el.CreateAttr("gradientUnits", "userSpaceOnUse")
		el.CreateAttr("cx", num(p.CX))
		el.CreateAttr("cy", num(p.CY))
		el.CreateAttr("r", num(p.RX))
		if p.RX > 0 && p.RY != p.RX {
			el.CreateAttr("gradientTransform", fmt.Sprintf("translate(%s %s) scale(1 %s) translate(%s %s)",
				num(p.CX), num(p.CY), strconv.FormatFloat(p.RY/p.RX, 'f', 4, 64), num(-p.CX), num(-p.CY)))
		}
	}
	for _, st := range p.Stops {
		stop := el.CreateElement("stop")
		stop.CreateAttr("offset", num(st.Offset))
		stop.CreateAttr("stop-color", hexColor(st.Color.R, st.Color.G, st.Color.B))
		if st.Color.A < 0xff {
			stop.CreateAttr("stop-opacity", num(float64(st.Color.A)/0xff))
		}
	}
	return "url(#" + id + ")"
}

func (s *svgWriter) outline(parent *etree.Element, b scene.Bounds) {
	el := parent.CreateElement("rect")
	el.CreateAttr("x", num(b.X+0.5))
	el.CreateAttr("y", num(b.Y+0.5))
	el.CreateAttr("width", num(max(b.W-1, 0)))
	el.CreateAttr("height", num(max(b.H-1, 0)))
	el.CreateAttr("fill", "none")
	el.CreateAttr("stroke", hexColor(debugColor.R, debugColor.G, debugColor.B))
	el.CreateAttr("stroke-width", "1")
}

func (s *svgWriter) rect(v *scene.Rect) {
	if v.Bounds.Empty() {
		return
	}
	if outlineOnly(v) {
		if s.debug {
			s.outline(s.root, v.Bounds)
		}
		return
	}

	parent := s.container(v.Opacity)
	if p := v.Fill; p != nil {
		el := boxElement(parent, v.Bounds, v.Radii)
		if p.Kind == scene.PaintSolid || len(p.Stops) < 2 {
			c := p.Color
			if len(p.Stops) == 1 {
				c = p.Stops[0].Color
			}
			setFill(el, c.R, c.G, c.B, c.A)
		} else {
			el.CreateAttr("fill", s.gradient(p))
		}
	}
	for _, sh := range borderShapes(v) {
		el := parent.CreateElement("path")
		el.CreateAttr("d", pathData(sh.segs))
		setFill(el, sh.fill.R, sh.fill.G, sh.fill.B, sh.fill.A)
	}
	if s.debug {
		s.outline(parent, v.Bounds)
	}
}

func (s *svgWriter) path(v *scene.Path) {
	if len(v.Segments) == 0 {
		return
	}
	el := s.root.CreateElement("path")
	el.CreateAttr("d", pathData(v.Segments))
	c := withOpacity(v.Fill, v.Opacity)
	setFill(el, c.R, c.G, c.B, c.A)
}

func (s *svgWriter) image(v *scene.Image) error {
	if v.Bounds.Empty() || v.Img == nil {
		return nil
	}
	var img image.Image = v.Img
	if !v.Src.Empty() && v.Src != v.Img.Bounds() {
		img = imaging.Crop(v.Img, v.Src)
	}
	uri, err := images.DataURI(img)
	if err != nil {
		return fmt.Errorf("unable to embed image: %w", err)
	}

	parent := s.container(v.Opacity)
	el := parent.CreateElement("image")
	el.CreateAttr("x", num(v.Bounds.X))
	el.CreateAttr("y", num(v.Bounds.Y))
	el.CreateAttr("width", num(v.Bounds.W))
	el.CreateAttr("height", num(v.Bounds.H))
	el.CreateAttr("preserveAspectRatio", "none")
	el.CreateAttr("href", uri)

	if !v.Radii.Zero() {
		id := s.nextID("c")
		clip := s.defs.CreateElement("clipPath")
		clip.CreateAttr("id", id)
		clip.CreateElement("path").CreateAttr("d", pathData(roundRect(v.Bounds, v.Radii)))
		el.CreateAttr("clip-path", "url(#"+id+")")
	}
	return nil
}

// svgBytes is WriteSVG into memory with optional minification.
func svgBytes(sc *scene.Scene, debug, minified bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, sc, debug); err != nil {
		return nil, err
	}
	if !minified {
		return buf.Bytes(), nil
	}
	return MinifySVG(buf.Bytes())
}
