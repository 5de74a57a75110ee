package layout

import (
	"fmt"
	"image"
	"strings"
	"unicode"

	"github.com/beevik/etree"

	"ogcard/css"
	"ogcard/markup"
	"ogcard/utils/images"
)

type boxKind int

const (
	boxBlock boxKind = iota
	// anonymous box holding inline content
	boxText
	boxImage
)

// box is a node of layout tree. Geometry is border box relative to parent
// border box origin.
type box struct {
	kind     boxKind
	tag      string
	st       *style
	children []*box

	runs   []run
	pieces []piece
	shaped bool
	lines  []line

	pic *picture

	// resolved edges in pixels
	margin  [4]float64
	padding [4]float64
	border  [4]float64
	// auto margins
	autoMargin [4]bool
	// containing block, percentages of sizes refer to it
	cbw, cbh float64
	hasCBH   bool

	x, y, w, h float64
}

// run is a piece of inline content sharing the same style.
type run struct {
	text string
	st   *style
	// forced line break (<br>)
	br bool
}

// picture is a loaded image. SVG is kept as source so it could be
// rasterized at the size it is drawn.
type picture struct {
	src    string
	img    image.Image
	svg    []byte
	iw, ih float64
}

var inlineTags = map[string]bool{
	"span": true, "b": true, "strong": true, "i": true, "em": true, "u": true,
	"s": true, "small": true, "code": true, "a": true, "sub": true, "sup": true,
	"mark": true, "kbd": true, "q": true, "abbr": true, "cite": true, "br": true,
	"del": true, "ins": true, "label": true, "time": true, "samp": true, "var": true,
}

func (l *layouter) build(el *markup.Element, parent *style) (*box, error) {
	st := computeStyle(parent, el.Tag, el.Style, l.rem, l.log)
	return l.buildWith(el, st)
}

func (l *layouter) buildWith(el *markup.Element, st *style) (*box, error) {
	if st.display == "none" {
		return nil, nil
	}
	b := &box{kind: boxBlock, tag: el.Tag, st: st}
	if err := l.loadBackgrounds(st); err != nil {
		return nil, err
	}

	switch el.Tag {
	case "img":
		b.kind = boxImage
		if src, _ := el.Props.Get("src"); src != "" {
			pic, err := l.loadImage(src)
			if err != nil {
				return nil, err
			}
			b.pic = pic
		} else {
			l.log.Warn("Image without source is drawn as empty box")
		}
		l.applyDimensionProps(b, el)
		return b, nil
	case "svg":
		data, err := serializeSVG(el)
		if err != nil {
			return nil, fmt.Errorf("unable to serialize inline svg: %w", err)
		}
		w, h, err := images.SVGSize(data)
		if err != nil {
			return nil, fmt.Errorf("unable to size inline svg: %w", err)
		}
		b.kind = boxImage
		b.pic = &picture{src: "<svg>", svg: data, iw: w, ih: h}
		l.applyDimensionProps(b, el)
		return b, nil
	}

	if flowIsInline(el) && len(el.Children) > 0 {
		b.children = append(b.children, &box{kind: boxText, tag: "#text", st: st.inherit(), runs: l.collectRuns(el.Children, st)})
		return b, nil
	}

	var pending []markup.Node
	flush := func() {
		if len(pending) > 0 {
			b.children = append(b.children, &box{kind: boxText, tag: "#text", st: st.inherit(), runs: l.collectRuns(pending, st)})
			pending = nil
		}
	}
	for _, c := range el.Children {
		switch v := c.(type) {
		case markup.Text:
			pending = append(pending, v)
		case *markup.Element:
			if inlineTags[v.Tag] && flowIsInline(v) && !hasDisplay(v) {
				pending = append(pending, v)
				continue
			}
			flush()
			child, err := l.build(v, st)
			if err != nil {
				return nil, err
			}
			if child != nil {
				b.children = append(b.children, child)
			}
		}
	}
	flush()
	return b, nil
}

// loadBackgrounds fetches url() layers so painting never waits on network.
func (l *layouter) loadBackgrounds(st *style) error {
	if !strings.Contains(strings.ToLower(st.bgImage), "url(") {
		return nil
	}
	for _, layer := range css.SplitComma(st.bgImage) {
		if src, ok := css.URL(layer); ok {
			if _, err := l.loadImage(src); err != nil {
				return err
			}
		}
	}
	return nil
}

// flowIsInline reports whether element content could be flattened into
// single paragraph.
func flowIsInline(el *markup.Element) bool {
	for _, c := range el.Children {
		if v, ok := c.(*markup.Element); ok {
			if !inlineTags[v.Tag] || hasDisplay(v) || !flowIsInline(v) {
				return false
			}
		}
	}
	return true
}

// element with explicit display is laid out as a box even when tag is inline
func hasDisplay(el *markup.Element) bool {
	v, ok := el.Style.Get("display")
	return ok && !strings.EqualFold(strings.TrimSpace(v), "inline")
}

func (l *layouter) collectRuns(nodes []markup.Node, st *style) []run {
	var runs []run
	for _, n := range nodes {
		switch v := n.(type) {
		case markup.Text:
			runs = append(runs, run{text: transform(string(v), st.textTransform), st: st})
		case *markup.Element:
			cst := computeStyle(st, v.Tag, v.Style, l.rem, l.log)
			if cst.display == "none" {
				continue
			}
			if v.Tag == "br" {
				runs = append(runs, run{br: true, st: cst})
				continue
			}
			runs = append(runs, l.collectRuns(v.Children, cst)...)
		}
	}
	return runs
}

func transform(s, mode string) string {
	switch mode {
	case "uppercase":
		return strings.ToUpper(s)
	case "lowercase":
		return strings.ToLower(s)
	case "capitalize":
		prev := ' '
		return strings.Map(func(r rune) rune {
			out := r
			if unicode.IsSpace(prev) {
				out = unicode.ToTitle(r)
			}
			prev = r
			return out
		}, s)
	}
	return s
}

// applyDimensionProps uses width and height attributes when style does not
// set them.
func (l *layouter) applyDimensionProps(b *box, el *markup.Element) {
	for _, dim := range []struct {
		name string
		dst  *css.Length
	}{{"width", &b.st.width}, {"height", &b.st.height}} {
		if !dim.dst.IsAuto() {
			continue
		}
		if v, ok := el.Props.Get(dim.name); ok {
			if n, ok := css.ParseLength(v); ok {
				*dim.dst = n
			}
		}
	}
}

func (l *layouter) loadImage(src string) (*picture, error) {
	if pic, ok := l.images[src]; ok {
		return pic, nil
	}
	if l.opts.Images == nil {
		return nil, errNoImageLoader
	}
	data, err := l.opts.Images.Load(l.ctx, src)
	if err != nil {
		return nil, fmt.Errorf("unable to load image %q: %w", shorten(src), err)
	}
	pic, err := decodePicture(src, data)
	if err != nil {
		return nil, err
	}
	l.images[src] = pic
	return pic, nil
}

func decodePicture(src string, data []byte) (*picture, error) {
	pic := &picture{src: src}
	if images.Detect(data) == "svg" {
		w, h, err := images.SVGSize(data)
		if err != nil {
			return nil, fmt.Errorf("unable to read svg %q: %w", shorten(src), err)
		}
		pic.svg, pic.iw, pic.ih = data, w, h
		return pic, nil
	}
	img, _, err := images.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image %q: %w", shorten(src), err)
	}
	pic.img = img
	pic.iw, pic.ih = float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	return pic, nil
}

func shorten(s string) string {
	if len(s) <= 64 {
		return s
	}
	return s[:64] + "..."
}

// svg attributes which are camelCase in the markup language itself
var svgCamelAttrs = map[string]bool{
	"viewBox": true, "preserveAspectRatio": true, "gradientUnits": true,
	"gradientTransform": true, "patternUnits": true, "patternTransform": true,
	"stdDeviation": true, "clipPathUnits": true, "maskUnits": true,
	"markerWidth": true, "markerHeight": true, "refX": true, "refY": true,
	"textLength": true, "lengthAdjust": true, "startOffset": true,
	"spreadMethod": true, "pathLength": true,
}

// element tree keeps tags lowercase
var svgCamelTags = map[string]string{
	"lineargradient": "linearGradient", "radialgradient": "radialGradient",
	"clippath": "clipPath", "foreignobject": "foreignObject", "textpath": "textPath",
	"fegaussianblur": "feGaussianBlur", "feoffset": "feOffset", "feblend": "feBlend",
	"fecolormatrix": "feColorMatrix", "fedropshadow": "feDropShadow", "femerge": "feMerge",
	"femergenode": "feMergeNode", "feflood": "feFlood", "fecomposite": "feComposite",
}

// kebab undoes camelCase conversion of attribute and style names.
func kebab(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// serializeSVG turns inline svg element back into standalone document.
func serializeSVG(el *markup.Element) ([]byte, error) {
	doc := etree.NewDocument()
	root := svgElement(&doc.Element, el)
	if root.SelectAttr("xmlns") == nil {
		root.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	}
	return doc.WriteToBytes()
}

func svgElement(parent *etree.Element, el *markup.Element) *etree.Element {
	tag := el.Tag
	if camel, ok := svgCamelTags[tag]; ok {
		tag = camel
	}
	e := parent.CreateElement(tag)
	for _, p := range el.Props {
		name := p.Name
		switch {
		case name == "className":
			name = "class"
		case strings.HasPrefix(name, "xlink:"), strings.HasPrefix(name, "xmlns"):
		case !svgCamelAttrs[name]:
			name = kebab(name)
		}
		e.CreateAttr(name, p.Value)
	}
	if len(el.Style) > 0 {
		decls := make([]string, 0, len(el.Style))
		for _, d := range el.Style {
			decls = append(decls, kebab(d.Property)+":"+d.Value)
		}
		e.CreateAttr("style", strings.Join(decls, ";"))
	}
	for _, c := range el.Children {
		switch v := c.(type) {
		case markup.Text:
			e.CreateText(string(v))
		case *markup.Element:
			svgElement(e, v)
		}
	}
	return e
}
