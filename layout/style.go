package layout

import (
	"image/color"
	"math"
	"strings"

	"go.uber.org/zap"

	"ogcard/config"
	"ogcard/css"
	"ogcard/fonts"
)

const (
	defaultFontSize   = 16
	defaultLineHeight = 1.2
)

// side indexes for edges: top, right, bottom, left
const (
	top = iota
	right
	bottom
	left
)

type edges [4]css.Length

// style is computed style of a box. Lengths which depend on layout are kept
// unresolved, font related values are resolved to pixels.
type style struct {
	display    string
	position   string
	direction  string
	justify    string
	alignItems string
	alignSelf  string
	grow       float64
	shrink     float64
	basis      css.Length

	width, height css.Length
	minW, minH    css.Length
	// auto means none
	maxW, maxH css.Length

	margin  edges
	padding edges
	inset   edges
	borderW [4]css.Length
	borderC [4]color.NRGBA
	// sides without explicit border color use text color
	borderSet [4]bool
	// horizontal radius only
	radii [4]css.Length

	background *color.NRGBA
	bgImage    string
	bgSize     string
	opacity    float64
	rowGap     css.Length
	colGap     css.Length
	objectFit  string

	// inherited
	color         color.NRGBA
	fontFamily    []string
	fontSize      float64
	fontWeight    fonts.Weight
	fontStyle     config.FontStyle
	lineHeight    float64
	lineHeightMul bool
	textAlign     string
	letterSpacing float64
	textTransform string
	whiteSpace    string
	decoration    string
}

var zero = css.Length{}

// rootStyle is what html element would have.
func rootStyle() *style {
	s := &style{
		color:         color.NRGBA{A: 255},
		fontFamily:    []string{fonts.SansSerif},
		fontSize:      defaultFontSize,
		fontWeight:    fonts.WeightNormal,
		fontStyle:     config.FontStyleNormal,
		lineHeight:    defaultLineHeight,
		lineHeightMul: true,
		textAlign:     "start",
		whiteSpace:    "normal",
		textTransform: "none",
	}
	s.resetBox()
	return s
}

// inherit creates style of a child: inherited properties are copied, the
// rest is reset to initial values.
func (s *style) inherit() *style {
	c := &style{
		color:         s.color,
		fontFamily:    s.fontFamily,
		fontSize:      s.fontSize,
		fontWeight:    s.fontWeight,
		fontStyle:     s.fontStyle,
		lineHeight:    s.lineHeight,
		lineHeightMul: s.lineHeightMul,
		textAlign:     s.textAlign,
		letterSpacing: s.letterSpacing,
		textTransform: s.textTransform,
		whiteSpace:    s.whiteSpace,
		decoration:    s.decoration,
	}
	c.resetBox()
	return c
}

func (s *style) resetBox() {
	s.display = "flex"
	s.position = "static"
	s.direction = "row"
	s.justify = "flex-start"
	s.alignItems = "stretch"
	s.alignSelf = "auto"
	s.shrink = 1
	s.basis = css.Auto
	s.width, s.height = css.Auto, css.Auto
	s.minW, s.minH = zero, zero
	s.maxW, s.maxH = css.Auto, css.Auto
	s.inset = edges{css.Auto, css.Auto, css.Auto, css.Auto}
	s.opacity = 1
	s.objectFit = "fill"
}

// lineHeightPx returns used line height in pixels.
func (s *style) lineHeightPx() float64 {
	if s.lineHeightMul {
		return s.lineHeight * s.fontSize
	}
	return s.lineHeight
}

func (s *style) row() bool {
	return s.direction == "row" || s.direction == "row-reverse"
}

func (s *style) reversed() bool {
	return strings.HasSuffix(s.direction, "-reverse")
}

// presets are user agent styles applied before inline ones.
var presets = map[string]css.Style{
	"b":      {{Property: "fontWeight", Value: "bold"}},
	"strong": {{Property: "fontWeight", Value: "bold"}},
	"i":      {{Property: "fontStyle", Value: "italic"}},
	"em":     {{Property: "fontStyle", Value: "italic"}},
	"cite":   {{Property: "fontStyle", Value: "italic"}},
	"u":      {{Property: "textDecoration", Value: "underline"}},
	"ins":    {{Property: "textDecoration", Value: "underline"}},
	"s":      {{Property: "textDecoration", Value: "line-through"}},
	"del":    {{Property: "textDecoration", Value: "line-through"}},
	"code":   {{Property: "fontFamily", Value: "monospace"}},
	"kbd":    {{Property: "fontFamily", Value: "monospace"}},
	"samp":   {{Property: "fontFamily", Value: "monospace"}},
	"pre":    {{Property: "fontFamily", Value: "monospace"}, {Property: "whiteSpace", Value: "pre"}, {Property: "margin", Value: "1em 0"}},
	"small":  {{Property: "fontSize", Value: "0.83em"}},
	"p":      {{Property: "margin", Value: "1em 0"}},
	"h1":     heading("2em", "0.67em"),
	"h2":     heading("1.5em", "0.83em"),
	"h3":     heading("1.17em", "1em"),
	"h4":     heading("1em", "1.33em"),
	"h5":     heading("0.83em", "1.67em"),
	"h6":     heading("0.67em", "2.33em"),
}

func heading(size, margin string) css.Style {
	return css.Style{
		{Property: "fontSize", Value: size},
		{Property: "fontWeight", Value: "bold"},
		{Property: "margin", Value: margin + " 0"},
	}
}

// computeStyle resolves element style against parent.
func computeStyle(parent *style, tag string, inline css.Style, rootFontSize float64, log *zap.Logger) *style {
	s := parent.inherit()
	for _, decls := range []css.Style{presets[tag], inline} {
		// font size first, em lengths of other properties depend on it
		if v, ok := decls.Get("fontSize"); ok {
			s.applyFontSize(v, parent.fontSize, rootFontSize)
		}
		for _, d := range decls {
			if d.Property == "fontSize" {
				continue
			}
			if !s.apply(d.Property, strings.TrimSpace(d.Value), rootFontSize) {
				log.Debug("Unsupported style property ignored", zap.String("tag", tag), zap.String("property", d.Property), zap.String("value", d.Value))
			}
		}
	}
	for i, set := range s.borderSet {
		if !set {
			s.borderC[i] = s.color
		}
	}
	return s
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32, "xxx-large": 48,
}

func (s *style) applyFontSize(v string, parentSize, rootSize float64) {
	v = strings.ToLower(strings.TrimSpace(v))
	if px, ok := fontSizeKeywords[v]; ok {
		s.fontSize = px
		return
	}
	switch v {
	case "smaller":
		s.fontSize = parentSize / 1.2
		return
	case "larger":
		s.fontSize = parentSize * 1.2
		return
	}
	l, ok := css.ParseLength(v)
	if !ok || l.IsAuto() {
		return
	}
	s.fontSize = math.Max(0, l.Px(css.LengthContext{FontSize: parentSize, RootFontSize: rootSize, Basis: parentSize}))
}

func parseLength(v string) (css.Length, bool) {
	l, ok := css.ParseLength(v)
	return l, ok
}

// parseBox parses 1 to 4 values shorthand (margin, padding, inset).
func parseBox(v string, parse func(string) (css.Length, bool)) (edges, bool) {
	f := css.Fields(v)
	var vals []css.Length
	for _, s := range f {
		l, ok := parse(s)
		if !ok {
			return edges{}, false
		}
		vals = append(vals, l)
	}
	switch len(vals) {
	case 1:
		return edges{vals[0], vals[0], vals[0], vals[0]}, true
	case 2:
		return edges{vals[0], vals[1], vals[0], vals[1]}, true
	case 3:
		return edges{vals[0], vals[1], vals[2], vals[1]}, true
	case 4:
		return edges{vals[0], vals[1], vals[2], vals[3]}, true
	}
	return edges{}, false
}

var sideNames = [4]string{"Top", "Right", "Bottom", "Left"}

var insetIndex = map[string]int{"top": top, "right": right, "bottom": bottom, "left": left}

var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

func parseBorderWidth(v string) (css.Length, bool) {
	if px, ok := borderWidthKeywords[strings.ToLower(v)]; ok {
		return css.Length{Value: px}, true
	}
	l, ok := css.ParseLength(v)
	if !ok || l.IsAuto() {
		return css.Length{}, false
	}
	return l, true
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "solid": true, "dashed": true, "dotted": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// applyBorder handles "1px solid red" for given sides.
func (s *style) applyBorder(v string, sides ...int) bool {
	width, visible := css.Length{Value: 3}, true
	var col *color.NRGBA
	for _, f := range css.Fields(v) {
		lf := strings.ToLower(f)
		if borderStyles[lf] {
			visible = lf != "none" && lf != "hidden"
			continue
		}
		if l, ok := parseBorderWidth(f); ok {
			width = l
			continue
		}
		if c, ok := css.ParseColor(f, s.color); ok {
			col = &c
			continue
		}
		return false
	}
	if !visible {
		width = zero
	}
	for _, i := range sides {
		s.borderW[i] = width
		if col != nil {
			s.borderC[i], s.borderSet[i] = *col, true
		} else {
			s.borderSet[i] = false
		}
	}
	return true
}

func parseWeight(v string, parent fonts.Weight) (fonts.Weight, bool) {
	switch strings.ToLower(v) {
	case "normal":
		return fonts.WeightNormal, true
	case "bold":
		return fonts.WeightBold, true
	case "bolder":
		switch {
		case parent < 400:
			return 400, true
		case parent < 600:
			return 700, true
		}
		return 900, true
	case "lighter":
		switch {
		case parent < 600:
			return 100, true
		case parent < 800:
			return 400, true
		}
		return 700, true
	}
	n, ok := css.ParseNumber(v)
	if !ok || n < 1 || n > 1000 {
		return 0, false
	}
	// faces come in hundreds
	return fonts.Weight(min(900, max(100, math.Round(n/100)*100))), true
}

// apply sets single property, returns false when property or value is not
// supported.
func (s *style) apply(prop, v string, rootFontSize float64) bool {
	lctx := css.LengthContext{FontSize: s.fontSize, RootFontSize: rootFontSize}
	lv := strings.ToLower(v)

	setLength := func(dst *css.Length) bool {
		l, ok := parseLength(v)
		if ok {
			*dst = l
		}
		return ok
	}
	setKeyword := func(dst *string, allowed ...string) bool {
		for _, a := range allowed {
			if lv == a {
				*dst = a
				return true
			}
		}
		return false
	}

	switch prop {
	case "display":
		switch lv {
		case "flex", "block", "inline", "inline-block", "inline-flex":
			s.display = "flex"
		case "none":
			s.display = "none"
		default:
			return false
		}
	case "position":
		return setKeyword(&s.position, "static", "relative", "absolute")
	case "flexDirection":
		return setKeyword(&s.direction, "row", "column", "row-reverse", "column-reverse")
	case "flexWrap":
		// single line only
		return lv == "nowrap"
	case "flexFlow":
		for _, f := range css.Fields(lv) {
			switch f {
			case "row", "column", "row-reverse", "column-reverse":
				s.direction = f
			case "nowrap":
			default:
				return false
			}
		}
	case "justifyContent":
		switch lv {
		case "start", "left":
			s.justify = "flex-start"
		case "end", "right":
			s.justify = "flex-end"
		default:
			return setKeyword(&s.justify, "flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly", "normal")
		}
	case "alignItems":
		return setAlign(&s.alignItems, lv, false)
	case "alignSelf":
		return setAlign(&s.alignSelf, lv, true)
	case "flexGrow":
		n, ok := css.ParseNumber(v)
		if ok && n >= 0 {
			s.grow = n
		}
		return ok
	case "flexShrink":
		n, ok := css.ParseNumber(v)
		if ok && n >= 0 {
			s.shrink = n
		}
		return ok
	case "flexBasis":
		if lv == "content" {
			s.basis = css.Auto
			return true
		}
		return setLength(&s.basis)
	case "flex":
		return s.applyFlex(lv)
	case "width":
		return setLength(&s.width)
	case "height":
		return setLength(&s.height)
	case "minWidth":
		return setLength(&s.minW)
	case "minHeight":
		return setLength(&s.minH)
	case "maxWidth":
		if lv == "none" {
			s.maxW = css.Auto
			return true
		}
		return setLength(&s.maxW)
	case "maxHeight":
		if lv == "none" {
			s.maxH = css.Auto
			return true
		}
		return setLength(&s.maxH)
	case "margin":
		e, ok := parseBox(v, parseLength)
		if ok {
			s.margin = e
		}
		return ok
	case "padding":
		e, ok := parseBox(v, parseLength)
		if ok {
			s.padding = e
		}
		return ok
	case "marginTop", "marginRight", "marginBottom", "marginLeft":
		return setLength(&s.margin[sideIndex(prop, "margin")])
	case "paddingTop", "paddingRight", "paddingBottom", "paddingLeft":
		return setLength(&s.padding[sideIndex(prop, "padding")])
	case "inset":
		e, ok := parseBox(v, parseLength)
		if ok {
			s.inset = e
		}
		return ok
	case "top", "right", "bottom", "left":
		return setLength(&s.inset[insetIndex[prop]])
	case "gap":
		f := css.Fields(v)
		if len(f) == 0 || len(f) > 2 {
			return false
		}
		r, ok1 := parseLength(f[0])
		c, ok2 := r, ok1
		if len(f) == 2 {
			c, ok2 = parseLength(f[1])
		}
		if !ok1 || !ok2 {
			return false
		}
		s.rowGap, s.colGap = r, c
	case "rowGap":
		return setLength(&s.rowGap)
	case "columnGap":
		return setLength(&s.colGap)
	case "border":
		return s.applyBorder(v, top, right, bottom, left)
	case "borderTop", "borderRight", "borderBottom", "borderLeft":
		return s.applyBorder(v, sideIndex(prop, "border"))
	case "borderWidth":
		e, ok := parseBox(v, parseBorderWidth)
		if ok {
			s.borderW = e
		}
		return ok
	case "borderTopWidth", "borderRightWidth", "borderBottomWidth", "borderLeftWidth":
		l, ok := parseBorderWidth(v)
		if ok {
			s.borderW[sideIndex(strings.TrimSuffix(prop, "Width"), "border")] = l
		}
		return ok
	case "borderColor":
		var cols []color.NRGBA
		for _, f := range css.Fields(v) {
			c, ok := css.ParseColor(f, s.color)
			if !ok {
				return false
			}
			cols = append(cols, c)
		}
		switch len(cols) {
		case 1:
			s.borderC = [4]color.NRGBA{cols[0], cols[0], cols[0], cols[0]}
		case 2:
			s.borderC = [4]color.NRGBA{cols[0], cols[1], cols[0], cols[1]}
		case 3:
			s.borderC = [4]color.NRGBA{cols[0], cols[1], cols[2], cols[1]}
		case 4:
			s.borderC = [4]color.NRGBA{cols[0], cols[1], cols[2], cols[3]}
		default:
			return false
		}
		s.borderSet = [4]bool{true, true, true, true}
	case "borderTopColor", "borderRightColor", "borderBottomColor", "borderLeftColor":
		c, ok := css.ParseColor(v, s.color)
		if ok {
			i := sideIndex(strings.TrimSuffix(prop, "Color"), "border")
			s.borderC[i], s.borderSet[i] = c, true
		}
		return ok
	case "borderStyle":
		if lv == "none" || lv == "hidden" {
			s.borderW = [4]css.Length{}
			return true
		}
		return borderStyles[lv]
	case "borderRadius":
		// elliptical radii are not supported, vertical part is dropped
		if i := strings.IndexByte(v, '/'); i >= 0 {
			v = v[:i]
		}
		e, ok := parseBox(v, parseLength)
		if ok {
			// shorthand order is corners, not sides
			s.radii = e
		}
		return ok
	case "borderTopLeftRadius":
		return setLength(&s.radii[0])
	case "borderTopRightRadius":
		return setLength(&s.radii[1])
	case "borderBottomRightRadius":
		return setLength(&s.radii[2])
	case "borderBottomLeftRadius":
		return setLength(&s.radii[3])
	case "backgroundColor":
		c, ok := css.ParseColor(v, s.color)
		if ok {
			s.background = &c
		}
		return ok
	case "background":
		if strings.Contains(lv, "gradient(") || strings.Contains(lv, "url(") {
			s.bgImage = v
			return true
		}
		c, ok := css.ParseColor(v, s.color)
		if ok {
			s.background = &c
		}
		return ok
	case "backgroundImage":
		if lv == "none" {
			s.bgImage = ""
			return true
		}
		s.bgImage = v
	case "backgroundSize":
		s.bgSize = lv
	case "opacity":
		n, ok := css.ParseNumber(strings.TrimSuffix(v, "%"))
		if !ok {
			return false
		}
		if strings.HasSuffix(v, "%") {
			n /= 100
		}
		s.opacity = min(1, max(0, n))
	case "objectFit":
		return setKeyword(&s.objectFit, "fill", "contain", "cover", "none", "scale-down")
	case "color":
		c, ok := css.ParseColor(v, s.color)
		if ok {
			s.color = c
		}
		return ok
	case "fontFamily":
		f := css.FontFamilies(v)
		if len(f) == 0 {
			return false
		}
		s.fontFamily = f
	case "fontWeight":
		w, ok := parseWeight(v, s.fontWeight)
		if ok {
			s.fontWeight = w
		}
		return ok
	case "fontStyle":
		switch lv {
		case "normal":
			s.fontStyle = config.FontStyleNormal
		case "italic", "oblique":
			s.fontStyle = config.FontStyleItalic
		default:
			return false
		}
	case "lineHeight":
		if lv == "normal" {
			s.lineHeight, s.lineHeightMul = defaultLineHeight, true
			return true
		}
		if n, ok := css.ParseNumber(v); ok {
			s.lineHeight, s.lineHeightMul = n, true
			return true
		}
		l, ok := css.ParseLength(v)
		if !ok || l.IsAuto() {
			return false
		}
		lctx.Basis = s.fontSize
		s.lineHeight, s.lineHeightMul = l.Px(lctx), false
	case "textAlign":
		return setKeyword(&s.textAlign, "left", "right", "center", "justify", "start", "end")
	case "letterSpacing":
		if lv == "normal" {
			s.letterSpacing = 0
			return true
		}
		l, ok := css.ParseLength(v)
		if !ok || l.IsAuto() {
			return false
		}
		s.letterSpacing = l.Px(lctx)
	case "textTransform":
		return setKeyword(&s.textTransform, "none", "uppercase", "lowercase", "capitalize")
	case "whiteSpace":
		return setKeyword(&s.whiteSpace, "normal", "nowrap", "pre", "pre-wrap", "pre-line")
	case "textDecoration", "textDecorationLine":
		for _, f := range css.Fields(lv) {
			if f == "underline" || f == "line-through" || f == "none" {
				s.decoration = strings.TrimPrefix(f, "none")
				return true
			}
		}
		return false
	default:
		return css.IsCustomProperty(prop)
	}
	return true
}

func setAlign(dst *string, v string, self bool) bool {
	switch v {
	case "start", "self-start":
		*dst = "flex-start"
	case "end", "self-end":
		*dst = "flex-end"
	case "normal":
		*dst = "stretch"
	case "flex-start", "flex-end", "center", "baseline", "stretch":
		*dst = v
	case "auto":
		if !self {
			return false
		}
		*dst = v
	default:
		return false
	}
	return true
}

func sideIndex(prop, prefix string) int {
	name := strings.TrimPrefix(prop, prefix)
	for i, s := range sideNames {
		if s == name {
			return i
		}
	}
	return top
}

func (s *style) applyFlex(v string) bool {
	switch v {
	case "none":
		s.grow, s.shrink, s.basis = 0, 0, css.Auto
		return true
	case "auto":
		s.grow, s.shrink, s.basis = 1, 1, css.Auto
		return true
	case "initial":
		s.grow, s.shrink, s.basis = 0, 1, css.Auto
		return true
	}
	f := css.Fields(v)
	if len(f) == 0 || len(f) > 3 {
		return false
	}
	grow, shrink, basis := 0.0, 1.0, css.Length{}
	var numbers int
	for _, p := range f {
		if n, ok := css.ParseNumber(p); ok && numbers < 2 {
			if numbers == 0 {
				grow = n
			} else {
				shrink = n
			}
			numbers++
			continue
		}
		l, ok := css.ParseLength(p)
		if !ok {
			return false
		}
		basis = l
	}
	s.grow, s.shrink, s.basis = grow, shrink, basis
	return true
}
