package fonts

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"ogcard/config"
)

var buffers = sync.Pool{New: func() any { return new(sfnt.Buffer) }}

// Face is a parsed font ready for measuring and drawing. All metrics are
// returned in pixels for requested font size.
type Face struct {
	Name   string
	Weight Weight
	Style  config.FontStyle

	sf   *sfnt.Font
	upem float64
}

func newFace(f Font) (*Face, error) {
	sf, err := sfnt.Parse(f.Data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse font %q: %w", f.Name, err)
	}
	upem := float64(sf.UnitsPerEm())
	if upem <= 0 {
		return nil, fmt.Errorf("font %q has invalid units per em", f.Name)
	}
	return &Face{Name: f.Name, Weight: f.Weight, Style: f.Style, sf: sf, upem: upem}, nil
}

// all measurements are taken at ppem equal to units per em so values are
// exact font units (in 26.6) and could be scaled to any size
func (f *Face) ppem() fixed.Int26_6 {
	return fixed.Int26_6(int(f.upem) << 6)
}

func (f *Face) scale(v fixed.Int26_6, size float64) float64 {
	return float64(v) / 64 * size / f.upem
}

// Metrics are vertical font metrics in pixels.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

func (f *Face) Metrics(size float64) Metrics {
	b := buffers.Get().(*sfnt.Buffer)
	defer buffers.Put(b)

	m, err := f.sf.Metrics(b, f.ppem(), font.HintingNone)
	if err != nil {
		return Metrics{Ascent: size * 0.8, Descent: size * 0.2}
	}
	res := Metrics{Ascent: f.scale(m.Ascent, size), Descent: f.scale(m.Descent, size)}
	if gap := f.scale(m.Height, size) - res.Ascent - res.Descent; gap > 0 {
		res.LineGap = gap
	}
	return res
}

// GlyphIndex returns glyph for the rune, ok is false when font does not have
// it.
func (f *Face) GlyphIndex(r rune) (sfnt.GlyphIndex, bool) {
	b := buffers.Get().(*sfnt.Buffer)
	defer buffers.Put(b)

	g, err := f.sf.GlyphIndex(b, r)
	if err != nil || g == 0 {
		return 0, false
	}
	return g, true
}

func (f *Face) HasGlyph(r rune) bool {
	_, ok := f.GlyphIndex(r)
	return ok
}

func (f *Face) Advance(g sfnt.GlyphIndex, size float64) float64 {
	b := buffers.Get().(*sfnt.Buffer)
	defer buffers.Put(b)

	adv, err := f.sf.GlyphAdvance(b, g, f.ppem(), font.HintingNone)
	if err != nil {
		return 0
	}
	return f.scale(adv, size)
}

// Kern returns kerning adjustment between two glyphs, 0 when font has none.
func (f *Face) Kern(a, b sfnt.GlyphIndex, size float64) float64 {
	buf := buffers.Get().(*sfnt.Buffer)
	defer buffers.Put(buf)

	k, err := f.sf.Kern(buf, a, b, f.ppem(), font.HintingNone)
	if err != nil {
		return 0
	}
	return f.scale(k, size)
}

// Outline returns glyph outline in font units (26.6, y axis pointing down)
// with origin on the baseline. Multiply coordinates by Scale(size) to get
// pixels.
func (f *Face) Outline(g sfnt.GlyphIndex) (sfnt.Segments, error) {
	b := buffers.Get().(*sfnt.Buffer)
	defer buffers.Put(b)

	segs, err := f.sf.LoadGlyph(b, g, f.ppem(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to load glyph %d of %q: %w", g, f.Name, err)
	}
	// buffer is reused, segments must be copied out
	out := make(sfnt.Segments, len(segs))
	copy(out, segs)
	return out, nil
}

// Scale converts outline coordinates to pixels for font size.
func (f *Face) Scale(size float64) float64 {
	return size / (f.upem * 64)
}

// Collection is an immutable set of parsed faces grouped by family. It is
// safe for concurrent use.
type Collection struct {
	log      *zap.Logger
	families map[string][]*Face
	order    []string
	// preferred family stands in for sans-serif and generic aliases
	preferred string
}

// NewCollection parses fonts, broken ones are logged and skipped. Family
// registered first becomes fallback for unknown families.
func NewCollection(fonts []Font, log *zap.Logger) (*Collection, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Collection{log: log.Named("fonts"), families: make(map[string][]*Face)}
	if c.add(fonts) == 0 {
		return nil, errors.New("no usable fonts")
	}
	return c, nil
}

func (c *Collection) add(fonts []Font) int {
	var added int
	for _, f := range fonts {
		if err := f.Validate(); err != nil {
			c.log.Warn("Skipping font", zap.Error(err))
			continue
		}
		face, err := newFace(f)
		if err != nil {
			c.log.Warn("Skipping font", zap.Error(err))
			continue
		}
		key := strings.ToLower(f.Name)
		if _, ok := c.families[key]; !ok {
			c.order = append(c.order, key)
		}
		c.families[key] = append(c.families[key], face)
		added++
	}
	return added
}

// With returns collection with additional fonts taking precedence over
// already registered ones. Receiver is not modified, unusable fonts are
// logged and skipped.
func (c *Collection) With(fonts []Font) *Collection {
	if len(fonts) == 0 {
		return c
	}
	n := &Collection{log: c.log, families: make(map[string][]*Face, len(c.families)), preferred: c.preferred}
	if n.add(fonts) > 0 {
		n.preferred = n.order[0]
	}
	for _, key := range c.order {
		if _, ok := n.families[key]; !ok {
			n.order = append(n.order, key)
		}
		n.families[key] = append(n.families[key], c.families[key]...)
	}
	return n
}

// Families returns registered family names (lowercase) in precedence order.
func (c *Collection) Families() []string {
	return append([]string(nil), c.order...)
}

var generic = map[string]string{
	"serif":         SansSerif,
	"system-ui":     SansSerif,
	"ui-sans-serif": SansSerif,
	"ui-serif":      SansSerif,
	"cursive":       SansSerif,
	"fantasy":       SansSerif,
	"ui-monospace":  Monospace,
}

// Match selects face following CSS font matching: first family from the list
// which is known, then style, then closest weight. When nothing matches face
// from the first registered family is used. Fonts added by With replace
// embedded proportional family: sans-serif and its generic aliases resolve to
// the first added family.
func (c *Collection) Match(families []string, weight Weight, style config.FontStyle) *Face {
	for _, name := range families {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exact := c.families[key]; !exact {
			if alias, known := generic[key]; known {
				key = alias
			}
		}
		if key == SansSerif && c.preferred != "" {
			key = c.preferred
		}
		if faces, ok := c.families[key]; ok {
			return pick(faces, weight, style)
		}
	}
	if len(c.order) == 0 {
		return nil
	}
	return pick(c.families[c.order[0]], weight, style)
}

// Fallback returns face which has glyph for the rune. Primary face is
// checked first, then every registered family in order. When nobody has the
// glyph primary is returned.
func (c *Collection) Fallback(r rune, primary *Face) *Face {
	if primary != nil && primary.HasGlyph(r) {
		return primary
	}
	weight, style := WeightNormal, config.FontStyleNormal
	if primary != nil {
		weight, style = primary.Weight, primary.Style
	}
	for _, key := range c.order {
		if f := pick(c.families[key], weight, style); f != nil && f != primary && f.HasGlyph(r) {
			return f
		}
	}
	return primary
}

func pick(faces []*Face, weight Weight, style config.FontStyle) *Face {
	var candidates []*Face
	for _, f := range faces {
		if f.Style == style {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		candidates = faces
	}
	var best *Face
	for _, f := range candidates {
		if best == nil || weightCloser(weight, f.Weight, best.Weight) {
			best = f
		}
	}
	return best
}

// weightCloser reports whether weight a is better match than b for desired
// weight per CSS fallback rules.
func weightCloser(desired, a, b Weight) bool {
	if a == desired || b == desired {
		return a == desired && b != desired
	}
	ra, rb := weightRank(desired, a), weightRank(desired, b)
	if ra != rb {
		return ra < rb
	}
	return abs(a-desired) < abs(b-desired)
}

// weightRank groups candidate weights by preferred search direction
func weightRank(desired, w Weight) int {
	switch {
	case desired >= 400 && desired <= 500:
		if w >= desired && w <= 500 {
			return 0
		}
		if w < desired {
			return 1
		}
		return 2
	case desired < 400:
		if w <= desired {
			return 0
		}
		return 1
	default:
		if w >= desired {
			return 0
		}
		return 1
	}
}

func abs(w Weight) Weight {
	if w < 0 {
		return -w
	}
	return w
}
