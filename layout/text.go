package layout

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font/sfnt"

	"ogcard/emoji"
	"ogcard/fonts"
)

type glyph struct {
	face  *fonts.Face
	index sfnt.GlyphIndex
	// offset from piece start
	x   float64
	adv float64
	// emoji cluster drawn as image instead of glyph
	emoji string
}

type pieceKind int

const (
	pieceWord pieceKind = iota
	pieceSpace
	pieceBreak
)

// piece is unbreakable unit of inline content.
type piece struct {
	kind   pieceKind
	st     *style
	face   *fonts.Face
	text   string
	glyphs []glyph
	width  float64
}

type placed struct {
	p *piece
	x float64
}

type line struct {
	items  []placed
	width  float64
	y      float64
	ascent float64
	height float64
}

func linesHeight(lines []line) float64 {
	if len(lines) == 0 {
		return 0
	}
	last := lines[len(lines)-1]
	return last.y + last.height
}

func collapsible(st *style) bool {
	switch st.whiteSpace {
	case "normal", "nowrap", "pre-line":
		return true
	}
	return false
}

func wraps(st *style) bool {
	return st.whiteSpace != "nowrap" && st.whiteSpace != "pre"
}

func keepsNewlines(st *style) bool {
	switch st.whiteSpace {
	case "pre", "pre-wrap", "pre-line":
		return true
	}
	return false
}

// breaksAlone reports characters which could be broken before and after
// without spaces.
func breaksAlone(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		(r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xffef)
}

// shape converts text into positioned glyphs using style font and fallback
// faces for characters it does not have.
func (l *layouter) shape(text string, st *style, primary *fonts.Face) ([]glyph, float64) {
	var (
		glyphs []glyph
		x      float64
		prev   *glyph
	)
	segs := []emoji.Segment{{Text: text}}
	if l.opts.Emoji != nil {
		segs = emoji.Split(text)
	}
	for _, seg := range segs {
		if seg.Emoji {
			glyphs = append(glyphs, glyph{x: x, adv: st.fontSize, emoji: seg.Text})
			x += st.fontSize + st.letterSpacing
			prev = nil
			continue
		}
		for _, r := range seg.Text {
			face := l.fonts.Fallback(r, primary)
			if face == nil {
				continue
			}
			idx, _ := face.GlyphIndex(r)
			if prev != nil && prev.face == face {
				x += face.Kern(prev.index, idx, st.fontSize)
			}
			g := glyph{face: face, index: idx, x: x, adv: face.Advance(idx, st.fontSize)}
			glyphs = append(glyphs, g)
			prev = &glyphs[len(glyphs)-1]
			x += g.adv + st.letterSpacing
		}
	}
	return glyphs, x
}

// normalizeSpace applies white-space processing to text of a run.
func normalizeSpace(s string, st *style) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	switch st.whiteSpace {
	case "pre", "pre-wrap":
		return strings.ReplaceAll(s, "\t", "        ")
	case "pre-line":
		lines := strings.Split(s, "\n")
		for i, ln := range lines {
			lines[i] = strings.Join(strings.Fields(ln), " ")
		}
		return strings.Join(lines, "\n")
	}
	return strings.Join(strings.Fields(s), " ")
}

// split turns runs into pieces. Adjacent runs are separated by a space since
// markup text is trimmed.
func (l *layouter) split(runs []run) []piece {
	var out []piece
	addSpace := func(st *style, face *fonts.Face) {
		if collapsible(st) && len(out) > 0 && out[len(out)-1].kind == pieceSpace {
			return
		}
		out = append(out, l.newPiece(pieceSpace, " ", st, face))
	}
	for i, r := range runs {
		if r.br {
			out = append(out, piece{kind: pieceBreak, st: r.st})
			continue
		}
		face := l.fonts.Match(r.st.fontFamily, r.st.fontWeight, r.st.fontStyle)
		if i > 0 && !runs[i-1].br && len(out) > 0 && out[len(out)-1].kind == pieceWord {
			addSpace(r.st, face)
		}
		var word strings.Builder
		flush := func() {
			if word.Len() > 0 {
				out = append(out, l.newPiece(pieceWord, word.String(), r.st, face))
				word.Reset()
			}
		}
		for _, c := range normalizeSpace(r.text, r.st) {
			switch {
			case c == '\n' && keepsNewlines(r.st):
				flush()
				out = append(out, piece{kind: pieceBreak, st: r.st, face: face})
			case c == ' ' || c == '\n':
				flush()
				addSpace(r.st, face)
			case breaksAlone(c):
				flush()
				word.WriteRune(c)
				flush()
			default:
				word.WriteRune(c)
			}
		}
		flush()
	}
	return out
}

func (l *layouter) newPiece(kind pieceKind, text string, st *style, face *fonts.Face) piece {
	p := piece{kind: kind, st: st, face: face, text: text}
	p.glyphs, p.width = l.shape(text, st, face)
	return p
}

func (l *layouter) shapeBox(b *box) {
	if !b.shaped {
		b.pieces = l.split(b.runs)
		b.shaped = true
	}
}

// textWidth is width of the widest line when text is not wrapped.
func (l *layouter) textWidth(b *box) float64 {
	var w float64
	for _, ln := range l.breakLines(b, math.Inf(1)) {
		w = math.Max(w, ln.width)
	}
	return w
}

// lineMetrics returns ascent and descent including half leading.
func lineMetrics(st *style, face *fonts.Face) (float64, float64) {
	asc, desc := st.fontSize*0.8, st.fontSize*0.2
	if face != nil {
		m := face.Metrics(st.fontSize)
		asc, desc = m.Ascent, m.Descent
	}
	half := (st.lineHeightPx() - asc - desc) / 2
	return asc + half, desc + half
}

// breakLines greedily fills lines of given width and aligns them.
func (l *layouter) breakLines(b *box, width float64) []line {
	l.shapeBox(b)

	var (
		lines  []line
		cur    line
		forced []bool
		x      float64
		words  int
	)
	finish := func(isForced bool, st *style, face *fonts.Face) {
		// trailing collapsible spaces do not take room
		for len(cur.items) > 0 {
			last := cur.items[len(cur.items)-1]
			if last.p.kind != pieceSpace || !collapsible(last.p.st) {
				break
			}
			cur.items = cur.items[:len(cur.items)-1]
		}
		cur.width = 0
		if n := len(cur.items); n > 0 {
			cur.width = cur.items[n-1].x + cur.items[n-1].p.width
		}
		var asc, desc float64
		if len(cur.items) == 0 {
			asc, desc = lineMetrics(st, face)
		}
		for _, it := range cur.items {
			a, d := lineMetrics(it.p.st, it.p.face)
			asc, desc = math.Max(asc, a), math.Max(desc, d)
		}
		cur.ascent, cur.height = asc, asc+desc
		lines = append(lines, cur)
		forced = append(forced, isForced)
		cur, x, words = line{}, 0, 0
	}

	for i := range b.pieces {
		p := &b.pieces[i]
		switch p.kind {
		case pieceBreak:
			finish(true, p.st, p.face)
			continue
		case pieceSpace:
			if len(cur.items) == 0 && collapsible(p.st) {
				continue
			}
		case pieceWord:
			if words > 0 && wraps(p.st) && x+p.width > width+0.01 {
				finish(false, nil, nil)
			}
			words++
		}
		cur.items = append(cur.items, placed{p: p, x: x})
		x += p.width
	}
	if len(cur.items) > 0 || len(lines) == 0 {
		st := b.st
		var face *fonts.Face
		if len(b.pieces) > 0 {
			last := b.pieces[len(b.pieces)-1]
			st, face = last.st, last.face
		}
		if face == nil {
			face = l.fonts.Match(st.fontFamily, st.fontWeight, st.fontStyle)
		}
		finish(true, st, face)
	}

	var y float64
	for i := range lines {
		lines[i].y = y
		y += lines[i].height
		if !math.IsInf(width, 1) {
			align(&lines[i], b.st.textAlign, width, forced[i])
		}
	}
	return lines
}

func align(ln *line, mode string, width float64, last bool) {
	free := width - ln.width
	var shift float64
	switch mode {
	case "right", "end":
		shift = free
	case "center":
		shift = free / 2
	case "justify":
		if last || free <= 0 {
			break
		}
		var spaces int
		for _, it := range ln.items {
			if it.p.kind == pieceSpace {
				spaces++
			}
		}
		if spaces == 0 {
			break
		}
		per, extra := free/float64(spaces), 0.0
		for i := range ln.items {
			ln.items[i].x += extra
			if ln.items[i].p.kind == pieceSpace {
				extra += per
			}
		}
		ln.width = width
		return
	}
	if shift == 0 {
		return
	}
	for i := range ln.items {
		ln.items[i].x += shift
	}
}
