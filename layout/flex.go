package layout

import (
	"math"

	"ogcard/css"
)

func (l *layouter) lengthContext(b *box, basis float64) css.LengthContext {
	return css.LengthContext{
		FontSize:       b.st.fontSize,
		RootFontSize:   l.rem,
		Basis:          basis,
		ViewportWidth:  l.vw,
		ViewportHeight: l.vh,
	}
}

// length resolves value to pixels, auto is 0.
func (l *layouter) length(b *box, v css.Length, basis float64) float64 {
	return v.Px(l.lengthContext(b, basis))
}

// definite reports whether length could be resolved without layout.
func definite(v css.Length, hasBasis bool) bool {
	return !v.IsAuto() && (v.Unit != css.UnitPercent || hasBasis)
}

// resolveEdges computes margins, paddings and borders. Percentages of all
// of them refer to containing block width.
func (l *layouter) resolveEdges(b *box, cbw, cbh float64, hasCBH bool) {
	b.cbw, b.cbh, b.hasCBH = cbw, cbh, hasCBH
	for i := range 4 {
		b.autoMargin[i] = b.st.margin[i].IsAuto()
		b.margin[i] = l.length(b, b.st.margin[i], cbw)
		b.padding[i] = math.Max(0, l.length(b, b.st.padding[i], cbw))
		b.border[i] = math.Max(0, l.length(b, b.st.borderW[i], cbw))
	}
}

func (b *box) edgeW() float64 {
	return b.padding[left] + b.padding[right] + b.border[left] + b.border[right]
}

func (b *box) edgeH() float64 {
	return b.padding[top] + b.padding[bottom] + b.border[top] + b.border[bottom]
}

func (b *box) marginW() float64 {
	return b.margin[left] + b.margin[right]
}

func (b *box) marginH() float64 {
	return b.margin[top] + b.margin[bottom]
}

func (b *box) contentLeft() float64 {
	return b.border[left] + b.padding[left]
}

func (b *box) contentTop() float64 {
	return b.border[top] + b.padding[top]
}

func (b *box) absolute() bool {
	return b.st.position == "absolute"
}

// clampW applies min and max width, box can never be narrower than its
// paddings and borders.
func (l *layouter) clampW(b *box, w float64) float64 {
	if !b.st.maxW.IsAuto() {
		w = math.Min(w, l.length(b, b.st.maxW, b.cbw))
	}
	return math.Max(w, math.Max(l.length(b, b.st.minW, b.cbw), b.edgeW()))
}

func (l *layouter) clampH(b *box, h float64) float64 {
	if definite(b.st.maxH, b.hasCBH) {
		h = math.Min(h, l.length(b, b.st.maxH, b.cbh))
	}
	mn := 0.0
	if definite(b.st.minH, b.hasCBH) {
		mn = l.length(b, b.st.minH, b.cbh)
	}
	return math.Max(h, math.Max(mn, b.edgeH()))
}

// specifiedW returns width set by style if it could be resolved.
func (l *layouter) specifiedW(b *box) (float64, bool) {
	if !definite(b.st.width, true) {
		return 0, false
	}
	return l.clampW(b, l.length(b, b.st.width, b.cbw)), true
}

func (l *layouter) specifiedH(b *box) (float64, bool) {
	if !definite(b.st.height, b.hasCBH) {
		return 0, false
	}
	return l.clampH(b, l.length(b, b.st.height, b.cbh)), true
}

func (l *layouter) inFlow(b *box) []*box {
	items := make([]*box, 0, len(b.children))
	for _, c := range b.children {
		if !c.absolute() {
			items = append(items, c)
		}
	}
	return items
}

// maxContent returns border box width the box would take if nothing
// constrained it. Edges must be resolved.
func (l *layouter) maxContent(b *box) float64 {
	if w, ok := l.specifiedW(b); ok {
		return w
	}
	switch b.kind {
	case boxText:
		return l.clampW(b, l.textWidth(b))
	case boxImage:
		w, _ := l.imageSize(b, 0, false)
		return w
	}
	var inner float64
	items := l.inFlow(b)
	for _, c := range items {
		l.resolveEdges(c, b.cbw, 0, false)
		cw := l.maxContent(c) + c.marginW()
		if b.st.row() {
			inner += cw
		} else {
			inner = math.Max(inner, cw)
		}
	}
	if b.st.row() && len(items) > 1 {
		inner += l.length(b, b.st.colGap, b.cbw) * float64(len(items)-1)
	}
	return l.clampW(b, inner+b.edgeW())
}

// imageSize returns border box of image box keeping aspect ratio for
// missing dimensions.
func (l *layouter) imageSize(b *box, w float64, hasW bool) (float64, float64) {
	iw, ih := 0.0, 0.0
	if b.pic != nil {
		iw, ih = b.pic.iw, b.pic.ih
	}
	if !hasW {
		w, hasW = l.specifiedW(b)
	}
	h, hasH := l.specifiedH(b)
	switch {
	case hasW && hasH:
	case hasW:
		h = ih + b.edgeH()
		if iw > 0 {
			h = l.clampH(b, (w-b.edgeW())*ih/iw+b.edgeH())
		}
	case hasH:
		w = iw + b.edgeW()
		if ih > 0 {
			w = l.clampW(b, (h-b.edgeH())*iw/ih+b.edgeW())
		}
	default:
		w, h = l.clampW(b, iw+b.edgeW()), l.clampH(b, ih+b.edgeH())
	}
	return w, h
}

// layout sizes the box to border box width w and, when hasH is set, height
// h, then positions its children.
func (l *layouter) layout(b *box, w, h float64, hasH bool) {
	b.w = w
	switch b.kind {
	case boxText:
		b.lines = l.breakLines(b, w)
		b.h = h
		if !hasH {
			b.h = linesHeight(b.lines)
		}
		return
	case boxImage:
		b.h = h
		if !hasH {
			_, b.h = l.imageSize(b, w, true)
		}
		return
	}

	cw := math.Max(0, w-b.edgeW())
	ch := math.Max(0, h-b.edgeH())
	var content float64
	if b.st.row() {
		content = l.layoutRow(b, cw, ch, hasH)
	} else {
		content = l.layoutColumn(b, cw, ch, hasH)
	}
	if !hasH {
		natural := content + b.edgeH()
		if clamped := l.clampH(b, natural); clamped != natural {
			// min or max height makes height definite, children have to
			// be distributed again
			l.layout(b, w, clamped, true)
			return
		}
		h = natural
	}
	b.h = h
	l.layoutAbsolute(b)
}

func (l *layouter) alignOf(item, container *box) string {
	if item.st.alignSelf != "auto" {
		return item.st.alignSelf
	}
	return container.st.alignItems
}

// grow and shrink items along main axis, returns remaining free space.
func (l *layouter) flex(items []*box, sizes []float64, free float64, row bool) float64 {
	clamp := l.clampH
	if row {
		clamp = l.clampW
	}
	switch {
	case free > 0:
		var sum float64
		for _, it := range items {
			sum += it.st.grow
		}
		if sum == 0 {
			return free
		}
		share := free
		if sum < 1 {
			share = free * sum
		}
		for i, it := range items {
			if it.st.grow == 0 {
				continue
			}
			ns := clamp(it, sizes[i]+share*it.st.grow/sum)
			free -= ns - sizes[i]
			sizes[i] = ns
		}
	case free < 0:
		var sum float64
		for i, it := range items {
			sum += it.st.shrink * sizes[i]
		}
		if sum == 0 {
			return free
		}
		overflow := free
		for i, it := range items {
			weight := it.st.shrink * sizes[i]
			if weight == 0 {
				continue
			}
			ns := clamp(it, math.Max(0, sizes[i]+overflow*weight/sum))
			free -= ns - sizes[i]
			sizes[i] = ns
		}
	}
	return free
}

// justify returns offset of the first item and extra space between items.
func justify(mode string, free float64, n int) (start, between float64) {
	switch mode {
	case "flex-end":
		start = free
	case "center":
		start = free / 2
	case "space-between":
		if free > 0 && n > 1 {
			between = free / float64(n-1)
		}
	case "space-around":
		if free > 0 {
			between = free / float64(n)
			start = between / 2
		} else {
			start = free / 2
		}
	case "space-evenly":
		if free > 0 {
			between = free / float64(n+1)
			start = between
		} else {
			start = free / 2
		}
	}
	return start, between
}

// placeMain positions items along main axis. Free space goes to auto
// margins first, justify-content applies when there are none.
func placeMain(b *box, items []*box, sizes []float64, avail, gap float64, row bool) {
	n := len(items)
	if n == 0 {
		return
	}
	startSide, endSide := top, bottom
	if row {
		startSide, endSide = left, right
	}
	if b.st.reversed() {
		startSide, endSide = endSide, startSide
	}

	used := gap * float64(n-1)
	autos := 0
	for i, it := range items {
		used += sizes[i] + it.margin[startSide] + it.margin[endSide]
		for _, s := range [...]int{startSide, endSide} {
			if it.autoMargin[s] {
				autos++
			}
		}
	}
	free := avail - used

	var start, between float64
	if autos > 0 {
		if free > 0 {
			per := free / float64(autos)
			for _, it := range items {
				for _, s := range [...]int{startSide, endSide} {
					if it.autoMargin[s] {
						it.margin[s] = per
					}
				}
			}
		}
	} else {
		start, between = justify(b.st.justify, free, n)
	}

	pos := start
	origin, extent := b.contentTop(), func(it *box) float64 { return it.h }
	if row {
		origin, extent = b.contentLeft(), func(it *box) float64 { return it.w }
	}
	for _, it := range items {
		off := pos + it.margin[startSide]
		if b.st.reversed() {
			off = avail - off - extent(it)
		}
		if row {
			it.x = origin + off
		} else {
			it.y = origin + off
		}
		pos += it.margin[startSide] + extent(it) + it.margin[endSide] + gap + between
	}
}

// placeCross positions item inside the line along cross axis.
func (l *layouter) placeCross(b, it *box, line float64, row bool) {
	lo, hi, size, origin := left, right, it.w, b.contentLeft()
	if row {
		lo, hi, size, origin = top, bottom, it.h, b.contentTop()
	}
	free := line - size - it.margin[lo] - it.margin[hi]
	var off float64
	switch {
	case it.autoMargin[lo] && it.autoMargin[hi]:
		off = math.Max(0, free) / 2
	case it.autoMargin[lo]:
		off = math.Max(0, free)
	case it.autoMargin[hi]:
	default:
		switch l.alignOf(it, b) {
		case "flex-end":
			off = free
		case "center":
			off = free / 2
		}
	}
	pos := origin + it.margin[lo] + off
	if row {
		it.y = pos
	} else {
		it.x = pos
	}
}

func (l *layouter) stretches(it, b *box) bool {
	return l.alignOf(it, b) == "stretch"
}

func (l *layouter) layoutRow(b *box, cw, ch float64, hasCH bool) float64 {
	items := l.inFlow(b)
	gap := l.length(b, b.st.colGap, cw)
	sizes := make([]float64, len(items))
	used := gap * float64(max(0, len(items)-1))
	for i, it := range items {
		l.resolveEdges(it, cw, ch, hasCH)
		var base float64
		switch {
		case definite(it.st.basis, true):
			base = l.length(it, it.st.basis, cw)
		case definite(it.st.width, true):
			base = l.length(it, it.st.width, cw)
		default:
			base = l.maxContent(it)
		}
		sizes[i] = l.clampW(it, base)
		used += sizes[i] + it.marginW()
	}
	l.flex(items, sizes, cw-used, true)

	line := 0.0
	stretched := make([]bool, len(items))
	for i, it := range items {
		h, hasH := l.specifiedH(it)
		if !hasH && it.kind == boxImage {
			// images keep proportions instead of stretching
			_, h = l.imageSize(it, sizes[i], true)
			hasH = true
		}
		if !hasH && hasCH && l.stretches(it, b) && !it.autoMargin[top] && !it.autoMargin[bottom] {
			h, hasH = l.clampH(it, ch-it.marginH()), true
			stretched[i] = true
		}
		l.layout(it, sizes[i], h, hasH)
		line = math.Max(line, it.h+it.marginH())
	}
	if hasCH {
		line = ch
	} else {
		// line height is known only now, stretch items to it
		for i, it := range items {
			if _, ok := l.specifiedH(it); ok || it.kind == boxImage || stretched[i] {
				continue
			}
			if !l.stretches(it, b) || it.autoMargin[top] || it.autoMargin[bottom] {
				continue
			}
			if target := l.clampH(it, line-it.marginH()); target != it.h {
				l.layout(it, sizes[i], target, true)
			}
		}
	}

	placeMain(b, items, sizes, cw, gap, true)
	for _, it := range items {
		l.placeCross(b, it, line, true)
	}
	return line
}

func (l *layouter) layoutColumn(b *box, cw, ch float64, hasCH bool) float64 {
	items := l.inFlow(b)
	gap := l.length(b, b.st.rowGap, ch)
	widths := make([]float64, len(items))
	sizes := make([]float64, len(items))
	// natural height is known when item has been laid out already
	laid := make([]bool, len(items))
	used := gap * float64(max(0, len(items)-1))
	for i, it := range items {
		l.resolveEdges(it, cw, ch, hasCH)
		if w, ok := l.specifiedW(it); ok {
			widths[i] = w
		} else if l.stretches(it, b) && it.kind != boxImage && !it.autoMargin[left] && !it.autoMargin[right] {
			widths[i] = l.clampW(it, cw-it.marginW())
		} else {
			widths[i] = l.clampW(it, math.Min(l.maxContent(it), math.Max(0, cw-it.marginW())))
		}

		switch {
		case definite(it.st.basis, hasCH):
			sizes[i] = l.length(it, it.st.basis, ch)
		case definite(it.st.height, hasCH):
			sizes[i] = l.length(it, it.st.height, ch)
		default:
			l.layout(it, widths[i], 0, false)
			sizes[i], laid[i] = it.h, true
		}
		sizes[i] = l.clampH(it, sizes[i])
		used += sizes[i] + it.marginH()
	}
	if hasCH {
		l.flex(items, sizes, ch-used, false)
	}
	var total float64
	for i, it := range items {
		if !laid[i] || it.h != sizes[i] {
			l.layout(it, widths[i], sizes[i], true)
		}
		total += it.h + it.marginH()
	}
	total += gap * float64(max(0, len(items)-1))

	avail := total
	if hasCH {
		avail = ch
	}
	placeMain(b, items, sizes, avail, gap, false)
	for _, it := range items {
		l.placeCross(b, it, cw, false)
	}
	return total
}

// staticOffset aligns absolutely positioned box without insets the way
// container aligns its flow.
func staticOffset(mode string, free float64) float64 {
	switch mode {
	case "flex-end":
		return free
	case "center":
		return free / 2
	}
	return 0
}

// layoutAbsolute positions absolutely positioned children, their containing
// block is the padding box of b.
func (l *layouter) layoutAbsolute(b *box) {
	pw := math.Max(0, b.w-b.border[left]-b.border[right])
	ph := math.Max(0, b.h-b.border[top]-b.border[bottom])
	for _, c := range b.children {
		if !c.absolute() {
			continue
		}
		l.resolveEdges(c, pw, ph, true)
		var in [4]float64
		var has [4]bool
		for i := range 4 {
			if has[i] = !c.st.inset[i].IsAuto(); has[i] {
				basis := pw
				if i == top || i == bottom {
					basis = ph
				}
				in[i] = l.length(c, c.st.inset[i], basis)
			}
		}

		w, ok := l.specifiedW(c)
		if !ok {
			avail := math.Max(0, pw-in[left]-in[right]-c.marginW())
			if has[left] && has[right] {
				w = l.clampW(c, avail)
			} else {
				w = l.clampW(c, math.Min(l.maxContent(c), avail))
			}
		}
		h, hasH := l.specifiedH(c)
		if !hasH && has[top] && has[bottom] {
			h, hasH = l.clampH(c, ph-in[top]-in[bottom]-c.marginH()), true
		}
		l.layout(c, w, h, hasH)

		mainX := b.st.row()
		xMode, yMode := b.st.justify, l.alignOf(c, b)
		if !mainX {
			xMode, yMode = l.alignOf(c, b), b.st.justify
		}
		switch {
		case has[left]:
			c.x = b.border[left] + in[left] + c.margin[left]
		case has[right]:
			c.x = b.w - b.border[right] - in[right] - c.margin[right] - c.w
		default:
			free := b.w - b.edgeW() - c.w - c.marginW()
			c.x = b.contentLeft() + c.margin[left] + staticOffset(xMode, free)
		}
		switch {
		case has[top]:
			c.y = b.border[top] + in[top] + c.margin[top]
		case has[bottom]:
			c.y = b.h - b.border[bottom] - in[bottom] - c.margin[bottom] - c.h
		default:
			free := b.h - b.edgeH() - c.h - c.marginH()
			c.y = b.contentTop() + c.margin[top] + staticOffset(yMode, free)
		}
	}
}
