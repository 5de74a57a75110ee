// Package layout computes positions of element tree boxes using a subset of
// flexbox and produces a scene ready for drawing.
package layout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ogcard/fonts"
	"ogcard/markup"
	"ogcard/scene"
)

// ImageLoader returns raw bytes of image referenced by src attribute or
// url() value.
type ImageLoader interface {
	Load(ctx context.Context, src string) ([]byte, error)
}

// EmojiLoader returns image (svg or raster) for emoji cluster.
type EmojiLoader interface {
	Load(ctx context.Context, cluster string) ([]byte, error)
}

type Options struct {
	Width, Height int
	Fonts         *fonts.Collection
	// Images could be nil, then every image fails to load.
	Images ImageLoader
	// Emoji is optional, when nil emoji are drawn with fonts.
	Emoji EmojiLoader
	// Debug adds rect for every box so writers could outline it.
	Debug bool
	Log   *zap.Logger
}

var errNoImageLoader = errors.New("image loader is not configured")

type layouter struct {
	ctx    context.Context
	opts   Options
	log    *zap.Logger
	fonts  *fonts.Collection
	vw, vh float64
	// root element font size for rem units
	rem float64

	// decoded images by source, a document often repeats the same picture
	images map[string]*picture
	emoji  map[string]*picture
}

// Layout lays element tree out into image of requested size. Root element
// gets the whole image as its box.
func Layout(ctx context.Context, root *markup.Element, opts Options) (*scene.Scene, error) {
	if root == nil {
		return nil, errors.New("nothing to lay out")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}
	if opts.Fonts == nil {
		return nil, errors.New("font collection is required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	l := &layouter{
		ctx:    ctx,
		opts:   opts,
		log:    log.Named("layout"),
		fonts:  opts.Fonts,
		vw:     float64(opts.Width),
		vh:     float64(opts.Height),
		rem:    defaultFontSize,
		images: make(map[string]*picture),
		emoji:  make(map[string]*picture),
	}

	rs := rootStyle()
	// rem units of the root element refer to the initial value
	st := computeStyle(rs, root.Tag, root.Style, l.rem, l.log)
	l.rem = st.fontSize

	b, err := l.buildWith(root, st)
	if err != nil {
		return nil, err
	}
	sc := scene.New(opts.Width, opts.Height)
	if b == nil {
		return sc, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.resolveEdges(b, l.vw, l.vh, true)
	w, ok := l.specifiedW(b)
	if !ok {
		w = l.clampW(b, l.vw-b.marginW())
	}
	h, ok := l.specifiedH(b)
	if !ok {
		h = l.clampH(b, l.vh-b.marginH())
	}
	l.layout(b, w, h, true)
	b.x, b.y = b.margin[left], b.margin[top]

	l.paint(sc, b, 0, 0, 1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sc, nil
}
