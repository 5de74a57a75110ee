// Package response produces ready to send image responses from markup or
// element trees.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ogcard/config"
	"ogcard/fonts"
	"ogcard/markup"
	"ogcard/render"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 630

	cacheImmutable = "public, immutable, no-transform, max-age=31536000"
	cacheDisabled  = "no-cache, no-store"
)

// ErrUnsupportedInput is returned for input which is neither markup text nor
// element tree.
var ErrUnsupportedInput = errors.New("unsupported input")

// Renderer draws element tree, implemented by *render.Engine.
type Renderer interface {
	Render(ctx context.Context, root *markup.Element, opts render.RenderOptions) ([]byte, error)
}

// Options describe produced image and response. Zero values select defaults:
// 1200x630 png with status 200.
type Options struct {
	Width, Height int
	Format        config.OutputFmt
	Fonts         []fonts.Font
	Emoji         config.EmojiType
	Debug         bool
	// Headers are applied after computed ones and win.
	Headers map[string]string
	Status  int
	// StatusText is informational, net/http always sends standard reason
	// phrase.
	StatusText string
	// BaseDir allows local image sources, see render.RenderOptions.
	BaseDir string
	Log     *zap.Logger
}

type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

func (o Options) normalize() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Status == 0 {
		o.Status = http.StatusOK
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// CreateImage renders input and wraps result into response. Input is either
// markup text or *markup.Element. Renderer errors are returned wrapped.
func CreateImage(ctx context.Context, r Renderer, input any, opts Options) (*Response, error) {
	opts = opts.normalize()

	var root *markup.Element
	switch v := input.(type) {
	case string:
		root = markup.Parse(v, opts.Log)
	case *markup.Element:
		if v == nil {
			return nil, fmt.Errorf("%w: nil element", ErrUnsupportedInput)
		}
		root = v
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
	}
	if !opts.Format.IsValid() {
		return nil, fmt.Errorf("%w: %s", render.ErrUnsupportedFormat, opts.Format)
	}

	body, err := r.Render(ctx, root, render.RenderOptions{
		Width:   opts.Width,
		Height:  opts.Height,
		Format:  opts.Format,
		Fonts:   opts.Fonts,
		Emoji:   opts.Emoji,
		Debug:   opts.Debug,
		BaseDir: opts.BaseDir,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render image: %w", err)
	}

	return &Response{
		Status:     opts.Status,
		StatusText: opts.StatusText,
		Header:     Headers(opts.Format, opts.Debug, opts.Headers),
		Body:       body,
	}, nil
}

// Headers computes response headers for the image. Custom headers are applied
// last and override computed ones.
func Headers(format config.OutputFmt, debug bool, custom map[string]string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", format.ContentType())
	if debug {
		h.Set("Cache-Control", cacheDisabled)
	} else {
		h.Set("Cache-Control", cacheImmutable)
	}
	for k, v := range custom {
		h.Set(k, v)
	}
	return h
}

// ServeHTTP writes response as is, so prepared image could be used as
// handler.
func (r *Response) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	for k, v := range r.Header {
		w.Header()[k] = v
	}
	if w.Header().Get("Content-Length") == "" {
		w.Header().Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}
