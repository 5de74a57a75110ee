// Package render turns element trees into images. Engine keeps everything
// expensive to prepare (fonts, caches, loaders) and is shared by all
// requests.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ogcard/cache"
	"ogcard/config"
	"ogcard/emoji"
	"ogcard/fonts"
	"ogcard/layout"
	"ogcard/markup"
	"ogcard/remote"
	"ogcard/scene"
	"ogcard/utils/images"
)

// ErrUnsupportedFormat is returned when requested output format could not be
// produced.
var ErrUnsupportedFormat = errors.New("unsupported output format")

type EngineOptions struct {
	Fonts  config.FontsConfig
	Cache  config.CacheConfig
	Render config.RenderConfig
	Log    *zap.Logger

	// Client is used for all remote resources, when nil client with
	// configured fetch timeout is created.
	Client *http.Client
	// GoogleBase and EmojiURL redirect remote loaders, used in tests.
	GoogleBase string
	EmojiURL   func(config.EmojiType, string) string
}

// RenderOptions are per image settings.
type RenderOptions struct {
	Width, Height int
	Format        config.OutputFmt
	// Fonts are used in addition to engine fonts and take precedence.
	Fonts []fonts.Font
	Emoji config.EmojiType
	Debug bool
	// BaseDir allows local image sources relative to it, when empty only
	// data and http(s) sources are accepted.
	BaseDir string
}

// Engine is renderer handle. It is cheap to create, expensive part happens
// once on first use.
type Engine struct {
	opts EngineOptions
	log  *zap.Logger

	once sync.Once
	err  error

	cache  cache.Cache
	fetch  *remote.Fetcher
	google *fonts.GoogleLoader
	fonts  *fonts.Collection
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Engine{opts: opts, log: opts.Log.Named("render")}
}

// Init prepares fonts and loaders. The first caller does the work, concurrent
// callers wait for it and every caller gets the same result, including
// error: failed engine stays failed.
func (e *Engine) Init(ctx context.Context) error {
	e.once.Do(func() {
		e.err = e.init(ctx)
		if e.err != nil {
			e.log.Error("Unable to initialize renderer", zap.Error(e.err))
		}
	})
	return e.err
}

func (e *Engine) init(ctx context.Context) error {
	c, err := cache.New(e.opts.Cache, e.opts.Log)
	if err != nil {
		return fmt.Errorf("unable to create cache: %w", err)
	}
	e.cache = c

	client := e.opts.Client
	if client == nil {
		client = &http.Client{Timeout: e.opts.Render.FetchTimeout}
	}
	e.fetch = remote.NewFetcher(client, c, e.opts.Log)
	e.google = fonts.NewGoogleLoader(e.fetch, e.opts.Log)
	if e.opts.GoogleBase != "" {
		e.google.WithBase(e.opts.GoogleBase)
	}

	// configured fonts are added on top of embedded ones and become default
	var list []fonts.Font
	if e.opts.Fonts.Bundle != "" {
		extra, err := fonts.LoadArchive(e.opts.Fonts.Bundle, e.opts.Log)
		if err != nil {
			return err
		}
		list = append(list, extra...)
	}
	if e.opts.Fonts.Dir != "" {
		extra, err := fonts.LoadDir(e.opts.Fonts.Dir, e.opts.Log)
		if err != nil {
			return err
		}
		list = append(list, extra...)
	}
	for _, g := range e.opts.Fonts.Google {
		f, err := e.google.LoadFont(ctx, fonts.OptionsFromConfig(g))
		if err != nil {
			return fmt.Errorf("unable to load google font %q: %w", g.Family, err)
		}
		list = append(list, f)
	}

	base, err := fonts.NewCollection(fonts.Defaults(), e.opts.Log)
	if err != nil {
		return fmt.Errorf("unable to prepare fonts: %w", err)
	}
	e.fonts = base.With(list)
	e.log.Debug("Renderer initialized", zap.Strings("families", e.fonts.Families()))
	return nil
}

// Close releases cache. Engine could not be used afterwards.
func (e *Engine) Close() error {
	var err error
	if e.cache != nil {
		err = multierr.Append(err, e.cache.Close())
	}
	return err
}

// GoogleFont downloads font file from Google Fonts through the engine cache.
func (e *Engine) GoogleFont(ctx context.Context, opts fonts.GoogleFontOptions) ([]byte, error) {
	if err := e.Init(ctx); err != nil {
		return nil, err
	}
	return e.google.Load(ctx, opts)
}

// LoadGoogleFont is GoogleFont returning parsed font descriptor ready to be
// passed to Render.
func (e *Engine) LoadGoogleFont(ctx context.Context, opts fonts.GoogleFontOptions) (fonts.Font, error) {
	if err := e.Init(ctx); err != nil {
		return fonts.Font{}, err
	}
	return e.google.LoadFont(ctx, opts)
}

// emojiLoader returns nil interface when emoji should be drawn with fonts.
func (e *Engine) emojiLoader(kind config.EmojiType) layout.EmojiLoader {
	if kind == config.EmojiTypeNone || !kind.IsValid() {
		return nil
	}
	l := emoji.NewLoader(e.fetch, kind, e.opts.Cache.TTL)
	if e.opts.EmojiURL != nil {
		l.WithURL(e.opts.EmojiURL)
	}
	return l
}

// Layout lays element tree out without producing output, used by Render
// and debug reports.
func (e *Engine) Layout(ctx context.Context, root *markup.Element, opts RenderOptions) (*scene.Scene, error) {
	if err := e.Init(ctx); err != nil {
		return nil, err
	}
	return layout.Layout(ctx, root, layout.Options{
		Width:  opts.Width,
		Height: opts.Height,
		Fonts:  e.fonts.With(opts.Fonts),
		Images: &imageLoader{fetch: e.fetch, ttl: e.opts.Cache.TTL, dir: opts.BaseDir},
		Emoji:  e.emojiLoader(opts.Emoji),
		Debug:  opts.Debug,
		Log:    e.opts.Log,
	})
}

// Render produces encoded image in requested format.
func (e *Engine) Render(ctx context.Context, root *markup.Element, opts RenderOptions) ([]byte, error) {
	if opts.Format != config.OutputFmtPng && opts.Format != config.OutputFmtSvg {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}

	sc, err := e.Layout(ctx, root, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to lay out image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch opts.Format {
	case config.OutputFmtSvg:
		return svgBytes(sc, opts.Debug, e.opts.Render.MinifySVG && !opts.Debug)
	default:
		var buf bytes.Buffer
		if err := images.EncodePNG(&buf, Rasterize(sc)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}
