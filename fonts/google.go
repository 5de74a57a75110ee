package fonts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ogcard/config"
	"ogcard/remote"
)

const (
	// GoogleFontsAPI is base URL of Google Fonts CSS API.
	GoogleFontsAPI = "https://fonts.googleapis.com/css2"

	// Google serves woff2 to modern browsers, this agent gets truetype.
	legacyUserAgent = "Mozilla/5.0 (Macintosh; U; Intel Mac OS X 10_6_8; de-at) AppleWebKit/533.21.1 (KHTML, like Gecko) Version/5.0.5 Safari/533.21.1"

	stylesheetTTL = time.Hour
	fontTTL       = 24 * time.Hour
)

var (
	ErrFontURLNotFound = errors.New("could not find font URL")

	reFontURL = regexp.MustCompile(`src: url\(([^)]+)\) format\(['"]?(opentype|truetype)['"]?\)`)
)

// GoogleFontOptions selects font to download. Zero Weight leaves the choice
// to Google, Text limits font to glyphs needed to draw it.
type GoogleFontOptions struct {
	Family string
	Weight Weight
	Style  config.FontStyle
	Text   string
}

// GoogleLoader downloads fonts from Google Fonts.
type GoogleLoader struct {
	fetch *remote.Fetcher
	base  string
	log   *zap.Logger
}

func NewGoogleLoader(fetch *remote.Fetcher, log *zap.Logger) *GoogleLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &GoogleLoader{fetch: fetch, base: GoogleFontsAPI, log: log.Named("google")}
}

// WithBase points loader to different API location.
func (g *GoogleLoader) WithBase(base string) *GoogleLoader {
	g.base = base
	return g
}

// StylesheetURL builds css2 API request for the font.
func (g *GoogleLoader) StylesheetURL(opts GoogleFontOptions) string {
	family := escapeComponent(opts.Family)
	switch {
	case opts.Style == config.FontStyleItalic:
		w := opts.Weight
		if w == 0 {
			w = WeightNormal
		}
		family += ":ital,wght@1," + strconv.Itoa(int(w))
	case opts.Weight != 0:
		family += ":wght@" + strconv.Itoa(int(opts.Weight))
	}

	u := g.base + "?family=" + family
	if opts.Text != "" {
		u += "&text=" + url.QueryEscape(opts.Text)
	} else {
		u += "&subset=latin"
	}
	return u
}

// escapeComponent escapes everything which could start another query
// parameter, spaces become %20 as in encodeURIComponent.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Load returns font file (ttf or otf) for requested family.
func (g *GoogleLoader) Load(ctx context.Context, opts GoogleFontOptions) ([]byte, error) {
	header := http.Header{"User-Agent": []string{legacyUserAgent}}

	css, err := g.fetch.Get(ctx, remote.Request{URL: g.StylesheetURL(opts), Header: header, TTL: stylesheetTTL})
	if err != nil {
		return nil, fmt.Errorf("unable to load stylesheet for %q: %w", opts.Family, err)
	}

	m := reFontURL.FindSubmatch(css)
	if m == nil {
		weight := "default"
		if opts.Weight != 0 {
			weight = strconv.Itoa(int(opts.Weight))
		}
		return nil, fmt.Errorf("%w for %q (weight: %s)", ErrFontURLNotFound, opts.Family, weight)
	}

	data, err := g.fetch.Get(ctx, remote.Request{URL: string(m[1]), Header: header, TTL: fontTTL})
	if err != nil {
		return nil, fmt.Errorf("unable to load font %q: %w", opts.Family, err)
	}
	g.log.Debug("Google font loaded", zap.String("family", opts.Family), zap.Int("weight", int(opts.Weight)), zap.Int("size", len(data)))
	return data, nil
}

// LoadFont downloads font and wraps it into descriptor registered under
// requested family name.
func (g *GoogleLoader) LoadFont(ctx context.Context, opts GoogleFontOptions) (Font, error) {
	data, err := g.Load(ctx, opts)
	if err != nil {
		return Font{}, err
	}
	f := NewFont(opts.Family, data, opts.Weight, opts.Style)
	if err := f.Validate(); err != nil {
		return Font{}, err
	}
	return f, nil
}

// OptionsFromConfig converts configured font into loader options.
func OptionsFromConfig(cfg config.GoogleFontConfig) GoogleFontOptions {
	return GoogleFontOptions{Family: cfg.Family, Weight: Weight(cfg.Weight), Style: cfg.Style, Text: cfg.Text}
}
