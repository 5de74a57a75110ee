// Package emoji finds emoji sequences in text and downloads their images
// from public CDNs.
package emoji

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"ogcard/config"
	"ogcard/remote"
)

const (
	zwj    = '\u200d'
	vs16   = '\ufe0f'
	keycap = '\u20e3'
)

var ErrNoProvider = errors.New("emoji provider is not selected")

// blocks where image sets have pictures. Presentation (emoji or text) of
// a cluster is decided by uniseg width, blocks only keep wide CJK
// characters out.
var blocks = [][2]rune{
	{0x00a9, 0x00a9}, {0x00ae, 0x00ae}, {0x203c, 0x203c}, {0x2049, 0x2049},
	{0x2122, 0x2122}, {0x2139, 0x2139}, {0x2194, 0x21aa}, {0x2300, 0x23ff},
	{0x24c2, 0x24c2}, {0x25aa, 0x25fe}, {0x2600, 0x27bf}, {0x2934, 0x2935},
	{0x2b05, 0x2b55}, {0x3030, 0x3030}, {0x303d, 0x303d}, {0x3297, 0x3297},
	{0x3299, 0x3299}, {0x1f000, 0x1faff},
}

func inBlocks(r rune) bool {
	for _, rng := range blocks {
		if r < rng[0] {
			return false
		}
		if r <= rng[1] {
			return true
		}
	}
	return false
}

// IsEmoji reports whether rune is pictographic and is drawn as emoji without
// variation selector.
func IsEmoji(r rune) bool {
	return inBlocks(r) && uniseg.StringWidth(string(r)) == 2
}

// isEmojiCluster classifies single grapheme cluster. width is cluster width
// as computed by uniseg: 2 for emoji presentation (default or forced with
// U+FE0F, flags included), 1 when U+FE0E asks for text.
func isEmojiCluster(cluster string, width int) bool {
	r, size := utf8.DecodeRuneInString(cluster)
	if r == '#' || r == '*' || (r >= '0' && r <= '9') {
		return size < len(cluster) && strings.HasSuffix(cluster, string(keycap))
	}
	return width == 2 && inBlocks(r)
}

// Segment is a run of plain text or a single emoji sequence.
type Segment struct {
	Text  string
	Emoji bool
}

// Split breaks text into plain runs and emoji sequences. Text is segmented
// into grapheme clusters, so sequences include ZWJ joined pictographs, skin
// tone modifiers, flags, keycaps and tag sequences. A character followed by
// U+FE0E stays text.
func Split(text string) []Segment {
	var (
		res   []Segment
		plain strings.Builder
	)
	flush := func() {
		if plain.Len() > 0 {
			res = append(res, Segment{Text: plain.String()})
			plain.Reset()
		}
	}

	state := -1
	for rest := text; len(rest) > 0; {
		var (
			cluster string
			width   int
		)
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if !isEmojiCluster(cluster, width) {
			plain.WriteString(cluster)
			continue
		}
		flush()
		// dangling joiner belongs to text
		seq := strings.TrimRight(cluster, string(zwj))
		res = append(res, Segment{Text: seq, Emoji: true})
		plain.WriteString(cluster[len(seq):])
	}
	flush()
	return res
}

// Code returns name used by emoji image sets: code points in lowercase hex
// joined with dashes. U+FE0F is dropped unless sequence contains ZWJ.
func Code(cluster string) string {
	keepVS := strings.ContainsRune(cluster, zwj)
	parts := make([]string, 0, utf8.RuneCountInString(cluster))
	for _, r := range cluster {
		if r == vs16 && !keepVS {
			continue
		}
		parts = append(parts, strconv.FormatInt(int64(r), 16))
	}
	return strings.Join(parts, "-")
}

// URL returns location of SVG image for emoji code in selected set, empty
// string for none.
func URL(kind config.EmojiType, code string) string {
	switch kind {
	case config.EmojiTypeTwemoji:
		return "https://cdnjs.cloudflare.com/ajax/libs/twemoji/14.0.2/svg/" + strings.ToLower(code) + ".svg"
	case config.EmojiTypeOpenmoji:
		return "https://cdn.jsdelivr.net/npm/@svgmoji/openmoji@2.0.0/svg/" + strings.ToUpper(code) + ".svg"
	case config.EmojiTypeBlobmoji:
		return "https://cdn.jsdelivr.net/npm/@svgmoji/blob@2.0.0/svg/" + strings.ToUpper(code) + ".svg"
	case config.EmojiTypeNoto:
		return "https://cdn.jsdelivr.net/gh/svgmoji/svgmoji/packages/svgmoji__noto/svg/" + strings.ToUpper(code) + ".svg"
	case config.EmojiTypeFluent:
		return "https://cdn.jsdelivr.net/gh/shuding/fluentui-emoji-unicode/assets/" + strings.ToLower(code) + "_color.svg"
	case config.EmojiTypeFluentFlat:
		return "https://cdn.jsdelivr.net/gh/shuding/fluentui-emoji-unicode/assets/" + strings.ToLower(code) + "_flat.svg"
	}
	return ""
}

// Loader downloads emoji images of a single set.
type Loader struct {
	fetch *remote.Fetcher
	kind  config.EmojiType
	ttl   time.Duration
	// url overrides CDN location, used in tests
	url func(config.EmojiType, string) string
}

func NewLoader(fetch *remote.Fetcher, kind config.EmojiType, ttl time.Duration) *Loader {
	return &Loader{fetch: fetch, kind: kind, ttl: ttl, url: URL}
}

// WithURL replaces CDN location builder.
func (l *Loader) WithURL(fn func(config.EmojiType, string) string) *Loader {
	l.url = fn
	return l
}

func (l *Loader) Kind() config.EmojiType {
	return l.kind
}

// Load returns SVG image for emoji sequence.
func (l *Loader) Load(ctx context.Context, cluster string) ([]byte, error) {
	if l == nil || l.kind == config.EmojiTypeNone {
		return nil, ErrNoProvider
	}
	u := l.url(l.kind, Code(cluster))
	data, err := l.fetch.Get(ctx, remote.Request{URL: u, TTL: l.ttl})
	if err != nil {
		return nil, fmt.Errorf("unable to load %s emoji %q: %w", l.kind, cluster, err)
	}
	return data, nil
}
