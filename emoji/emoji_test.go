package emoji

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ogcard/cache"
	"ogcard/config"
	"ogcard/remote"
)

func TestIsEmoji(t *testing.T) {
	tests := []struct {
		r    rune
		want bool
	}{
		{'a', false},
		{'©', false},
		{'中', false},
		{'😀', true},
		{'🚀', true},
		{'⭐', true},
		{'🥰', true},
		{'🫠', true},
		{'✓', false},
		{'★', false},
		{'☀', false},
		{'⌚', true},
	}
	for _, tt := range tests {
		if got := IsEmoji(tt.r); got != tt.want {
			t.Errorf("IsEmoji(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{"plain", "Hello", []Segment{{Text: "Hello"}}},
		{"empty", "", nil},
		{"single", "Hi 😀!", []Segment{{Text: "Hi "}, {Text: "😀", Emoji: true}, {Text: "!"}}},
		{"adjacent", "😀🚀", []Segment{{Text: "😀", Emoji: true}, {Text: "🚀", Emoji: true}}},
		{"skin tone", "👋🏽 hi", []Segment{{Text: "👋🏽", Emoji: true}, {Text: " hi"}}},
		{"zwj family", "👨‍👩‍👧", []Segment{{Text: "👨‍👩‍👧", Emoji: true}}},
		{"flag", "🇺🇦", []Segment{{Text: "🇺🇦", Emoji: true}}},
		{"keycap", "1️⃣ and 10", []Segment{{Text: "1️⃣", Emoji: true}, {Text: " and 10"}}},
		{"text presentation", "©", []Segment{{Text: "©"}}},
		{"emoji presentation", "©️", []Segment{{Text: "©️", Emoji: true}}},
		{"forced text", "⭐︎", []Segment{{Text: "⭐︎"}}},
		{"dangling zwj", "😀‍", []Segment{{Text: "😀", Emoji: true}, {Text: "‍"}}},
		{"text default symbols", "✓ done ★ ☀", []Segment{{Text: "✓ done ★ ☀"}}},
		{"symbol with vs16", "☀️ sunny", []Segment{{Text: "☀️", Emoji: true}, {Text: " sunny"}}},
		{"wide cjk", "中文😀", []Segment{{Text: "中文"}, {Text: "😀", Emoji: true}}},
		{"tag sequence", "🏴󠁧󠁢󠁥󠁮󠁧󠁿!", []Segment{{Text: "🏴󠁧󠁢󠁥󠁮󠁧󠁿", Emoji: true}, {Text: "!"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Split(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split(%q)[%d] = %+v, want %+v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"😀", "1f600"},
		{"❤️", "2764"},
		{"👋🏽", "1f44b-1f3fd"},
		{"🏳️‍🌈", "1f3f3-fe0f-200d-1f308"},
		{"🇺🇦", "1f1fa-1f1e6"},
	}
	for _, tt := range tests {
		if got := Code(tt.in); got != tt.want {
			t.Errorf("Code(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		kind config.EmojiType
		want string
	}{
		{config.EmojiTypeNone, ""},
		{config.EmojiTypeTwemoji, "https://cdnjs.cloudflare.com/ajax/libs/twemoji/14.0.2/svg/1f44b-1f3fd.svg"},
		{config.EmojiTypeOpenmoji, "https://cdn.jsdelivr.net/npm/@svgmoji/openmoji@2.0.0/svg/1F44B-1F3FD.svg"},
		{config.EmojiTypeBlobmoji, "https://cdn.jsdelivr.net/npm/@svgmoji/blob@2.0.0/svg/1F44B-1F3FD.svg"},
		{config.EmojiTypeNoto, "https://cdn.jsdelivr.net/gh/svgmoji/svgmoji/packages/svgmoji__noto/svg/1F44B-1F3FD.svg"},
		{config.EmojiTypeFluent, "https://cdn.jsdelivr.net/gh/shuding/fluentui-emoji-unicode/assets/1f44b-1f3fd_color.svg"},
		{config.EmojiTypeFluentFlat, "https://cdn.jsdelivr.net/gh/shuding/fluentui-emoji-unicode/assets/1f44b-1f3fd_flat.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := URL(tt.kind, "1f44b-1f3fd"); got != tt.want {
				t.Errorf("URL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLoader(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/twemoji/1f680.svg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 36 36"/>`))
	}))
	defer srv.Close()

	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	fetch := remote.NewFetcher(srv.Client(), cache.NewMemory(8), log).WithRetry(1, time.Millisecond)
	l := NewLoader(fetch, config.EmojiTypeTwemoji, time.Hour).WithURL(func(kind config.EmojiType, code string) string {
		return srv.URL + "/" + kind.String() + "/" + code + ".svg"
	})

	for range 2 {
		data, err := l.Load(context.Background(), "🚀")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !strings.HasPrefix(string(data), "<svg") {
			t.Fatalf("Load() = %q", data)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}

	if _, err := l.Load(context.Background(), "😀"); err == nil {
		t.Error("expected error for missing image")
	}

	var none *Loader
	if _, err := none.Load(context.Background(), "😀"); !errors.Is(err, ErrNoProvider) {
		t.Errorf("nil loader error = %v", err)
	}
	if _, err := NewLoader(fetch, config.EmojiTypeNone, 0).Load(context.Background(), "😀"); !errors.Is(err, ErrNoProvider) {
		t.Errorf("none loader error = %v", err)
	}
}
