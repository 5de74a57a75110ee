package response

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ogcard/config"
	"ogcard/markup"
	"ogcard/render"
)

type fakeRenderer struct {
	root *markup.Element
	opts render.RenderOptions
	err  error
}

func (f *fakeRenderer) Render(_ context.Context, root *markup.Element, opts render.RenderOptions) ([]byte, error) {
	f.root, f.opts = root, opts
	if f.err != nil {
		return nil, f.err
	}
	return []byte("image"), nil
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func TestCreateImage_Defaults(t *testing.T) {
	r := &fakeRenderer{}
	resp, err := CreateImage(context.Background(), r, "<div>hi</div>", Options{Log: testLogger(t)})
	if err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}
	if r.opts.Width != 1200 || r.opts.Height != 630 || r.opts.Format != config.OutputFmtPng {
		t.Errorf("render options = %+v", r.opts)
	}
	if r.root == nil || r.root.Tag != "div" || len(r.root.Children) != 1 {
		t.Errorf("markup is not parsed into wrapped tree: %+v", r.root)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != "image" {
		t.Errorf("response = %d %q", resp.Status, resp.Body)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "public, immutable, no-transform, max-age=31536000" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestCreateImage_Element(t *testing.T) {
	r := &fakeRenderer{}
	el := markup.NewElement("div", nil, nil, markup.Text("x"))
	if _, err := CreateImage(context.Background(), r, el, Options{Width: 10, Height: 20, Format: config.OutputFmtSvg, Debug: true, Emoji: config.EmojiTypeNoto}); err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}
	if r.root != el {
		t.Error("element input must be passed as is")
	}
	want := render.RenderOptions{Width: 10, Height: 20, Format: config.OutputFmtSvg, Debug: true, Emoji: config.EmojiTypeNoto}
	if r.opts.Width != want.Width || r.opts.Height != want.Height || r.opts.Format != want.Format || r.opts.Debug != want.Debug || r.opts.Emoji != want.Emoji {
		t.Errorf("render options = %+v, want %+v", r.opts, want)
	}
}

func TestCreateImage_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		input  any
		opts   Options
		render error
		want   error
	}{
		{"bytes input", []byte("<div/>"), Options{}, nil, ErrUnsupportedInput},
		{"nil element", (*markup.Element)(nil), Options{}, nil, ErrUnsupportedInput},
		{"number input", 42, Options{}, nil, ErrUnsupportedInput},
		{"bad format", "x", Options{Format: config.OutputFmt(9)}, nil, render.ErrUnsupportedFormat},
		{"renderer error", "x", Options{}, boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateImage(context.Background(), &fakeRenderer{err: tt.render}, tt.input, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateImage() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHeaders(t *testing.T) {
	tests := []struct {
		name   string
		format config.OutputFmt
		debug  bool
		custom map[string]string
		want   map[string]string
	}{
		{"svg", config.OutputFmtSvg, false, nil, map[string]string{
			"Content-Type": "image/svg+xml", "Cache-Control": cacheImmutable}},
		{"debug", config.OutputFmtPng, true, nil, map[string]string{
			"Content-Type": "image/png", "Cache-Control": "no-cache, no-store"}},
		{"custom wins", config.OutputFmtPng, false, map[string]string{"cache-control": "max-age=60", "X-Trace": "1"}, map[string]string{
			"Cache-Control": "max-age=60", "X-Trace": "1", "Content-Type": "image/png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Headers(tt.format, tt.debug, tt.custom)
			for k, v := range tt.want {
				if got := h.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
			if len(h) != len(tt.want) {
				t.Errorf("headers = %v", h)
			}
		})
	}
}

func TestResponse_ServeHTTP(t *testing.T) {
	resp, err := CreateImage(context.Background(), &fakeRenderer{}, "x", Options{
		Status:  http.StatusCreated,
		Headers: map[string]string{"X-Image": "og"},
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	resp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != "image" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Image") != "og" || rec.Header().Get("Content-Length") != "5" {
		t.Errorf("headers = %v", rec.Header())
	}
}
