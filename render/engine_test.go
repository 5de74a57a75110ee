package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"ogcard/config"
	"ogcard/fonts"
	"ogcard/markup"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func newTestEngine(t *testing.T, opts EngineOptions) *Engine {
	t.Helper()
	opts.Log = testLogger(t)
	e := NewEngine(opts)
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return e
}

func pngBytes(t *testing.T, c color.NRGBA, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result is not png: %v", err)
	}
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestEngine_InitSharesResult(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	e := newTestEngine(t, EngineOptions{
		Fonts:      config.FontsConfig{Google: []config.GoogleFontConfig{{Family: "Inter"}}},
		Client:     srv.Client(),
		GoogleBase: srv.URL + "/css2",
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Go(func() {
			errs[i] = e.Init(context.Background())
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			t.Fatalf("Init() #%d succeeded, want error", i)
		}
		if err != errs[0] {
			t.Errorf("Init() #%d returned different error: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("stylesheet requested %d times, want 1", hits.Load())
	}
	// failed engine stays failed
	if _, err := e.Render(context.Background(), markup.Parse("x", nil), RenderOptions{Width: 10, Height: 10}); err == nil {
		t.Error("Render() on failed engine succeeded")
	}
}

func TestEngine_InitGoogleFonts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/css2":
			fmt.Fprintf(w, "@font-face { font-family: 'Brand'; src: url(%s/brand.ttf) format('truetype'); }", "http://"+r.Host)
		case "/brand.ttf":
			w.Write(gobold.TTF)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	e := newTestEngine(t, EngineOptions{
		Fonts:      config.FontsConfig{Google: []config.GoogleFontConfig{{Family: "Brand", Weight: 700}}},
		Client:     srv.Client(),
		GoogleBase: srv.URL + "/css2",
	})
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	found := false
	for _, f := range e.fonts.Families() {
		if f == "brand" {
			found = true
		}
	}
	if !found {
		t.Errorf("families = %v, want brand registered", e.fonts.Families())
	}

	data, err := e.GoogleFont(context.Background(), fonts.GoogleFontOptions{Family: "Brand"})
	if err != nil {
		t.Fatalf("GoogleFont() error = %v", err)
	}
	if !bytes.Equal(data, gobold.TTF) {
		t.Error("GoogleFont() returned unexpected data")
	}
}

func TestEngine_InitFontDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Extra-Bold.ttf"), gobold.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, EngineOptions{Fonts: config.FontsConfig{Dir: dir}})
	if err := e.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if n := len(e.fonts.Families()); n < 3 {
		t.Errorf("families = %v, want font from directory added", e.fonts.Families())
	}
}

func TestEngine_InitBadBundle(t *testing.T) {
	e := newTestEngine(t, EngineOptions{Fonts: config.FontsConfig{Bundle: filepath.Join(t.TempDir(), "missing.zip")}})
	if err := e.Init(context.Background()); err == nil {
		t.Error("Init() with missing bundle succeeded")
	}
}

func TestEngine_RenderPNG(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})
	root := markup.Parse(`<div style="display: flex; width: 100%; height: 100%; background-color: #ff0000"></div>`, nil)

	data, err := e.Render(context.Background(), root, RenderOptions{Width: 200, Height: 100, Format: config.OutputFmtPng})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img := decodePNG(t, data)
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("image size = %v, want 200x100", b)
	}
	if got := nrgbaAt(img, 100, 50); got != (color.NRGBA{R: 0xff, A: 0xff}) {
		t.Errorf("center pixel = %v, want red", got)
	}
}

func TestEngine_RenderSVG(t *testing.T) {
	tests := []struct {
		name   string
		minify bool
		debug  bool
		want   []string
	}{
		{"plain", false, false, []string{`<svg xmlns="http://www.w3.org/2000/svg" width="300" height="100"`, `fill="#0000ff"`, "<path d=\"M"}},
		{"minified", true, false, []string{"<svg", "<path"}},
		{"debug is never minified", true, true, []string{`stroke="#ff0000"`, `fill="#0000ff"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, EngineOptions{Render: config.RenderConfig{MinifySVG: tt.minify}})
			root := markup.Parse(`<div style="display: flex; background: #0000ff; color: white; font-size: 32px">Hello</div>`, nil)

			data, err := e.Render(context.Background(), root, RenderOptions{Width: 300, Height: 100, Format: config.OutputFmtSvg, Debug: tt.debug})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, w := range tt.want {
				if !bytes.Contains(data, []byte(w)) {
					t.Errorf("output does not contain %q:\n%s", w, data)
				}
			}
		})
	}
}

func TestEngine_RenderCallFontsAreDefault(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})
	brand := []fonts.Font{fonts.NewFont("Brand", gomono.TTF, 400, config.FontStyleNormal)}

	render := func(html string, list []fonts.Font) []byte {
		t.Helper()
		data, err := e.Render(context.Background(), markup.Parse(html, nil), RenderOptions{Width: 300, Height: 100, Format: config.OutputFmtSvg, Fonts: list})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		return data
	}

	plain := `<div style="display: flex; font-size: 32px">Hello</div>`
	embedded := render(plain, nil)
	implicit := render(plain, brand)
	explicit := render(`<div style="display: flex; font-size: 32px; font-family: Brand">Hello</div>`, brand)
	generic := render(`<div style="display: flex; font-size: 32px; font-family: system-ui, sans-serif">Hello</div>`, brand)

	if bytes.Equal(embedded, implicit) {
		t.Error("font passed with render call is not used by default")
	}
	if !bytes.Equal(implicit, explicit) || !bytes.Equal(implicit, generic) {
		t.Error("text without family or with generic family must use font passed with render call")
	}
}

func TestEngine_RenderUnsupportedFormat(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})
	_, err := e.Render(context.Background(), markup.Parse("x", nil), RenderOptions{Width: 10, Height: 10, Format: config.OutputFmt(7)})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Render() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEngine_RenderCanceled(t *testing.T) {
	e := newTestEngine(t, EngineOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Render(ctx, markup.Parse("x", nil), RenderOptions{Width: 10, Height: 10}); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestEngine_RenderImages(t *testing.T) {
	green := pngBytes(t, color.NRGBA{G: 0xff, A: 0xff}, 4, 4)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(green)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "local.png"), green, 0644); err != nil {
		t.Fatal(err)
	}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(green)

	tests := []struct {
		name    string
		src     string
		baseDir string
		wantErr bool
	}{
		{"data uri", dataURI, "", false},
		{"remote", srv.URL + "/a.png", "", false},
		{"local with base dir", "local.png", dir, false},
		{"local without base dir", "local.png", "", true},
		{"local missing", "missing.png", dir, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, EngineOptions{Client: srv.Client()})
			root := markup.Parse(`<img src="`+tt.src+`" width="40" height="40">`, nil)

			data, err := e.Render(context.Background(), root, RenderOptions{Width: 40, Height: 40, BaseDir: tt.baseDir})
			if tt.wantErr {
				if err == nil {
					t.Fatal("Render() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got := nrgbaAt(decodePNG(t, data), 20, 20); got.G < 0xf0 || got.R > 0x10 {
				t.Errorf("pixel = %v, want green", got)
			}
		})
	}
	if hits.Load() != 1 {
		t.Errorf("remote image requested %d times, want 1", hits.Load())
	}
}

func TestEngine_RenderEmoji(t *testing.T) {
	const emojiSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="36" height="36" viewBox="0 0 36 36"><rect width="36" height="36" fill="#00ff00"/></svg>`
	var requested atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.Store(r.URL.Path)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(emojiSVG))
	}))
	t.Cleanup(srv.Close)

	e := newTestEngine(t, EngineOptions{
		Client: srv.Client(),
		EmojiURL: func(kind config.EmojiType, code string) string {
			return srv.URL + "/" + kind.String() + "/" + code + ".svg"
		},
	})
	root := markup.Parse(`<div style="display: flex; font-size: 40px">😀</div>`, nil)

	data, err := e.Render(context.Background(), root, RenderOptions{Width: 60, Height: 60, Format: config.OutputFmtSvg, Emoji: config.EmojiTypeTwemoji})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(data), "<image") {
		t.Errorf("emoji is not drawn as image:\n%s", data)
	}
	if got, _ := requested.Load().(string); got != "/twemoji/1f600.svg" {
		t.Errorf("requested %q", got)
	}

	// none means emoji are left to fonts
	data, err = e.Render(context.Background(), root, RenderOptions{Width: 60, Height: 60, Format: config.OutputFmtSvg})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(string(data), "<image") {
		t.Error("emoji drawn as image with emoji kind none")
	}
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{"base64", "data:text/plain;base64,aGVsbG8=", "hello", false},
		{"base64 unpadded", "data:text/plain;base64,aGVsbG8", "hello", false},
		{"base64 with newlines", "data:text/plain;base64,aGVs\nbG8=", "hello", false},
		{"percent encoded", "data:image/svg+xml,%3Csvg%2F%3E", "<svg/>", false},
		{"plain", "data:,abc", "abc", false},
		{"no comma", "data:image/png;base64", "", true},
		{"bad base64", "data:;base64,!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeDataURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeDataURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("decodeDataURI() = %q, want %q", got, tt.want)
			}
		})
	}
}
