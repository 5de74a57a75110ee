package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ogcard/config"
	"ogcard/render"
	"ogcard/state"
)

const sampleCard = `<div style="display: flex; width: 100%; height: 100%; background-color: #1e90ff; align-items: center; justify-content: center">
  <h1 style="color: white; font-size: 32px">Sample card</h1>
</div>`

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	// no network and no shared state between tests
	cfg.Cache.Kind = config.CacheKindNone
	cfg.Render.FileNameTransliterate = false

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	env.Engine = render.NewEngine(env.EngineOptions())
	t.Cleanup(func() {
		if err := env.Engine.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return ctx, env
}

func smallOptions(format config.OutputFmt) renderOptions {
	return renderOptions{format: format, width: 120, height: 63}
}

func checkPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output is missing: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not png: %v", err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Errorf("output size = %dx%d, want %dx%d", cfg.Width, cfg.Height, w, h)
	}
}

func pngPixel(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func reportEntries(t *testing.T, name string) []string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "card.html")
	if err := os.WriteFile(src, []byte(sampleCard), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, src, dst, smallOptions(config.OutputFmtPng), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	checkPNG(t, filepath.Join(dst, "card.png"), 120, 63)
}

func TestProcess_SVG(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "card.html")
	if err := os.WriteFile(src, []byte(sampleCard), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, src, dst, smallOptions(config.OutputFmtSvg), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dst, "card.svg"))
	if err != nil {
		t.Fatalf("output is missing: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Errorf("output is not svg: %.80s", data)
	}
}

func TestProcess_Directory(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dst := t.TempDir(), t.TempDir()
	for _, name := range []string{"a.html", filepath.Join("blog", "post.htm"), "readme.txt"} {
		path := filepath.Join(srcDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(sampleCard), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := process(ctx, srcDir, dst, smallOptions(config.OutputFmtPng), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	checkPNG(t, filepath.Join(dst, "a.png"), 120, 63)
	checkPNG(t, filepath.Join(dst, "blog", "post.png"), 120, 63)
	if _, err := os.Stat(filepath.Join(dst, "readme.png")); err == nil {
		t.Error("non html file has been rendered")
	}
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dst := t.TempDir(), t.TempDir()
	arc := filepath.Join(srcDir, "cards.zip")
	writeZip(t, arc, map[string]string{
		"one/first.html":  sampleCard,
		"two/second.html": sampleCard,
		"two/notes.txt":   "x",
	})

	t.Run("whole archive", func(t *testing.T) {
		out := filepath.Join(dst, "all")
		if err := process(ctx, arc, out, smallOptions(config.OutputFmtPng), env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		checkPNG(t, filepath.Join(out, "one", "first.png"), 120, 63)
		checkPNG(t, filepath.Join(out, "two", "second.png"), 120, 63)
	})

	t.Run("path inside archive", func(t *testing.T) {
		out := filepath.Join(dst, "inner")
		if err := process(ctx, filepath.Join(arc, "two"), out, smallOptions(config.OutputFmtPng), env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		checkPNG(t, filepath.Join(out, "two", "second.png"), 120, 63)
		if _, err := os.Stat(filepath.Join(out, "one")); err == nil {
			t.Error("entries outside of requested path have been rendered")
		}
	})
}

func TestProcess_Overwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "card.html")
	if err := os.WriteFile(src, []byte(sampleCard), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dst, "card.png")
	if err := os.WriteFile(out, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	// failure to render single file is logged, not returned
	if err := process(ctx, src, dst, smallOptions(config.OutputFmtPng), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "old" {
		t.Fatal("existing output overwritten without permission")
	}

	env.Overwrite = true
	if err := process(ctx, src, dst, smallOptions(config.OutputFmtPng), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	checkPNG(t, out, 120, 63)
}

func TestProcess_LocalImages(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	srcDir, dst := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "dot.png"), pngPixel(t), 0644); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(srcDir, "card.html")
	html := `<div style="display: flex"><img src="dot.png" width="20" height="20"></div>`
	if err := os.WriteFile(src, []byte(html), 0644); err != nil {
		t.Fatal(err)
	}

	if err := process(ctx, src, dst, smallOptions(config.OutputFmtPng), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	checkPNG(t, filepath.Join(dst, "card.png"), 120, 63)
}

func TestProcess_Errors(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing", filepath.Join(dir, "nope.html"), "not found"},
		{"not html", text, "not recognized"},
		{"tail after file", filepath.Join(text, "inner.html"), "not recognized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := process(ctx, tt.src, t.TempDir(), smallOptions(config.OutputFmtPng), env.Log)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("process() error = %v, want %q", err, tt.want)
			}
		})
	}

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := process(cctx, dir, t.TempDir(), smallOptions(config.OutputFmtPng), env.Log); err == nil {
			t.Error("process() must fail on canceled context")
		}
	})
}

func TestProcess_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	env.NoDirs = true
	rpt, err := (&config.ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "card.html")
	if err := os.WriteFile(src, []byte(sampleCard), 0644); err != nil {
		t.Fatal(err)
	}
	if err := process(ctx, src, dst, smallOptions(config.OutputFmtPng), env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	names := reportEntries(t, rpt.Name())
	for _, prefix := range []string{"input-", "tree-", "result-"} {
		found := false
		for _, n := range names {
			if strings.HasPrefix(n, prefix) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("report has no %s entry: %v", prefix, names)
		}
	}
}

func TestRun(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "card.html")
	if err := os.WriteFile(src, []byte(`<title>Launch Day</title>`+sampleCard), 0644); err != nil {
		t.Fatal(err)
	}
	env.Cfg.Render.OutputNameTemplate = "{{ .Title }}-{{ .Width }}"

	cmd := &cli.Command{
		Name: "render",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format"},
			&cli.StringFlag{Name: "emoji"},
			&cli.IntFlag{Name: "width"},
			&cli.IntFlag{Name: "height"},
			&cli.BoolFlag{Name: "overwrite"},
			&cli.BoolFlag{Name: "nodirs"},
			&cli.StringFlag{Name: "force-zip-cp"},
		},
		Action: Run,
	}
	args := []string{"render", "--format", "svg", "--width", "300", "--height", "100", "--nodirs", "--force-zip-cp", "cp866", src, dst}
	if err := cmd.Run(ctx, args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !env.NoDirs || env.CodePage == nil {
		t.Error("command line flags are not applied to environment")
	}
	data, err := os.ReadFile(filepath.Join(dst, "Launch Day-300.svg"))
	if err != nil {
		t.Fatalf("output is missing: %v", err)
	}
	if !bytes.Contains(data, []byte(`width="300"`)) {
		t.Errorf("requested size is not used: %.120s", data)
	}
}

func TestRun_NoSource(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cmd := &cli.Command{Name: "render", Action: Run}
	if err := cmd.Run(ctx, []string{"render"}); err == nil {
		t.Error("Run() must fail without source")
	}
}
