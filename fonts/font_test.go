package fonts

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"ogcard/config"
)

func TestNewFont_Defaults(t *testing.T) {
	f := NewFont("Inter", goregular.TTF, 0, config.FontStyleNormal)
	if f.Weight != WeightNormal {
		t.Errorf("weight = %d, want 400", f.Weight)
	}
	if f.Style != config.FontStyleNormal {
		t.Errorf("style = %s, want normal", f.Style)
	}
}

func TestFont_Validate(t *testing.T) {
	woff := append([]byte("wOFF\x00\x01\x00\x00"), make([]byte, 64)...)
	woff2 := append([]byte("wOF2\x00\x01\x00\x00"), make([]byte, 64)...)

	tests := []struct {
		name        string
		font        Font
		wantErr     bool
		unsupported bool
	}{
		{"ttf", NewFont("Go", goregular.TTF, 400, config.FontStyleNormal), false, false},
		{"woff", NewFont("Web", woff, 400, config.FontStyleNormal), true, true},
		{"woff2", NewFont("Web", woff2, 400, config.FontStyleNormal), true, true},
		{"garbage", NewFont("Junk", []byte("definitely not a font"), 400, config.FontStyleNormal), true, true},
		{"no name", NewFont("", goregular.TTF, 400, config.FontStyleNormal), true, false},
		{"bad weight", NewFont("Go", goregular.TTF, 1000, config.FontStyleNormal), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.font.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.unsupported && !errors.Is(err, ErrUnsupportedFont) {
				t.Errorf("Validate() error = %v, want ErrUnsupportedFont", err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		family string
		weight Weight
		style  config.FontStyle
	}{
		{"regular", goregular.TTF, "Go", WeightNormal, config.FontStyleNormal},
		{"bold", gobold.TTF, "Go", WeightBold, config.FontStyleNormal},
		{"bold italic", gobolditalic.TTF, "Go", WeightBold, config.FontStyleItalic},
		{"mono", gomono.TTF, "Go Mono", WeightNormal, config.FontStyleNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, weight, style, err := Inspect(tt.data)
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if family != tt.family || weight != tt.weight || style != tt.style {
				t.Errorf("Inspect() = %q %d %s, want %q %d %s", family, weight, style, tt.family, tt.weight, tt.style)
			}
		})
	}

	if _, _, _, err := Inspect([]byte("junk")); err == nil {
		t.Error("expected error for junk data")
	}
}

func TestGuessWeightStyle(t *testing.T) {
	tests := []struct {
		sub    string
		weight Weight
		style  config.FontStyle
	}{
		{"Regular", WeightNormal, config.FontStyleNormal},
		{"Italic", WeightNormal, config.FontStyleItalic},
		{"Thin", WeightThin, config.FontStyleNormal},
		{"ExtraLight Italic", WeightExtraLight, config.FontStyleItalic},
		{"Light", WeightLight, config.FontStyleNormal},
		{"Medium", WeightMedium, config.FontStyleNormal},
		{"Semi Bold", WeightSemiBold, config.FontStyleNormal},
		{"Bold Oblique", WeightBold, config.FontStyleItalic},
		{"Extra-Bold", WeightExtraBold, config.FontStyleNormal},
		{"Black", WeightBlack, config.FontStyleNormal},
		{"", WeightNormal, config.FontStyleNormal},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			w, s := guessWeightStyle(tt.sub)
			if w != tt.weight || s != tt.style {
				t.Errorf("guessWeightStyle(%q) = %d %s, want %d %s", tt.sub, w, s, tt.weight, tt.style)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	for _, f := range Defaults() {
		if err := f.Validate(); err != nil {
			t.Errorf("default font %s/%d is invalid: %v", f.Name, f.Weight, err)
		}
	}
}
