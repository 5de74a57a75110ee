package layout

import (
	"image/color"
	"testing"

	"go.uber.org/zap"

	"ogcard/config"
	"ogcard/css"
	"ogcard/fonts"
	"ogcard/scene"
)

func TestComputeStyle_Presets(t *testing.T) {
	root := rootStyle()
	tests := []struct {
		name   string
		tag    string
		inline string
		size   float64
		weight fonts.Weight
		style  config.FontStyle
		family string
	}{
		{"div", "div", "", 16, 400, config.FontStyleNormal, fonts.SansSerif},
		{"h1", "h1", "", 32, 700, config.FontStyleNormal, fonts.SansSerif},
		{"h3", "h3", "", 16 * 1.17, 700, config.FontStyleNormal, fonts.SansSerif},
		{"inline wins over preset", "h1", "font-size: 10px; font-weight: 300", 10, 300, config.FontStyleNormal, fonts.SansSerif},
		{"em", "em", "", 16, 400, config.FontStyleItalic, fonts.SansSerif},
		{"code", "code", "", 16, 400, config.FontStyleNormal, fonts.Monospace},
		{"keyword size", "div", "font-size: x-large", 24, 400, config.FontStyleNormal, fonts.SansSerif},
		{"rem size", "div", "font-size: 2rem", 32, 400, config.FontStyleNormal, fonts.SansSerif},
		{"numeric weight rounds", "div", "font-weight: 550", 16, 600, config.FontStyleNormal, fonts.SansSerif},
		{"bolder", "b", "font-weight: bolder", 16, 900, config.FontStyleNormal, fonts.SansSerif},
		{"oblique is italic", "div", "font-style: oblique", 16, 400, config.FontStyleItalic, fonts.SansSerif},
		{"family list", "div", `font-family: "Inter", monospace`, 16, 400, config.FontStyleNormal, "Inter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := computeStyle(root, tt.tag, st(tt.inline), 16, zap.NewNop())
			if !near(s.fontSize, tt.size) {
				t.Errorf("fontSize = %v, want %v", s.fontSize, tt.size)
			}
			if s.fontWeight != tt.weight {
				t.Errorf("fontWeight = %v, want %v", s.fontWeight, tt.weight)
			}
			if s.fontStyle != tt.style {
				t.Errorf("fontStyle = %v, want %v", s.fontStyle, tt.style)
			}
			if s.fontFamily[0] != tt.family {
				t.Errorf("fontFamily = %v, want %v first", s.fontFamily, tt.family)
			}
		})
	}
}

func TestComputeStyle_Inheritance(t *testing.T) {
	parent := computeStyle(rootStyle(), "div", st("color: red; font-size: 20px; line-height: 2; width: 100px; padding: 4px; letter-spacing: 0.1em; text-transform: uppercase"), 16, zap.NewNop())
	child := computeStyle(parent, "div", nil, 16, zap.NewNop())

	if child.color != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("color is not inherited: %v", child.color)
	}
	if child.fontSize != 20 || !near(child.lineHeightPx(), 40) {
		t.Errorf("font size %v, line height %v", child.fontSize, child.lineHeightPx())
	}
	if !near(child.letterSpacing, 2) || child.textTransform != "uppercase" {
		t.Errorf("text properties are not inherited: %v %q", child.letterSpacing, child.textTransform)
	}
	if !child.width.IsAuto() || child.padding[top] != (css.Length{}) {
		t.Error("box properties must not be inherited")
	}
	if child.borderC[0] != child.color {
		t.Error("border color does not default to text color")
	}
}

func TestStyle_Apply(t *testing.T) {
	tests := []struct {
		prop, value string
		ok          bool
		check       func(s *style) bool
	}{
		{"margin", "1px 2px", true, func(s *style) bool {
			return s.margin[top].Value == 1 && s.margin[right].Value == 2 && s.margin[bottom].Value == 1 && s.margin[left].Value == 2
		}},
		{"padding", "1px 2px 3px", true, func(s *style) bool { return s.padding[bottom].Value == 3 && s.padding[left].Value == 2 }},
		{"paddingLeft", "5%", true, func(s *style) bool { return s.padding[left] == css.Length{Value: 5, Unit: css.UnitPercent} }},
		{"marginTop", "auto", true, func(s *style) bool { return s.margin[top].IsAuto() }},
		{"margin", "1px 2px 3px 4px 5px", false, nil},
		{"flex", "1", true, func(s *style) bool { return s.grow == 1 && s.shrink == 1 && s.basis == css.Length{} }},
		{"flex", "2 3 10px", true, func(s *style) bool { return s.grow == 2 && s.shrink == 3 && s.basis.Value == 10 }},
		{"flex", "none", true, func(s *style) bool { return s.grow == 0 && s.shrink == 0 && s.basis.IsAuto() }},
		{"flex", "auto", true, func(s *style) bool { return s.grow == 1 && s.basis.IsAuto() }},
		{"justifyContent", "end", true, func(s *style) bool { return s.justify == "flex-end" }},
		{"alignItems", "auto", false, nil},
		{"alignSelf", "auto", true, func(s *style) bool { return s.alignSelf == "auto" }},
		{"flexWrap", "wrap", false, nil},
		{"flexFlow", "column nowrap", true, func(s *style) bool { return s.direction == "column" }},
		{"border", "none", true, func(s *style) bool { return s.borderW[0] == css.Length{} }},
		{"borderTop", "thick dashed #fff", true, func(s *style) bool {
			return s.borderW[top].Value == 5 && s.borderC[top] == color.NRGBA{R: 255, G: 255, B: 255, A: 255} && s.borderSet[top]
		}},
		{"borderColor", "red blue", true, func(s *style) bool { return s.borderC[left].B == 255 && s.borderC[top].R == 255 }},
		{"borderRadius", "10px / 5px", true, func(s *style) bool { return s.radii[3].Value == 10 }},
		{"background", "linear-gradient(red, blue)", true, func(s *style) bool { return s.bgImage != "" }},
		{"background", "tomato", true, func(s *style) bool { return s.background != nil }},
		{"opacity", "2", true, func(s *style) bool { return s.opacity == 1 }},
		{"lineHeight", "24px", true, func(s *style) bool { return !s.lineHeightMul && s.lineHeight == 24 }},
		{"lineHeight", "normal", true, func(s *style) bool { return s.lineHeightMul && s.lineHeight == defaultLineHeight }},
		{"textDecoration", "underline dotted", true, func(s *style) bool { return s.decoration == "underline" }},
		{"whiteSpace", "break-spaces", false, nil},
		{"display", "grid", false, nil},
		{"display", "block", true, func(s *style) bool { return s.display == "flex" }},
		{"--brand", "red", true, nil},
		{"transform", "rotate(1deg)", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.prop+" "+tt.value, func(t *testing.T) {
			s := rootStyle()
			if ok := s.apply(tt.prop, tt.value, 16); ok != tt.ok {
				t.Fatalf("apply() = %v, want %v", ok, tt.ok)
			}
			if tt.check != nil && !tt.check(s) {
				t.Errorf("unexpected style after apply: %+v", s)
			}
		})
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		value  string
		parent fonts.Weight
		want   fonts.Weight
		ok     bool
	}{
		{"normal", 700, 400, true},
		{"bold", 400, 700, true},
		{"bolder", 300, 400, true},
		{"bolder", 400, 700, true},
		{"lighter", 700, 400, true},
		{"lighter", 400, 100, true},
		{"50", 400, 100, true},
		{"950", 400, 900, true},
		{"heavy", 400, 0, false},
		{"0", 400, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseWeight(tt.value, tt.parent)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseWeight(%q, %d) = %d, %v; want %d, %v", tt.value, tt.parent, got, ok, tt.want, tt.ok)
		}
	}
}

func TestJustify(t *testing.T) {
	tests := []struct {
		mode          string
		free          float64
		n             int
		start, betwen float64
	}{
		{"flex-start", 100, 2, 0, 0},
		{"flex-end", 100, 2, 100, 0},
		{"center", 100, 2, 50, 0},
		{"space-between", 100, 3, 0, 50},
		{"space-between", 100, 1, 0, 0},
		{"space-between", -10, 3, 0, 0},
		{"space-around", 100, 2, 25, 50},
		{"space-around", -10, 2, -5, 0},
		{"space-evenly", 90, 2, 30, 30},
		{"space-evenly", -10, 2, -5, 0},
	}
	for _, tt := range tests {
		start, between := justify(tt.mode, tt.free, tt.n)
		if !near(start, tt.start) || !near(between, tt.betwen) {
			t.Errorf("justify(%s, %v, %d) = %v, %v; want %v, %v", tt.mode, tt.free, tt.n, start, between, tt.start, tt.betwen)
		}
	}
}

func TestFit(t *testing.T) {
	content := scene.Bounds{X: 10, Y: 10, W: 100, H: 100}
	tests := []struct {
		mode     string
		iw, ih   float64
		dst, src scene.Bounds
	}{
		{"fill", 200, 100, content, scene.Bounds{W: 200, H: 100}},
		{"contain", 200, 100, scene.Bounds{X: 10, Y: 35, W: 100, H: 50}, scene.Bounds{W: 200, H: 100}},
		{"cover", 200, 100, content, scene.Bounds{X: 50, W: 100, H: 100}},
		{"none", 50, 300, scene.Bounds{X: 35, Y: 10, W: 50, H: 100}, scene.Bounds{Y: 100, W: 50, H: 100}},
		{"scale-down", 50, 20, scene.Bounds{X: 35, Y: 50, W: 50, H: 20}, scene.Bounds{W: 50, H: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			dst, src := fit(tt.mode, content, tt.iw, tt.ih)
			if !nearBounds(dst, tt.dst) || !nearBounds(src, tt.src) {
				t.Errorf("fit() = %s, %s; want %s, %s", dst, src, tt.dst, tt.src)
			}
		})
	}
}
