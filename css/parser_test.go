package css_test

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ogcard/css"
)

func styleOf(t *testing.T, s string) css.Style {
	t.Helper()
	return css.NewParser(zap.NewNop()).ParseStyle(s)
}

func TestParser_SimpleDeclarations(t *testing.T) {
	style := styleOf(t, "display: flex; color: red;")

	if style.Len() != 2 {
		t.Fatalf("expected 2 declarations, got %d (%v)", style.Len(), style)
	}
	if v, _ := style.Get("display"); v != "flex" {
		t.Errorf("display = %q, want %q", v, "flex")
	}
	if v, _ := style.Get("color"); v != "red" {
		t.Errorf("color = %q, want %q", v, "red")
	}
	if style[0].Property != "display" || style[1].Property != "color" {
		t.Errorf("declaration order not preserved: %v", style)
	}
}

func TestParser_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t", ";", " ; ; "} {
		style := styleOf(t, in)
		if style == nil {
			t.Errorf("ParseStyle(%q) returned nil", in)
		}
		if style.Len() != 0 {
			t.Errorf("ParseStyle(%q) = %v, want empty", in, style)
		}
	}
}

func TestParser_CompositeValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		prop  string
		want  string
	}{
		{
			name:  "linear gradient",
			input: "background: linear-gradient(to right, #000, #fff);",
			prop:  "background",
			want:  "linear-gradient(to right, #000, #fff)",
		},
		{
			name:  "rgba",
			input: "color: rgba(0, 0, 0, 0.5); display: flex",
			prop:  "color",
			want:  "rgba(0, 0, 0, 0.5)",
		},
		{
			name:  "nested functions",
			input: "background-image: linear-gradient(90deg, rgb(1, 2, 3) 0%, hsl(120, 50%, 50%) 100%)",
			prop:  "backgroundImage",
			want:  "linear-gradient(90deg, rgb(1, 2, 3) 0%, hsl(120, 50%, 50%) 100%)",
		},
		{
			name:  "semicolon inside url",
			input: "background-image: url(data:image/png;base64,AAAA); color: red",
			prop:  "backgroundImage",
			want:  "url(data:image/png;base64,AAAA)",
		},
		{
			name:  "semicolon inside quoted url",
			input: `background-image: url("a;b.png")`,
			prop:  "backgroundImage",
			want:  `url("a;b.png")`,
		},
		{
			name:  "semicolon inside string",
			input: `font-family: "a;b", serif; color: red`,
			prop:  "fontFamily",
			want:  `"a;b", serif`,
		},
		{
			name:  "colon inside value",
			input: "background-image: url(http://example.com/a.png)",
			prop:  "backgroundImage",
			want:  "url(http://example.com/a.png)",
		},
		{
			name:  "important kept verbatim",
			input: "color: red !important",
			prop:  "color",
			want:  "red !important",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := styleOf(t, tt.input)
			got, ok := style.Get(tt.prop)
			if !ok {
				t.Fatalf("property %q missing in %v", tt.prop, style)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.prop, got, tt.want)
			}
		})
	}
}

func TestParser_PropertyNames(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"background-color: red", "backgroundColor"},
		{"border-top-left-radius: 4px", "borderTopLeftRadius"},
		{"--main-color: red", "--main-color"},
		{"-webkit-line-clamp: 2", "WebkitLineClamp"},
		{"-ms-transform: none", "msTransform"},
		{"COLOR: red", "COLOR"},
		{"Font-Size: 12px", "fontSize"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			style := styleOf(t, tt.input)
			if style.Len() != 1 {
				t.Fatalf("expected 1 declaration, got %v", style)
			}
			if style[0].Property != tt.want {
				t.Errorf("property = %q, want %q", style[0].Property, tt.want)
			}
		})
	}
}

func TestParser_MalformedDeclarations(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := css.NewParser(zap.New(core))

	style := p.ParseStyle("color red; display: flex; : nothing; width:; margin: 0")

	if style.Len() != 2 {
		t.Fatalf("expected 2 declarations, got %d (%v)", style.Len(), style)
	}
	if v, _ := style.Get("display"); v != "flex" {
		t.Errorf("display = %q", v)
	}
	if v, _ := style.Get("margin"); v != "0" {
		t.Errorf("margin = %q", v)
	}
	if logs.FilterMessageSnippet("Skipping").Len() != 3 {
		t.Errorf("expected 3 skipped declarations logged, got %d", logs.FilterMessageSnippet("Skipping").Len())
	}
}

func TestParser_DuplicateProperty(t *testing.T) {
	style := styleOf(t, "color: red; display: flex; color: blue")
	if style.Len() != 2 {
		t.Fatalf("expected 2 declarations, got %v", style)
	}
	if style[0].Property != "color" || style[0].Value != "blue" {
		t.Errorf("expected first declaration color: blue, got %v", style[0])
	}
}

func TestParser_CommentsDropped(t *testing.T) {
	style := styleOf(t, "color: /* note */ red; /* display: none; */ width: 10px")
	if v, _ := style.Get("color"); v != "red" {
		t.Errorf("color = %q, want %q", v, "red")
	}
	if _, ok := style.Get("display"); ok {
		t.Error("commented out declaration must not be parsed")
	}
	if v, _ := style.Get("width"); v != "10px" {
		t.Errorf("width = %q", v)
	}
}

func TestParser_Deterministic(t *testing.T) {
	in := "display: flex; flex-direction: column; background: linear-gradient(45deg, red, blue)"
	a, b := styleOf(t, in), styleOf(t, in)
	if a.String() != b.String() {
		t.Errorf("parsing is not deterministic: %q vs %q", a, b)
	}
}

func TestStyle_MarshalJSON(t *testing.T) {
	style := styleOf(t, "display: flex; flex-direction: column; color: \"red\"")
	data, err := json.Marshal(style)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"display":"flex","flexDirection":"column","color":"\"red\""}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestStyle_Set(t *testing.T) {
	var style css.Style
	style.Set("a", "1")
	style.Set("b", "2")
	style.Set("a", "3")
	if style.String() != "a: 3; b: 2;" {
		t.Errorf("unexpected style %q", style.String())
	}
	if c := style.Clone(); &c[0] == &style[0] {
		t.Error("Clone must copy declarations")
	}
}
