package convert

import (
	"testing"

	"ogcard/config"
	"ogcard/markup"
)

func TestBuildTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title wins", `<title>Card</title><h1>Heading</h1>`, "Card"},
		{"heading", `<div><h1> Hello <b>World</b> </h1></div>`, "Hello World"},
		{"empty title", `<title> </title><h1>Heading</h1>`, "Heading"},
		{"nothing", `<div>text</div>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := markup.Parse(tt.html, nil)
			if got := buildTitle(root); got != tt.want {
				t.Errorf("buildTitle() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := buildTitle(nil); got != "" {
		t.Errorf("buildTitle(nil) = %q", got)
	}
}

func TestBuildValues(t *testing.T) {
	root := markup.Parse(`<h1>Release</h1>`, nil)
	opts := renderOptions{format: config.OutputFmtSvg, width: 800, height: 400}
	v := buildValues(root, "posts/2024/release.html", "id-1", opts)

	want := Values{SourceFile: "release", Title: "Release", Format: "svg", Width: 800, Height: 400, ID: "id-1"}
	if v != want {
		t.Errorf("buildValues() = %+v, want %+v", v, want)
	}
}

func TestExpandTemplate(t *testing.T) {
	v := Values{SourceFile: "card", Title: "Hello", Format: "png", Width: 10, Height: 20, ID: "abc"}
	tests := []struct {
		name    string
		field   string
		want    string
		wantErr bool
	}{
		{"plain", "static", "static", false},
		{"values", "{{ .SourceFile }}-{{ .ID }}.{{ .Format }}", "card-abc.png", false},
		{"context", "{{ .Context }}", string(config.OutputNameTemplateFieldName), false},
		{"sprig", `{{ .Title | upper }}-{{ printf "%03d" .Width }}`, "HELLO-010", false},
		{"parse error", "{{ .Title", "", true},
		{"exec error", "{{ .Missing }}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(config.OutputNameTemplateFieldName, tt.field, v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}
