package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"ogcard/config"
	"ogcard/markup"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	Title      string
	Format     string
	Width      int
	Height     int
	ID         string
}

// buildTitle returns text of the first <title>, or of the first <h1> when
// there is no title.
func buildTitle(root *markup.Element) string {
	if root == nil {
		return ""
	}
	for _, tag := range []string{"title", "h1"} {
		if el := root.Find(tag); el != nil {
			if t := strings.TrimSpace(el.TextContent()); t != "" {
				return t
			}
		}
	}
	return ""
}

func buildValues(root *markup.Element, src, id string, opts renderOptions) Values {
	return Values{
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Title:      buildTitle(root),
		Format:     opts.format.String(),
		Width:      opts.width,
		Height:     opts.height,
		ID:         id,
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
