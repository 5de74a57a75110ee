// Package fonts loads and matches fonts used for text layout.
package fonts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/image/font/sfnt"

	"ogcard/config"
)

// Weight is CSS font weight, 100 to 900.
type Weight int

const (
	WeightThin       Weight = 100
	WeightExtraLight Weight = 200
	WeightLight      Weight = 300
	WeightNormal     Weight = 400
	WeightMedium     Weight = 500
	WeightSemiBold   Weight = 600
	WeightBold       Weight = 700
	WeightExtraBold  Weight = 800
	WeightBlack      Weight = 900
)

var ErrUnsupportedFont = errors.New("unsupported font format")

// Font is a single font file registered under family name.
type Font struct {
	Name   string
	Data   []byte
	Weight Weight
	Style  config.FontStyle
}

// NewFont creates font descriptor, zero weight means normal (400).
func NewFont(name string, data []byte, weight Weight, style config.FontStyle) Font {
	if weight == 0 {
		weight = WeightNormal
	}
	return Font{Name: name, Data: data, Weight: weight, Style: style}
}

// Validate checks that font data could be used for drawing: only TrueType
// and OpenType are accepted, web formats are rejected.
func (f Font) Validate() error {
	if f.Name == "" {
		return errors.New("font name is empty")
	}
	if f.Weight < WeightThin || f.Weight > WeightBlack {
		return fmt.Errorf("font %q: weight %d is out of range", f.Name, f.Weight)
	}
	switch {
	case filetype.Is(f.Data, "ttf"), filetype.Is(f.Data, "otf"):
		return nil
	case filetype.Is(f.Data, "woff"), filetype.Is(f.Data, "woff2"):
		return fmt.Errorf("font %q: %w (woff is not supported, use ttf or otf)", f.Name, ErrUnsupportedFont)
	}
	return fmt.Errorf("font %q: %w", f.Name, ErrUnsupportedFont)
}

// Inspect reads family name, weight and style from font name table. Weight
// and style are guessed from subfamily name since sfnt does not expose OS/2
// table.
func Inspect(data []byte) (family string, weight Weight, style config.FontStyle, err error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", 0, 0, fmt.Errorf("unable to parse font: %w", err)
	}

	var b sfnt.Buffer
	for _, id := range []sfnt.NameID{sfnt.NameIDTypographicFamily, sfnt.NameIDFamily} {
		if family, err = f.Name(&b, id); err == nil && family != "" {
			break
		}
	}
	if family == "" {
		return "", 0, 0, errors.New("font has no family name")
	}

	var sub string
	for _, id := range []sfnt.NameID{sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily} {
		if sub, err = f.Name(&b, id); err == nil && sub != "" {
			break
		}
	}
	weight, style = guessWeightStyle(sub)
	return family, weight, style, nil
}

// ordered so that compound names are checked before their parts
var weightNames = []struct {
	name   string
	weight Weight
}{
	{"extralight", WeightExtraLight},
	{"ultralight", WeightExtraLight},
	{"semibold", WeightSemiBold},
	{"demibold", WeightSemiBold},
	{"extrabold", WeightExtraBold},
	{"ultrabold", WeightExtraBold},
	{"hairline", WeightThin},
	{"thin", WeightThin},
	{"light", WeightLight},
	{"medium", WeightMedium},
	{"bold", WeightBold},
	{"black", WeightBlack},
	{"heavy", WeightBlack},
}

func guessWeightStyle(sub string) (Weight, config.FontStyle) {
	s := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(sub))

	style := config.FontStyleNormal
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		style = config.FontStyleItalic
	}
	for _, w := range weightNames {
		if strings.Contains(s, w.name) {
			return w.weight, style
		}
	}
	return WeightNormal, style
}
