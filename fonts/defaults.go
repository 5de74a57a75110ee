package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"ogcard/config"
)

const (
	// SansSerif is family name of the embedded proportional Go font, it is
	// used when nothing else matches.
	SansSerif = "sans-serif"
	// Monospace is family name of the embedded Go Mono font.
	Monospace = "monospace"
)

// Defaults returns fonts always available to renderer.
func Defaults() []Font {
	return []Font{
		NewFont(SansSerif, goregular.TTF, WeightNormal, config.FontStyleNormal),
		NewFont(SansSerif, gobold.TTF, WeightBold, config.FontStyleNormal),
		NewFont(SansSerif, goitalic.TTF, WeightNormal, config.FontStyleItalic),
		NewFont(SansSerif, gobolditalic.TTF, WeightBold, config.FontStyleItalic),
		NewFont(Monospace, gomono.TTF, WeightNormal, config.FontStyleNormal),
		NewFont(Monospace, gomonobold.TTF, WeightBold, config.FontStyleNormal),
	}
}
