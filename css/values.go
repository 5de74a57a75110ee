package css

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Unit of CSS length.
type Unit int

const (
	UnitPx Unit = iota
	UnitPercent
	UnitEm
	UnitRem
	UnitVw
	UnitVh
	UnitVmin
	UnitVmax
	UnitAuto
)

// Length is a parsed CSS length.
type Length struct {
	Value float64
	Unit  Unit
}

// Auto is the "auto" length.
var Auto = Length{Unit: UnitAuto}

func (l Length) IsAuto() bool {
	return l.Unit == UnitAuto
}

// LengthContext carries everything needed to turn relative lengths into
// pixels.
type LengthContext struct {
	FontSize     float64
	RootFontSize float64
	// Percentage basis, usually containing block size.
	Basis          float64
	ViewportWidth  float64
	ViewportHeight float64
}

// Px resolves length to pixels. Auto resolves to 0.
func (l Length) Px(ctx LengthContext) float64 {
	switch l.Unit {
	case UnitPx:
		return l.Value
	case UnitPercent:
		return l.Value * ctx.Basis / 100
	case UnitEm:
		return l.Value * ctx.FontSize
	case UnitRem:
		return l.Value * ctx.RootFontSize
	case UnitVw:
		return l.Value * ctx.ViewportWidth / 100
	case UnitVh:
		return l.Value * ctx.ViewportHeight / 100
	case UnitVmin:
		return l.Value * math.Min(ctx.ViewportWidth, ctx.ViewportHeight) / 100
	case UnitVmax:
		return l.Value * math.Max(ctx.ViewportWidth, ctx.ViewportHeight) / 100
	}
	return 0
}

var absoluteUnits = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
	"q":  96 / 101.6,
}

var relativeUnits = map[string]Unit{
	"%":    UnitPercent,
	"em":   UnitEm,
	"rem":  UnitRem,
	"vw":   UnitVw,
	"vh":   UnitVh,
	"vmin": UnitVmin,
	"vmax": UnitVmax,
}

// ParseLength parses single CSS length value. Unitless numbers are treated
// as pixels.
func ParseLength(value string) (Length, bool) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "auto") {
		return Auto, true
	}
	num, unit, ok := parseDimension(value)
	if !ok {
		return Length{}, false
	}
	if f, ok := absoluteUnits[unit]; ok {
		return Length{Value: num * f, Unit: UnitPx}, true
	}
	if u, ok := relativeUnits[unit]; ok {
		return Length{Value: num, Unit: u}, true
	}
	return Length{}, false
}

// ParseNumber parses unitless number.
func ParseNumber(value string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseAngle parses CSS angle returning degrees.
func ParseAngle(value string) (float64, bool) {
	num, unit, ok := parseDimension(strings.TrimSpace(value))
	if !ok {
		return 0, false
	}
	switch unit {
	case "deg", "":
		return num, true
	case "rad":
		return num * 180 / math.Pi, true
	case "grad":
		return num * 0.9, true
	case "turn":
		return num * 360, true
	}
	return 0, false
}

// Transparent is fully transparent black.
var Transparent = color.NRGBA{}

// ParseColor parses CSS color. currentColor resolves to current.
func ParseColor(value string, current color.NRGBA) (color.NRGBA, bool) {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	switch {
	case lower == "":
		return color.NRGBA{}, false
	case lower == "transparent":
		return Transparent, true
	case lower == "currentcolor":
		return current, true
	case strings.HasPrefix(lower, "#"):
		return parseHexColor(lower[1:])
	}
	if name, args, ok := FunctionArgs(lower); ok {
		if len(args) == 1 {
			// modern syntax: rgb(0 0 0 / 50%)
			args = slashFields(args[0])
		}
		switch name {
		case "rgb", "rgba":
			return parseRGBArgs(args)
		case "hsl", "hsla":
			return parseHSLArgs(args)
		}
		return color.NRGBA{}, false
	}
	if c, ok := colornames.Map[lower]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, true
	}
	return color.NRGBA{}, false
}

func slashFields(s string) []string {
	var out []string
	for _, f := range Fields(strings.ReplaceAll(s, "/", " ")) {
		if f != "," {
			out = append(out, f)
		}
	}
	return out
}

func parseHexColor(h string) (color.NRGBA, bool) {
	hexVal := func(c byte) (uint8, bool) {
		switch {
		case c >= '0' && c <= '9':
			return c - '0', true
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10, true
		}
		return 0, false
	}
	digits := make([]uint8, len(h))
	for i := 0; i < len(h); i++ {
		v, ok := hexVal(h[i])
		if !ok {
			return color.NRGBA{}, false
		}
		digits[i] = v
	}
	switch len(h) {
	case 3, 4:
		c := color.NRGBA{R: digits[0] * 17, G: digits[1] * 17, B: digits[2] * 17, A: 255}
		if len(h) == 4 {
			c.A = digits[3] * 17
		}
		return c, true
	case 6, 8:
		c := color.NRGBA{R: digits[0]<<4 | digits[1], G: digits[2]<<4 | digits[3], B: digits[4]<<4 | digits[5], A: 255}
		if len(h) == 8 {
			c.A = digits[6]<<4 | digits[7]
		}
		return c, true
	}
	return color.NRGBA{}, false
}

func clamp255(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}

func parseChannel(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return f * 255 / 100, true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parseAlpha(s string) (uint8, bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp255(f * 255 / 100), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp255(f * 255), true
}

func parseRGBArgs(args []string) (color.NRGBA, bool) {
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, false
	}
	var ch [3]float64
	for i := range 3 {
		v, ok := parseChannel(args[i])
		if !ok {
			return color.NRGBA{}, false
		}
		ch[i] = v
	}
	c := color.NRGBA{R: clamp255(ch[0]), G: clamp255(ch[1]), B: clamp255(ch[2]), A: 255}
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return color.NRGBA{}, false
		}
		c.A = a
	}
	return c, true
}

func parseHSLArgs(args []string) (color.NRGBA, bool) {
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, false
	}
	h, ok := ParseAngle(args[0])
	if !ok {
		return color.NRGBA{}, false
	}
	pct := func(s string) (float64, bool) {
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		return math.Max(0, math.Min(100, f)) / 100, err == nil
	}
	s, ok1 := pct(args[1])
	l, ok2 := pct(args[2])
	if !ok1 || !ok2 {
		return color.NRGBA{}, false
	}
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	var r, g, b float64
	if s == 0 {
		r, g, b = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		r = hueToRGB(p, q, h+1.0/3)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3)
	}
	c := color.NRGBA{R: clamp255(r * 255), G: clamp255(g * 255), B: clamp255(b * 255), A: 255}
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return color.NRGBA{}, false
		}
		c.A = a
	}
	return c, true
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// URL extracts location from url(...) value.
func URL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) < 5 || !strings.EqualFold(value[:4], "url(") || !strings.HasSuffix(value, ")") {
		return "", false
	}
	return unquote(value[4 : len(value)-1]), true
}

// FontFamilies splits font-family list and removes quotes.
func FontFamilies(value string) []string {
	var out []string
	for _, f := range SplitComma(value) {
		if f = unquote(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
