package css

import (
	"image/color"
	"math"
	"strings"
)

// GradientStop is a color stop with optional position.
type GradientStop struct {
	Color  color.NRGBA
	Pos    Length
	HasPos bool
}

// Gradient describes linear-gradient() or radial-gradient() value.
type Gradient struct {
	Radial bool

	// Linear: angle in degrees, 0 points up, 90 points right. When Corner is
	// set the angle depends on box proportions and is computed by Angle().
	Deg    float64
	Corner [2]int

	// Radial: circle or ellipse centered at (CX, CY).
	Circle bool
	CX, CY Length

	Stops []GradientStop
}

var sideVectors = map[string][2]int{
	"top":    {0, -1},
	"bottom": {0, 1},
	"left":   {-1, 0},
	"right":  {1, 0},
}

// ParseGradient parses linear-gradient(...) or radial-gradient(...).
func ParseGradient(value string, current color.NRGBA) (*Gradient, bool) {
	name, args, ok := FunctionArgs(value)
	if !ok || len(args) == 0 {
		return nil, false
	}
	g := &Gradient{Deg: 180}
	switch name {
	case "linear-gradient":
		if parseLinearDirection(g, args[0]) {
			args = args[1:]
		}
	case "radial-gradient":
		g.Radial = true
		g.CX, g.CY = Length{Value: 50, Unit: UnitPercent}, Length{Value: 50, Unit: UnitPercent}
		if parseRadialShape(g, args[0]) {
			args = args[1:]
		}
	default:
		return nil, false
	}
	for _, a := range args {
		stops, ok := parseStops(a, current)
		if !ok {
			return nil, false
		}
		g.Stops = append(g.Stops, stops...)
	}
	if len(g.Stops) < 1 {
		return nil, false
	}
	return g, true
}

func parseLinearDirection(g *Gradient, arg string) bool {
	if deg, ok := ParseAngle(arg); ok && !isBareNumber(arg) {
		g.Deg = deg
		return true
	}
	fields := Fields(strings.ToLower(arg))
	if len(fields) < 2 || fields[0] != "to" {
		return false
	}
	var v [2]int
	for _, f := range fields[1:] {
		s, ok := sideVectors[f]
		if !ok {
			return false
		}
		v[0] += s[0]
		v[1] += s[1]
	}
	switch {
	case v[0] != 0 && v[1] != 0:
		g.Corner = v
	case v[0] > 0:
		g.Deg = 90
	case v[0] < 0:
		g.Deg = 270
	case v[1] < 0:
		g.Deg = 0
	default:
		g.Deg = 180
	}
	return true
}

func isBareNumber(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

func parseRadialShape(g *Gradient, arg string) bool {
	fields := Fields(strings.ToLower(arg))
	recognized := false
	for i := 0; i < len(fields); i++ {
		switch f := fields[i]; f {
		case "circle":
			g.Circle, recognized = true, true
		case "ellipse", "farthest-corner", "closest-side", "closest-corner", "farthest-side":
			recognized = true
		case "at":
			recognized = true
			pos := fields[i+1:]
			g.CX, g.CY = parsePosition(pos)
			i = len(fields)
		default:
			return false
		}
	}
	return recognized
}

func parsePosition(fields []string) (Length, Length) {
	x, y := Length{Value: 50, Unit: UnitPercent}, Length{Value: 50, Unit: UnitPercent}
	keyword := map[string]float64{"left": 0, "top": 0, "center": 50, "right": 100, "bottom": 100}
	for i, f := range fields {
		if i > 1 {
			break
		}
		if v, ok := keyword[f]; ok {
			l := Length{Value: v, Unit: UnitPercent}
			switch {
			case f == "top" || f == "bottom":
				y = l
			case f == "left" || f == "right":
				x = l
			case i == 0:
				x = l
			default:
				y = l
			}
			continue
		}
		if l, ok := ParseLength(f); ok {
			if i == 0 {
				x = l
			} else {
				y = l
			}
		}
	}
	return x, y
}

func parseStops(arg string, current color.NRGBA) ([]GradientStop, bool) {
	fields := Fields(arg)
	if len(fields) == 0 {
		return nil, false
	}
	c, ok := ParseColor(fields[0], current)
	if !ok {
		return nil, false
	}
	stops := []GradientStop{{Color: c}}
	for i, f := range fields[1:] {
		l, ok := ParseLength(f)
		if !ok || l.IsAuto() {
			return nil, false
		}
		if i == 0 {
			stops[0].Pos, stops[0].HasPos = l, true
		} else {
			// "red 10% 20%" is two stops of the same color
			stops = append(stops, GradientStop{Color: c, Pos: l, HasPos: true})
		}
	}
	return stops, true
}

// Angle returns gradient angle in degrees for the box of given size.
func (g *Gradient) Angle(w, h float64) float64 {
	if g.Corner == [2]int{} {
		return g.Deg
	}
	return math.Atan2(float64(g.Corner[0])*h, -float64(g.Corner[1])*w) * 180 / math.Pi
}

// LinearPoints returns start and end points of the gradient line for the box
// of given size (box origin is 0,0).
func (g *Gradient) LinearPoints(w, h float64) (x1, y1, x2, y2 float64) {
	rad := g.Angle(w, h) * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	l := math.Abs(w*dx) + math.Abs(h*dy)
	cx, cy := w/2, h/2
	return cx - dx*l/2, cy - dy*l/2, cx + dx*l/2, cy + dy*l/2
}

// ResolvedStop is a color stop with offset in [0, 1].
type ResolvedStop struct {
	Color  color.NRGBA
	Offset float64
}

// ResolveStops computes stop offsets along gradient line of given length
// following CSS rules: missing first and last positions default to 0 and 1,
// missing positions in between are spread evenly, positions never decrease.
func (g *Gradient) ResolveStops(length float64, ctx LengthContext) []ResolvedStop {
	n := len(g.Stops)
	out := make([]ResolvedStop, n)
	has := make([]bool, n)
	ctx.Basis = length
	for i, s := range g.Stops {
		out[i].Color = s.Color
		if s.HasPos && length > 0 {
			out[i].Offset = s.Pos.Px(ctx) / length
			has[i] = true
		}
	}
	if !has[0] {
		out[0].Offset, has[0] = 0, true
	}
	if n > 1 && !has[n-1] {
		out[n-1].Offset, has[n-1] = 1, true
	}
	for i := 1; i < n; i++ {
		if has[i] && out[i].Offset < out[i-1].Offset {
			out[i].Offset = out[i-1].Offset
		}
		if has[i] {
			continue
		}
		j := i
		for !has[j] {
			j++
		}
		start, end := out[i-1].Offset, math.Max(out[j].Offset, out[i-1].Offset)
		for k := i; k < j; k++ {
			out[k].Offset = start + (end-start)*float64(k-i+1)/float64(j-i+1)
			has[k] = true
		}
	}
	return out
}
