package markup

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ogcard/css"
)

const wrapperStyle = "display: flex; flex-direction: column;"

// Converter turns parsed HTML nodes into element trees. It keeps no state
// between calls and is safe for concurrent use.
type Converter struct {
	log    *zap.Logger
	styles *css.Parser
}

// NewConverter creates converter reporting diagnostics to log.
func NewConverter(log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		log:    log.Named("markup"),
		styles: css.NewParser(log),
	}
}

// Parse converts markup text into element tree. Input is always wrapped into
// flex column div, so the result is a single root even for fragments with
// several top level nodes or for empty input. Never returns nil.
func (c *Converter) Parse(text string) *Element {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	src := `<div style="` + wrapperStyle + `">` + text + `</div>`

	nodes, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		c.log.Debug("Unable to parse markup", zap.Error(err))
		return c.wrapper()
	}
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		if el, ok := c.Convert(n).(*Element); ok {
			return el
		}
	}
	return c.wrapper()
}

func (c *Converter) wrapper() *Element {
	return &Element{Tag: "div", Style: c.styles.ParseStyle(wrapperStyle)}
}

// Convert converts single HTML node with its subtree. Returns nil for nodes
// which produce no output: whitespace only text, comments, doctypes.
func (c *Converter) Convert(n *html.Node) Node {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			return Text(text)
		}
		return nil
	case html.ElementNode:
		return c.element(n)
	}
	return nil
}

func (c *Converter) element(n *html.Node) *Element {
	el := &Element{Tag: strings.ToLower(n.Data)}

	if v := attr(n, "style"); v != "" {
		el.Style = c.styles.ParseStyle(v)
	}
	if v := attr(n, "class"); v != "" {
		el.Props = append(el.Props, Prop{Name: "className", Value: v})
	}
	for _, a := range n.Attr {
		key := attrKey(a)
		if key == "style" || key == "class" {
			continue
		}
		// repeated attributes and names colliding after mapping: first wins
		name := AttrName(key)
		if el.Props.Has(name) {
			continue
		}
		el.Props = append(el.Props, Prop{Name: name, Value: a.Val})
	}

	if el.Tag == "img" {
		c.checkImage(el)
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if converted := c.Convert(child); converted != nil {
			el.Children = append(el.Children, converted)
		}
	}
	return el
}

// checkImage reports images without explicit dimensions, width and height
// are checked separately.
func (c *Converter) checkImage(el *Element) {
	src, _ := el.Props.Get("src")
	if src == "" {
		return
	}
	for _, dim := range []string{"width", "height"} {
		if v, _ := el.Props.Get(dim); v == "" {
			c.log.Warn("Image is missing explicit dimension, rendering may be incorrect",
				zap.String("dimension", dim), zap.String("src", shorten(src, 64)))
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func attrKey(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Parse converts markup text into element tree, see Converter.Parse.
func Parse(text string, log *zap.Logger) *Element {
	return NewConverter(log).Parse(text)
}
