// Package markup turns HTML text into element trees consumed by the layout
// engine.
package markup

import (
	"bytes"
	"encoding/json"
	"strings"

	"ogcard/css"
	"ogcard/utils/debug"
)

// Node is either *Element or Text.
type Node interface {
	node()
}

// Text is a non empty, trimmed text leaf.
type Text string

func (Text) node() {}

// Prop is a single element property, values are never coerced.
type Prop struct {
	Name  string
	Value string
}

// Props keeps element properties in insertion order. It never contains
// "class" or "style".
type Props []Prop

func (p Props) Get(name string) (string, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

func (p Props) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Element is a node of element tree. Trees are built once and never
// modified afterwards.
type Element struct {
	Tag string
	// Style is nil when source had no style attribute.
	Style    css.Style
	Props    Props
	Children []Node
}

func (*Element) node() {}

// NewElement builds element programmatically. Text children are trimmed and
// empty ones dropped, same as when converting markup.
func NewElement(tag string, style css.Style, props Props, children ...Node) *Element {
	e := &Element{Tag: strings.ToLower(tag), Style: style, Props: props}
	for _, c := range children {
		switch v := c.(type) {
		case Text:
			if t := strings.TrimSpace(string(v)); t != "" {
				e.Children = append(e.Children, Text(t))
			}
		case *Element:
			if v != nil {
				e.Children = append(e.Children, v)
			}
		}
	}
	return e
}

// ClassName returns value of className prop.
func (e *Element) ClassName() string {
	v, _ := e.Props.Get("className")
	return v
}

// TextContent returns all descendant text joined with single spaces.
func (e *Element) TextContent() string {
	var parts []string
	var walk func(*Element)
	walk = func(el *Element) {
		for _, c := range el.Children {
			switch v := c.(type) {
			case Text:
				parts = append(parts, string(v))
			case *Element:
				walk(v)
			}
		}
	}
	walk(e)
	return strings.Join(parts, " ")
}

// Find returns first element (depth first, including e) with given tag.
func (e *Element) Find(tag string) *Element {
	if e.Tag == tag {
		return e
	}
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			if found := el.Find(tag); found != nil {
				return found
			}
		}
	}
	return nil
}

// MarshalJSON produces {"type": tag, "props": {...}} representation with
// style first, then className and other props in source order, then
// children.
func (e *Element) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	if err := writeJSON(&buf, e.Tag); err != nil {
		return nil, err
	}
	buf.WriteString(`,"props":{`)
	first := true
	field := func(name string, v any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSON(&buf, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		return writeJSON(&buf, v)
	}
	if e.Style != nil {
		if err := field("style", e.Style); err != nil {
			return nil, err
		}
	}
	for _, p := range e.Props {
		if err := field(p.Name, p.Value); err != nil {
			return nil, err
		}
	}
	if len(e.Children) > 0 {
		children := make([]any, 0, len(e.Children))
		for _, c := range e.Children {
			switch v := c.(type) {
			case Text:
				children = append(children, string(v))
			case *Element:
				children = append(children, v)
			}
		}
		if err := field("children", children); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// Dump returns indented listing of the tree for logs and debug reports.
func (e *Element) Dump() string {
	tw := debug.NewTreeWriter()
	e.dump(tw, 0)
	return tw.String()
}

func (e *Element) dump(tw *debug.TreeWriter, depth int) {
	tw.Line(depth, "<%s>", e.Tag)
	if e.Style != nil {
		tw.Field(depth+1, "style", e.Style.String())
	}
	for _, p := range e.Props {
		tw.Field(depth+1, p.Name, p.Value)
	}
	for _, c := range e.Children {
		switch v := c.(type) {
		case Text:
			tw.Text(depth+1, string(v))
		case *Element:
			v.dump(tw, depth+1)
		}
	}
}
