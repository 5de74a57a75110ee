package css

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Declaration is a single property/value pair of an inline style.
type Declaration struct {
	Property string
	Value    string
}

// Style is an ordered set of declarations with camelCase property names.
// Consumers look properties up by name, order is kept for deterministic
// output only.
type Style []Declaration

// Get returns value of the property if present.
func (s Style) Get(prop string) (string, bool) {
	for _, d := range s {
		if d.Property == prop {
			return d.Value, true
		}
	}
	return "", false
}

// Value returns value of the property or empty string.
func (s Style) Value(prop string) string {
	v, _ := s.Get(prop)
	return v
}

func (s Style) Len() int {
	return len(s)
}

// Set replaces value of existing property keeping its position or appends
// new declaration.
func (s *Style) Set(prop, value string) {
	for i := range *s {
		if (*s)[i].Property == prop {
			(*s)[i].Value = value
			return
		}
	}
	*s = append(*s, Declaration{Property: prop, Value: value})
}

// Clone returns independent copy of the style. Nil stays nil.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	c := make(Style, len(s))
	copy(c, s)
	return c
}

// String serializes style back to declaration list using camelCase names.
func (s Style) String() string {
	var b strings.Builder
	for i, d := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteByte(';')
	}
	return b.String()
}

// MarshalJSON emits style as JSON object preserving declaration order.
func (s Style) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(d.Property)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
