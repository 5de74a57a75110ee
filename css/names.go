package css

import (
	"regexp"
	"strings"
)

var customPropertyRe = regexp.MustCompile(`^--[a-zA-Z0-9_-]+$`)

// IsCustomProperty reports whether name is a CSS custom property (--name).
func IsCustomProperty(name string) bool {
	return customPropertyRe.MatchString(name)
}

// StylePropertyName converts kebab-case CSS property name into camelCase
// form used by element styles. Custom properties and names without dashes
// are returned unchanged. Vendor prefixes are capitalized (-webkit-x ->
// WebkitX) with the exception of -ms- which stays lowercase (msX).
func StylePropertyName(name string) string {
	if !strings.Contains(name, "-") || IsCustomProperty(name) {
		return name
	}
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "-ms-") {
		name = name[1:]
	}
	return CamelCase(name)
}

// CamelCase replaces every "-x" (x is lowercase ASCII letter) with "X".
// Nothing else is touched.
func CamelCase(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' && i+1 < len(name) && name[i+1] >= 'a' && name[i+1] <= 'z' {
			b.WriteByte(name[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
