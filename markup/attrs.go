package markup

import (
	"strings"

	"ogcard/css"
)

// attrOverrides lists HTML attributes whose prop name is not a plain
// camelCase conversion.
var attrOverrides = map[string]string{
	"for":             "htmlFor",
	"tabindex":        "tabIndex",
	"readonly":        "readOnly",
	"maxlength":       "maxLength",
	"cellspacing":     "cellSpacing",
	"cellpadding":     "cellPadding",
	"rowspan":         "rowSpan",
	"colspan":         "colSpan",
	"usemap":          "useMap",
	"frameborder":     "frameBorder",
	"contenteditable": "contentEditable",
	"crossorigin":     "crossOrigin",
	"srcset":          "srcSet",
	"srcdoc":          "srcDoc",
}

// AttrName maps raw markup attribute name to element prop name. data-* and
// aria-* are kept as is, everything else gets "-x" -> "X" conversion without
// lowercasing or vendor prefix handling (unlike css.StylePropertyName).
// "class" and "style" are handled by the converter and never get here.
func AttrName(raw string) string {
	if name, ok := attrOverrides[raw]; ok {
		return name
	}
	if strings.HasPrefix(raw, "data-") || strings.HasPrefix(raw, "aria-") {
		return raw
	}
	return css.CamelCase(raw)
}
