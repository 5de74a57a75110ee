package css

import (
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses inline CSS declaration lists into element styles.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new inline style parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// ParseStyle parses declaration list (content of "style" attribute) into
// Style. Declarations without ':' and declarations with empty property or
// value are skipped. Property names are converted to camelCase, values are
// kept verbatim. Result is never nil.
func (p *Parser) ParseStyle(s string) Style {
	style := Style{}
	if strings.TrimSpace(s) == "" {
		return style
	}

	for _, d := range splitDeclarations(s) {
		text := strings.TrimSpace(d.text)
		if text == "" {
			continue
		}
		if d.colon < 0 {
			p.log.Debug("Skipping malformed declaration, no colon", zap.String("declaration", text))
			continue
		}
		prop := strings.TrimSpace(d.text[:d.colon])
		value := strings.TrimSpace(d.text[d.colon+1:])
		if prop == "" || value == "" {
			p.log.Debug("Skipping incomplete declaration", zap.String("declaration", text))
			continue
		}
		style.Set(StylePropertyName(prop), value)
	}
	return style
}

type rawDeclaration struct {
	text  string
	colon int
}

// splitDeclarations cuts declaration list on top level semicolons. Anything
// nested in functions, parentheses, brackets or braces as well as strings and
// url() tokens is never split. Comments are dropped.
func splitDeclarations(s string) []rawDeclaration {
	var (
		out   []rawDeclaration
		cur   strings.Builder
		depth int
		colon = -1
	)

	flush := func() {
		out = append(out, rawDeclaration{text: cur.String(), colon: colon})
		cur.Reset()
		colon = -1
	}

	l := css.NewLexer(parse.NewInputString(s))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return out
		case css.CommentToken:
			continue
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken, css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		case css.SemicolonToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.ColonToken:
			if depth == 0 && colon < 0 {
				colon = cur.Len()
			}
		}
		cur.Write(data)
	}
}

// splitTopLevel splits value on top level separator tokens. When sep is
// WhitespaceToken runs of whitespace (and commas, which are kept as separate
// fields) separate fields.
func splitTopLevel(value string, sep css.TokenType) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)

	flush := func() {
		if f := strings.TrimSpace(cur.String()); f != "" {
			out = append(out, f)
		}
		cur.Reset()
	}

	l := css.NewLexer(parse.NewInputString(value))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return out
		case css.CommentToken:
			continue
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && tt == sep {
			flush()
			continue
		}
		if depth == 0 && sep == css.WhitespaceToken && tt == css.CommaToken {
			flush()
			out = append(out, ",")
			continue
		}
		cur.Write(data)
	}
}

// Fields splits value on top level whitespace, so "1px solid rgb(0, 0, 0)"
// becomes three fields.
func Fields(value string) []string {
	return splitTopLevel(value, css.WhitespaceToken)
}

// SplitComma splits value on top level commas.
func SplitComma(value string) []string {
	return splitTopLevel(value, css.CommaToken)
}

// FunctionArgs returns lowercase function name and its top level comma (or
// whitespace/slash for modern color syntax) separated arguments. For
// non-function values ok is false.
func FunctionArgs(value string) (name string, args []string, ok bool) {
	value = strings.TrimSpace(value)
	open := strings.IndexByte(value, '(')
	if open <= 0 || !strings.HasSuffix(value, ")") {
		return "", nil, false
	}
	name = strings.ToLower(strings.TrimSpace(value[:open]))
	inner := value[open+1 : len(value)-1]
	return name, SplitComma(inner), true
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string, bool) {
	// Find where number ends
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, "", false
	}

	num, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, "", false
	}
	return num, strings.ToLower(s[numEnd:]), true
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
