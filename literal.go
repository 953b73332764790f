package jcursor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// literalCodec parses object-literal text: objects with quoted or bare keys,
// arrays, quoted strings, numbers, and the keywords true/false/null along with
// their True/False/None spellings. Nothing is evaluated; identifiers other
// than the keywords are rejected.
type literalCodec struct{}

func (literalCodec) Load(v any) (any, error) {
	src, ok := v.(string)
	if !ok {
		return nil, decodeErr("literal", fmt.Errorf("expected text, got %T", v))
	}
	p := &literalParser{src: src}
	out, err := p.parse()
	if err != nil {
		return nil, decodeErr("literal", err)
	}
	return out, nil
}

func (literalCodec) Dump(v any) (any, error) {
	out, err := marshalJSON(v)
	if err != nil {
		return nil, encodeErr("literal", err)
	}
	return out, nil
}

var literalKeywords = map[string]any{
	"true":      true,
	"false":     false,
	"null":      nil,
	"undefined": nil,
	"True":      true,
	"False":     false,
	"None":      nil,
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) parse() (any, error) {
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q after value", p.src[p.pos])
	}
	return v, nil
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: "+format, append([]any{p.pos}, args...)...)
}

func (p *literalParser) skipSpace() error {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		switch {
		case unicode.IsSpace(r):
			p.pos += size
		case strings.HasPrefix(p.src[p.pos:], "//"):
			end := strings.IndexByte(p.src[p.pos:], '\n')
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 1
			}
		case strings.HasPrefix(p.src[p.pos:], "/*"):
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				return p.errorf("unterminated comment")
			}
			p.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (p *literalParser) peek() (byte, error) {
	if err := p.skipSpace(); err != nil {
		return 0, err
	}
	if p.pos >= len(p.src) {
		return 0, p.errorf("unexpected end of input")
	}
	return p.src[p.pos], nil
}

func (p *literalParser) expect(c byte) error {
	got, err := p.peek()
	if err != nil {
		return err
	}
	if got != c {
		return p.errorf("expected %q, got %q", c, got)
	}
	p.pos++
	return nil
}

func (p *literalParser) value() (any, error) {
	c, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case c == '(':
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		return v, p.expect(')')
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'' || c == '`':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentStart(rune(c)):
		word := p.ident()
		if v, ok := literalKeywords[word]; ok {
			return v, nil
		}
		return nil, p.errorf("unsupported identifier %q", word)
	}
	return nil, p.errorf("unexpected %q", c)
}

func (p *literalParser) object() (D, error) {
	p.pos++ // '{'
	d := D{}
	for {
		c, err := p.peek()
		if err != nil {
			return nil, err
		}
		if c == '}' {
			p.pos++
			return d, nil
		}
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		d = d.set(key, v)
		if c, err = p.peek(); err != nil {
			return nil, err
		}
		switch c {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}', got %q", c)
		}
	}
}

func (p *literalParser) key() (string, error) {
	c, err := p.peek()
	if err != nil {
		return "", err
	}
	switch {
	case c == '"' || c == '\'' || c == '`':
		return p.str()
	case c >= '0' && c <= '9':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		return p.src[start:p.pos], nil
	case isIdentStart(rune(c)):
		return p.ident(), nil
	}
	return "", p.errorf("expected object key, got %q", c)
}

func (p *literalParser) array() (A, error) {
	p.pos++ // '['
	arr := A{}
	for {
		c, err := p.peek()
		if err != nil {
			return nil, err
		}
		if c == ']' {
			p.pos++
			return arr, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		if c, err = p.peek(); err != nil {
			return nil, err
		}
		switch c {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.errorf("expected ',' or ']', got %q", c)
		}
	}
}

func (p *literalParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentStart(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos += size
	}
	return p.src[start:p.pos]
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func (p *literalParser) number() (float64, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") {
		p.pos += 2
		digits := p.pos
		for p.pos < len(p.src) && isHexDigit(p.src[p.pos]) {
			p.pos++
		}
		n, err := strconv.ParseInt(p.src[digits:p.pos], 16, 64)
		if err != nil {
			return 0, p.errorf("invalid hex number %q", p.src[start:p.pos])
		}
		if p.src[start] == '-' {
			n = -n
		}
		return float64(n), nil
	}
	for p.pos < len(p.src) && strings.IndexByte("0123456789.eE+-_", p.src[p.pos]) >= 0 {
		if (p.src[p.pos] == '+' || p.src[p.pos] == '-') && p.src[p.pos-1] != 'e' && p.src[p.pos-1] != 'E' {
			break
		}
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, p.errorf("invalid number %q", p.src[start:p.pos])
	}
	return f, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\n' && quote != '`':
			return "", p.errorf("newline in string")
		case c == '$' && quote == '`' && strings.HasPrefix(p.src[p.pos:], "${"):
			return "", p.errorf("template substitution is not supported")
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // '\'
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'x', 'u':
		n := 2
		if c == 'u' {
			n = 4
		}
		if p.pos+n > len(p.src) {
			return p.errorf("short \\%c escape", c)
		}
		code, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
		if err != nil {
			return p.errorf("invalid \\%c escape", c)
		}
		p.pos += n
		r := rune(code)
		if utf16.IsSurrogate(r) {
			r = p.lowSurrogate(r)
		}
		b.WriteRune(r)
	default:
		b.WriteByte(c)
	}
	return nil
}

// lowSurrogate completes the high surrogate hi with a following \uXXXX low
// surrogate. Without one, hi decodes to U+FFFD.
func (p *literalParser) lowSurrogate(hi rune) rune {
	rest := p.src[p.pos:]
	if len(rest) < 6 || !strings.HasPrefix(rest, `\u`) {
		return utf8.RuneError
	}
	lo, err := strconv.ParseUint(rest[2:6], 16, 32)
	if err != nil {
		return utf8.RuneError
	}
	r := utf16.DecodeRune(hi, rune(lo))
	if r != utf8.RuneError {
		p.pos += 6
	}
	return r
}
