package value

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	maxFormatDepth = 16
	maxParseDepth  = maxFormatDepth * 16
)

// Format renders a value in its textual form: lists as "[ a, b ]" and
// dictionaries as "{ k:v }". Strings nested in containers are quoted.
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v, 0, false)
	return sb.String()
}

func format(sb *strings.Builder, v Value, depth int, nested bool) {
	if depth > maxFormatDepth {
		sb.WriteString("...")
		return
	}

	switch o := v.Obj.(type) {
	case *List:
		if len(o.items) == 0 {
			sb.WriteString("[]")
			return
		}
		sb.WriteString("[ ")
		for i, item := range o.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, item, depth+1, true)
		}
		sb.WriteString(" ]")
		return
	case *Dict:
		if len(o.keys) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{ ")
		for i := range o.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, o.keys[i], depth+1, true)
			sb.WriteString(":")
			format(sb, o.vals[i], depth+1, true)
		}
		sb.WriteString(" }")
		return
	case *String:
		if nested {
			sb.WriteString(strconv.Quote(o.s))
		} else {
			sb.WriteString(o.s)
		}
		return
	}

	sb.WriteString(v.String())
}

// Parse reads the textual form produced by Format. Objects it creates are
// not yet registered with any collector.
func Parse(text string) (Value, error) {
	p := &textParser{src: text}
	v, err := p.value()
	if err != nil {
		return Null, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Null, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return v, nil
}

type textParser struct {
	src   string
	pos   int
	depth int
}

func (p *textParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *textParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *textParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return fmt.Errorf("expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *textParser) value() (Value, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '[':
		return p.list()
	case c == '{':
		return p.dict()
	case c == '"':
		return p.quoted()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	case strings.HasPrefix(p.src[p.pos:], "null"):
		p.pos += len("null")
		return Null, nil
	case c == 0:
		return Null, fmt.Errorf("unexpected end of input")
	default:
		return p.bare()
	}
}

// nest enters a container. Callers defer the matching decrement.
func (p *textParser) nest() error {
	p.depth++
	if p.depth > maxParseDepth {
		return fmt.Errorf("nesting deeper than %d at offset %d", maxParseDepth, p.pos)
	}
	return nil
}

func (p *textParser) list() (Value, error) {
	defer func() { p.depth-- }()
	if err := p.nest(); err != nil {
		return Null, err
	}
	p.pos++
	l := NewList()
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return Obj(l), nil
	}

	for {
		v, err := p.value()
		if err != nil {
			return Null, err
		}
		l.Append(v)

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect(']'); err != nil {
			return Null, err
		}
		return Obj(l), nil
	}
}

func (p *textParser) dict() (Value, error) {
	defer func() { p.depth-- }()
	if err := p.nest(); err != nil {
		return Null, err
	}
	p.pos++
	d := NewDict()
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return Obj(d), nil
	}

	for {
		k, err := p.value()
		if err != nil {
			return Null, err
		}
		if err := p.expect(':'); err != nil {
			return Null, err
		}
		v, err := p.value()
		if err != nil {
			return Null, err
		}
		if err := d.Insert(k, v); err != nil {
			return Null, err
		}

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if err := p.expect('}'); err != nil {
			return Null, err
		}
		return Obj(d), nil
	}
}

func (p *textParser) quoted() (Value, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return Null, fmt.Errorf("bad string at offset %d: %w", start, err)
			}
			return NewStringValue(s), nil
		}
		p.pos++
	}
	return Null, fmt.Errorf("unterminated string at offset %d", start)
}

func (p *textParser) number() (Value, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE", p.src[p.pos]) >= 0 {
		p.pos++
	}

	lit := p.src[start:p.pos]
	if i, err := strconv.ParseInt(lit, 10, 32); err == nil {
		return Int(int32(i)), nil
	}
	f, err := strconv.ParseFloat(lit, 32)
	if err != nil {
		return Null, fmt.Errorf("bad number %q at offset %d", lit, start)
	}
	return Float(float32(f)), nil
}

// bare reads an unquoted word as a string, so top-level "[ a, b ]" parses.
func (p *textParser) bare() (Value, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(",:[]{}", p.src[p.pos]) < 0 {
		p.pos++
	}

	word := strings.TrimSpace(p.src[start:p.pos])
	if word == "" {
		return Null, fmt.Errorf("unexpected %q at offset %d", p.src[start], start)
	}
	return NewStringValue(word), nil
}
