package dap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/climkit/ccidex/internal/domain"
)

// The attribute dump quotes nothing and types everything; a small set of
// attribute names carries numeric lists and is parsed as such.
var numericListAttributes = map[string]struct{}{
	"_ChunkSizes": {},
	"min":         {},
	"max":         {},
	"resolution":  {},
}

const fillValueAttribute = "_FillValue"

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokLBrace
	tokRBrace
	tokSemi
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokLBrace:
		return "{"
	case tokRBrace:
		return "}"
	case tokSemi:
		return ";"
	case tokComma:
		return ","
	case tokEOF:
		return "end of input"
	default:
		return t.text
	}
}

// lexDAS splits an attribute dump into tokens. The grammar has no escape
// sequences; a string runs to the next double quote.
func lexDAS(text string) ([]token, error) {
	var tokens []token
	line := 1
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '{':
			tokens = append(tokens, token{tokLBrace, "{", line})
			i++
		case c == '}':
			tokens = append(tokens, token{tokRBrace, "}", line})
			i++
		case c == ';':
			tokens = append(tokens, token{tokSemi, ";", line})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ",", line})
			i++
		case c == '"':
			end := strings.IndexByte(text[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("%w: attribute dump line %d: unterminated string", domain.ErrParse, line)
			}
			tokens = append(tokens, token{tokString, text[i+1 : i+1+end], line})
			line += strings.Count(text[i:i+2+end], "\n")
			i += end + 2
		default:
			start := i
			for i < len(text) && !strings.ContainsRune(" \t\r\n{};,\"", rune(text[i])) {
				i++
			}
			tokens = append(tokens, token{tokIdent, text[start:i], line})
		}
	}
	return append(tokens, token{tokEOF, "", line}), nil
}

type dasParser struct {
	tokens []token
	pos    int
}

func (p *dasParser) peek() token { return p.tokens[p.pos] }

func (p *dasParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *dasParser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("%w: attribute dump line %d: expected %s, got %q",
			domain.ErrParse, t.line, what, t.String())
	}
	return t, nil
}

// ParseDAS reads an attribute dump and returns the contents of its
// Attributes member: per-variable containers as nested Attributes, loose
// attributes as scalars. Malformed input yields a structured parse error.
func ParseDAS(text string) (domain.Attributes, error) {
	tokens, err := lexDAS(text)
	if err != nil {
		return nil, err
	}
	p := &dasParser{tokens: tokens}

	head, err := p.expect(tokIdent, "Attributes keyword")
	if err != nil {
		return nil, err
	}
	if head.text != "Attributes" {
		return nil, fmt.Errorf("%w: attribute dump line %d: expected Attributes, got %q",
			domain.ErrParse, head.line, head.text)
	}
	attrs, err := p.parseContainerBody()
	if err != nil {
		return nil, err
	}
	if t := p.next(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: attribute dump line %d: trailing %q after closing brace",
			domain.ErrParse, t.line, t.String())
	}
	return attrs, nil
}

// parseContainerBody parses "{ item* }" where an item is either a nested
// container "name { ... }" or an attribute "type name value... ;".
func (p *dasParser) parseContainerBody() (domain.Attributes, error) {
	if _, err := p.expect(tokLBrace, "{"); err != nil {
		return nil, err
	}
	attrs := domain.Attributes{}
	for {
		t := p.next()
		switch t.kind {
		case tokRBrace:
			return attrs, nil
		case tokIdent:
			if p.peek().kind == tokLBrace {
				nested, err := p.parseContainerBody()
				if err != nil {
					return nil, err
				}
				attrs[t.text] = nested
				continue
			}
			name, value, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			attrs[name] = value
		default:
			return nil, fmt.Errorf("%w: attribute dump line %d: unexpected %q",
				domain.ErrParse, t.line, t.String())
		}
	}
}

// parseAttribute parses "name value... ;" after the type token has already
// been consumed. The named numeric-list attributes and the fill value get
// their own productions; everything else is a string scalar.
func (p *dasParser) parseAttribute() (string, any, error) {
	name, err := p.expect(tokIdent, "attribute name")
	if err != nil {
		return "", nil, err
	}

	if _, ok := numericListAttributes[name.text]; ok {
		values, err := p.parseNumericList()
		return name.text, values, err
	}

	var parts []string
	for {
		t := p.next()
		switch t.kind {
		case tokSemi:
			return name.text, strings.Join(parts, " "), nil
		case tokIdent, tokString:
			parts = append(parts, t.text)
		case tokComma:
			// Bare comma-separated values collapse into one scalar.
		default:
			return "", nil, fmt.Errorf("%w: attribute dump line %d: unexpected %q in value of %s",
				domain.ErrParse, t.line, t.String(), name.text)
		}
		if name.text == fillValueAttribute && len(parts) > 1 {
			return "", nil, fmt.Errorf("%w: attribute dump line %d: fill value must be a single token",
				domain.ErrParse, t.line)
		}
	}
}

// parseNumericList parses "number (, number)* ;".
func (p *dasParser) parseNumericList() ([]float64, error) {
	var values []float64
	for {
		t, err := p.expect(tokIdent, "number")
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute dump line %d: invalid number %q",
				domain.ErrParse, t.line, t.text)
		}
		values = append(values, v)

		switch sep := p.next(); sep.kind {
		case tokComma:
		case tokSemi:
			return values, nil
		default:
			return nil, fmt.Errorf("%w: attribute dump line %d: expected , or ; in numeric list, got %q",
				domain.ErrParse, sep.line, sep.String())
		}
	}
}
