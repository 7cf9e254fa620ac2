package lino

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError reports malformed LiNo text.
type SyntaxError struct {
	// Offset is the rune offset into the trimmed input.
	Offset int

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Message)
}

// Parse turns text into its sequence of top-level nodes, in text order.
// Blank text yields no nodes.
func Parse(text string) ([]Node, error) {
	p := &parser{input: []rune(strings.TrimSpace(text))}
	return p.parseAll()
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(text string) []Node {
	nodes, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return nodes
}

type parser struct {
	input []rune
	pos   int
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() rune {
	return p.input[p.pos]
}

func (p *parser) skipWhitespace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) parseAll() ([]Node, error) {
	var nodes []Node
	for {
		p.skipWhitespace()
		if p.eof() {
			return nodes, nil
		}
		switch p.peek() {
		case '(':
			node, err := p.parseLink()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		case ')':
			return nil, p.errorf(p.pos, "unexpected ')'")
		default:
			tok, err := p.parseToken()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Node{ID: tok.text, Quoted: tok.quoted})
		}
	}
}

// parseLink parses "(" [id ":"] {node} ")" starting at an opening parenthesis.
func (p *parser) parseLink() (Node, error) {
	open := p.pos
	p.pos++ // '('

	var node Node
	first := true
	for {
		p.skipWhitespace()
		if p.eof() {
			return Node{}, p.errorf(open, "unbalanced '(': missing ')'")
		}

		c := p.peek()
		if c == ')' {
			p.pos++
			break
		}
		if c == '(' {
			child, err := p.parseLink()
			if err != nil {
				return Node{}, err
			}
			node.Children = append(node.Children, child)
			first = false
			continue
		}

		start := p.pos
		tok, err := p.parseToken()
		if err != nil {
			return Node{}, err
		}
		id, isID := tok.asID(p)
		switch {
		case isID && !first:
			return Node{}, p.errorf(start, "link id %q must directly follow '('", id)
		case isID && id == "":
			return Node{}, p.errorf(start, "empty link id")
		case isID:
			node.ID = id
			node.Quoted = tok.quoted
		default:
			node.Children = append(node.Children, Node{ID: tok.text, Quoted: tok.quoted})
		}
		first = false
	}

	if len(node.Children) == 0 {
		// "()" is empty, "(x:)" is the bare identifier x.
		return Node{ID: node.ID, Quoted: node.Quoted}, nil
	}
	return node, nil
}

type token struct {
	text   string
	quoted bool
}

// asID reports whether the token is a link id. Bare tokens carry a trailing
// ':'; quoted tokens must be followed directly by ':', which is consumed.
func (t token) asID(p *parser) (string, bool) {
	if t.quoted {
		if !p.eof() && p.peek() == ':' {
			p.pos++
			return t.text, true
		}
		return t.text, false
	}
	if strings.HasSuffix(t.text, ":") {
		return strings.TrimSuffix(t.text, ":"), true
	}
	return t.text, false
}

func (p *parser) parseToken() (token, error) {
	c := p.peek()
	if c == '"' || c == '\'' {
		return p.parseQuoted(c)
	}

	start := p.pos
	for !p.eof() {
		c := p.peek()
		if unicode.IsSpace(c) || c == '(' || c == ')' {
			break
		}
		p.pos++
	}
	return token{text: string(p.input[start:p.pos])}, nil
}

func (p *parser) parseQuoted(quote rune) (token, error) {
	open := p.pos
	p.pos++

	var sb strings.Builder
	for {
		if p.eof() {
			return token{}, p.errorf(open, "unterminated quoted identifier")
		}
		c := p.peek()
		p.pos++
		switch c {
		case quote:
			return token{text: sb.String(), quoted: true}, nil
		case '\\':
			if p.eof() {
				return token{}, p.errorf(open, "unterminated quoted identifier")
			}
			sb.WriteRune(p.peek())
			p.pos++
		default:
			sb.WriteRune(c)
		}
	}
}
