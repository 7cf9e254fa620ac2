package lino

import (
	"strings"
)

// Node is one parsed pattern term.
//
// A node with no id and no children is empty. A node with children is a
// composite; queries expect composites to have exactly two children
// (source and target), but the parser itself accepts any count.
type Node struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Quoted   bool   `json:"quoted,omitempty" yaml:"quoted,omitempty"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Leaf returns a bare identifier node.
func Leaf(id string) Node {
	return Node{ID: id}
}

// Link returns a composite node with an optional id.
func Link(id string, children ...Node) Node {
	return Node{ID: id, Children: children}
}

// IsEmpty reports whether the node has neither id nor children.
func (n Node) IsEmpty() bool {
	return n.ID == "" && len(n.Children) == 0
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// HasID reports whether the node carries an id.
func (n Node) HasID() bool {
	return n.ID != ""
}

// IsNumeric reports whether the id is an unquoted run of decimal digits.
func (n Node) IsNumeric() bool {
	if n.Quoted || n.ID == "" {
		return false
	}
	for _, r := range n.ID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsVariable reports whether the id is an unquoted $-prefixed token.
func (n Node) IsVariable() bool {
	return !n.Quoted && strings.HasPrefix(n.ID, "$")
}

// IsWildcard reports whether the id is the unquoted wildcard "*".
func (n Node) IsWildcard() bool {
	return !n.Quoted && n.ID == "*"
}

// IsName reports whether the id is neither numeric, a variable nor a wildcard.
func (n Node) IsName() bool {
	return n.ID != "" && !n.IsNumeric() && !n.IsVariable() && !n.IsWildcard()
}

// String renders the node back to LiNo text.
func (n Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n Node) write(sb *strings.Builder) {
	if n.IsLeaf() {
		if n.ID == "" {
			sb.WriteString("()")
			return
		}
		sb.WriteString(n.renderID())
		return
	}
	sb.WriteByte('(')
	if n.ID != "" {
		sb.WriteString(n.renderID())
		sb.WriteByte(':')
	}
	for i, child := range n.Children {
		if i > 0 || n.ID != "" {
			sb.WriteByte(' ')
		}
		child.write(sb)
	}
	sb.WriteByte(')')
}

func (n Node) renderID() string {
	if n.Quoted || NeedsQuoting(n.ID) {
		return Quote(n.ID)
	}
	return n.ID
}

// NeedsQuoting reports whether s cannot be written as a bare identifier.
func NeedsQuoting(s string) bool {
	if s == "" || strings.HasSuffix(s, ":") {
		return true
	}
	return strings.ContainsAny(s, " \t\r\n()\"'\\")
}

// Quote wraps s in double quotes, escaping '"' and '\'.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}
