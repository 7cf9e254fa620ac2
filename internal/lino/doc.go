// Package lino parses Links Notation (LiNo) text into pattern trees.
//
// The grammar is small:
//
//	text       = { node }
//	node       = link | identifier
//	link       = "(" [ identifier ":" ] { node } ")"
//	identifier = bare | quoted
//	bare       = any run of characters except whitespace and parentheses
//	quoted     = '"' ... '"' | "'" ... "'"   (backslash escapes the next character)
//
// An identifier ending in ':' directly after an opening parenthesis names the
// link (its id). A link with no children reduces either to the empty node or,
// when it carries an id, to a bare identifier node with that id.
//
// The parser is purely syntactic. It never looks names up and only classifies
// identifiers by shape (see Node.IsNumeric, Node.IsVariable, Node.IsWildcard).
// Quoted identifiers are always names, never numbers, variables or wildcards.
package lino
