package store

import (
	"strconv"
	"strings"

	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/lino"
)

// FormatReference renders one reference: its name when known, "*" for
// doublet.Any, otherwise the number.
func (s *Store) FormatReference(ref uint32) string {
	if ref == doublet.Any {
		return "*"
	}
	if name, ok := s.names.name(ref); ok {
		return formatName(name)
	}
	return strconv.FormatUint(uint64(ref), 10)
}

func formatName(name string) string {
	// Digits, "*" and "$x" would read back as something other than a name.
	n := lino.Leaf(name)
	if lino.NeedsQuoting(name) || !n.IsName() {
		return lino.Quote(name)
	}
	return name
}

// FormatDoublet renders d as "(index: source target)" with names substituted.
// The output is valid LiNo and can be pasted back into a query.
func (s *Store) FormatDoublet(d doublet.Doublet) string {
	return "(" + s.FormatReference(d.Index) + ": " +
		s.FormatReference(d.Source) + " " +
		s.FormatReference(d.Target) + ")"
}

// FormatChange renders a transition as "(before) (after)", leaving the
// absent side empty: "() ((1: 1 2))" is a creation.
func (s *Store) FormatChange(t doublet.Transition) string {
	var before, after string
	if t.Before != nil {
		before = s.FormatDoublet(*t.Before)
	}
	if t.After != nil {
		after = s.FormatDoublet(*t.After)
	}
	return "(" + before + ") (" + after + ")"
}

// FormatStructure renders the doublet at index as a nested "(source target)"
// expression, expanding references until a point or an unknown index is
// reached. A reference that loops back to a doublet already being expanded
// is printed as a plain reference.
func (s *Store) FormatStructure(index uint32) (string, error) {
	d, ok := s.links[index]
	if !ok {
		return "", doublet.NotFound(index)
	}
	var sb strings.Builder
	s.writeStructure(&sb, d, true, map[uint32]bool{})
	return sb.String(), nil
}

func (s *Store) writeStructure(sb *strings.Builder, d doublet.Doublet, root bool, path map[uint32]bool) {
	if !root && d.IsPoint() {
		sb.WriteString(s.FormatReference(d.Index))
		return
	}

	path[d.Index] = true
	sb.WriteByte('(')
	s.writeSide(sb, d.Index, d.Source, path)
	sb.WriteByte(' ')
	s.writeSide(sb, d.Index, d.Target, path)
	sb.WriteByte(')')
	delete(path, d.Index)
}

func (s *Store) writeSide(sb *strings.Builder, self, ref uint32, path map[uint32]bool) {
	if ref == self || path[ref] {
		sb.WriteString(s.FormatReference(ref))
		return
	}
	if next, ok := s.links[ref]; ok {
		s.writeStructure(sb, next, false, path)
		return
	}
	sb.WriteString(s.FormatReference(ref))
}
