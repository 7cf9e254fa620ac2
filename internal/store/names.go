package store

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// nameTable is the name <-> index bijection.
type nameTable struct {
	byName  map[string]uint32
	byIndex map[uint32]string
}

func newNameTable() *nameTable {
	return &nameTable{
		byName:  make(map[string]uint32),
		byIndex: make(map[uint32]string),
	}
}

// canonicalName returns the NFC form used as the map key.
func canonicalName(name string) string {
	return norm.NFC.String(name)
}

func (t *nameTable) len() int {
	return len(t.byIndex)
}

func (t *nameTable) lookup(name string) (uint32, bool) {
	index, ok := t.byName[canonicalName(name)]
	return index, ok
}

func (t *nameTable) name(index uint32) (string, bool) {
	name, ok := t.byIndex[index]
	return name, ok
}

// set binds name to index, dropping the index's previous name and moving the
// name away from any other index that held it.
func (t *nameTable) set(index uint32, name string) {
	name = canonicalName(name)
	if holder, ok := t.byName[name]; ok && holder != index {
		delete(t.byIndex, holder)
	}
	if old, ok := t.byIndex[index]; ok {
		delete(t.byName, old)
	}
	t.byName[name] = index
	t.byIndex[index] = name
}

func (t *nameTable) removeIndex(index uint32) (string, bool) {
	name, ok := t.byIndex[index]
	if !ok {
		return "", false
	}
	delete(t.byIndex, index)
	delete(t.byName, name)
	return name, true
}

func (t *nameTable) snapshot() map[uint32]string {
	out := make(map[uint32]string, len(t.byIndex))
	for index, name := range t.byIndex {
		out[index] = name
	}
	return out
}

// Name returns the name of index, if it has one.
func (s *Store) Name(index uint32) (string, bool) {
	return s.names.name(index)
}

// Lookup returns the index named name.
func (s *Store) Lookup(name string) (uint32, bool) {
	return s.names.lookup(name)
}

// Names returns every name, sorted.
func (s *Store) Names() []string {
	out := make([]string, 0, s.names.len())
	for name := range s.names.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetName binds name to the doublet at index. If another index held the
// name it loses it.
func (s *Store) SetName(index uint32, name string) error {
	if name == "" {
		return doublet.InvalidFormat("empty name for doublet %d", index)
	}
	if !s.Exists(index) {
		return doublet.NotFound(index)
	}
	if holder, ok := s.names.lookup(name); ok && holder != index {
		s.recordName(holder)
	}
	s.recordName(index)
	s.names.set(index, name)
	s.dirty = true
	s.logger.Debug("name assigned", "index", index, "name", canonicalName(name))
	return nil
}

// RemoveName drops the name of index. It reports whether there was one.
func (s *Store) RemoveName(index uint32) bool {
	if _, ok := s.names.name(index); !ok {
		return false
	}
	s.recordName(index)
	name, _ := s.names.removeIndex(index)
	s.dirty = true
	s.logger.Debug("name removed", "index", index, "name", name)
	return true
}

// GetOrCreateNamed returns the point named name, creating a fresh point
// and naming it if the name is unknown.
func (s *Store) GetOrCreateNamed(name string) uint32 {
	if index, ok := s.names.lookup(name); ok {
		return index
	}
	index := s.allocate()
	s.record(index)
	s.put(doublet.Point(index))
	s.recordName(index)
	s.names.set(index, name)
	s.logger.Debug("doublet created", "index", index, "source", index, "target", index, "name", canonicalName(name))
	return index
}
