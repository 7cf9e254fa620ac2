package store

import (
	"github.com/link-foundation/link-cli/internal/doublet"
)

// journal records the state needed to undo every mutation since Begin.
type journal struct {
	nextID  uint32
	dirty   bool
	entries []undo
}

type undo struct {
	index   uint32
	isName  bool
	existed bool
	prev    doublet.Doublet
	name    string
}

// Tx is an open undo journal on a Store. Exactly one of Commit or Rollback
// should be called; calling either again is a no-op.
type Tx struct {
	store  *Store
	nested bool
	done   bool
}

// Begin starts recording undo information. A Begin while another
// transaction is open joins it: the inner Commit and Rollback do nothing and
// the outermost transaction decides.
func (s *Store) Begin() *Tx {
	if s.journal != nil {
		return &Tx{store: s, nested: true}
	}
	s.journal = &journal{nextID: s.nextID, dirty: s.dirty}
	return &Tx{store: s}
}

// Commit keeps every mutation made since Begin.
func (tx *Tx) Commit() {
	if tx.done || tx.nested {
		tx.done = true
		return
	}
	tx.done = true
	tx.store.journal = nil
}

// Rollback undoes every mutation made since Begin, newest first.
func (tx *Tx) Rollback() {
	if tx.done || tx.nested {
		tx.done = true
		return
	}
	tx.done = true

	s := tx.store
	j := s.journal
	s.journal = nil
	if j == nil {
		return
	}

	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		switch {
		case e.isName && e.name != "":
			s.names.set(e.index, e.name)
		case e.isName:
			s.names.removeIndex(e.index)
		case e.existed:
			s.put(e.prev)
		default:
			s.remove(e.index)
		}
	}
	s.nextID = j.nextID
	s.dirty = j.dirty
	s.logger.Debug("transaction rolled back", "mutations", len(j.entries))
}

// record saves the current state of the doublet at index, if a transaction
// is open.
func (s *Store) record(index uint32) {
	if s.journal == nil {
		return
	}
	prev, existed := s.links[index]
	s.journal.entries = append(s.journal.entries, undo{index: index, existed: existed, prev: prev})
}

// recordName saves the current name of index, if a transaction is open.
func (s *Store) recordName(index uint32) {
	if s.journal == nil {
		return
	}
	name, _ := s.names.name(index)
	s.journal.entries = append(s.journal.entries, undo{index: index, isName: true, name: name})
}
