// Package engine implements the pattern-rewrite query processor.
//
// A query is a single LiNo pair "(restriction substitution)". The
// restriction describes what must currently exist; the substitution
// describes the desired state. The shape of the pair selects the operation:
//
//	(() ((1 2)))                 create: every substitution child is materialized
//	(((1: 1 2)) ())              delete: every restriction child id is removed
//	(((1: 1 2)) ((1: 2 1)))      update: ids present on both sides are rewired
//	(() ())                      no-op
//
// In the update form, ids that only appear in the restriction are deleted
// and ids that only appear in the substitution are created, so one query can
// mix all three.
//
// # Resolution
//
// Identifiers resolve by shape: "" takes the side's default, "*" is
// doublet.Any, "$x" takes the value bound to x (or the default), digits are
// literal indices, and anything else is a name. Substitution-side names
// that do not exist yet are created as named points. Restriction-side
// identifiers are looked up only; an unknown restriction id matches nothing
// and is skipped.
//
// Variables are bound once per query, before any change is applied: for
// every restriction pattern whose id names an existing doublet and which has
// two children, a "$x" child binds to that doublet's source or target.
//
// # Materialization
//
// Anonymous composite patterns in the substitution are materialized through
// store.GetOrCreate, so structurally identical sub-patterns always end up as
// the same doublet: (() (((a b) (a b)))) creates a, b, (a b) once, and the
// outer link pointing at it twice.
//
// # Transactions
//
// Every query runs inside a store transaction. Any error rolls the store
// back, so a failing query leaves no partial state behind. Run additionally
// saves the store (and appends to the query history where the backend keeps
// one) before committing.
//
// The engine is single-writer: it performs no locking and must not be used
// on the same store from several goroutines at once.
package engine
