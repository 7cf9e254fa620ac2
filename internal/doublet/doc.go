// Package doublet defines the single storage primitive of the link store.
//
// A Doublet is an indexed ordered pair of references: {Index, Source, Target}.
// Every other structure in the system (names, nested expressions, queries)
// is expressed in terms of doublets referring to other doublets by index.
//
// Two values are reserved:
//
//	Null (0,0,0)  absence; never stored
//	Any           math.MaxUint32, the wildcard used while matching patterns
//
// A doublet whose index, source and target are all equal is a point. Points
// are the canonical representation of named atoms.
//
// Transition describes one unit of change produced by a query: a nil Before
// is a creation, a nil After is a deletion, both present is an update, and
// Before == After is a no-op that callers must keep.
//
// The package also owns the error kinds shared by the parser, engine and
// store (see Error).
package doublet
