// Package testutil holds helpers shared by tests across packages.
package testutil

// FixedQueryID returns the same query id on every call.
//
// Use it to pin the query id a command reports, e.g. through
// cli.WithIDGenerator. It satisfies engine.IDGenerator.
type FixedQueryID struct {
	id string
}

// NewFixedQueryID creates a generator for id, or "test-query" if id is empty.
func NewFixedQueryID(id string) *FixedQueryID {
	if id == "" {
		id = "test-query"
	}
	return &FixedQueryID{id: id}
}

// Generate returns the fixed id.
func (g *FixedQueryID) Generate() string {
	return g.id
}
