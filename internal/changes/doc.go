// Package changes collapses the raw transitions produced while a single
// query runs into the minimal set of initial-to-final transitions.
//
// While materializing a query the engine may touch the same doublet several
// times (a placeholder is created and then overwritten, a point is
// created and then rewired). Callers only care where each doublet started
// and where it ended up, so Simplify treats the changed pairs as edges of a
// directed graph and reports, for every initial state, each state reachable
// from it that has nowhere further to go.
//
// No-op pairs (Before == After) are preserved in their original order ahead
// of the collapsed pairs, which are sorted by their After doublet. When the
// graph has no initial state at all (every state is also the target of
// another change), or an initial state only leads into a cycle, the input is
// returned unchanged.
package changes
