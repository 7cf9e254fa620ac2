package changes

import (
	"sort"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// Simplify reduces pairs to initial-to-final transitions. It never fails.
func Simplify(pairs []doublet.Pair) []doublet.Pair {
	var unchanged, changed []doublet.Pair
	for _, p := range dropSupersededDeletes(pairs) {
		if p.Before == p.After {
			unchanged = append(unchanged, p)
		} else {
			changed = append(changed, p)
		}
	}

	befores := make(map[doublet.Doublet]bool, len(changed))
	afters := make(map[doublet.Doublet]bool, len(changed))
	edges := make(map[doublet.Doublet][]doublet.Doublet, len(changed))
	var order []doublet.Doublet
	for _, p := range changed {
		if !befores[p.Before] {
			order = append(order, p.Before)
		}
		befores[p.Before] = true
		afters[p.After] = true
		edges[p.Before] = append(edges[p.Before], p.After)
	}

	var initials []doublet.Doublet
	for _, d := range order {
		if !afters[d] {
			initials = append(initials, d)
		}
	}
	if len(initials) == 0 {
		return clonePairs(pairs)
	}

	var emitted []doublet.Pair
	for _, initial := range initials {
		ends := reachableEnds(initial, edges, befores)
		if len(ends) == 0 {
			// Everything reachable loops back; there is no final state to report.
			return clonePairs(pairs)
		}
		emitted = append(emitted, ends...)
	}

	sort.SliceStable(emitted, func(i, j int) bool {
		if c := doublet.Compare(emitted[i].After, emitted[j].After); c != 0 {
			return c < 0
		}
		return doublet.Compare(emitted[i].Before, emitted[j].Before) < 0
	})

	result := make([]doublet.Pair, 0, len(unchanged)+len(emitted))
	result = append(result, unchanged...)
	result = append(result, emitted...)
	return result
}

// reachableEnds walks the graph from initial with an explicit stack and
// returns a pair for every visited state that has no outgoing edge.
func reachableEnds(initial doublet.Doublet, edges map[doublet.Doublet][]doublet.Doublet, befores map[doublet.Doublet]bool) []doublet.Pair {
	var ends []doublet.Pair
	visited := make(map[doublet.Doublet]bool)
	stack := []doublet.Doublet{initial}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[node] {
			continue
		}
		visited[node] = true

		next := edges[node]
		if !befores[node] || len(next) == 0 {
			ends = append(ends, doublet.Pair{Before: initial, After: node})
			continue
		}
		for i := len(next) - 1; i >= 0; i-- {
			if !visited[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}
	return ends
}

// dropSupersededDeletes removes the null-targeting entries of a before state
// that also has a non-null target. Order is preserved.
func dropSupersededDeletes(pairs []doublet.Pair) []doublet.Pair {
	type group struct {
		count   int
		null    bool
		nonNull bool
	}
	groups := make(map[doublet.Doublet]*group)
	for _, p := range pairs {
		g := groups[p.Before]
		if g == nil {
			g = &group{}
			groups[p.Before] = g
		}
		g.count++
		if p.After.IsNull() {
			g.null = true
		} else {
			g.nonNull = true
		}
	}

	kept := make([]doublet.Pair, 0, len(pairs))
	for _, p := range pairs {
		g := groups[p.Before]
		if g.count > 1 && g.null && g.nonNull && p.After.IsNull() {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// SimplifyTransitions simplifies the update pairs in ts. Creations and
// deletions pass through first, in their original order, followed by the
// simplified updates.
func SimplifyTransitions(ts []doublet.Transition) []doublet.Transition {
	var passthrough []doublet.Transition
	var pairs []doublet.Pair
	for _, t := range ts {
		if t.IsUpdate() {
			pairs = append(pairs, doublet.Pair{Before: *t.Before, After: *t.After})
		} else {
			passthrough = append(passthrough, t)
		}
	}

	result := make([]doublet.Transition, 0, len(ts))
	result = append(result, passthrough...)
	for _, p := range Simplify(pairs) {
		result = append(result, p.Transition())
	}
	return result
}

func clonePairs(pairs []doublet.Pair) []doublet.Pair {
	out := make([]doublet.Pair, len(pairs))
	copy(out, pairs)
	return out
}
