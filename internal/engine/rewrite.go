package engine

import (
	"sort"
	"strconv"

	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/lino"
	"github.com/link-foundation/link-cli/internal/store"
)

// rewrite holds the per-query state: the store and the variable bindings.
type rewrite struct {
	store    *store.Store
	bindings map[string]uint32
}

func newRewrite(st *store.Store) *rewrite {
	return &rewrite{store: st, bindings: make(map[string]uint32)}
}

// create materializes every child of the substitution.
func (r *rewrite) create(substitution lino.Node) ([]doublet.Transition, error) {
	var out []doublet.Transition
	for _, child := range substitution.Children {
		index, err := r.ensureCreated(child)
		if err != nil {
			return nil, err
		}
		if d, ok := r.store.Get(index); ok {
			out = append(out, doublet.Created(d))
		}
	}
	return out, nil
}

// delete removes the doublet named by each restriction child id. Unknown
// ids are skipped.
func (r *rewrite) delete(restriction lino.Node) ([]doublet.Transition, error) {
	var out []doublet.Transition
	for _, child := range restriction.Children {
		index, ok, err := r.match(child)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		before, err := r.store.Delete(index)
		if err != nil {
			return nil, err
		}
		out = append(out, doublet.Deleted(before))
	}
	return out, nil
}

// update pairs restriction and substitution patterns by id. Ids on both
// sides are updated, restriction-only ids deleted, substitution-only ids
// created.
func (r *rewrite) update(restriction, substitution lino.Node) ([]doublet.Transition, error) {
	matched := patternsByID(restriction)
	wanted := patternsByID(substitution)

	if err := r.bind(matched); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matched)+len(wanted))
	for id := range matched {
		ids = append(ids, id)
	}
	for id := range wanted {
		if _, dup := matched[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	// Ids are visited in sorted order so output and index allocation do not
	// depend on map iteration.
	var out []doublet.Transition
	for _, id := range ids {
		before, inRestriction := matched[id]
		after, inSubstitution := wanted[id]

		switch {
		case inRestriction && inSubstitution:
			index, ok, err := r.match(before)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			source, target, err := r.substitute(after)
			if err != nil {
				return nil, err
			}
			prev, err := r.store.Update(index, source, target)
			if err != nil {
				return nil, err
			}
			next, _ := r.store.Get(index)
			out = append(out, doublet.Changed(prev, next))

		case inRestriction:
			index, ok, err := r.match(before)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			prev, err := r.store.Delete(index)
			if err != nil {
				return nil, err
			}
			out = append(out, doublet.Deleted(prev))

		default:
			index, err := r.ensureCreated(after)
			if err != nil {
				return nil, err
			}
			if d, ok := r.store.Get(index); ok {
				out = append(out, doublet.Created(d))
			}
		}
	}
	return out, nil
}

// patternsByID collects the children of side that carry an id, plus side
// itself if it has one. A later pattern with the same id wins.
func patternsByID(side lino.Node) map[string]lino.Node {
	out := make(map[string]lino.Node)
	for _, child := range side.Children {
		if child.HasID() {
			out[child.ID] = child
		}
	}
	if side.HasID() {
		out[side.ID] = side
	}
	return out
}

// bind binds "$x" children of restriction patterns to the source and target
// of the existing doublet their id names. Patterns are visited in id order.
func (r *rewrite) bind(patterns map[string]lino.Node) error {
	ids := make([]string, 0, len(patterns))
	for id := range patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := patterns[id]
		if len(p.Children) != 2 {
			continue
		}
		index, ok, err := r.match(p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		d, _ := r.store.Get(index)
		r.bindValue(p.Children[0], d.Source)
		r.bindValue(p.Children[1], d.Target)
	}
	return nil
}

func (r *rewrite) bindValue(n lino.Node, value uint32) {
	if n.IsVariable() && value != 0 {
		r.bindings[n.ID] = value
	}
}

// match resolves the id of a restriction-side pattern to an existing
// doublet without creating anything. An unknown name matches nothing; it
// never creates a point on this side of the query.
func (r *rewrite) match(n lino.Node) (uint32, bool, error) {
	var index uint32
	switch {
	case n.ID == "", n.IsWildcard():
		return 0, false, nil
	case n.IsVariable():
		bound, ok := r.bindings[n.ID]
		if !ok {
			return 0, false, nil
		}
		index = bound
	case n.IsNumeric():
		v, err := parseIndex(n.ID)
		if err != nil {
			return 0, false, err
		}
		index = v
	default:
		named, ok := r.store.Lookup(n.ID)
		if !ok {
			return 0, false, nil
		}
		index = named
	}
	if index == 0 || !r.store.Exists(index) {
		return 0, false, nil
	}
	return index, true, nil
}

// substitute computes the new source and target for an update. Composite
// children are materialized.
func (r *rewrite) substitute(n lino.Node) (uint32, uint32, error) {
	switch len(n.Children) {
	case 0:
		return 0, 0, nil
	case 2:
	default:
		return 0, 0, doublet.InvalidFormat("pattern %s must have exactly two children, got %d", n, len(n.Children))
	}
	source, err := r.ensureCreated(n.Children[0])
	if err != nil {
		return 0, 0, err
	}
	target, err := r.ensureCreated(n.Children[1])
	if err != nil {
		return 0, 0, err
	}
	return source, target, nil
}

// resolve turns a substitution-side identifier into a reference, creating
// named points for unknown names.
func (r *rewrite) resolve(n lino.Node, missing uint32) (uint32, error) {
	switch {
	case n.ID == "":
		return missing, nil
	case n.IsWildcard():
		return doublet.Any, nil
	case n.IsVariable():
		if bound, ok := r.bindings[n.ID]; ok {
			return bound, nil
		}
		return missing, nil
	case n.IsNumeric():
		return parseIndex(n.ID)
	default:
		return r.store.GetOrCreateNamed(n.ID), nil
	}
}

// ensureCreated materializes a substitution pattern and returns its index.
//
// Leaves resolve directly. Composites materialize both children first,
// depth first, then place the pair according to the pattern's id:
//   - numeric id (5: s t): create or overwrite the doublet at that index
//   - variable ($x: s t): overwrite the doublet $x is bound to, or treat
//     the pattern as anonymous when $x is unbound
//   - name (child: s t): update the named doublet in place, or create it
//     and attach the name
//   - no id (s t): get-or-create by (source, target)
//
// The last case is the deduplication rule. Two anonymous patterns with the
// same resolved children always yield the same doublet, so ((a b) (a b))
// creates (a b) once and references it twice. Equality is by resolved
// value, never by position in the pattern tree, and holds transitively
// for nested repeats.
func (r *rewrite) ensureCreated(n lino.Node) (uint32, error) {
	if n.IsLeaf() {
		return r.resolve(n, 0)
	}
	if len(n.Children) != 2 {
		return 0, doublet.InvalidFormat("pattern %s must have exactly two children, got %d", n, len(n.Children))
	}

	source, err := r.ensureCreated(n.Children[0])
	if err != nil {
		return 0, err
	}
	target, err := r.ensureCreated(n.Children[1])
	if err != nil {
		return 0, err
	}

	switch {
	case n.IsNumeric():
		index, err := parseIndex(n.ID)
		if err != nil {
			return 0, err
		}
		return r.put(index, source, target)

	case n.IsVariable():
		if bound, ok := r.bindings[n.ID]; ok {
			return r.put(bound, source, target)
		}
		return r.store.GetOrCreate(source, target), nil

	case n.IsName():
		if index, ok := r.store.Lookup(n.ID); ok {
			if _, err := r.store.Update(index, source, target); err != nil {
				return 0, err
			}
			return index, nil
		}
		index := r.store.Create(source, target)
		if err := r.store.SetName(index, n.ID); err != nil {
			return 0, err
		}
		return index, nil

	default:
		return r.store.GetOrCreate(source, target), nil
	}
}

// put creates or overwrites the doublet at an explicit index.
func (r *rewrite) put(index, source, target uint32) (uint32, error) {
	if _, err := r.store.EnsureCreated(index); err != nil {
		return 0, err
	}
	if _, err := r.store.Update(index, source, target); err != nil {
		return 0, err
	}
	return index, nil
}

func parseIndex(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, doublet.InvalidFormat("numeric id %q is out of range", s)
	}
	return uint32(v), nil
}
