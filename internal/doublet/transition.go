package doublet

// Transition is one unit of change. Before is nil for a creation and After
// is nil for a deletion.
type Transition struct {
	Before *Doublet `json:"before"`
	After  *Doublet `json:"after"`
}

// Created returns the transition recording the creation of d.
func Created(d Doublet) Transition {
	return Transition{After: &d}
}

// Deleted returns the transition recording the deletion of d.
func Deleted(d Doublet) Transition {
	return Transition{Before: &d}
}

// Changed returns the transition from before to after.
func Changed(before, after Doublet) Transition {
	return Transition{Before: &before, After: &after}
}

// IsCreation reports whether t only has an after state.
func (t Transition) IsCreation() bool {
	return t.Before == nil && t.After != nil
}

// IsDeletion reports whether t only has a before state.
func (t Transition) IsDeletion() bool {
	return t.Before != nil && t.After == nil
}

// IsUpdate reports whether both states are present.
func (t Transition) IsUpdate() bool {
	return t.Before != nil && t.After != nil
}

// IsNoop reports whether both states are present and equal.
func (t Transition) IsNoop() bool {
	return t.IsUpdate() && *t.Before == *t.After
}

// Kind names the transition for logs and metrics:
// "create", "delete", "update", "noop" or "empty".
func (t Transition) Kind() string {
	switch {
	case t.IsNoop():
		return "noop"
	case t.IsUpdate():
		return "update"
	case t.IsCreation():
		return "create"
	case t.IsDeletion():
		return "delete"
	default:
		return "empty"
	}
}

// Pair is a transition whose both sides are present.
type Pair struct {
	Before Doublet
	After  Doublet
}

// Transition converts the pair back to a Transition.
func (p Pair) Transition() Transition {
	return Changed(p.Before, p.After)
}
