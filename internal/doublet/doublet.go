package doublet

import (
	"fmt"
	"math"
)

// Any matches every reference during restriction-side resolution.
const Any uint32 = math.MaxUint32

// Doublet is an indexed ordered pair of references.
type Doublet struct {
	Index  uint32 `json:"index" yaml:"index"`
	Source uint32 `json:"source" yaml:"source"`
	Target uint32 `json:"target" yaml:"target"`
}

// Null is the doublet that denotes absence.
var Null = Doublet{}

// New returns a doublet with the given index, source and target.
func New(index, source, target uint32) Doublet {
	return Doublet{Index: index, Source: source, Target: target}
}

// Point returns the self-referential doublet for index.
func Point(index uint32) Doublet {
	return Doublet{Index: index, Source: index, Target: index}
}

// IsNull reports whether d is the null doublet.
func (d Doublet) IsNull() bool {
	return d == Null
}

// IsPoint reports whether index, source and target are all equal.
func (d Doublet) IsPoint() bool {
	return d.Index == d.Source && d.Source == d.Target
}

// Matches reports whether d satisfies the pattern p, where Any in p matches
// every value in the corresponding position.
func (d Doublet) Matches(p Doublet) bool {
	return (p.Index == Any || p.Index == d.Index) &&
		(p.Source == Any || p.Source == d.Source) &&
		(p.Target == Any || p.Target == d.Target)
}

// Compare orders doublets lexicographically by (index, source, target).
// It returns -1, 0 or +1.
func Compare(a, b Doublet) int {
	switch {
	case a.Index != b.Index:
		return cmp3(a.Index, b.Index)
	case a.Source != b.Source:
		return cmp3(a.Source, b.Source)
	default:
		return cmp3(a.Target, b.Target)
	}
}

func cmp3(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders the doublet with plain numbers, e.g. "(1 1 2)".
func (d Doublet) String() string {
	return fmt.Sprintf("(%d %d %d)", d.Index, d.Source, d.Target)
}
