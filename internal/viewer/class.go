package viewer

import "fmt"

// VisualClass is the derived display state of one transcript segment. It is
// recomputed in full from (activeIndex, matched, predecessors, successors)
// on every event and never mutated incrementally, so stale highlight state
// cannot accumulate across events.
type VisualClass int

const (
	ClassNone VisualClass = iota
	ClassSelectedMatched
	ClassSelectedUnmatched
	ClassPredecessor
	ClassSuccessor
)

func (c VisualClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassSelectedMatched:
		return "selected-matched"
	case ClassSelectedUnmatched:
		return "selected-unmatched"
	case ClassPredecessor:
		return "predecessor"
	case ClassSuccessor:
		return "successor"
	}
	return fmt.Sprintf("VisualClass(%d)", int(c))
}

func (c VisualClass) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}
