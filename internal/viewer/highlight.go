package viewer

import (
	"github.com/causaview/causaview/internal/causal"
	"github.com/causaview/causaview/internal/transcript"
)

// Highlights is the full per-segment visual state plus the neighbor id sets
// the graph renderer consumes. Predecessors and Successors keep edge-list
// discovery order.
type Highlights struct {
	Classes      []VisualClass `json:"classes"`
	Predecessors []int         `json:"predecessors"`
	Successors   []int         `json:"successors"`
}

// ComputeHighlights derives the visual class of every segment for the given
// active segment. Pure and idempotent: identical inputs always produce
// identical output.
//
// Causal propagation happens only when causalEnabled is set, the active
// segment is matched, and the edge set is non-empty. Neighbor relations are
// direct one-hop edges, never transitive closure. The active segment keeps
// its Selected-* class even when a self-loop puts it in its own neighbor
// set; selection wins the tie.
func ComputeHighlights(activeIndex int, active bool, segments []transcript.Segment, edges []causal.Edge, causalEnabled bool) Highlights {
	classes := make([]VisualClass, len(segments))
	if !active || activeIndex < 0 || activeIndex >= len(segments) {
		return Highlights{Classes: classes}
	}

	selected := segments[activeIndex]
	if selected.Matched {
		classes[activeIndex] = ClassSelectedMatched
	} else {
		classes[activeIndex] = ClassSelectedUnmatched
	}

	if !causalEnabled || !selected.Matched || len(edges) == 0 {
		return Highlights{Classes: classes}
	}

	preds := causal.PredecessorsOf(activeIndex, edges)
	succs := causal.SuccessorsOf(activeIndex, edges)

	predSet := make(map[int]bool, len(preds))
	for _, p := range preds {
		predSet[p] = true
	}
	succSet := make(map[int]bool, len(succs))
	for _, s := range succs {
		succSet[s] = true
	}

	for i := range segments {
		if i == activeIndex {
			continue
		}
		switch {
		case predSet[i]:
			classes[i] = ClassPredecessor
		case succSet[i]:
			classes[i] = ClassSuccessor
		}
	}

	return Highlights{Classes: classes, Predecessors: preds, Successors: succs}
}
