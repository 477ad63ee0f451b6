package viewer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/causaview/causaview/internal/causal"
)

// GroupKind orders the three bands of the causal strip.
type GroupKind string

const (
	GroupPredecessors GroupKind = "predecessors"
	GroupCurrent      GroupKind = "current"
	GroupSuccessors   GroupKind = "successors"
)

// GraphNode is one rendered node: a segment id and its display label.
type GraphNode struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// NodeGroup is one non-empty band of the strip. Node order within a group
// follows edge-list discovery order, not numeric sort.
type NodeGroup struct {
	Kind  GroupKind   `json:"kind"`
	Nodes []GraphNode `json:"nodes"`
}

// RenderPlan is the displayable projection of the causal neighborhood.
// Empty groups are omitted entirely; a connector is drawn between each pair
// of adjacent groups that made it into the plan.
type RenderPlan struct {
	Groups []NodeGroup `json:"groups"`
}

// Empty reports whether there is nothing to draw.
func (p RenderPlan) Empty() bool { return len(p.Groups) == 0 }

// Connectors is the number of connector indicators between adjacent
// non-empty groups.
func (p RenderPlan) Connectors() int {
	if len(p.Groups) < 2 {
		return 0
	}
	return len(p.Groups) - 1
}

// Renderer projects a selected node and its neighbor sets into a RenderPlan.
// In Strict mode a label lookup for an id with no label is an error; in
// production the anomaly is logged once per lookup and the node renders
// with an empty label so a bad edge can never take down the viewer.
type Renderer struct {
	Labels causal.Labels
	Strict bool
}

func (r Renderer) label(id int) (string, error) {
	label, err := r.Labels.At(id)
	if err == nil {
		return label, nil
	}
	if !errors.Is(err, causal.ErrOutOfRange) {
		return "", err
	}
	if r.Strict {
		return "", fmt.Errorf("render node %d: %w", id, err)
	}
	slog.Warn("viewer: node id has no label, rendering placeholder", "node", id, "labels", r.Labels.Len())
	return "", nil
}

func (r Renderer) group(kind GroupKind, ids []int) (NodeGroup, error) {
	nodes := make([]GraphNode, 0, len(ids))
	for _, id := range ids {
		label, err := r.label(id)
		if err != nil {
			return NodeGroup{}, err
		}
		nodes = append(nodes, GraphNode{ID: id, Label: label})
	}
	return NodeGroup{Kind: kind, Nodes: nodes}, nil
}

// Layout builds the plan for one selection: Predecessors, Current,
// Successors, with empty bands dropped. Callers pass the neighbor sets
// exactly as the highlight controller produced them.
func (r Renderer) Layout(selected int, predecessors, successors []int) (RenderPlan, error) {
	var plan RenderPlan

	if len(predecessors) > 0 {
		g, err := r.group(GroupPredecessors, predecessors)
		if err != nil {
			return RenderPlan{}, err
		}
		plan.Groups = append(plan.Groups, g)
	}

	current, err := r.group(GroupCurrent, []int{selected})
	if err != nil {
		return RenderPlan{}, err
	}
	plan.Groups = append(plan.Groups, current)

	if len(successors) > 0 {
		g, err := r.group(GroupSuccessors, successors)
		if err != nil {
			return RenderPlan{}, err
		}
		plan.Groups = append(plan.Groups, g)
	}

	return plan, nil
}
