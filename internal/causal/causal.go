package causal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Edge is a directed causal relation between two segment indices.
// Fan-in and fan-out are allowed; self-loops are not rejected.
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// ParseEdges decodes an edge feed: one "<source> -> <target>" line per
// edge, whitespace-tolerant. Lines that do not parse as two integers are
// skipped and logged; the load never aborts. Consumers treat an empty edge
// set as "no causal structure available", not as an error.
func ParseEdges(lines []string) []Edge {
	edges := make([]Edge, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		src, dst, ok := strings.Cut(line, "->")
		if !ok {
			slog.Warn("causal: skipping malformed edge line", "line", i, "content", line)
			continue
		}
		source, err := strconv.Atoi(strings.TrimSpace(src))
		if err != nil {
			slog.Warn("causal: skipping edge with bad source", "line", i, "content", line)
			continue
		}
		target, err := strconv.Atoi(strings.TrimSpace(dst))
		if err != nil {
			slog.Warn("causal: skipping edge with bad target", "line", i, "content", line)
			continue
		}
		edges = append(edges, Edge{Source: source, Target: target})
	}
	return edges
}

// PredecessorsOf returns every source with an edge into nodeID, in
// edge-list discovery order. Duplicate endpoints are kept; callers only
// test membership so duplicates are harmless.
func PredecessorsOf(nodeID int, edges []Edge) []int {
	var preds []int
	for _, e := range edges {
		if e.Target == nodeID {
			preds = append(preds, e.Source)
		}
	}
	return preds
}

// SuccessorsOf returns every target with an edge out of nodeID, in
// edge-list discovery order.
func SuccessorsOf(nodeID int, edges []Edge) []int {
	var succs []int
	for _, e := range edges {
		if e.Source == nodeID {
			succs = append(succs, e.Target)
		}
	}
	return succs
}

var labelPrefix = regexp.MustCompile(`^Node \d+: `)

// ParseLabels decodes a node-label feed: one display string per line, with
// an optional "Node <n>: " prefix stripped. Lines without the prefix pass
// through unchanged.
func ParseLabels(lines []string) []string {
	labels := make([]string, 0, len(lines))
	for _, line := range lines {
		labels = append(labels, labelPrefix.ReplaceAllString(line, ""))
	}
	return labels
}

// NodeRef is a validated reference into the node-label array. Building one
// is the only way to index labels, so an out-of-range id is caught at
// construction instead of at render time.
type NodeRef struct {
	id int
}

func NewNodeRef(id, bound int) (NodeRef, error) {
	if id < 0 || id >= bound {
		return NodeRef{}, fmt.Errorf("node id %d out of range [0,%d): %w", id, bound, ErrOutOfRange)
	}
	return NodeRef{id: id}, nil
}

func (r NodeRef) ID() int { return r.id }

// ErrOutOfRange marks a node id with no corresponding label.
var ErrOutOfRange = fmt.Errorf("node id out of range")

// Labels wraps the node-label array with bounds-checked access.
type Labels struct {
	values []string
}

func NewLabels(values []string) Labels {
	return Labels{values: values}
}

func (l Labels) Len() int { return len(l.values) }

// At returns the label for id, or ErrOutOfRange when the id has no label.
func (l Labels) At(id int) (string, error) {
	ref, err := NewNodeRef(id, len(l.values))
	if err != nil {
		return "", fmt.Errorf("label lookup (have %d labels): %w", len(l.values), err)
	}
	return l.ByRef(ref), nil
}

// ByRef returns the label for a reference validated against this array's
// bound.
func (l Labels) ByRef(r NodeRef) string {
	return l.values[r.id]
}

// Validate reports a label/segment count mismatch. The original data
// pipeline emits one label per transcript segment; a mismatch means the
// graph could show objectively wrong text, so it is surfaced to the caller
// rather than silently mis-rendered.
func (l Labels) Validate(segmentCount int) error {
	if len(l.values) != segmentCount {
		return fmt.Errorf("node labels (%d) do not match segment count (%d)", len(l.values), segmentCount)
	}
	return nil
}
