package viewer

import (
	"fmt"
	"sync"
	"time"

	"github.com/causaview/causaview/internal/causal"
	"github.com/causaview/causaview/internal/transcript"
)

// Event is one of the three external inputs the viewer reacts to.
type Event interface{ isEvent() }

// SegmentClicked selects a segment directly, timed or not.
type SegmentClicked struct {
	Index int
}

// TimeUpdated is the continuous playback-clock tick.
type TimeUpdated struct {
	Seconds float64
}

// SeekCompleted fires after the player finished a seek.
type SeekCompleted struct {
	Seconds float64
}

func (SegmentClicked) isEvent() {}
func (TimeUpdated) isEvent()    {}
func (SeekCompleted) isEvent()  {}

// Snapshot is the full visual state after one event: everything a
// presentation layer needs to paint, plus the outward seek-and-play command
// when a click asked the player to move. Snapshots are value types; holding
// an old one is always safe.
type Snapshot struct {
	SelectedIndex *int          `json:"selectedIndex"`
	Classes       []VisualClass `json:"classes"`
	Predecessors  []int         `json:"predecessors"`
	Successors    []int         `json:"successors"`
	Graph         RenderPlan    `json:"graph"`
	Seek          *float64      `json:"seek,omitempty"`
}

// Session owns the ActiveSelection for one viewing of one content variant.
// Every event is reduced to a brand-new snapshot under the session mutex:
// full recompute, last write wins, no incremental diffing. Repeated events
// with an unchanged active segment produce identical snapshots.
type Session struct {
	mu            sync.Mutex
	segments      []transcript.Segment
	edges         []causal.Edge
	renderer      Renderer
	causalEnabled bool

	snapshot    Snapshot
	subscribers []func(Snapshot)
	lastEvent   time.Time
}

// NewSession validates the data contract and builds a session with no
// selection. causalEnabled is an explicit parameter: there is no ambient
// causal-mode state anywhere in the engine.
//
// A node-label array that does not match the segment count is a data
// inconsistency the caller must hear about; it is returned as an error
// rather than silently rendering wrong text.
func NewSession(segments []transcript.Segment, labels causal.Labels, edges []causal.Edge, causalEnabled bool, strict bool) (*Session, error) {
	if err := transcript.ValidateIndices(segments); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	if causalEnabled && labels.Len() > 0 {
		if err := labels.Validate(len(segments)); err != nil {
			return nil, fmt.Errorf("new session: %w", err)
		}
	}

	s := &Session{
		segments:      segments,
		edges:         edges,
		renderer:      Renderer{Labels: labels, Strict: strict},
		causalEnabled: causalEnabled,
		lastEvent:     time.Now(),
	}
	s.snapshot, _ = s.reduce(nil, nil)
	return s, nil
}

// reduce recomputes the complete snapshot for a selection. seek carries the
// outward player command and is only set for click events. The error is
// only non-nil in strict mode, when a rendered node id has no label.
func (s *Session) reduce(selected *int, seek *float64) (Snapshot, error) {
	var (
		activeIndex int
		active      bool
	)
	if selected != nil {
		activeIndex, active = *selected, true
	}

	hl := ComputeHighlights(activeIndex, active, s.segments, s.edges, s.causalEnabled)

	var graph RenderPlan
	if active && s.causalEnabled && s.segments[activeIndex].Matched && len(s.edges) > 0 {
		plan, err := s.renderer.Layout(activeIndex, hl.Predecessors, hl.Successors)
		if err != nil {
			return Snapshot{}, err
		}
		graph = plan
	}

	return Snapshot{
		SelectedIndex: selected,
		Classes:       hl.Classes,
		Predecessors:  hl.Predecessors,
		Successors:    hl.Successors,
		Graph:         graph,
		Seek:          seek,
	}, nil
}

// Apply runs one event to completion and returns the resulting snapshot.
// Clicks select unconditionally (untimed segments included) and emit a
// seek-and-play command when the segment has timing. Time events resolve
// the active segment by interval containment; when nothing is active the
// whole visual state resets rather than holding stale highlights.
func (s *Session) Apply(event Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEvent = time.Now()

	var (
		next Snapshot
		err  error
	)
	switch e := event.(type) {
	case SegmentClicked:
		if e.Index < 0 || e.Index >= len(s.segments) {
			return Snapshot{}, fmt.Errorf("segment index %d out of range [0,%d)", e.Index, len(s.segments))
		}
		idx := e.Index
		var seek *float64
		if begin := s.segments[idx].BeginTime; begin != nil {
			v := *begin
			seek = &v
		}
		next, err = s.reduce(&idx, seek)

	case TimeUpdated:
		next, err = s.resolveTime(e.Seconds)
	case SeekCompleted:
		next, err = s.resolveTime(e.Seconds)
	default:
		return Snapshot{}, fmt.Errorf("unknown event %T", event)
	}
	if err != nil {
		return Snapshot{}, err
	}

	s.snapshot = next
	for _, fn := range s.subscribers {
		fn(next)
	}
	return next, nil
}

func (s *Session) resolveTime(seconds float64) (Snapshot, error) {
	seg, ok := transcript.ActiveAt(s.segments, seconds)
	if !ok {
		return s.reduce(nil, nil)
	}
	idx := seg.Index
	return s.reduce(&idx, nil)
}

// Snapshot returns the current visual state without re-issuing any player
// command.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	snap.Seek = nil
	return snap
}

// Subscribe registers fn to receive every snapshot produced after this
// call. Delivery happens synchronously inside Apply, in registration order.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// LastEvent reports when the session last processed an event; the registry
// prunes on it.
func (s *Session) LastEvent() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEvent
}

// Segments exposes the immutable segment list for page rendering.
func (s *Session) Segments() []transcript.Segment {
	return s.segments
}
