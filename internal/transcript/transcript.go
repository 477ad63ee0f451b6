package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Segment is one timed transcript unit. Index doubles as the node id in the
// causal graph and always equals the segment's slice position.
type Segment struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	BeginTime *float64 `json:"beginTime,omitempty"`
	EndTime   *float64 `json:"endTime,omitempty"`
	Matched   bool     `json:"matched"`
}

// Timed reports whether the segment carries a usable playback interval.
// Segments with only one of the two timestamps are treated as untimed.
func (s Segment) Timed() bool {
	return s.BeginTime != nil && s.EndTime != nil
}

type rawSegment struct {
	BeginTime json.RawMessage `json:"begin_time"`
	EndTime   json.RawMessage `json:"end_time"`
	Text      *string         `json:"text"`
	Matched   string          `json:"matched"`
}

// parseSeconds accepts the two timestamp encodings that appear in the feed:
// a JSON number or a string holding a decimal number. Empty strings and
// nulls mean "no timestamp".
func parseSeconds(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	s := string(raw)
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return nil, fmt.Errorf("timestamp string: %w", err)
		}
		unquoted = strings.TrimSpace(unquoted)
		if unquoted == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(unquoted, 64)
		if err != nil {
			return nil, fmt.Errorf("timestamp %q: %w", unquoted, err)
		}
		return &v, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("timestamp %s: %w", s, err)
	}
	return &v, nil
}

// Decode reads a transcript feed: a JSON array of records with begin_time,
// end_time (string or number seconds, optional), text (required) and
// matched ("yes"/"no", default "no"). Records that cannot be decoded are
// skipped so one bad record never takes down the whole transcript; only an
// undecodable top-level document is an error.
func Decode(r io.Reader) ([]Segment, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode transcript feed: %w", err)
	}

	segments := make([]Segment, 0, len(records))
	for i, rec := range records {
		var raw rawSegment
		if err := json.Unmarshal(rec, &raw); err != nil {
			slog.Warn("transcript: skipping undecodable record", "record", i, "error", err)
			continue
		}
		if raw.Text == nil {
			slog.Warn("transcript: skipping record without text", "record", i)
			continue
		}

		begin, beginErr := parseSeconds(raw.BeginTime)
		end, endErr := parseSeconds(raw.EndTime)
		if beginErr != nil || endErr != nil {
			// Bad timing demotes the segment to untimed; the text is
			// still worth showing and the segment stays clickable.
			slog.Warn("transcript: ignoring malformed timing", "record", i,
				"begin_error", beginErr, "end_error", endErr)
			begin, end = nil, nil
		}
		if begin == nil || end == nil {
			begin, end = nil, nil
		}
		if begin != nil && (*begin < 0 || *end < 0) {
			slog.Warn("transcript: ignoring negative timing", "record", i)
			begin, end = nil, nil
		}

		segments = append(segments, Segment{
			Index:     len(segments),
			Text:      *raw.Text,
			BeginTime: begin,
			EndTime:   end,
			Matched:   strings.EqualFold(strings.TrimSpace(raw.Matched), "yes"),
		})
	}
	return segments, nil
}

// ActiveAt resolves the segment whose interval contains currentTime using
// half-open containment: begin <= t < end. The half-open bound keeps a
// boundary shared by two consecutive segments from activating both. When
// overlapping intervals (malformed data) both contain t, the first segment
// in sequence order wins. Untimed segments never match. The second return
// is false when no segment is active, which is distinct from index 0.
func ActiveAt(segments []Segment, currentTime float64) (Segment, bool) {
	for _, seg := range segments {
		if !seg.Timed() {
			continue
		}
		if *seg.BeginTime <= currentTime && currentTime < *seg.EndTime {
			return seg, true
		}
	}
	return Segment{}, false
}

// ValidateIndices checks the contiguity invariant: indices unique and equal
// to slice position. A violation is a caller contract breach, not feed noise.
func ValidateIndices(segments []Segment) error {
	for i, seg := range segments {
		if seg.Index != i {
			return fmt.Errorf("segment at position %d has index %d; indices must be contiguous from 0", i, seg.Index)
		}
	}
	return nil
}
