package transcript

import (
	"strings"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestDecode(t *testing.T) {
	feed := `[
		{"begin_time": 0.0, "end_time": 2.0, "text": "a", "matched": "yes"},
		{"begin_time": "2.0", "end_time": "4.5", "text": "b", "matched": "NO"},
		{"text": "untimed", "matched": " Yes "},
		{"begin_time": 5.0, "text": "half-timed"},
		{"begin_time": "oops", "end_time": "6.0", "text": "bad timing"},
		{"matched": "yes"},
		{"begin_time": -1.0, "end_time": 2.0, "text": "negative"}
	]`

	segments, err := Decode(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	// The record without text is skipped; everything else survives.
	if len(segments) != 6 {
		t.Fatalf("expected 6 segments, got %d", len(segments))
	}

	if segments[0].BeginTime == nil || *segments[0].BeginTime != 0.0 || *segments[0].EndTime != 2.0 {
		t.Errorf("segment 0 timing wrong: %+v", segments[0])
	}
	if !segments[0].Matched {
		t.Error("segment 0 should be matched")
	}
	if segments[1].BeginTime == nil || *segments[1].BeginTime != 2.0 || *segments[1].EndTime != 4.5 {
		t.Errorf("string timestamps not parsed: %+v", segments[1])
	}
	if segments[1].Matched {
		t.Error("segment 1 should be unmatched")
	}
	if !segments[2].Matched {
		t.Error("matched flag should be trimmed and case-insensitive")
	}
	for _, i := range []int{2, 3, 4, 5} {
		if segments[i].Timed() {
			t.Errorf("segment %d (%q) should be untimed", i, segments[i].Text)
		}
	}
	for i, seg := range segments {
		if seg.Index != i {
			t.Errorf("segment at position %d has index %d", i, seg.Index)
		}
	}
}

func TestDecode_TopLevelGarbage(t *testing.T) {
	if _, err := Decode(strings.NewReader("not json")); err == nil {
		t.Fatal("expected error for undecodable feed")
	}
}

func TestDecode_EmptyArray(t *testing.T) {
	segments, err := Decode(strings.NewReader("[]"))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}

func TestActiveAt(t *testing.T) {
	segments := []Segment{
		{Index: 0, Text: "a", BeginTime: fp(0), EndTime: fp(2), Matched: true},
		{Index: 1, Text: "b", BeginTime: fp(2), EndTime: fp(4)},
		{Index: 2, Text: "untimed"},
	}

	tests := []struct {
		name      string
		time      float64
		wantIndex int
		wantOK    bool
	}{
		{"inside first", 1.5, 0, true},
		{"start of first", 0, 0, true},
		{"shared boundary goes to second", 2.0, 1, true},
		{"inside second", 3.0, 1, true},
		{"end is exclusive", 4.0, 0, false},
		{"past the end", 5.0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := ActiveAt(segments, tt.time)
			if ok != tt.wantOK {
				t.Fatalf("ActiveAt(%v) ok = %v, want %v", tt.time, ok, tt.wantOK)
			}
			if ok && seg.Index != tt.wantIndex {
				t.Errorf("ActiveAt(%v) = %d, want %d", tt.time, seg.Index, tt.wantIndex)
			}
		})
	}
}

func TestActiveAt_OverlapPicksFirst(t *testing.T) {
	segments := []Segment{
		{Index: 0, BeginTime: fp(0), EndTime: fp(10)},
		{Index: 1, BeginTime: fp(1), EndTime: fp(3)},
	}
	seg, ok := ActiveAt(segments, 2)
	if !ok || seg.Index != 0 {
		t.Fatalf("overlapping intervals must resolve to the earliest segment, got %v %v", seg.Index, ok)
	}
}

func TestActiveAt_HalfOpenProperty(t *testing.T) {
	seg := Segment{Index: 0, BeginTime: fp(1.5), EndTime: fp(3.25)}
	segments := []Segment{seg}

	for _, tm := range []float64{1.5, 2.0, 3.2499} {
		if _, ok := ActiveAt(segments, tm); !ok {
			t.Errorf("time %v inside [begin,end) should be active", tm)
		}
	}
	for _, tm := range []float64{1.4999, 3.25, 10} {
		if _, ok := ActiveAt(segments, tm); ok {
			t.Errorf("time %v outside [begin,end) should not be active", tm)
		}
	}
}

func TestValidateIndices(t *testing.T) {
	good := []Segment{{Index: 0}, {Index: 1}, {Index: 2}}
	if err := ValidateIndices(good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := []Segment{{Index: 0}, {Index: 0}}
	if err := ValidateIndices(bad); err == nil {
		t.Error("expected error for duplicate index")
	}
}
