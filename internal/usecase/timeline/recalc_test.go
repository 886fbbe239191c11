package timeline

import (
	"testing"

	"github.com/scriptreel/editor/internal/domain/entities"
)

func seg(id string, duration float64) *entities.Segment {
	s := entities.NewSegment("text for "+id, duration)
	s.ID = id
	return s
}

func TestRecalculate_Empty(t *testing.T) {
	res := Recalculate(nil)
	if res.TotalDuration != 0 {
		t.Fatalf("expected total duration 0, got %v", res.TotalDuration)
	}
	if len(res.Segments) != 0 {
		t.Fatalf("expected empty list, got %d", len(res.Segments))
	}
}

func TestRecalculate_AssignsContiguousTimes(t *testing.T) {
	segments := []*entities.Segment{seg("s1", 3), seg("s2", 2), seg("s3", 4)}
	res := Recalculate(segments)

	if res.TotalDuration != 9 {
		t.Fatalf("expected total duration 9, got %v", res.TotalDuration)
	}
	if segments[0].StartTime != 0 {
		t.Fatalf("first segment must start at 0, got %v", segments[0].StartTime)
	}
	for i, s := range segments {
		if s.Index != i {
			t.Fatalf("segment %d has index %d", i, s.Index)
		}
		if s.EndTime != s.StartTime+s.Duration {
			t.Fatalf("segment %s: end %v != start %v + duration %v", s.ID, s.EndTime, s.StartTime, s.Duration)
		}
		if i > 0 && segments[i-1].EndTime != s.StartTime {
			t.Fatalf("gap between %s and %s: %v != %v", segments[i-1].ID, s.ID, segments[i-1].EndTime, s.StartTime)
		}
	}
}

func TestRecalculate_RebasesStaleTimings(t *testing.T) {
	// Segments carrying stale positions from a previous ordering
	a := seg("a", 4)
	a.StartTime, a.EndTime, a.Index = 5, 9, 2
	b := seg("b", 3)
	b.StartTime, b.EndTime, b.Index = 0, 3, 0

	res := Recalculate([]*entities.Segment{a, b})

	if a.StartTime != 0 || a.EndTime != 4 || a.Index != 0 {
		t.Fatalf("segment a not rebased: start=%v end=%v index=%d", a.StartTime, a.EndTime, a.Index)
	}
	if b.StartTime != 4 || b.EndTime != 7 || b.Index != 1 {
		t.Fatalf("segment b not rebased: start=%v end=%v index=%d", b.StartTime, b.EndTime, b.Index)
	}
	if res.TotalDuration != 7 {
		t.Fatalf("expected total duration 7, got %v", res.TotalDuration)
	}
}

func TestRecalculate_ZeroDurationSegment(t *testing.T) {
	segments := []*entities.Segment{seg("s1", 3), seg("zero", 0), seg("s3", 2)}
	res := Recalculate(segments)

	zero := segments[1]
	if zero.StartTime != 3 || zero.EndTime != 3 {
		t.Fatalf("zero-duration segment should collapse at 3, got start=%v end=%v", zero.StartTime, zero.EndTime)
	}
	if segments[2].StartTime != 3 {
		t.Fatalf("segment after zero slot should start at 3, got %v", segments[2].StartTime)
	}
	if res.TotalDuration != 5 {
		t.Fatalf("expected total duration 5, got %v", res.TotalDuration)
	}
}
