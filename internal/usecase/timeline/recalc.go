// Package timeline owns all start/end time computation for the segment
// timeline. No other component may hand-compute segment positions.
package timeline

import (
	"github.com/scriptreel/editor/internal/domain/entities"
)

// Result is the outcome of a recalculation pass
type Result struct {
	Segments      []*entities.Segment
	TotalDuration float64
}

// Recalculate walks the segment list in order and assigns contiguous
// start/end times from each segment's duration, reassigning indexes to match
// array positions. Durations are never recomputed here, only positions.
// The output is always gap-free: segments[i].EndTime == segments[i+1].StartTime.
// A zero-duration segment collapses to a zero-width slot without breaking
// contiguity. An empty list yields a total duration of 0.
func Recalculate(segments []*entities.Segment) Result {
	cursor := 0.0
	for i, s := range segments {
		s.Index = i
		s.StartTime = cursor
		s.EndTime = cursor + s.Duration
		cursor = s.EndTime
	}
	return Result{Segments: segments, TotalDuration: cursor}
}
