package entities

// SyncStatus tells whether derived voice/caption assets match the current
// segment text and ordering
type SyncStatus string

const (
	SyncStatusSynced       SyncStatus = "synced"
	SyncStatusOutOfSync    SyncStatus = "out_of_sync"
	SyncStatusRegenerating SyncStatus = "regenerating"
)

// InteractionMode is the active timeline editing tool
type InteractionMode string

const (
	InteractionModeSelect InteractionMode = "select"
	InteractionModeTrim   InteractionMode = "trim"
	InteractionModeSplit  InteractionMode = "split"
	InteractionModeDrag   InteractionMode = "drag"
)

// TimelineState holds the playback/view state of the editor timeline
type TimelineState struct {
	Playhead      float64         `json:"playhead"`
	Playing       bool            `json:"playing"`
	Zoom          float64         `json:"zoom"`
	ViewStart     float64         `json:"view_start"`
	ViewEnd       float64         `json:"view_end"`
	Selection     []string        `json:"selection"`
	Mode          InteractionMode `json:"mode"`
	TotalDuration float64         `json:"total_duration"`
}

// NewTimelineState creates the default view state
func NewTimelineState() *TimelineState {
	return &TimelineState{
		Zoom:      1.0,
		Selection: []string{},
		Mode:      InteractionModeSelect,
	}
}

// IsSelected reports whether a segment is in the selection set
func (t *TimelineState) IsSelected(segmentID string) bool {
	for _, id := range t.Selection {
		if id == segmentID {
			return true
		}
	}
	return false
}

// Deselect removes a segment from the selection set
func (t *TimelineState) Deselect(segmentID string) {
	kept := t.Selection[:0]
	for _, id := range t.Selection {
		if id != segmentID {
			kept = append(kept, id)
		}
	}
	t.Selection = kept
}
