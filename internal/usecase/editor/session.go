package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scriptreel/editor/internal/domain/entities"
	"github.com/scriptreel/editor/internal/usecase/syncstate"
)

// PendingIntent is the kind of edit a pending decision suspends
type PendingIntent string

const (
	PendingIntentAdd    PendingIntent = "add"
	PendingIntentRemove PendingIntent = "remove"
)

// PendingDecision suspends an edit whose impact analysis requires a user
// choice between strategies. It expires if never confirmed; expiry and
// cancellation are both a no-op rollback.
type PendingDecision struct {
	ID        uuid.UUID                `json:"id"`
	Intent    PendingIntent            `json:"intent"`
	AfterID   *string                  `json:"after_id,omitempty"`
	Text      string                   `json:"text,omitempty"`
	SegmentID string                   `json:"segment_id,omitempty"`
	Analysis  *entities.ImpactAnalysis `json:"analysis"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// Expired reports whether the decision is past its TTL
func (d *PendingDecision) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Session is one project's editing state: the segment model, timeline view
// state, sync tracker, tracked operations, pending decisions and the toast
// queue. All mutation happens under mu through the editor service, so every
// splice + reindex + recalculate block is atomic for readers.
type Session struct {
	ID        uuid.UUID
	ProjectID string
	UserID    string

	mu            sync.Mutex
	segments      []*entities.Segment
	timeline      *entities.TimelineState
	sync          *syncstate.Tracker
	operations    map[uuid.UUID]*entities.Operation
	decisions     map[uuid.UUID]*PendingDecision
	notifications []entities.Notification
	pollCancels   map[uuid.UUID]context.CancelFunc
	lastAccess    time.Time

	// ctx bounds the lifetime of every background poll for this session
	ctx    context.Context
	cancel context.CancelFunc
}

// segmentIndex returns the position of a segment id, or -1
func (s *Session) segmentIndex(segmentID string) int {
	for i, seg := range s.segments {
		if seg.ID == segmentID {
			return i
		}
	}
	return -1
}

// touch refreshes the idle-eviction clock
func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// Snapshot is a consistent read-only copy of session state for the
// presentation layer
type Snapshot struct {
	SessionID       uuid.UUID               `json:"session_id"`
	ProjectID       string                  `json:"project_id"`
	Segments        []*entities.Segment     `json:"segments"`
	Timeline        entities.TimelineState  `json:"timeline"`
	SyncStatus      entities.SyncStatus     `json:"sync_status"`
	StaleSegmentIDs []string                `json:"stale_segment_ids"`
	Operations      []entities.Operation    `json:"operations"`
	Decisions       []PendingDecision       `json:"pending_decisions"`
}

// snapshotLocked builds a snapshot; callers hold s.mu
func (s *Session) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		SessionID:       s.ID,
		ProjectID:       s.ProjectID,
		Segments:        entities.CloneSegments(s.segments),
		Timeline:        *s.timeline,
		SyncStatus:      s.sync.Status(),
		StaleSegmentIDs: s.sync.StaleSegmentIDs(),
		Operations:      make([]entities.Operation, 0, len(s.operations)),
		Decisions:       make([]PendingDecision, 0, len(s.decisions)),
	}
	snap.Timeline.Selection = append([]string(nil), s.timeline.Selection...)
	for _, op := range s.operations {
		snap.Operations = append(snap.Operations, *op)
	}
	for _, d := range s.decisions {
		snap.Decisions = append(snap.Decisions, *d)
	}
	return snap
}

// SeedSegment is one initial segment supplied when a session is created,
// typically the output of the generation wizard
type SeedSegment struct {
	Text          string                `json:"text" validate:"required"`
	Duration      float64               `json:"duration" validate:"omitempty,gte=0"`
	VoiceURL      string                `json:"voice_url,omitempty"`
	VoiceDuration float64               `json:"voice_duration,omitempty"`
	ImageURL      string                `json:"image_url,omitempty"`
	ImagePrompt   string                `json:"image_prompt,omitempty"`
	Words         []entities.WordTiming `json:"words,omitempty"`
	Locked        bool                  `json:"locked,omitempty"`
}

// TimelineUpdate is a partial update of the timeline view state; nil fields
// are left untouched
type TimelineUpdate struct {
	Playhead  *float64                  `json:"playhead,omitempty"`
	Playing   *bool                     `json:"playing,omitempty"`
	Zoom      *float64                  `json:"zoom,omitempty"`
	ViewStart *float64                  `json:"view_start,omitempty"`
	ViewEnd   *float64                  `json:"view_end,omitempty"`
	Selection *[]string                 `json:"selection,omitempty"`
	Mode      *entities.InteractionMode `json:"mode,omitempty"`
}

// EditOutcome is the result of a structural edit request: either the edit
// was applied optimistically, or it is suspended behind a pending decision
type EditOutcome struct {
	Applied  bool                     `json:"applied"`
	Decision *PendingDecision         `json:"decision,omitempty"`
	Analysis *entities.ImpactAnalysis `json:"analysis,omitempty"`
	Segment  *entities.Segment        `json:"segment,omitempty"`
	Operation *entities.Operation     `json:"operation,omitempty"`
}
