// Package syncstate tracks whether the timeline's derived voice/caption
// assets are stale relative to the current segment text and ordering.
package syncstate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scriptreel/editor/internal/domain/entities"
)

// RegenerateFunc is the external voice/caption regeneration capability,
// invoked with the full stale segment id set
type RegenerateFunc func(ctx context.Context, segmentIDs []string) error

// Tracker is the sync-state machine for one editing session.
//
// States: synced -> out_of_sync (any structural or text edit) ->
// regenerating (resync started) -> synced on success, or back to
// out_of_sync on failure. The stale set only grows until a successful
// regeneration clears it.
type Tracker struct {
	mu            sync.Mutex
	status        entities.SyncStatus
	stale         map[string]struct{}
	lastChangedAt time.Time
	lastSyncedAt  time.Time
	logger        *zap.Logger
}

// NewTracker creates a tracker in the synced state
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		status: entities.SyncStatusSynced,
		stale:  make(map[string]struct{}),
		logger: logger,
	}
}

// Status returns the current sync status
func (t *Tracker) Status() entities.SyncStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// StaleSegmentIDs returns a sorted snapshot of the stale segment set
func (t *Tracker) StaleSegmentIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.staleSnapshot()
}

func (t *Tracker) staleSnapshot() []string {
	ids := make([]string, 0, len(t.stale))
	for id := range t.stale {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LastSyncedAt returns the timestamp of the last successful regeneration
func (t *Tracker) LastSyncedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSyncedAt
}

// MarkOutOfSync unions the changed segment ids into the stale set and
// forces the state to out_of_sync. Callable from any state.
func (t *Tracker) MarkOutOfSync(changedSegmentIDs []string) {
	if len(changedSegmentIDs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range changedSegmentIDs {
		t.stale[id] = struct{}{}
	}
	t.status = entities.SyncStatusOutOfSync
	t.lastChangedAt = time.Now()

	if t.logger != nil {
		t.logger.Info("timeline marked out of sync",
			zap.Strings("changed_segment_ids", changedSegmentIDs),
			zap.Int("stale_count", len(t.stale)),
		)
	}
}

// RegenerateSync runs the regeneration capability for every stale segment.
// Only meaningful from out_of_sync. On success the stale set is cleared and
// the state returns to synced; on failure the stale set is untouched and
// the state falls back to out_of_sync.
func (t *Tracker) RegenerateSync(ctx context.Context, regenerate RegenerateFunc) error {
	t.mu.Lock()
	switch t.status {
	case entities.SyncStatusSynced:
		t.mu.Unlock()
		return entities.ErrSyncNotRequired
	case entities.SyncStatusRegenerating:
		t.mu.Unlock()
		return entities.ErrSyncInProgress
	}
	t.status = entities.SyncStatusRegenerating
	staleIDs := t.staleSnapshot()
	t.mu.Unlock()

	if err := regenerate(ctx, staleIDs); err != nil {
		t.mu.Lock()
		t.status = entities.SyncStatusOutOfSync
		t.mu.Unlock()

		if t.logger != nil {
			t.logger.Error("sync regeneration failed",
				zap.Int("stale_count", len(staleIDs)),
				zap.Error(err),
			)
		}
		return fmt.Errorf("sync regeneration failed: %w", err)
	}

	t.mu.Lock()
	// Edits that arrived while regenerating marked the state back to
	// out_of_sync and added to the stale set; only clear what we processed.
	for _, id := range staleIDs {
		delete(t.stale, id)
	}
	if len(t.stale) == 0 {
		t.status = entities.SyncStatusSynced
		t.lastSyncedAt = time.Now()
	} else {
		t.status = entities.SyncStatusOutOfSync
	}
	remaining := len(t.stale)
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.Info("sync regeneration completed",
			zap.Int("regenerated", len(staleIDs)),
			zap.Int("still_stale", remaining),
		)
	}
	return nil
}
