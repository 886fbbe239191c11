package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scriptreel/editor/internal/domain/entities"
	"github.com/scriptreel/editor/internal/infrastructure/external/pipeline"
	"github.com/scriptreel/editor/pkg/config"
)

// stubAnalyzer returns canned impact analyses so tests control the
// user-choice path deterministically
type stubAnalyzer struct {
	addition *entities.ImpactAnalysis
	removal  *entities.ImpactAnalysis
}

func isolatedAnalysis() *entities.ImpactAnalysis {
	strategy := entities.Strategy{
		ID:                    "isolated_patch",
		Name:                  "Isolated regeneration",
		CreditsRequired:       5,
		ProcessingTimeSeconds: 30,
		QualityImpact:         entities.QualityImpactMinor,
	}
	return &entities.ImpactAnalysis{
		Scope:                       entities.ScopeIsolated,
		AffectedSegmentIDs:          []string{},
		TimelineRecalculationNeeded: true,
		Strategies:                  []entities.Strategy{strategy},
		RecommendedStrategyID:       strategy.ID,
	}
}

func choiceAnalysis() *entities.ImpactAnalysis {
	an := &entities.ImpactAnalysis{
		Scope:              entities.ScopeAdjacentSegments,
		RequiresUserChoice: true,
		Strategies: []entities.Strategy{
			{ID: "smart_patch", Name: "Smart patch", CreditsRequired: 3, QualityImpact: entities.QualityImpactMinor},
			{ID: "full_regen", Name: "Full regeneration", CreditsRequired: 12, QualityImpact: entities.QualityImpactNone},
		},
	}
	an.RecommendedStrategyID = "smart_patch"
	return an
}

func (a *stubAnalyzer) AnalyzeAddition(ctx context.Context, segments []*entities.Segment, afterID *string, newText string) *entities.ImpactAnalysis {
	if a.addition != nil {
		return a.addition
	}
	return isolatedAnalysis()
}

func (a *stubAnalyzer) AnalyzeRemoval(ctx context.Context, segments []*entities.Segment, segmentID string) *entities.ImpactAnalysis {
	if a.removal != nil {
		return a.removal
	}
	return isolatedAnalysis()
}

// scriptedPipeline accepts every submission and reports a fixed final status
// on the first progress poll
type scriptedPipeline struct {
	mu        sync.Mutex
	submitted []*pipeline.ExecuteRequest
	cancelled []string
	final     pipeline.OperationUpdate
}

func (p *scriptedPipeline) ExecuteEdit(ctx context.Context, req *pipeline.ExecuteRequest) (*pipeline.OperationUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, req)
	return &pipeline.OperationUpdate{
		OperationID: fmt.Sprintf("ext-%d", len(p.submitted)),
		Status:      entities.OperationStatusQueued,
	}, nil
}

func (p *scriptedPipeline) GetOperation(ctx context.Context, operationID string) (*pipeline.OperationUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	update := p.final
	update.OperationID = operationID
	return &update, nil
}

func (p *scriptedPipeline) CancelOperation(ctx context.Context, operationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, operationID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Editor: config.EditorConfig{
			PlaceholderDuration: 3.0,
			DefaultCredits:      5,
			PollInterval:        10 * time.Millisecond,
			PollTimeout:         2 * time.Second,
			DecisionTTL:         time.Minute,
			SessionTTL:          time.Hour,
		},
	}
}

func newTestService(t *testing.T, analyzer ImpactAnalyzer, client pipeline.Client) Service {
	t.Helper()
	if analyzer == nil {
		analyzer = &stubAnalyzer{}
	}
	if client == nil {
		client = pipeline.NewClient("", "", true)
	}
	svc := NewService(analyzer, client, testConfig(), zap.NewNop())
	t.Cleanup(svc.Close)
	return svc
}

func seedSession(t *testing.T, svc Service, durations ...float64) *Snapshot {
	t.Helper()
	seeds := make([]SeedSegment, 0, len(durations))
	for i, d := range durations {
		seeds = append(seeds, SeedSegment{
			Text:     fmt.Sprintf("segment number %d narration text", i+1),
			Duration: d,
		})
	}
	snap, err := svc.CreateSession(context.Background(), "project-1", "user-1", seeds)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return snap
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func assertContiguous(t *testing.T, segments []*entities.Segment) {
	t.Helper()
	cursor := 0.0
	for i, seg := range segments {
		if seg.Index != i {
			t.Fatalf("segment %d has index %d", i, seg.Index)
		}
		if seg.StartTime != cursor {
			t.Fatalf("segment %d starts at %v, want %v", i, seg.StartTime, cursor)
		}
		if seg.EndTime != seg.StartTime+seg.Duration {
			t.Fatalf("segment %d end %v != start+duration", i, seg.EndTime)
		}
		cursor = seg.EndTime
	}
}

func TestCreateSession_ContiguousTimeline(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 2, 4)

	assertContiguous(t, snap.Segments)
	if snap.Timeline.TotalDuration != 9 {
		t.Fatalf("total duration = %v, want 9", snap.Timeline.TotalDuration)
	}
	if snap.SyncStatus != entities.SyncStatusSynced {
		t.Fatalf("new session sync status = %s", snap.SyncStatus)
	}
}

func TestAddSegment_OptimisticInsert(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3)
	first := snap.Segments[0].ID

	outcome, err := svc.AddSegment(context.Background(), snap.SessionID, &first, "a brand new segment")
	if err != nil {
		t.Fatalf("AddSegment failed: %v", err)
	}
	if !outcome.Applied || outcome.Segment == nil {
		t.Fatalf("expected an applied outcome with a segment, got %+v", outcome)
	}

	// The placeholder is visible immediately, before the pipeline finishes
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(cur.Segments))
	}
	added := cur.Segments[1]
	if added.ID != outcome.Segment.ID {
		t.Fatalf("inserted segment not at position 1")
	}
	if added.Index != 1 || added.StartTime != 3 || added.EndTime != 6 {
		t.Fatalf("placeholder position: index=%d start=%v end=%v", added.Index, added.StartTime, added.EndTime)
	}
	if cur.Timeline.TotalDuration != 6 {
		t.Fatalf("total duration = %v, want 6", cur.Timeline.TotalDuration)
	}
	if cur.SyncStatus != entities.SyncStatusOutOfSync {
		t.Fatalf("sync status after add = %s", cur.SyncStatus)
	}

	// The mock pipeline completes after a few polls and patches assets in
	waitFor(t, 2*time.Second, func() bool {
		op, err := svc.GetOperation(snap.SessionID, outcome.Operation.ID)
		return err == nil && op.Status == entities.OperationStatusCompleted
	})
	cur, _ = svc.GetSnapshot(snap.SessionID)
	got := cur.Segments[1]
	if got.Voice.URL == "" || got.Voice.Status != entities.AssetStatusReady {
		t.Fatalf("voice not patched: %+v", got.Voice)
	}
	if got.Captions.Status != entities.AssetStatusReady {
		t.Fatalf("captions not patched: %+v", got.Captions)
	}
	assertContiguous(t, cur.Segments)
}

func TestAddSegment_AppendWhenAfterIDNil(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 2)

	outcome, err := svc.AddSegment(context.Background(), snap.SessionID, nil, "appended")
	if err != nil {
		t.Fatalf("AddSegment failed: %v", err)
	}
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if cur.Segments[len(cur.Segments)-1].ID != outcome.Segment.ID {
		t.Fatalf("nil afterID must append at the end")
	}
}

func TestAddSegment_SuspendsOnUserChoice(t *testing.T) {
	svc := newTestService(t, &stubAnalyzer{addition: choiceAnalysis()}, nil)
	snap := seedSession(t, svc, 3)

	outcome, err := svc.AddSegment(context.Background(), snap.SessionID, nil, "needs a choice")
	if err != nil {
		t.Fatalf("AddSegment failed: %v", err)
	}
	if outcome.Applied || outcome.Decision == nil {
		t.Fatalf("expected a suspended outcome, got %+v", outcome)
	}

	// Nothing spliced while the decision is pending
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 1 {
		t.Fatalf("segments spliced before confirmation: %d", len(cur.Segments))
	}
	if len(cur.Decisions) != 1 {
		t.Fatalf("pending decision not tracked")
	}

	if _, err := svc.ConfirmDecision(context.Background(), snap.SessionID, outcome.Decision.ID, "no_such_strategy"); err != entities.ErrUnknownStrategy {
		t.Fatalf("unknown strategy error = %v", err)
	}

	confirmed, err := svc.ConfirmDecision(context.Background(), snap.SessionID, outcome.Decision.ID, "full_regen")
	if err != nil {
		t.Fatalf("ConfirmDecision failed: %v", err)
	}
	if !confirmed.Applied {
		t.Fatalf("confirmed decision did not apply the edit")
	}
	cur, _ = svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 2 || len(cur.Decisions) != 0 {
		t.Fatalf("confirm did not splice and clear: segments=%d decisions=%d", len(cur.Segments), len(cur.Decisions))
	}
}

func TestCancelDecision_IsNoOpRollback(t *testing.T) {
	svc := newTestService(t, &stubAnalyzer{addition: choiceAnalysis()}, nil)
	snap := seedSession(t, svc, 3)

	outcome, _ := svc.AddSegment(context.Background(), snap.SessionID, nil, "never confirmed")
	if err := svc.CancelDecision(snap.SessionID, outcome.Decision.ID); err != nil {
		t.Fatalf("CancelDecision failed: %v", err)
	}

	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 1 || len(cur.Decisions) != 0 {
		t.Fatalf("cancel left state behind: segments=%d decisions=%d", len(cur.Segments), len(cur.Decisions))
	}
	notes, _ := svc.DrainNotifications(snap.SessionID)
	if len(notes) != 1 || notes[0].Level != entities.NotificationLevelInfo {
		t.Fatalf("expected one info notification, got %+v", notes)
	}
	if _, err := svc.ConfirmDecision(context.Background(), snap.SessionID, outcome.Decision.ID, "smart_patch"); err != entities.ErrDecisionNotFound {
		t.Fatalf("confirm after cancel = %v", err)
	}
}

func TestDecisionExpiry_BehavesLikeCancel(t *testing.T) {
	svc := newTestService(t, &stubAnalyzer{addition: choiceAnalysis()}, nil)
	snap := seedSession(t, svc, 3)

	outcome, _ := svc.AddSegment(context.Background(), snap.SessionID, nil, "left to expire")

	svc.(*service).sweep(time.Now().Add(2 * time.Minute))

	if _, err := svc.ConfirmDecision(context.Background(), snap.SessionID, outcome.Decision.ID, "smart_patch"); err != entities.ErrDecisionNotFound {
		t.Fatalf("confirm after expiry = %v", err)
	}
	notes, _ := svc.DrainNotifications(snap.SessionID)
	if len(notes) != 1 {
		t.Fatalf("expected an expiry notification, got %+v", notes)
	}
}

func TestDeleteSegment_ClosesGap(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 3, 3)
	second := snap.Segments[1].ID

	outcome, err := svc.DeleteSegment(context.Background(), snap.SessionID, second)
	if err != nil {
		t.Fatalf("DeleteSegment failed: %v", err)
	}
	if !outcome.Applied {
		t.Fatalf("expected an applied outcome")
	}

	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(cur.Segments))
	}
	if cur.Segments[0].StartTime != 0 || cur.Segments[0].EndTime != 3 {
		t.Fatalf("first segment at %v-%v", cur.Segments[0].StartTime, cur.Segments[0].EndTime)
	}
	if cur.Segments[1].StartTime != 3 || cur.Segments[1].EndTime != 6 {
		t.Fatalf("gap not closed: %v-%v", cur.Segments[1].StartTime, cur.Segments[1].EndTime)
	}
	if cur.Timeline.TotalDuration != 6 {
		t.Fatalf("total duration = %v, want 6", cur.Timeline.TotalDuration)
	}
	assertContiguous(t, cur.Segments)
}

func TestDeleteSegment_RemovesFromSelection(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 3)
	victim := snap.Segments[0].ID

	sel := []string{victim, snap.Segments[1].ID}
	if err := svc.UpdateTimeline(snap.SessionID, &TimelineUpdate{Selection: &sel}); err != nil {
		t.Fatalf("UpdateTimeline failed: %v", err)
	}
	if _, err := svc.DeleteSegment(context.Background(), snap.SessionID, victim); err != nil {
		t.Fatalf("DeleteSegment failed: %v", err)
	}

	cur, _ := svc.GetSnapshot(snap.SessionID)
	for _, id := range cur.Timeline.Selection {
		if id == victim {
			t.Fatalf("deleted segment still selected")
		}
	}
}

func TestDeleteSegment_NoReinsertOnExecutionFailure(t *testing.T) {
	failing := &scriptedPipeline{final: pipeline.OperationUpdate{
		Status: entities.OperationStatusFailed,
		Error:  "render farm exploded",
	}}
	svc := newTestService(t, nil, failing)
	snap := seedSession(t, svc, 3, 3)
	victim := snap.Segments[0].ID

	outcome, err := svc.DeleteSegment(context.Background(), snap.SessionID, victim)
	if err != nil {
		t.Fatalf("DeleteSegment failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		op, err := svc.GetOperation(snap.SessionID, outcome.Operation.ID)
		return err == nil && op.Status == entities.OperationStatusFailed
	})

	// The failed execution surfaces as a notification; the optimistic
	// removal stays
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 1 {
		t.Fatalf("segment was re-inserted after failure")
	}
	notes, _ := svc.DrainNotifications(snap.SessionID)
	found := false
	for _, n := range notes {
		if n.Level == entities.NotificationLevelError {
			found = true
		}
	}
	if !found {
		t.Fatalf("no error notification after failed execution: %+v", notes)
	}
}

func TestDeleteSegment_LockedRefused(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap, err := svc.CreateSession(context.Background(), "p", "u", []SeedSegment{
		{Text: "pinned segment", Duration: 3, Locked: true},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := svc.DeleteSegment(context.Background(), snap.SessionID, snap.Segments[0].ID); err != entities.ErrSegmentLocked {
		t.Fatalf("delete of locked segment = %v", err)
	}
}

func TestReorderSegments_RebasesTimeline(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 2, 4)

	if err := svc.ReorderSegments(snap.SessionID, 2, 0); err != nil {
		t.Fatalf("ReorderSegments failed: %v", err)
	}

	cur, _ := svc.GetSnapshot(snap.SessionID)
	moved := cur.Segments[0]
	if moved.ID != snap.Segments[2].ID {
		t.Fatalf("third segment not moved to front")
	}
	if moved.StartTime != 0 || moved.EndTime != 4 {
		t.Fatalf("moved segment at %v-%v, want 0-4", moved.StartTime, moved.EndTime)
	}
	if cur.Segments[1].StartTime != 4 || cur.Segments[1].EndTime != 7 {
		t.Fatalf("second segment at %v-%v, want 4-7", cur.Segments[1].StartTime, cur.Segments[1].EndTime)
	}
	if cur.Segments[2].StartTime != 7 || cur.Segments[2].EndTime != 9 {
		t.Fatalf("third segment at %v-%v, want 7-9", cur.Segments[2].StartTime, cur.Segments[2].EndTime)
	}
	if cur.SyncStatus != entities.SyncStatusOutOfSync {
		t.Fatalf("reorder did not mark out of sync")
	}
	assertContiguous(t, cur.Segments)
}

func TestReorderSegments_OutOfRangeIsNoOp(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 2)

	if err := svc.ReorderSegments(snap.SessionID, 5, 0); err != nil {
		t.Fatalf("out-of-range reorder errored: %v", err)
	}
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if cur.Segments[0].ID != snap.Segments[0].ID || cur.SyncStatus != entities.SyncStatusSynced {
		t.Fatalf("out-of-range reorder mutated state")
	}
}

func TestReorderSegments_MovesPlayheadWithSelection(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 2, 4)
	moved := snap.Segments[0].ID

	sel := []string{moved}
	svc.UpdateTimeline(snap.SessionID, &TimelineUpdate{Selection: &sel})
	if err := svc.ReorderSegments(snap.SessionID, 0, 2); err != nil {
		t.Fatalf("ReorderSegments failed: %v", err)
	}

	cur, _ := svc.GetSnapshot(snap.SessionID)
	if cur.Segments[2].ID != moved {
		t.Fatalf("segment not moved to the end")
	}
	if cur.Timeline.Playhead != cur.Segments[2].StartTime {
		t.Fatalf("playhead = %v, want %v", cur.Timeline.Playhead, cur.Segments[2].StartTime)
	}
}

func TestSplitSegment_BisectsInPlace(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap, err := svc.CreateSession(context.Background(), "p", "u", []SeedSegment{
		{Text: "alpha beta gamma delta", Duration: 6},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	original := snap.Segments[0].ID

	if err := svc.SplitSegment(snap.SessionID, original, 2.5); err != nil {
		t.Fatalf("SplitSegment failed: %v", err)
	}

	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 2 {
		t.Fatalf("segment count = %d, want 2", len(cur.Segments))
	}
	first, second := cur.Segments[0], cur.Segments[1]
	if first.ID != original+"-a" || second.ID != original+"-b" {
		t.Fatalf("split ids %q / %q do not derive from %q", first.ID, second.ID, original)
	}
	if first.Duration != 2.5 || second.Duration != 3.5 {
		t.Fatalf("split durations %v / %v, want 2.5 / 3.5", first.Duration, second.Duration)
	}
	if first.Text == "" || second.Text == "" {
		t.Fatalf("split produced an empty half: %q / %q", first.Text, second.Text)
	}
	if cur.SyncStatus != entities.SyncStatusOutOfSync {
		t.Fatalf("split did not mark out of sync")
	}
	assertContiguous(t, cur.Segments)
}

func TestSplitSegment_OutsideInteriorIsNoOp(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 6)
	id := snap.Segments[0].ID

	for _, at := range []float64{0, 6, -1, 9} {
		if err := svc.SplitSegment(snap.SessionID, id, at); err != nil {
			t.Fatalf("split at %v errored: %v", at, err)
		}
	}
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.Segments) != 1 || cur.SyncStatus != entities.SyncStatusSynced {
		t.Fatalf("boundary split mutated state")
	}
}

func TestUpdateSegmentText_FingerprintShortCircuit(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3)
	id := snap.Segments[0].ID
	text := snap.Segments[0].Text

	if err := svc.UpdateSegmentText(snap.SessionID, id, text); err != nil {
		t.Fatalf("UpdateSegmentText failed: %v", err)
	}
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if cur.SyncStatus != entities.SyncStatusSynced {
		t.Fatalf("identical text marked the timeline out of sync")
	}

	if err := svc.UpdateSegmentText(snap.SessionID, id, "completely new narration"); err != nil {
		t.Fatalf("UpdateSegmentText failed: %v", err)
	}
	cur, _ = svc.GetSnapshot(snap.SessionID)
	if cur.SyncStatus != entities.SyncStatusOutOfSync {
		t.Fatalf("changed text did not mark out of sync")
	}
	if len(cur.StaleSegmentIDs) != 1 || cur.StaleSegmentIDs[0] != id {
		t.Fatalf("stale set = %v", cur.StaleSegmentIDs)
	}
}

func TestRegenerateAsset_PatchesOnlyThatAsset(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap, err := svc.CreateSession(context.Background(), "p", "u", []SeedSegment{
		{Text: "narrated segment", Duration: 3, VoiceURL: "https://cdn.example/v.mp3", VoiceDuration: 3},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	id := snap.Segments[0].ID

	op, err := svc.RegenerateAsset(context.Background(), snap.SessionID, id, entities.AssetTypeImage, "neon skyline")
	if err != nil {
		t.Fatalf("RegenerateAsset failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		got, err := svc.GetOperation(snap.SessionID, op.ID)
		return err == nil && got.Status == entities.OperationStatusCompleted
	})

	cur, _ := svc.GetSnapshot(snap.SessionID)
	seg := cur.Segments[0]
	if seg.Image.Status != entities.AssetStatusReady || seg.Image.URL == "" {
		t.Fatalf("image not patched: %+v", seg.Image)
	}
	if seg.Voice.URL != "https://cdn.example/v.mp3" {
		t.Fatalf("voice asset touched by image regeneration: %+v", seg.Voice)
	}
}

func TestRegenerateTimelineSync_Success(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 3)
	id := snap.Segments[0].ID

	svc.UpdateSegmentText(snap.SessionID, id, "fresh narration")
	if _, err := svc.RegenerateTimelineSync(context.Background(), snap.SessionID); err != nil {
		t.Fatalf("RegenerateTimelineSync failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		cur, err := svc.GetSnapshot(snap.SessionID)
		return err == nil && cur.SyncStatus == entities.SyncStatusSynced
	})
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if len(cur.StaleSegmentIDs) != 0 {
		t.Fatalf("stale set not cleared: %v", cur.StaleSegmentIDs)
	}
}

func TestRegenerateTimelineSync_FailureKeepsStaleSet(t *testing.T) {
	failing := &scriptedPipeline{final: pipeline.OperationUpdate{
		Status: entities.OperationStatusFailed,
		Error:  "voice provider quota exceeded",
	}}
	svc := newTestService(t, nil, failing)
	snap := seedSession(t, svc, 3, 3)
	id := snap.Segments[1].ID

	svc.UpdateSegmentText(snap.SessionID, id, "fresh narration")
	if _, err := svc.RegenerateTimelineSync(context.Background(), snap.SessionID); err != nil {
		t.Fatalf("RegenerateTimelineSync failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		notes, err := svc.DrainNotifications(snap.SessionID)
		if err != nil {
			return false
		}
		for _, n := range notes {
			if n.Level == entities.NotificationLevelError {
				return true
			}
		}
		return false
	})

	cur, _ := svc.GetSnapshot(snap.SessionID)
	if cur.SyncStatus != entities.SyncStatusOutOfSync {
		t.Fatalf("failed regeneration left status %s", cur.SyncStatus)
	}
	if len(cur.StaleSegmentIDs) != 1 || cur.StaleSegmentIDs[0] != id {
		t.Fatalf("stale set lost on failure: %v", cur.StaleSegmentIDs)
	}
}

func TestRegenerateTimelineSync_NotRequiredWhenSynced(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3)

	if _, err := svc.RegenerateTimelineSync(context.Background(), snap.SessionID); err != entities.ErrSyncNotRequired {
		t.Fatalf("sync on synced timeline = %v", err)
	}
}

func TestCancelOperation_AbortsPolling(t *testing.T) {
	stuck := &scriptedPipeline{final: pipeline.OperationUpdate{
		Status:   entities.OperationStatusProcessing,
		Progress: 50,
		Stage:    "generating_voice",
	}}
	svc := newTestService(t, nil, stuck)
	snap := seedSession(t, svc, 3)

	outcome, err := svc.AddSegment(context.Background(), snap.SessionID, nil, "will be cancelled")
	if err != nil {
		t.Fatalf("AddSegment failed: %v", err)
	}
	// Wait for submission so the external id is known
	waitFor(t, 2*time.Second, func() bool {
		op, err := svc.GetOperation(snap.SessionID, outcome.Operation.ID)
		return err == nil && op.ExternalID != nil
	})

	if err := svc.CancelOperation(context.Background(), snap.SessionID, outcome.Operation.ID); err != nil {
		t.Fatalf("CancelOperation failed: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		op, err := svc.GetOperation(snap.SessionID, outcome.Operation.ID)
		return err == nil && op.Status == entities.OperationStatusCancelled
	})
}

func TestGetSnapshot_UnknownSession(t *testing.T) {
	svc := newTestService(t, nil, nil)
	if _, err := svc.GetSnapshot(uuid.New()); err != entities.ErrSessionNotFound {
		t.Fatalf("unknown session error = %v", err)
	}
}

func TestSweep_EvictsIdleSessions(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3)

	svc.(*service).sweep(time.Now().Add(2 * time.Hour))

	if _, err := svc.GetSnapshot(snap.SessionID); err != entities.ErrSessionNotFound {
		t.Fatalf("idle session not evicted: %v", err)
	}
}

func TestCloseSession_StopsTracking(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3)

	if err := svc.CloseSession(snap.SessionID); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if err := svc.CloseSession(snap.SessionID); err != entities.ErrSessionNotFound {
		t.Fatalf("double close = %v", err)
	}
	if _, err := svc.GetSnapshot(snap.SessionID); err != entities.ErrSessionNotFound {
		t.Fatalf("closed session still served: %v", err)
	}
}

func TestUpdateTimeline_ClampsPlayhead(t *testing.T) {
	svc := newTestService(t, nil, nil)
	snap := seedSession(t, svc, 3, 3)

	over := 99.0
	svc.UpdateTimeline(snap.SessionID, &TimelineUpdate{Playhead: &over})
	cur, _ := svc.GetSnapshot(snap.SessionID)
	if cur.Timeline.Playhead != 6 {
		t.Fatalf("playhead = %v, want clamped to 6", cur.Timeline.Playhead)
	}

	under := -5.0
	svc.UpdateTimeline(snap.SessionID, &TimelineUpdate{Playhead: &under})
	cur, _ = svc.GetSnapshot(snap.SessionID)
	if cur.Timeline.Playhead != 0 {
		t.Fatalf("playhead = %v, want clamped to 0", cur.Timeline.Playhead)
	}
}
