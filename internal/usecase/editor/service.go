// Package editor hosts editing sessions and orchestrates optimistic edits:
// impact analysis first, then splice + timeline recalculation as one atomic
// block, then asynchronous execution against the pipeline with progress
// polling. Execution failures surface as notifications and never roll back
// the optimistic state.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scriptreel/editor/internal/domain/entities"
	"github.com/scriptreel/editor/internal/infrastructure/external/pipeline"
	"github.com/scriptreel/editor/internal/usecase/syncstate"
	"github.com/scriptreel/editor/internal/usecase/timeline"
	"github.com/scriptreel/editor/pkg/config"
)

// ImpactAnalyzer classifies the blast radius of a structural edit. Both
// methods degrade internally and never fail.
type ImpactAnalyzer interface {
	AnalyzeAddition(ctx context.Context, segments []*entities.Segment, afterID *string, newText string) *entities.ImpactAnalysis
	AnalyzeRemoval(ctx context.Context, segments []*entities.Segment, segmentID string) *entities.ImpactAnalysis
}

// Service defines editor session business logic
type Service interface {
	// CreateSession opens an editing session seeded with initial segments
	CreateSession(ctx context.Context, projectID, userID string, seeds []SeedSegment) (*Snapshot, error)
	// GetSnapshot returns a consistent copy of session state
	GetSnapshot(sessionID uuid.UUID) (*Snapshot, error)
	// CloseSession evicts a session and stops its background polling
	CloseSession(sessionID uuid.UUID) error

	// AddSegment analyzes and optimistically inserts a new segment after
	// afterID (nil appends). Returns a pending decision instead when the
	// analysis requires a user choice.
	AddSegment(ctx context.Context, sessionID uuid.UUID, afterID *string, text string) (*EditOutcome, error)
	// DeleteSegment analyzes and optimistically removes a segment
	DeleteSegment(ctx context.Context, sessionID uuid.UUID, segmentID string) (*EditOutcome, error)
	// SplitSegment splits a segment at a timeline position. A split point
	// outside the segment's interior is a silent no-op.
	SplitSegment(sessionID uuid.UUID, segmentID string, atTime float64) error
	// ReorderSegments moves a segment between positions. Out-of-range
	// indexes are a silent no-op.
	ReorderSegments(sessionID uuid.UUID, fromIndex, toIndex int) error
	// UpdateSegmentText replaces a segment's script text
	UpdateSegmentText(sessionID uuid.UUID, segmentID, text string) error
	// RegenerateAsset re-runs generation for a single derived asset
	RegenerateAsset(ctx context.Context, sessionID uuid.UUID, segmentID string, asset entities.AssetType, customPrompt string) (*entities.Operation, error)

	// ConfirmDecision executes a suspended edit with the chosen strategy
	ConfirmDecision(ctx context.Context, sessionID, decisionID uuid.UUID, strategyID string) (*EditOutcome, error)
	// CancelDecision discards a suspended edit; rollback is a no-op
	CancelDecision(sessionID, decisionID uuid.UUID) error

	// RegenerateTimelineSync starts regeneration of all stale derived assets
	RegenerateTimelineSync(ctx context.Context, sessionID uuid.UUID) (*entities.Operation, error)
	// GetOperation returns a copy of a tracked operation
	GetOperation(sessionID, operationID uuid.UUID) (*entities.Operation, error)
	// CancelOperation requests cancellation of an in-flight operation
	CancelOperation(ctx context.Context, sessionID, operationID uuid.UUID) error

	// UpdateTimeline applies a partial timeline view-state update
	UpdateTimeline(sessionID uuid.UUID, upd *TimelineUpdate) error
	// DrainNotifications returns and clears the session's toast queue
	DrainNotifications(sessionID uuid.UUID) ([]entities.Notification, error)

	// Close stops the janitor and every session's background work
	Close()
}

type service struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	analyzer ImpactAnalyzer
	pipeline pipeline.Client
	cfg      *config.Config
	logger   *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewService creates the editor service and starts its eviction janitor
func NewService(analyzer ImpactAnalyzer, pipelineClient pipeline.Client, cfg *config.Config, logger *zap.Logger) Service {
	s := &service{
		sessions: make(map[uuid.UUID]*Session),
		analyzer: analyzer,
		pipeline: pipelineClient,
		cfg:      cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.janitor()
	return s
}

func (s *service) CreateSession(ctx context.Context, projectID, userID string, seeds []SeedSegment) (*Snapshot, error) {
	segments := make([]*entities.Segment, 0, len(seeds))
	for _, seed := range seeds {
		duration := seed.Duration
		if duration <= 0 && seed.VoiceDuration > 0 {
			duration = seed.VoiceDuration
		}
		if duration <= 0 {
			duration = s.cfg.Editor.PlaceholderDuration
		}

		seg := entities.NewSegment(seed.Text, duration)
		seg.Locked = seed.Locked
		if seed.VoiceURL != "" {
			seg.PatchVoice(seed.VoiceURL, seed.VoiceDuration)
		}
		if seed.ImageURL != "" {
			seg.PatchImage(seed.ImageURL, seed.ImagePrompt)
		}
		if len(seed.Words) > 0 {
			seg.PatchCaptions(seed.Words)
		}
		segments = append(segments, seg)
	}

	res := timeline.Recalculate(segments)
	state := entities.NewTimelineState()
	state.TotalDuration = res.TotalDuration

	sessCtx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:          uuid.New(),
		ProjectID:   projectID,
		UserID:      userID,
		segments:    segments,
		timeline:    state,
		sync:        syncstate.NewTracker(s.logger),
		operations:  make(map[uuid.UUID]*entities.Operation),
		decisions:   make(map[uuid.UUID]*PendingDecision),
		pollCancels: make(map[uuid.UUID]context.CancelFunc),
		lastAccess:  time.Now(),
		ctx:         sessCtx,
		cancel:      cancel,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("editing session created",
			zap.String("session_id", sess.ID.String()),
			zap.String("project_id", projectID),
			zap.Int("segments", len(segments)),
		)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

func (s *service) GetSnapshot(sessionID uuid.UUID) (*Snapshot, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshotLocked(), nil
}

func (s *service) CloseSession(sessionID uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return entities.ErrSessionNotFound
	}
	sess.cancel()
	return nil
}

func (s *service) AddSegment(ctx context.Context, sessionID uuid.UUID, afterID *string, text string) (*EditOutcome, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	snapshot := entities.CloneSegments(sess.segments)
	sess.mu.Unlock()

	an := s.analyzer.AnalyzeAddition(ctx, snapshot, afterID, text)
	if an.RequiresUserChoice {
		return s.suspendDecision(sess, &PendingDecision{
			Intent:  PendingIntentAdd,
			AfterID: afterID,
			Text:    text,
		}, an), nil
	}
	return s.executeAdd(sess, afterID, text, an, an.Recommended())
}

func (s *service) DeleteSegment(ctx context.Context, sessionID uuid.UUID, segmentID string) (*EditOutcome, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	idx := sess.segmentIndex(segmentID)
	if idx < 0 {
		sess.mu.Unlock()
		return nil, entities.ErrSegmentNotFound
	}
	if sess.segments[idx].Locked {
		sess.mu.Unlock()
		return nil, entities.ErrSegmentLocked
	}
	snapshot := entities.CloneSegments(sess.segments)
	sess.mu.Unlock()

	an := s.analyzer.AnalyzeRemoval(ctx, snapshot, segmentID)
	if an.RequiresUserChoice {
		return s.suspendDecision(sess, &PendingDecision{
			Intent:    PendingIntentRemove,
			SegmentID: segmentID,
		}, an), nil
	}
	return s.executeRemove(sess, segmentID, an, an.Recommended())
}

// suspendDecision stores a pending decision so the edit waits for the user
// to pick a strategy. Nothing is spliced yet.
func (s *service) suspendDecision(sess *Session, d *PendingDecision, an *entities.ImpactAnalysis) *EditOutcome {
	now := time.Now()
	d.ID = uuid.New()
	d.Analysis = an
	d.CreatedAt = now
	d.ExpiresAt = now.Add(s.cfg.Editor.DecisionTTL)

	sess.mu.Lock()
	sess.decisions[d.ID] = d
	copied := *d
	sess.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("edit suspended pending strategy choice",
			zap.String("session_id", sess.ID.String()),
			zap.String("decision_id", d.ID.String()),
			zap.String("intent", string(d.Intent)),
			zap.Int("strategies", len(an.Strategies)),
		)
	}
	return &EditOutcome{Applied: false, Decision: &copied, Analysis: an}
}

// executeAdd commits the optimistic insertion and hands the edit to the
// pipeline. The placeholder segment stays even if execution later fails.
func (s *service) executeAdd(sess *Session, afterID *string, text string, an *entities.ImpactAnalysis, strat *entities.Strategy) (*EditOutcome, error) {
	seg := entities.NewSegment(text, s.cfg.Editor.PlaceholderDuration)
	seg.MarkGenerating()

	sess.mu.Lock()
	insertAt := len(sess.segments)
	if afterID != nil {
		if i := sess.segmentIndex(*afterID); i >= 0 {
			insertAt = i + 1
		}
	}
	sess.segments = append(sess.segments, nil)
	copy(sess.segments[insertAt+1:], sess.segments[insertAt:])
	sess.segments[insertAt] = seg
	res := timeline.Recalculate(sess.segments)
	sess.timeline.TotalDuration = res.TotalDuration

	op := entities.NewOperation(sess.ID, entities.OperationTypeAddSegment, []string{seg.ID})
	sess.operations[op.ID] = op
	req := s.buildExecuteRequestLocked(sess, entities.OperationTypeAddSegment, map[string]interface{}{
		"segment_id":  seg.ID,
		"text":        text,
		"position":    insertAt,
		"strategy_id": strat.ID,
	})
	segCopy := seg.Clone()
	opCopy := *op
	sess.mu.Unlock()

	s.markStale(sess, []string{seg.ID}, strat.AffectedSegmentIDs)
	s.runOperation(sess, op, req, s.segmentReconciler(sess, seg.ID, entities.OperationTypeAddSegment))

	return &EditOutcome{Applied: true, Analysis: an, Segment: segCopy, Operation: &opCopy}, nil
}

// executeRemove commits the optimistic removal and hands the edit to the
// pipeline. The removed segment is not restored if execution later fails.
func (s *service) executeRemove(sess *Session, segmentID string, an *entities.ImpactAnalysis, strat *entities.Strategy) (*EditOutcome, error) {
	sess.mu.Lock()
	idx := sess.segmentIndex(segmentID)
	if idx < 0 {
		sess.mu.Unlock()
		return nil, entities.ErrSegmentNotFound
	}
	if sess.segments[idx].Locked {
		sess.mu.Unlock()
		return nil, entities.ErrSegmentLocked
	}
	sess.segments = append(sess.segments[:idx], sess.segments[idx+1:]...)
	sess.timeline.Deselect(segmentID)
	res := timeline.Recalculate(sess.segments)
	sess.timeline.TotalDuration = res.TotalDuration

	op := entities.NewOperation(sess.ID, entities.OperationTypeRemoveSegment, []string{segmentID})
	sess.operations[op.ID] = op
	req := s.buildExecuteRequestLocked(sess, entities.OperationTypeRemoveSegment, map[string]interface{}{
		"segment_id":  segmentID,
		"strategy_id": strat.ID,
	})
	opCopy := *op
	sess.mu.Unlock()

	s.markStale(sess, nil, strat.AffectedSegmentIDs)
	s.runOperation(sess, op, req, nil)

	return &EditOutcome{Applied: true, Analysis: an, Operation: &opCopy}, nil
}

func (s *service) ConfirmDecision(ctx context.Context, sessionID, decisionID uuid.UUID, strategyID string) (*EditOutcome, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	d, ok := sess.decisions[decisionID]
	if !ok {
		sess.mu.Unlock()
		return nil, entities.ErrDecisionNotFound
	}
	if d.Expired(time.Now()) {
		delete(sess.decisions, decisionID)
		sess.mu.Unlock()
		return nil, entities.ErrDecisionExpired
	}
	strat := d.Analysis.Strategy(strategyID)
	if strat == nil {
		sess.mu.Unlock()
		return nil, entities.ErrUnknownStrategy
	}
	delete(sess.decisions, decisionID)
	sess.mu.Unlock()

	switch d.Intent {
	case PendingIntentRemove:
		return s.executeRemove(sess, d.SegmentID, d.Analysis, strat)
	default:
		return s.executeAdd(sess, d.AfterID, d.Text, d.Analysis, strat)
	}
}

func (s *service) CancelDecision(sessionID, decisionID uuid.UUID) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, ok := sess.decisions[decisionID]; !ok {
		return entities.ErrDecisionNotFound
	}
	delete(sess.decisions, decisionID)
	// Nothing was spliced while the decision was pending, so cancelling is
	// a pure discard.
	sess.notifications = append(sess.notifications,
		entities.NewNotification(entities.NotificationLevelInfo, "Edit cancelled, no changes were applied"))
	return nil
}

func (s *service) SplitSegment(sessionID uuid.UUID, segmentID string, atTime float64) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	idx := sess.segmentIndex(segmentID)
	if idx < 0 {
		sess.mu.Unlock()
		return entities.ErrSegmentNotFound
	}
	seg := sess.segments[idx]
	if seg.Locked {
		sess.mu.Unlock()
		return entities.ErrSegmentLocked
	}
	if atTime <= seg.StartTime || atTime >= seg.EndTime {
		sess.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("split point outside segment, ignoring",
				zap.String("segment_id", segmentID),
				zap.Float64("at", atTime),
			)
		}
		return nil
	}

	firstText, secondText := bisectText(seg.Text)
	first := entities.NewSegment(firstText, atTime-seg.StartTime)
	first.ID = seg.ID + "-a"
	first.Image = seg.Image // the first half keeps the original visual
	first.RecordEdit(entities.EditKindSplit, "from "+seg.ID)
	second := entities.NewSegment(secondText, seg.EndTime-atTime)
	second.ID = seg.ID + "-b"
	second.RecordEdit(entities.EditKindSplit, "from "+seg.ID)

	sess.segments[idx] = first
	sess.segments = append(sess.segments, nil)
	copy(sess.segments[idx+2:], sess.segments[idx+1:])
	sess.segments[idx+1] = second
	sess.timeline.Deselect(segmentID)
	res := timeline.Recalculate(sess.segments)
	sess.timeline.TotalDuration = res.TotalDuration
	sess.mu.Unlock()

	s.markStale(sess, []string{first.ID, second.ID}, nil)
	return nil
}

// bisectText cuts the text near its rune midpoint, preferring the closest
// word boundary
func bisectText(text string) (string, string) {
	runes := []rune(text)
	mid := len(runes) / 2
	cut := mid
	for offset := 0; offset <= mid; offset++ {
		if mid-offset >= 0 && runes[mid-offset] == ' ' {
			cut = mid - offset
			break
		}
		if mid+offset < len(runes) && runes[mid+offset] == ' ' {
			cut = mid + offset
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])), strings.TrimSpace(string(runes[cut:]))
}

func (s *service) ReorderSegments(sessionID uuid.UUID, fromIndex, toIndex int) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	n := len(sess.segments)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n || fromIndex == toIndex {
		sess.mu.Unlock()
		if s.logger != nil && fromIndex != toIndex {
			s.logger.Debug("reorder indexes out of range, ignoring",
				zap.Int("from", fromIndex),
				zap.Int("to", toIndex),
			)
		}
		return nil
	}

	moved := sess.segments[fromIndex]
	sess.segments = append(sess.segments[:fromIndex], sess.segments[fromIndex+1:]...)
	sess.segments = append(sess.segments, nil)
	copy(sess.segments[toIndex+1:], sess.segments[toIndex:])
	sess.segments[toIndex] = moved
	moved.RecordEdit(entities.EditKindReordered, fmt.Sprintf("%d -> %d", fromIndex, toIndex))

	res := timeline.Recalculate(sess.segments)
	sess.timeline.TotalDuration = res.TotalDuration
	// Keep the playhead on a moved selection so playback follows the segment
	if sess.timeline.IsSelected(moved.ID) {
		sess.timeline.Playhead = moved.StartTime
	}
	sess.mu.Unlock()

	s.markStale(sess, []string{moved.ID}, nil)
	return nil
}

func (s *service) UpdateSegmentText(sessionID uuid.UUID, segmentID, text string) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	idx := sess.segmentIndex(segmentID)
	if idx < 0 {
		sess.mu.Unlock()
		return entities.ErrSegmentNotFound
	}
	seg := sess.segments[idx]
	if seg.Locked {
		sess.mu.Unlock()
		return entities.ErrSegmentLocked
	}
	before := seg.Fingerprint
	seg.SetText(text)
	changed := seg.Fingerprint != before
	sess.mu.Unlock()

	// Same fingerprint means same text: derived assets stay valid
	if changed {
		s.markStale(sess, []string{segmentID}, nil)
	}
	return nil
}

func (s *service) RegenerateAsset(ctx context.Context, sessionID uuid.UUID, segmentID string, asset entities.AssetType, customPrompt string) (*entities.Operation, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	opType, ok := assetOperationTypes[asset]
	if !ok {
		return nil, fmt.Errorf("unknown asset type %q", asset)
	}

	sess.mu.Lock()
	idx := sess.segmentIndex(segmentID)
	if idx < 0 {
		sess.mu.Unlock()
		return nil, entities.ErrSegmentNotFound
	}
	seg := sess.segments[idx]
	if seg.Locked {
		sess.mu.Unlock()
		return nil, entities.ErrSegmentLocked
	}
	seg.MarkAssetGenerating(asset)
	seg.RecordEdit(entities.EditKindRegenerated, string(asset))

	op := entities.NewOperation(sess.ID, opType, []string{segmentID})
	sess.operations[op.ID] = op
	req := s.buildExecuteRequestLocked(sess, opType, map[string]interface{}{
		"segment_id":    segmentID,
		"asset":         string(asset),
		"custom_prompt": customPrompt,
	})
	opCopy := *op
	sess.mu.Unlock()

	s.runOperation(sess, op, req, s.segmentReconciler(sess, segmentID, opType))
	return &opCopy, nil
}

var assetOperationTypes = map[entities.AssetType]entities.OperationType{
	entities.AssetTypeVoice:    entities.OperationTypeRegenerateVoice,
	entities.AssetTypeImage:    entities.OperationTypeRegenerateImage,
	entities.AssetTypeCaptions: entities.OperationTypeRegenerateCaptions,
}

func (s *service) RegenerateTimelineSync(ctx context.Context, sessionID uuid.UUID) (*entities.Operation, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	switch sess.sync.Status() {
	case entities.SyncStatusSynced:
		return nil, entities.ErrSyncNotRequired
	case entities.SyncStatusRegenerating:
		return nil, entities.ErrSyncInProgress
	}

	op := entities.NewOperation(sess.ID, entities.OperationTypeResync, sess.sync.StaleSegmentIDs())
	sess.mu.Lock()
	sess.operations[op.ID] = op
	opCopy := *op
	sess.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := sess.sync.RegenerateSync(sess.ctx, func(ctx context.Context, segmentIDs []string) error {
			return s.executeResync(ctx, sess, op, segmentIDs)
		})
		if err != nil {
			s.failOperation(sess, op, fmt.Sprintf("Timeline sync failed: %v", err))
			return
		}
		s.notify(sess, entities.NotificationLevelSuccess, "Timeline back in sync")
	}()

	return &opCopy, nil
}

func (s *service) GetOperation(sessionID, operationID uuid.UUID) (*entities.Operation, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	op, ok := sess.operations[operationID]
	if !ok {
		return nil, entities.ErrOperationNotFound
	}
	opCopy := *op
	return &opCopy, nil
}

func (s *service) CancelOperation(ctx context.Context, sessionID, operationID uuid.UUID) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	op, ok := sess.operations[operationID]
	if !ok {
		sess.mu.Unlock()
		return entities.ErrOperationNotFound
	}
	if op.IsTerminal() {
		sess.mu.Unlock()
		return nil
	}
	var externalID string
	if op.ExternalID != nil {
		externalID = *op.ExternalID
	}
	cancelPoll := sess.pollCancels[operationID]
	if cancelPoll == nil {
		// No poll to interrupt, settle the operation directly
		op.MarkAsCancelled()
	}
	sess.mu.Unlock()

	if externalID != "" {
		// Fire-and-forget towards the pipeline; the local state is already
		// settled by the poll abort
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.pipeline.CancelOperation(cancelCtx, externalID); err != nil && s.logger != nil {
				s.logger.Warn("pipeline cancel request failed",
					zap.String("operation_id", operationID.String()),
					zap.Error(err),
				)
			}
		}()
	}
	if cancelPoll != nil {
		cancelPoll()
	}
	return nil
}

func (s *service) UpdateTimeline(sessionID uuid.UUID, upd *TimelineUpdate) error {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	t := sess.timeline
	if upd.Playhead != nil {
		playhead := *upd.Playhead
		if playhead < 0 {
			playhead = 0
		}
		if playhead > t.TotalDuration {
			playhead = t.TotalDuration
		}
		t.Playhead = playhead
	}
	if upd.Playing != nil {
		t.Playing = *upd.Playing
	}
	if upd.Zoom != nil && *upd.Zoom > 0 {
		t.Zoom = *upd.Zoom
	}
	if upd.ViewStart != nil {
		t.ViewStart = *upd.ViewStart
	}
	if upd.ViewEnd != nil {
		t.ViewEnd = *upd.ViewEnd
	}
	if upd.Selection != nil {
		t.Selection = append([]string(nil), (*upd.Selection)...)
	}
	if upd.Mode != nil {
		t.Mode = *upd.Mode
	}
	return nil
}

func (s *service) DrainNotifications(sessionID uuid.UUID) ([]entities.Notification, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	drained := sess.notifications
	sess.notifications = nil
	return drained, nil
}

func (s *service) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})

	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.cancel()
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Internal helpers

func (s *service) getSession(sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// markStale records stale derived assets with the sync tracker. Primary ids
// are the directly edited segments; affected ids come from impact analysis
// and are dropped when they point at unknown or locked segments.
func (s *service) markStale(sess *Session, primary, affected []string) {
	sess.mu.Lock()
	ids := make([]string, 0, len(primary)+len(affected))
	seen := make(map[string]struct{})
	for _, id := range primary {
		if _, dup := seen[id]; dup || sess.segmentIndex(id) < 0 {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range affected {
		i := sess.segmentIndex(id)
		if _, dup := seen[id]; dup || i < 0 || sess.segments[i].Locked {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sess.mu.Unlock()

	sess.sync.MarkOutOfSync(ids)
}

// buildExecuteRequestLocked snapshots the composition for a pipeline request;
// callers hold sess.mu
func (s *service) buildExecuteRequestLocked(sess *Session, editType entities.OperationType, editData map[string]interface{}) *pipeline.ExecuteRequest {
	composition := make([]pipeline.CompositionSegment, 0, len(sess.segments))
	for _, seg := range sess.segments {
		composition = append(composition, pipeline.CompositionSegment{
			ID:        seg.ID,
			Text:      seg.Text,
			Duration:  seg.Duration,
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
		})
	}
	return &pipeline.ExecuteRequest{
		ProjectID:          sess.ProjectID,
		UserID:             sess.UserID,
		CurrentComposition: composition,
		EditType:           editType,
		EditData:           editData,
	}
}

// notify appends a toast entry for the presentation layer to drain
func (s *service) notify(sess *Session, level entities.NotificationLevel, message string) {
	sess.mu.Lock()
	sess.notifications = append(sess.notifications, entities.NewNotification(level, message))
	sess.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("session notification",
			zap.String("session_id", sess.ID.String()),
			zap.String("level", string(level)),
			zap.String("message", message),
		)
	}
}

// janitor expires pending decisions and evicts idle sessions
func (s *service) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *service) sweep(now time.Time) {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		for id, d := range sess.decisions {
			if d.Expired(now) {
				delete(sess.decisions, id)
				// Expiry behaves exactly like an explicit cancel
				sess.notifications = append(sess.notifications,
					entities.NewNotification(entities.NotificationLevelInfo, "Pending edit expired and was cancelled"))
			}
		}
		idle := now.Sub(sess.lastAccess) > s.cfg.Editor.SessionTTL
		sess.mu.Unlock()

		if idle {
			if s.logger != nil {
				s.logger.Info("evicting idle editing session",
					zap.String("session_id", sess.ID.String()),
				)
			}
			s.mu.Lock()
			delete(s.sessions, sess.ID)
			s.mu.Unlock()
			sess.cancel()
		}
	}
}
