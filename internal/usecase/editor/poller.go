package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/scriptreel/editor/internal/domain/entities"
	"github.com/scriptreel/editor/internal/infrastructure/external/pipeline"
	"github.com/scriptreel/editor/internal/usecase/timeline"
)

// runOperation submits an edit to the pipeline and polls it to a terminal
// status in the background. The reconcile callback, if any, is invoked under
// the session lock with the completed update so asset patches and the
// surrounding state change are atomic.
func (s *service) runOperation(sess *Session, op *entities.Operation, req *pipeline.ExecuteRequest, reconcile func(*pipeline.OperationUpdate)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(sess.ctx, s.cfg.Editor.PollTimeout)
		defer cancel()

		sess.mu.Lock()
		sess.pollCancels[op.ID] = cancel
		sess.mu.Unlock()
		defer func() {
			sess.mu.Lock()
			delete(sess.pollCancels, op.ID)
			sess.mu.Unlock()
		}()

		var accepted *pipeline.OperationUpdate
		submit := func() error {
			update, err := s.pipeline.ExecuteEdit(ctx, req)
			if err != nil {
				return err
			}
			accepted = update
			return nil
		}

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 1 * time.Second
		bo.MaxElapsedTime = 30 * time.Second
		if err := backoff.Retry(submit, backoff.WithContext(bo, ctx)); err != nil {
			s.failOperation(sess, op, fmt.Sprintf("Edit could not be submitted: %v", err))
			return
		}

		sess.mu.Lock()
		op.MarkAsSubmitted(accepted.OperationID)
		sess.mu.Unlock()

		update, err := s.pollUntilTerminal(ctx, sess, op, accepted.OperationID)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			s.failOperation(sess, op, "Edit timed out waiting for the pipeline")
		case err != nil:
			// Local cancellation or session shutdown
			s.settleCancelled(sess, op)
		case update == nil:
			// The pipeline no longer tracks the operation; stop quietly and
			// release the loading markers so the UI does not hang
			s.failOperation(sess, op, "Edit progress was lost by the pipeline")
		default:
			s.finishOperation(sess, op, update, reconcile)
		}
	}()
}

// pollUntilTerminal polls operation progress at a fixed interval, applying
// intermediate progress to the tracked operation, until the pipeline reports
// a terminal status. Returns (nil, nil) when the pipeline forgets the
// operation. Transient poll errors are logged and retried on the next tick.
func (s *service) pollUntilTerminal(ctx context.Context, sess *Session, op *entities.Operation, externalID string) (*pipeline.OperationUpdate, error) {
	ticker := time.NewTicker(s.cfg.Editor.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		update, err := s.pipeline.GetOperation(ctx, externalID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("operation poll failed, retrying",
					zap.String("operation_id", op.ID.String()),
					zap.Error(err),
				)
			}
			continue
		}
		if update == nil {
			return nil, nil
		}

		switch update.Status {
		case entities.OperationStatusQueued, entities.OperationStatusAnalyzing:
			// Not started yet, keep waiting
		case entities.OperationStatusProcessing:
			sess.mu.Lock()
			op.MarkAsProcessing(update.Progress, update.Stage)
			sess.mu.Unlock()
		default:
			return update, nil
		}
	}
}

// finishOperation settles a terminal pipeline update into session state
func (s *service) finishOperation(sess *Session, op *entities.Operation, update *pipeline.OperationUpdate, reconcile func(*pipeline.OperationUpdate)) {
	switch update.Status {
	case entities.OperationStatusCompleted:
		sess.mu.Lock()
		op.MarkAsCompleted(update.Result, update.CreditsUsed)
		if reconcile != nil {
			reconcile(update)
		}
		sess.mu.Unlock()
		s.notify(sess, entities.NotificationLevelSuccess, fmt.Sprintf("%s finished", operationLabel(op.Type)))

	case entities.OperationStatusCancelled:
		s.settleCancelled(sess, op)

	default:
		msg := update.Error
		if msg == "" {
			msg = "edit execution failed"
		}
		s.failOperation(sess, op, fmt.Sprintf("%s failed: %s", operationLabel(op.Type), msg))
	}
}

// failOperation marks the operation failed and releases loading markers on
// its target segments. Optimistic splices are intentionally left in place.
func (s *service) failOperation(sess *Session, op *entities.Operation, message string) {
	sess.mu.Lock()
	op.MarkAsFailed(message)
	s.clearMarkersLocked(sess, op.TargetSegmentIDs)
	sess.mu.Unlock()

	s.notify(sess, entities.NotificationLevelError, message)
}

// settleCancelled marks the operation cancelled and releases loading markers
func (s *service) settleCancelled(sess *Session, op *entities.Operation) {
	sess.mu.Lock()
	alreadyTerminal := op.IsTerminal()
	op.MarkAsCancelled()
	s.clearMarkersLocked(sess, op.TargetSegmentIDs)
	sess.mu.Unlock()

	if !alreadyTerminal {
		s.notify(sess, entities.NotificationLevelInfo, fmt.Sprintf("%s cancelled", operationLabel(op.Type)))
	}
}

// clearMarkersLocked resets generating markers on target segments; callers
// hold sess.mu
func (s *service) clearMarkersLocked(sess *Session, segmentIDs []string) {
	for _, id := range segmentIDs {
		if i := sess.segmentIndex(id); i >= 0 {
			sess.segments[i].ClearGeneratingMarkers()
		}
	}
}

// segmentReconciler patches a segment's derived assets from a completed
// result. Runs under sess.mu. A changed voice duration re-runs the timeline
// recalculation, since narration length is authoritative for segment length.
func (s *service) segmentReconciler(sess *Session, segmentID string, opType entities.OperationType) func(*pipeline.OperationUpdate) {
	return func(update *pipeline.OperationUpdate) {
		res := update.Result
		idx := sess.segmentIndex(segmentID)
		if idx < 0 || res == nil {
			return
		}
		seg := sess.segments[idx]

		switch opType {
		case entities.OperationTypeRegenerateVoice:
			if res.VoiceURL != "" {
				seg.PatchVoice(res.VoiceURL, res.VoiceDuration)
			}
		case entities.OperationTypeRegenerateImage:
			if res.ImageURL != "" {
				seg.PatchImage(res.ImageURL, seg.Image.Prompt)
			}
		case entities.OperationTypeRegenerateCaptions:
			if len(res.Words) > 0 {
				seg.PatchCaptions(res.Words)
			}
		default:
			if res.VoiceURL != "" {
				seg.PatchVoice(res.VoiceURL, res.VoiceDuration)
			}
			if res.ImageURL != "" {
				seg.PatchImage(res.ImageURL, seg.Image.Prompt)
			}
			if len(res.Words) > 0 {
				seg.PatchCaptions(res.Words)
			}
		}

		if res.VoiceDuration > 0 && res.VoiceDuration != seg.Duration {
			seg.Duration = res.VoiceDuration
			r := timeline.Recalculate(sess.segments)
			sess.timeline.TotalDuration = r.TotalDuration
		}
	}
}

// executeResync drives one full stale-asset regeneration pass through the
// pipeline, polling inline so the sync tracker observes the final outcome.
// Locked segments are excluded from regeneration.
func (s *service) executeResync(ctx context.Context, sess *Session, op *entities.Operation, segmentIDs []string) error {
	sess.mu.Lock()
	targets := make([]string, 0, len(segmentIDs))
	for _, id := range segmentIDs {
		if i := sess.segmentIndex(id); i >= 0 && !sess.segments[i].Locked {
			targets = append(targets, id)
		}
	}
	req := s.buildExecuteRequestLocked(sess, entities.OperationTypeResync, map[string]interface{}{
		"segment_ids": targets,
	})
	sess.mu.Unlock()

	if len(targets) == 0 {
		sess.mu.Lock()
		op.MarkAsCompleted(nil, 0)
		sess.mu.Unlock()
		return nil
	}

	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.Editor.PollTimeout)
	defer cancel()

	sess.mu.Lock()
	sess.pollCancels[op.ID] = cancel
	sess.mu.Unlock()
	defer func() {
		sess.mu.Lock()
		delete(sess.pollCancels, op.ID)
		sess.mu.Unlock()
	}()

	var accepted *pipeline.OperationUpdate
	submit := func() error {
		update, err := s.pipeline.ExecuteEdit(pollCtx, req)
		if err != nil {
			return err
		}
		accepted = update
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(submit, backoff.WithContext(bo, pollCtx)); err != nil {
		s.failOperation(sess, op, fmt.Sprintf("Sync regeneration could not be submitted: %v", err))
		return err
	}

	sess.mu.Lock()
	op.MarkAsSubmitted(accepted.OperationID)
	sess.mu.Unlock()

	update, err := s.pollUntilTerminal(pollCtx, sess, op, accepted.OperationID)
	if err != nil {
		s.settleCancelled(sess, op)
		return err
	}
	if update == nil {
		err := fmt.Errorf("pipeline lost track of the sync operation")
		s.failOperation(sess, op, "Sync regeneration progress was lost by the pipeline")
		return err
	}
	if update.Status != entities.OperationStatusCompleted {
		msg := update.Error
		if msg == "" {
			msg = string(update.Status)
		}
		sess.mu.Lock()
		op.MarkAsFailed(msg)
		sess.mu.Unlock()
		return fmt.Errorf("sync regeneration %s", msg)
	}

	sess.mu.Lock()
	for _, id := range targets {
		if i := sess.segmentIndex(id); i >= 0 {
			seg := sess.segments[i]
			seg.PatchVoice(seg.Voice.URL, seg.Voice.Duration)
			seg.PatchCaptions(seg.Captions.Words)
		}
	}
	op.MarkAsCompleted(update.Result, update.CreditsUsed)
	sess.mu.Unlock()
	return nil
}

// operationLabel renders a human-readable operation name for notifications
func operationLabel(t entities.OperationType) string {
	switch t {
	case entities.OperationTypeAddSegment:
		return "Segment addition"
	case entities.OperationTypeRemoveSegment:
		return "Segment removal"
	case entities.OperationTypeRegenerateVoice:
		return "Voice regeneration"
	case entities.OperationTypeRegenerateImage:
		return "Image regeneration"
	case entities.OperationTypeRegenerateCaptions:
		return "Caption regeneration"
	case entities.OperationTypeResync:
		return "Timeline sync"
	default:
		return "Edit"
	}
}
