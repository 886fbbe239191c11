package presenter

import (
	"github.com/scriptreel/editor/internal/adapter/dto/editor"
	"github.com/scriptreel/editor/internal/domain/entities"
	editorUsecase "github.com/scriptreel/editor/internal/usecase/editor"
)

// ToSegmentResponse converts a segment entity to its response DTO
func ToSegmentResponse(s *entities.Segment) editor.SegmentResponse {
	words := make([]editor.WordResponse, 0, len(s.Captions.Words))
	for _, w := range s.Captions.Words {
		words = append(words, editor.WordResponse{
			Word:       w.Word,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Confidence,
		})
	}

	return editor.SegmentResponse{
		ID:        s.ID,
		Index:     s.Index,
		Text:      s.Text,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Duration:  s.Duration,
		Voice: editor.AssetResponse{
			URL:      s.Voice.URL,
			Duration: s.Voice.Duration,
			Status:   string(s.Voice.Status),
		},
		Image: editor.AssetResponse{
			URL:    s.Image.URL,
			Prompt: s.Image.Prompt,
			Status: string(s.Image.Status),
		},
		Captions:       words,
		CaptionsStatus: string(s.Captions.Status),
		Status:         string(s.Status),
		Locked:         s.Locked,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToAnalysisResponse converts an impact analysis to its response DTO
func ToAnalysisResponse(a *entities.ImpactAnalysis) *editor.AnalysisResponse {
	if a == nil {
		return nil
	}

	strategies := make([]editor.StrategyResponse, 0, len(a.Strategies))
	for _, s := range a.Strategies {
		strategies = append(strategies, editor.StrategyResponse{
			StrategyID:              s.ID,
			Name:                    s.Name,
			Description:             s.Description,
			CreditsRequired:         s.CreditsRequired,
			ProcessingTimeSeconds:   s.ProcessingTimeSeconds,
			AffectedSegmentIDs:      s.AffectedSegmentIDs,
			PreservesCustomizations: s.PreservesCustomizations,
			QualityImpact:           string(s.QualityImpact),
			TechnicalDetails:        s.TechnicalDetails,
		})
	}

	return &editor.AnalysisResponse{
		OperationScope:              string(a.Scope),
		AffectedSegmentIDs:          a.AffectedSegmentIDs,
		RequiresUserChoice:          a.RequiresUserChoice,
		TimelineRecalculationNeeded: a.TimelineRecalculationNeeded,
		EstimatedCreditsMin:         a.EstimatedCredits.Min,
		EstimatedCreditsMax:         a.EstimatedCredits.Max,
		Strategies:                  strategies,
		RecommendedStrategyID:       a.RecommendedStrategyID,
		Reasoning:                   a.Reasoning,
	}
}

// ToDecisionResponse converts a pending decision to its response DTO
func ToDecisionResponse(d *editorUsecase.PendingDecision) *editor.DecisionResponse {
	if d == nil {
		return nil
	}
	return &editor.DecisionResponse{
		ID:        d.ID.String(),
		Intent:    string(d.Intent),
		Analysis:  ToAnalysisResponse(d.Analysis),
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

// ToOperationResponse converts an operation entity to its response DTO
func ToOperationResponse(op *entities.Operation) *editor.OperationResponse {
	if op == nil {
		return nil
	}

	errMsg := ""
	if op.Error != nil {
		errMsg = *op.Error
	}
	return &editor.OperationResponse{
		ID:               op.ID.String(),
		Type:             string(op.Type),
		Status:           string(op.Status),
		Progress:         op.Progress,
		Stage:            op.Stage,
		CreditsUsed:      op.CreditsUsed,
		TargetSegmentIDs: op.TargetSegmentIDs,
		Error:            errMsg,
		CreatedAt:        op.CreatedAt,
		CompletedAt:      op.CompletedAt,
	}
}

// ToSessionResponse converts a session snapshot to its response DTO
func ToSessionResponse(snap *editorUsecase.Snapshot) *editor.SessionResponse {
	segments := make([]editor.SegmentResponse, 0, len(snap.Segments))
	for _, s := range snap.Segments {
		segments = append(segments, ToSegmentResponse(s))
	}

	operations := make([]editor.OperationResponse, 0, len(snap.Operations))
	for i := range snap.Operations {
		operations = append(operations, *ToOperationResponse(&snap.Operations[i]))
	}

	decisions := make([]editor.DecisionResponse, 0, len(snap.Decisions))
	for i := range snap.Decisions {
		decisions = append(decisions, *ToDecisionResponse(&snap.Decisions[i]))
	}

	return &editor.SessionResponse{
		SessionID: snap.SessionID.String(),
		ProjectID: snap.ProjectID,
		Segments:  segments,
		Timeline: editor.TimelineResponse{
			Playhead:      snap.Timeline.Playhead,
			Playing:       snap.Timeline.Playing,
			Zoom:          snap.Timeline.Zoom,
			ViewStart:     snap.Timeline.ViewStart,
			ViewEnd:       snap.Timeline.ViewEnd,
			Selection:     snap.Timeline.Selection,
			Mode:          string(snap.Timeline.Mode),
			TotalDuration: snap.Timeline.TotalDuration,
		},
		Sync: editor.SyncResponse{
			Status:          string(snap.SyncStatus),
			StaleSegmentIDs: snap.StaleSegmentIDs,
		},
		Operations:       operations,
		PendingDecisions: decisions,
	}
}

// ToEditOutcomeResponse converts an edit outcome to its response DTO
func ToEditOutcomeResponse(outcome *editorUsecase.EditOutcome) *editor.EditOutcomeResponse {
	resp := &editor.EditOutcomeResponse{
		Applied:   outcome.Applied,
		Decision:  ToDecisionResponse(outcome.Decision),
		Analysis:  ToAnalysisResponse(outcome.Analysis),
		Operation: ToOperationResponse(outcome.Operation),
	}
	if outcome.Segment != nil {
		seg := ToSegmentResponse(outcome.Segment)
		resp.Segment = &seg
	}
	return resp
}

// ToNotificationResponses converts drained notifications to response DTOs
func ToNotificationResponses(notes []entities.Notification) []editor.NotificationResponse {
	out := make([]editor.NotificationResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, editor.NotificationResponse{
			ID:        n.ID.String(),
			Level:     string(n.Level),
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
