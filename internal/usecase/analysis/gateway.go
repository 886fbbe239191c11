// Package analysis classifies the blast radius of an edit before it is
// applied, delegating scoring to an LLM-backed capability and degrading to
// a deterministic conservative default when that capability is unavailable.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scriptreel/editor/internal/domain/entities"
	"github.com/scriptreel/editor/internal/infrastructure/cache"
)

// CompletionClient is the LLM capability behind impact analysis
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// contextWindowRadius bounds how many segments around the edit point are
// sent to the analysis capability
const contextWindowRadius = 2

// Gateway wraps the impact-analysis capability. Its analyze methods never
// fail: any transport or schema error falls back to a conservative default
// so the editing UI is never blocked by AI-service unavailability.
type Gateway struct {
	client         CompletionClient
	store          *cache.AnalysisStore
	validate       *validator.Validate
	logger         *zap.Logger
	defaultCredits int
}

// NewGateway creates an impact-analysis gateway. The store is optional;
// when set, identical edit requests reuse the cached classification instead
// of re-billing the capability.
func NewGateway(client CompletionClient, store *cache.AnalysisStore, logger *zap.Logger, defaultCredits int) *Gateway {
	if defaultCredits <= 0 {
		defaultCredits = 5
	}
	return &Gateway{
		client:         client,
		store:          store,
		validate:       validator.New(),
		logger:         logger,
		defaultCredits: defaultCredits,
	}
}

// contextSegment is the bounded per-segment context sent to the capability
type contextSegment struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

// analysisRequest is the request shape for the impact-analysis capability
type analysisRequest struct {
	ContextSegments   []contextSegment `json:"contextSegments"`
	EditDescription   string           `json:"editDescription"`
	InsertionPosition *int             `json:"insertionPosition,omitempty"`
}

// strategyResponse mirrors one ranked strategy in the capability response
type strategyResponse struct {
	StrategyID              string   `json:"strategy_id" validate:"required"`
	Name                    string   `json:"name" validate:"required"`
	Description             string   `json:"description"`
	CreditsRequired         int      `json:"credits_required" validate:"min=0"`
	ProcessingTimeSeconds   int      `json:"processing_time_seconds" validate:"min=0"`
	QualityImpact           string   `json:"quality_impact" validate:"required,oneof=none minor moderate significant"`
	PreservesCustomizations bool     `json:"preserves_customizations"`
	TechnicalDetails        string   `json:"technical_details"`
	AffectedSegmentIDs      []string `json:"affected_segment_ids"`
}

// analysisResponse is the fixed schema the capability must satisfy
type analysisResponse struct {
	OperationScope              string             `json:"operation_scope" validate:"required,oneof=isolated adjacent_segments full_timeline audio_reprocessing"`
	AffectedSegmentIDs          []string           `json:"affected_segment_ids"`
	RequiresUserChoice          bool               `json:"requires_user_choice"`
	VoiceContinuityImpact       string             `json:"voice_continuity_impact" validate:"omitempty,oneof=none low medium high"`
	NarrativeCoherenceImpact    string             `json:"narrative_coherence_impact" validate:"omitempty,oneof=none low medium high"`
	TimelineRecalculationNeeded bool               `json:"timeline_recalculation_needed"`
	EstimatedCreditsRange       struct {
		Min int `json:"min" validate:"min=0"`
		Max int `json:"max" validate:"min=0"`
	} `json:"estimated_credits_range"`
	RecommendedStrategies []strategyResponse `json:"recommended_strategies" validate:"required,min=1,dive"`
	Reasoning             string             `json:"reasoning"`
}

// AnalyzeAddition classifies the impact of inserting a new segment after
// afterID (nil appends at the end). Never returns nil or fails.
func (g *Gateway) AnalyzeAddition(ctx context.Context, segments []*entities.Segment, afterID *string, newText string) *entities.ImpactAnalysis {
	insertAt := len(segments)
	if afterID != nil {
		for i, s := range segments {
			if s.ID == *afterID {
				insertAt = i + 1
				break
			}
		}
	}

	req := analysisRequest{
		ContextSegments:   contextWindow(segments, insertAt),
		EditDescription:   fmt.Sprintf("Insert a new segment at position %d with text: %q", insertAt, newText),
		InsertionPosition: &insertAt,
	}
	return g.analyze(ctx, req)
}

// AnalyzeRemoval classifies the impact of removing the given segment.
// Never returns nil or fails.
func (g *Gateway) AnalyzeRemoval(ctx context.Context, segments []*entities.Segment, segmentID string) *entities.ImpactAnalysis {
	at := -1
	var removed *entities.Segment
	for i, s := range segments {
		if s.ID == segmentID {
			at = i
			removed = s
			break
		}
	}
	if at == -1 {
		// Unknown segment: nothing to classify, treat as isolated
		return g.fallback()
	}

	req := analysisRequest{
		ContextSegments: contextWindow(segments, at),
		EditDescription: fmt.Sprintf("Remove the segment at position %d with text: %q", at, removed.Text),
	}
	return g.analyze(ctx, req)
}

func (g *Gateway) analyze(ctx context.Context, req analysisRequest) *entities.ImpactAnalysis {
	prompt, err := buildPrompt(req)
	if err != nil {
		return g.fallbackWarn("failed to build analysis prompt", err)
	}

	key := entities.TextFingerprint(prompt)
	if g.store != nil {
		if cached, ok := g.store.Get(key); ok {
			return cached
		}
	}

	content, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return g.fallbackWarn("analysis capability call failed", err)
	}

	var resp analysisResponse
	if err := json.Unmarshal([]byte(extractJSON(content)), &resp); err != nil {
		return g.fallbackWarn("analysis response is not valid JSON", err)
	}
	if err := g.validate.Struct(&resp); err != nil {
		return g.fallbackWarn("analysis response violates schema", err)
	}

	result := convert(&resp)
	// Only genuine classifications are cached; fallbacks should retry the
	// capability next time
	if g.store != nil {
		g.store.Set(key, result)
	}
	return result
}

// convert maps the validated capability response to the domain model. The
// first ranked strategy becomes the recommendation, so the recommended id
// always refers to a strategy present in the list.
func convert(resp *analysisResponse) *entities.ImpactAnalysis {
	strategies := make([]entities.Strategy, 0, len(resp.RecommendedStrategies))
	for _, s := range resp.RecommendedStrategies {
		strategies = append(strategies, entities.Strategy{
			ID:                      s.StrategyID,
			Name:                    s.Name,
			Description:             s.Description,
			CreditsRequired:         s.CreditsRequired,
			ProcessingTimeSeconds:   s.ProcessingTimeSeconds,
			AffectedSegmentIDs:      s.AffectedSegmentIDs,
			PreservesCustomizations: s.PreservesCustomizations,
			QualityImpact:           entities.QualityImpact(s.QualityImpact),
			TechnicalDetails:        s.TechnicalDetails,
		})
	}

	return &entities.ImpactAnalysis{
		Scope:                       entities.OperationScope(resp.OperationScope),
		AffectedSegmentIDs:          resp.AffectedSegmentIDs,
		RequiresUserChoice:          resp.RequiresUserChoice,
		VoiceContinuityImpact:       resp.VoiceContinuityImpact,
		NarrativeCoherenceImpact:    resp.NarrativeCoherenceImpact,
		TimelineRecalculationNeeded: resp.TimelineRecalculationNeeded,
		EstimatedCredits: entities.CreditsRange{
			Min: resp.EstimatedCreditsRange.Min,
			Max: resp.EstimatedCreditsRange.Max,
		},
		Strategies:            strategies,
		RecommendedStrategyID: strategies[0].ID,
		Reasoning:             resp.Reasoning,
	}
}

func (g *Gateway) fallbackWarn(msg string, err error) *entities.ImpactAnalysis {
	if g.logger != nil {
		g.logger.Warn(msg, zap.Error(err))
	}
	return g.fallback()
}

// fallback is the deterministic conservative default: an isolated edit with
// a single modest strategy and no user choice required
func (g *Gateway) fallback() *entities.ImpactAnalysis {
	strategy := entities.Strategy{
		ID:                      "isolated_patch",
		Name:                    "Isolated regeneration",
		Description:             "Regenerate only the edited segment and rebase the timeline locally",
		CreditsRequired:         g.defaultCredits,
		ProcessingTimeSeconds:   30,
		PreservesCustomizations: true,
		QualityImpact:           entities.QualityImpactMinor,
	}
	return &entities.ImpactAnalysis{
		Scope:                       entities.ScopeIsolated,
		AffectedSegmentIDs:          []string{},
		RequiresUserChoice:          false,
		TimelineRecalculationNeeded: true,
		EstimatedCredits:            entities.CreditsRange{Min: g.defaultCredits, Max: g.defaultCredits},
		Strategies:                  []entities.Strategy{strategy},
		RecommendedStrategyID:       strategy.ID,
		Reasoning:                   "analysis service unavailable, conservative default applied",
	}
}

// contextWindow returns up to contextWindowRadius segments on each side of
// the edit point
func contextWindow(segments []*entities.Segment, at int) []contextSegment {
	lo := at - contextWindowRadius
	if lo < 0 {
		lo = 0
	}
	hi := at + contextWindowRadius
	if hi > len(segments) {
		hi = len(segments)
	}

	window := make([]contextSegment, 0, hi-lo)
	for _, s := range segments[lo:hi] {
		window = append(window, contextSegment{Text: s.Text, Duration: s.Duration})
	}
	return window
}

// buildPrompt renders the analysis request plus the fixed decision rubric
func buildPrompt(req analysisRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are the edit impact analyzer for a script-to-video editor.\n")
	b.WriteString("Given the edit request below, classify its blast radius and rank execution strategies.\n\n")
	b.WriteString("Edit request:\n")
	b.Write(payload)
	b.WriteString("\n\nRespond with a single JSON object with these fields:\n")
	b.WriteString(`- operation_scope: one of "isolated", "adjacent_segments", "full_timeline", "audio_reprocessing"` + "\n")
	b.WriteString("- affected_segment_ids: ids of segments whose assets need regeneration\n")
	b.WriteString("- requires_user_choice: true when strategies differ enough that the user should pick\n")
	b.WriteString(`- voice_continuity_impact and narrative_coherence_impact: one of "none", "low", "medium", "high"` + "\n")
	b.WriteString("- timeline_recalculation_needed: whether segment timings must be rebased\n")
	b.WriteString("- estimated_credits_range: {min, max}\n")
	b.WriteString("- recommended_strategies: ranked list (best first), each with strategy_id, name, description,\n")
	b.WriteString("  credits_required, processing_time_seconds, quality_impact (none/minor/moderate/significant),\n")
	b.WriteString("  preserves_customizations, technical_details\n")
	b.WriteString("- reasoning: one short paragraph\n")
	return b.String(), nil
}
