package entities

// OperationScope classifies the blast radius of an edit
type OperationScope string

const (
	ScopeIsolated          OperationScope = "isolated"
	ScopeAdjacentSegments  OperationScope = "adjacent_segments"
	ScopeFullTimeline      OperationScope = "full_timeline"
	ScopeAudioReprocessing OperationScope = "audio_reprocessing"
)

// QualityImpact is the qualitative quality cost of a strategy
type QualityImpact string

const (
	QualityImpactNone        QualityImpact = "none"
	QualityImpactMinor       QualityImpact = "minor"
	QualityImpactModerate    QualityImpact = "moderate"
	QualityImpactSignificant QualityImpact = "significant"
)

// Strategy is an immutable candidate way of fulfilling an edit, with its
// cost/time/quality tradeoffs. Strategies come ranked; the first is the
// system's recommendation.
type Strategy struct {
	ID                      string        `json:"strategy_id"`
	Name                    string        `json:"name"`
	Description             string        `json:"description"`
	CreditsRequired         int           `json:"credits_required"`
	ProcessingTimeSeconds   int           `json:"processing_time_seconds"`
	AffectedSegmentIDs      []string      `json:"affected_segment_ids,omitempty"`
	PreservesCustomizations bool          `json:"preserves_customizations"`
	QualityImpact           QualityImpact `json:"quality_impact"`
	TechnicalDetails        string        `json:"technical_details,omitempty"`
}

// CreditsRange is the estimated credit cost bracket for an edit
type CreditsRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ImpactAnalysis is the scope classification and ranked strategy set
// returned for an edit intent
type ImpactAnalysis struct {
	Scope                       OperationScope `json:"operation_scope"`
	AffectedSegmentIDs          []string       `json:"affected_segment_ids"`
	RequiresUserChoice          bool           `json:"requires_user_choice"`
	VoiceContinuityImpact       string         `json:"voice_continuity_impact,omitempty"`
	NarrativeCoherenceImpact    string         `json:"narrative_coherence_impact,omitempty"`
	TimelineRecalculationNeeded bool           `json:"timeline_recalculation_needed"`
	EstimatedCredits            CreditsRange   `json:"estimated_credits_range"`
	Strategies                  []Strategy     `json:"strategies"`
	RecommendedStrategyID       string         `json:"recommended_strategy_id"`
	Reasoning                   string         `json:"reasoning,omitempty"`
}

// Strategy returns the strategy with the given id, or nil
func (a *ImpactAnalysis) Strategy(id string) *Strategy {
	for i := range a.Strategies {
		if a.Strategies[i].ID == id {
			return &a.Strategies[i]
		}
	}
	return nil
}

// Recommended returns the recommended strategy. The gateway guarantees the
// recommendation always resolves to a strategy in the list.
func (a *ImpactAnalysis) Recommended() *Strategy {
	if s := a.Strategy(a.RecommendedStrategyID); s != nil {
		return s
	}
	if len(a.Strategies) > 0 {
		return &a.Strategies[0]
	}
	return nil
}
