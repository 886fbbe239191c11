package editor

import "time"

// AssetResponse is the generation state of one derived asset
type AssetResponse struct {
	URL      string  `json:"url,omitempty"`
	Prompt   string  `json:"prompt,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Status   string  `json:"status"`
}

// WordResponse is one caption word timing
type WordResponse struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SegmentResponse represents one segment on the timeline
type SegmentResponse struct {
	ID        string         `json:"id"`
	Index     int            `json:"index"`
	Text      string         `json:"text"`
	StartTime float64        `json:"start_time"`
	EndTime   float64        `json:"end_time"`
	Duration  float64        `json:"duration"`
	Voice     AssetResponse  `json:"voice"`
	Image     AssetResponse  `json:"image"`
	Captions  []WordResponse `json:"captions,omitempty"`
	CaptionsStatus string    `json:"captions_status"`
	Status    string         `json:"status"`
	Locked    bool           `json:"locked"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TimelineResponse represents the timeline view state
type TimelineResponse struct {
	Playhead      float64  `json:"playhead"`
	Playing       bool     `json:"playing"`
	Zoom          float64  `json:"zoom"`
	ViewStart     float64  `json:"view_start"`
	ViewEnd       float64  `json:"view_end"`
	Selection     []string `json:"selection"`
	Mode          string   `json:"mode"`
	TotalDuration float64  `json:"total_duration"`
}

// SyncResponse represents the sync tracker state
type SyncResponse struct {
	Status          string   `json:"status"`
	StaleSegmentIDs []string `json:"stale_segment_ids"`
}

// StrategyResponse represents one candidate execution strategy
type StrategyResponse struct {
	StrategyID              string   `json:"strategy_id"`
	Name                    string   `json:"name"`
	Description             string   `json:"description,omitempty"`
	CreditsRequired         int      `json:"credits_required"`
	ProcessingTimeSeconds   int      `json:"processing_time_seconds"`
	AffectedSegmentIDs      []string `json:"affected_segment_ids,omitempty"`
	PreservesCustomizations bool     `json:"preserves_customizations"`
	QualityImpact           string   `json:"quality_impact"`
	TechnicalDetails        string   `json:"technical_details,omitempty"`
}

// AnalysisResponse represents the impact analysis for an edit
type AnalysisResponse struct {
	OperationScope              string             `json:"operation_scope"`
	AffectedSegmentIDs          []string           `json:"affected_segment_ids"`
	RequiresUserChoice          bool               `json:"requires_user_choice"`
	TimelineRecalculationNeeded bool               `json:"timeline_recalculation_needed"`
	EstimatedCreditsMin         int                `json:"estimated_credits_min"`
	EstimatedCreditsMax         int                `json:"estimated_credits_max"`
	Strategies                  []StrategyResponse `json:"strategies"`
	RecommendedStrategyID       string             `json:"recommended_strategy_id"`
	Reasoning                   string             `json:"reasoning,omitempty"`
}

// DecisionResponse represents a pending strategy decision
type DecisionResponse struct {
	ID        string            `json:"id"`
	Intent    string            `json:"intent"`
	Analysis  *AnalysisResponse `json:"analysis"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// OperationResponse represents a tracked asynchronous operation
type OperationResponse struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Progress         int        `json:"progress"`
	Stage            string     `json:"stage,omitempty"`
	CreditsUsed      int        `json:"credits_used"`
	TargetSegmentIDs []string   `json:"target_segment_ids,omitempty"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// SessionResponse represents the full state of an editing session
type SessionResponse struct {
	SessionID        string              `json:"session_id"`
	ProjectID        string              `json:"project_id"`
	Segments         []SegmentResponse   `json:"segments"`
	Timeline         TimelineResponse    `json:"timeline"`
	Sync             SyncResponse        `json:"sync"`
	Operations       []OperationResponse `json:"operations"`
	PendingDecisions []DecisionResponse  `json:"pending_decisions"`
}

// EditOutcomeResponse represents the result of a structural edit request
type EditOutcomeResponse struct {
	Applied   bool               `json:"applied"`
	Decision  *DecisionResponse  `json:"decision,omitempty"`
	Analysis  *AnalysisResponse  `json:"analysis,omitempty"`
	Segment   *SegmentResponse   `json:"segment,omitempty"`
	Operation *OperationResponse `json:"operation,omitempty"`
}

// NotificationResponse represents one drained toast notification
type NotificationResponse struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
