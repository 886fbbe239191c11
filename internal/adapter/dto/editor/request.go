package editor

// SeedSegmentRequest is one initial segment in a session creation request
type SeedSegmentRequest struct {
	Text          string        `json:"text" validate:"required,min=1,max=2000"`
	Duration      float64       `json:"duration" validate:"omitempty,gte=0"`
	VoiceURL      string        `json:"voice_url,omitempty" validate:"omitempty,url"`
	VoiceDuration float64       `json:"voice_duration,omitempty" validate:"omitempty,gte=0"`
	ImageURL      string        `json:"image_url,omitempty" validate:"omitempty,url"`
	ImagePrompt   string        `json:"image_prompt,omitempty" validate:"omitempty,max=1000"`
	Words         []WordRequest `json:"words,omitempty" validate:"omitempty,dive"`
	Locked        bool          `json:"locked,omitempty"`
}

// WordRequest is one caption word timing in a seed segment
type WordRequest struct {
	Word       string  `json:"word" validate:"required"`
	Start      float64 `json:"start" validate:"gte=0"`
	End        float64 `json:"end" validate:"gte=0"`
	Confidence float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// CreateSessionRequest represents the request to open an editing session
type CreateSessionRequest struct {
	ProjectID string               `json:"project_id" validate:"required"`
	UserID    string               `json:"user_id" validate:"required"`
	Segments  []SeedSegmentRequest `json:"segments" validate:"omitempty,dive"`
}

// AddSegmentRequest represents the request to insert a new segment
type AddSegmentRequest struct {
	AfterSegmentID *string `json:"after_segment_id,omitempty"`
	Text           string  `json:"text" validate:"required,min=1,max=2000"`
}

// UpdateSegmentTextRequest represents the request to replace a segment's text
type UpdateSegmentTextRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// SplitSegmentRequest represents the request to split a segment at a
// timeline position
type SplitSegmentRequest struct {
	AtTime float64 `json:"at_time" validate:"gte=0"`
}

// ReorderSegmentsRequest represents the request to move a segment
type ReorderSegmentsRequest struct {
	FromIndex int `json:"from_index" validate:"min=0"`
	ToIndex   int `json:"to_index" validate:"min=0"`
}

// RegenerateAssetRequest represents the request to regenerate one derived
// asset of a segment
type RegenerateAssetRequest struct {
	Asset        string `json:"asset" validate:"required,oneof=voice image captions"`
	CustomPrompt string `json:"custom_prompt,omitempty" validate:"omitempty,max=1000"`
}

// ConfirmDecisionRequest represents the strategy choice for a pending edit
type ConfirmDecisionRequest struct {
	StrategyID string `json:"strategy_id" validate:"required"`
}

// UpdateTimelineRequest represents a partial timeline view-state update
type UpdateTimelineRequest struct {
	Playhead  *float64  `json:"playhead,omitempty" validate:"omitempty,gte=0"`
	Playing   *bool     `json:"playing,omitempty"`
	Zoom      *float64  `json:"zoom,omitempty" validate:"omitempty,gt=0"`
	ViewStart *float64  `json:"view_start,omitempty" validate:"omitempty,gte=0"`
	ViewEnd   *float64  `json:"view_end,omitempty" validate:"omitempty,gte=0"`
	Selection *[]string `json:"selection,omitempty"`
	Mode      *string   `json:"mode,omitempty" validate:"omitempty,oneof=select trim split drag"`
}
