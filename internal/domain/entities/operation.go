package entities

import (
	"time"

	"github.com/google/uuid"
)

// OperationStatus represents the status of an asynchronous edit operation
type OperationStatus string

const (
	OperationStatusQueued     OperationStatus = "queued"     // Accepted, not started yet
	OperationStatusAnalyzing  OperationStatus = "analyzing"  // Impact analysis in progress
	OperationStatusProcessing OperationStatus = "processing" // Pipeline is executing the edit
	OperationStatusCompleted  OperationStatus = "completed"  // Terminal: assets ready
	OperationStatusFailed     OperationStatus = "failed"     // Terminal: execution failed
	OperationStatusCancelled  OperationStatus = "cancelled"  // Terminal: cancel confirmed
)

// OperationType represents the kind of edit an operation executes
type OperationType string

const (
	OperationTypeAddSegment         OperationType = "add_segment"
	OperationTypeRemoveSegment      OperationType = "remove_segment"
	OperationTypeRegenerateVoice    OperationType = "regenerate_voice"
	OperationTypeRegenerateImage    OperationType = "regenerate_image"
	OperationTypeRegenerateCaptions OperationType = "regenerate_captions"
	OperationTypeResync             OperationType = "resync"
	OperationTypeExport             OperationType = "export"
)

// OperationResult carries the final asset URLs reported by the pipeline
type OperationResult struct {
	SegmentID     string       `json:"segment_id,omitempty"`
	VoiceURL      string       `json:"voice_url,omitempty"`
	VoiceDuration float64      `json:"voice_duration,omitempty"`
	ImageURL      string       `json:"image_url,omitempty"`
	Words         []WordTiming `json:"words,omitempty"`
}

// Operation is a tracked unit of asynchronous work against the edit
// execution capability. It is created when a strategy is executed, mutated
// only by polling responses, and never leaves a terminal status.
type Operation struct {
	ID               uuid.UUID        `json:"id"`
	SessionID        uuid.UUID        `json:"session_id"`
	ExternalID       *string          `json:"external_id,omitempty"` // Pipeline operation id (nullable)
	Type             OperationType    `json:"type"`
	Status           OperationStatus  `json:"status"`
	Progress         int              `json:"progress"` // 0-100
	Stage            string           `json:"stage,omitempty"`
	CreditsUsed      int              `json:"credits_used"`
	TargetSegmentIDs []string         `json:"target_segment_ids,omitempty"`
	Result           *OperationResult `json:"result,omitempty"`
	Error            *string          `json:"error,omitempty"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewOperation creates a queued operation
func NewOperation(sessionID uuid.UUID, opType OperationType, targetSegmentIDs []string) *Operation {
	now := time.Now()
	return &Operation{
		ID:               uuid.New(),
		SessionID:        sessionID,
		Type:             opType,
		Status:           OperationStatusQueued,
		TargetSegmentIDs: targetSegmentIDs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// MarkAsSubmitted records the pipeline operation id once the edit request
// is accepted by the execution capability
func (o *Operation) MarkAsSubmitted(externalID string) {
	o.ExternalID = &externalID
	now := time.Now()
	o.StartedAt = &now
	o.UpdatedAt = now
}

// IsTerminal reports whether the operation has reached a final status
func (o *Operation) IsTerminal() bool {
	return o.Status == OperationStatusCompleted ||
		o.Status == OperationStatusFailed ||
		o.Status == OperationStatusCancelled
}

// MarkAsProcessing records pipeline progress from a polling response
func (o *Operation) MarkAsProcessing(progress int, stage string) {
	if o.IsTerminal() {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	o.Status = OperationStatusProcessing
	o.Progress = progress
	o.Stage = stage
	if o.StartedAt == nil {
		now := time.Now()
		o.StartedAt = &now
	}
	o.UpdatedAt = time.Now()
}

// MarkAsCompleted marks the operation completed with its final result
func (o *Operation) MarkAsCompleted(result *OperationResult, creditsUsed int) {
	if o.IsTerminal() {
		return
	}
	o.Status = OperationStatusCompleted
	o.Progress = 100
	o.Result = result
	o.CreditsUsed = creditsUsed
	now := time.Now()
	o.CompletedAt = &now
	o.UpdatedAt = now
}

// MarkAsFailed marks the operation failed with an error message
func (o *Operation) MarkAsFailed(errMsg string) {
	if o.IsTerminal() {
		return
	}
	o.Status = OperationStatusFailed
	o.Error = &errMsg
	now := time.Now()
	o.CompletedAt = &now
	o.UpdatedAt = now
}

// MarkAsCancelled marks the operation cancelled
func (o *Operation) MarkAsCancelled() {
	if o.IsTerminal() {
		return
	}
	o.Status = OperationStatusCancelled
	now := time.Now()
	o.CompletedAt = &now
	o.UpdatedAt = now
}
