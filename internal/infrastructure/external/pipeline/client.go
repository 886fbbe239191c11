// Package pipeline wraps the external edit execution capability: the video
// backend that performs segment edits and regenerates voice/image/caption
// assets, reporting asynchronous progress.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/scriptreel/editor/internal/domain/entities"
)

// CompositionSegment is one segment in the composition snapshot sent with
// an edit request
type CompositionSegment struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Duration  float64 `json:"duration"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ExecuteRequest is the payload for submitting an edit to the pipeline
type ExecuteRequest struct {
	ProjectID          string                 `json:"project_id"`
	UserID             string                 `json:"user_id"`
	CurrentComposition []CompositionSegment   `json:"current_composition"`
	EditType           entities.OperationType `json:"edit_type"`
	EditData           map[string]interface{} `json:"edit_data,omitempty"`
}

// OperationUpdate is the pipeline's view of an operation, returned on
// submission and by every progress poll
type OperationUpdate struct {
	OperationID string                    `json:"operation_id"`
	Status      entities.OperationStatus  `json:"status"`
	Progress    int                       `json:"progress"`
	Stage       string                    `json:"stage,omitempty"`
	CreditsUsed int                       `json:"credits_used,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Result      *entities.OperationResult `json:"result,omitempty"`
}

// Client wraps pipeline operations
type Client interface {
	// ExecuteEdit submits an edit and returns the accepted operation
	ExecuteEdit(ctx context.Context, req *ExecuteRequest) (*OperationUpdate, error)
	// GetOperation polls operation progress; (nil, nil) means the pipeline
	// does not know the operation, which callers treat as non-fatal
	GetOperation(ctx context.Context, operationID string) (*OperationUpdate, error)
	// CancelOperation requests cancellation, best-effort
	CancelOperation(ctx context.Context, operationID string) error
}

// realClient is the real pipeline client implementation
type realClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a pipeline client. With useMock the client simulates
// operations locally so no real pipeline backend is needed.
func NewClient(baseURL, apiKey string, useMock bool) Client {
	if useMock {
		return newMockClient()
	}
	return &realClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ExecuteEdit submits an edit request to the pipeline
func (c *realClient) ExecuteEdit(ctx context.Context, req *ExecuteRequest) (*OperationUpdate, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/edits", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pipeline returned status %d", resp.StatusCode)
	}

	var update OperationUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		return nil, err
	}
	if update.OperationID == "" {
		return nil, fmt.Errorf("pipeline response missing operation_id")
	}
	return &update, nil
}

// GetOperation fetches current progress for an operation
func (c *realClient) GetOperation(ctx context.Context, operationID string) (*OperationUpdate, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/operations/"+operationID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pipeline returned status %d", resp.StatusCode)
	}

	var update OperationUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}

// CancelOperation asks the pipeline to cancel an operation
func (c *realClient) CancelOperation(ctx context.Context, operationID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/operations/"+operationID+"/cancel", nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("pipeline returned status %d", resp.StatusCode)
	}
	return nil
}
