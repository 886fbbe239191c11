package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/scriptreel/editor/internal/domain/entities"
)

// mockClient simulates the pipeline locally. Every operation advances one
// step per progress poll and completes on the third poll with deterministic
// asset URLs, so development and tests run without a pipeline backend.
type mockClient struct {
	mu  sync.Mutex
	ops map[string]*mockOperation
}

type mockOperation struct {
	update    OperationUpdate
	polls     int
	segmentID string
	editType  entities.OperationType
}

func newMockClient() *mockClient {
	return &mockClient{ops: make(map[string]*mockOperation)}
}

func (m *mockClient) ExecuteEdit(ctx context.Context, req *ExecuteRequest) (*OperationUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	segmentID, _ := req.EditData["segment_id"].(string)

	op := &mockOperation{
		update: OperationUpdate{
			OperationID: id,
			Status:      entities.OperationStatusQueued,
			Stage:       "queued",
		},
		segmentID: segmentID,
		editType:  req.EditType,
	}
	m.ops[id] = op

	update := op.update
	return &update, nil
}

func (m *mockClient) GetOperation(ctx context.Context, operationID string) (*OperationUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.ops[operationID]
	if !ok {
		return nil, nil
	}

	if op.update.Status == entities.OperationStatusQueued ||
		op.update.Status == entities.OperationStatusProcessing {
		op.polls++
		switch {
		case op.polls == 1:
			op.update.Status = entities.OperationStatusProcessing
			op.update.Progress = 40
			op.update.Stage = "generating_voice"
		case op.polls == 2:
			op.update.Progress = 80
			op.update.Stage = "generating_captions"
		default:
			op.update.Status = entities.OperationStatusCompleted
			op.update.Progress = 100
			op.update.Stage = "done"
			op.update.CreditsUsed = 5
			op.update.Result = mockResult(op.segmentID, op.editType)
		}
	}

	update := op.update
	if op.update.Result != nil {
		res := *op.update.Result
		update.Result = &res
	}
	return &update, nil
}

func (m *mockClient) CancelOperation(ctx context.Context, operationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.ops[operationID]
	if !ok {
		return fmt.Errorf("unknown operation %s", operationID)
	}
	if op.update.Status == entities.OperationStatusQueued ||
		op.update.Status == entities.OperationStatusProcessing {
		op.update.Status = entities.OperationStatusCancelled
		op.update.Stage = "cancelled"
	}
	return nil
}

func mockResult(segmentID string, editType entities.OperationType) *entities.OperationResult {
	res := &entities.OperationResult{SegmentID: segmentID}
	switch editType {
	case entities.OperationTypeRegenerateImage:
		res.ImageURL = fmt.Sprintf("https://assets.mock/images/%s.png", segmentID)
	case entities.OperationTypeRegenerateVoice:
		res.VoiceURL = fmt.Sprintf("https://assets.mock/voice/%s.mp3", segmentID)
		res.VoiceDuration = 3.0
	case entities.OperationTypeRegenerateCaptions:
		res.Words = mockWords()
	default:
		res.VoiceURL = fmt.Sprintf("https://assets.mock/voice/%s.mp3", segmentID)
		res.VoiceDuration = 3.0
		res.ImageURL = fmt.Sprintf("https://assets.mock/images/%s.png", segmentID)
		res.Words = mockWords()
	}
	return res
}

func mockWords() []entities.WordTiming {
	return []entities.WordTiming{
		{Word: "hello", Start: 0, End: 0.4, Confidence: 0.98},
		{Word: "world", Start: 0.4, End: 0.9, Confidence: 0.97},
	}
}
