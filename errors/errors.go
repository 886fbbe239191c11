package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the custom error type for the application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid request payload",
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Session Errors
func ErrSessionNotFound(sessionID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SESSION_NOT_FOUND,
		Message:  "Editing session not found",
	}.WithDetail("session_id", sessionID)
}

func ErrSessionClosed(sessionID string) AppError {
	return AppError{
		HTTPCode: http.StatusGone,
		Code:     ErrorCode_SESSION_CLOSED,
		Message:  "Editing session has been closed",
	}.WithDetail("session_id", sessionID)
}

// Segment Errors
func ErrSegmentNotFound(segmentID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SEGMENT_NOT_FOUND,
		Message:  "Segment not found",
	}.WithDetail("segment_id", segmentID)
}

func ErrSegmentLocked(segmentID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SEGMENT_LOCKED,
		Message:  "Segment is locked and cannot be modified",
	}.WithDetail("segment_id", segmentID)
}

// Decision Errors
func ErrDecisionNotFound(decisionID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_DECISION_NOT_FOUND,
		Message:  "Pending decision not found",
	}.WithDetail("decision_id", decisionID)
}

func ErrDecisionExpired(decisionID string) AppError {
	return AppError{
		HTTPCode: http.StatusGone,
		Code:     ErrorCode_DECISION_EXPIRED,
		Message:  "Pending decision has expired",
	}.WithDetail("decision_id", decisionID)
}

func ErrUnknownStrategy(strategyID string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_UNKNOWN_STRATEGY,
		Message:  "Strategy is not part of this decision",
	}.WithDetail("strategy_id", strategyID)
}

// Operation Errors
func ErrOperationNotFound(operationID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_OPERATION_NOT_FOUND,
		Message:  "Operation not found",
	}.WithDetail("operation_id", operationID)
}

func ErrExecutionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_EXECUTION_FAILED,
		Message:  "Edit execution request failed",
	}
}

// Sync Errors
func ErrSyncNotRequired() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SYNC_NOT_REQUIRED,
		Message:  "Timeline is already in sync",
	}
}

func ErrSyncInProgress() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SYNC_IN_PROGRESS,
		Message:  "A sync regeneration is already running",
	}
}
