package errors

// ErrorCode identifies application error categories in API responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1004

	// Session
	ErrorCode_SESSION_NOT_FOUND ErrorCode = 2000
	ErrorCode_SESSION_CLOSED    ErrorCode = 2001

	// Segment
	ErrorCode_SEGMENT_NOT_FOUND ErrorCode = 3000
	ErrorCode_SEGMENT_LOCKED    ErrorCode = 3001

	// Decision
	ErrorCode_DECISION_NOT_FOUND ErrorCode = 4000
	ErrorCode_DECISION_EXPIRED   ErrorCode = 4001
	ErrorCode_UNKNOWN_STRATEGY   ErrorCode = 4002

	// Operation
	ErrorCode_OPERATION_NOT_FOUND ErrorCode = 5000
	ErrorCode_EXECUTION_FAILED    ErrorCode = 5001

	// Sync
	ErrorCode_SYNC_NOT_REQUIRED ErrorCode = 6000
	ErrorCode_SYNC_IN_PROGRESS  ErrorCode = 6001
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:             "OK",
	ErrorCode_INTERNAL:            "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:    "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:           "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:      "ALREADY_EXISTS",
	ErrorCode_INVALID_PAYLOAD:     "INVALID_PAYLOAD",
	ErrorCode_SESSION_NOT_FOUND:   "SESSION_NOT_FOUND",
	ErrorCode_SESSION_CLOSED:      "SESSION_CLOSED",
	ErrorCode_SEGMENT_NOT_FOUND:   "SEGMENT_NOT_FOUND",
	ErrorCode_SEGMENT_LOCKED:      "SEGMENT_LOCKED",
	ErrorCode_DECISION_NOT_FOUND:  "DECISION_NOT_FOUND",
	ErrorCode_DECISION_EXPIRED:    "DECISION_EXPIRED",
	ErrorCode_UNKNOWN_STRATEGY:    "UNKNOWN_STRATEGY",
	ErrorCode_OPERATION_NOT_FOUND: "OPERATION_NOT_FOUND",
	ErrorCode_EXECUTION_FAILED:    "EXECUTION_FAILED",
	ErrorCode_SYNC_NOT_REQUIRED:   "SYNC_NOT_REQUIRED",
	ErrorCode_SYNC_IN_PROGRESS:    "SYNC_IN_PROGRESS",
}

// String returns the symbolic name for the error code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
