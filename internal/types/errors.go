package types

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// CommandResponse acknowledges an accepted machine command.
type CommandResponse struct {
	Command    string `json:"command"`
	State      string `json:"state"`
	SequenceID string `json:"sequence_id,omitempty"`
}

// Error codes used across the REST API.
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeNotFound              = "NOT_FOUND"
	CodeTypeMismatch          = "TYPE_MISMATCH"
	CodeForbidden             = "FORBIDDEN"
	CodeInvalidCommand        = "INVALID_COMMAND"
	CodeBusy                  = "BUSY"
	CodeInsufficientResources = "INSUFFICIENT_RESOURCES"
	CodeUnavailable           = "UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)
