package model

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// ErrorCode is the closed set of failure kinds every agent error is
// classified into.
type ErrorCode string

const (
	// ErrCodeValidation is an input or schema violation
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeExternalService is an upstream API or network failure
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeProcessing is an internal transformation failure
	ErrCodeProcessing ErrorCode = "PROCESSING_ERROR"
	// ErrCodeConfiguration is a missing required collaborator at construction
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
)

// goerr tags used to classify failures raised inside the pipeline
var (
	ErrTagValidation      = goerr.NewTag("validation")
	ErrTagExternalService = goerr.NewTag("external_service")
	ErrTagProcessing      = goerr.NewTag("processing")
	ErrTagConfiguration   = goerr.NewTag("configuration")
)

// AgentError is the uniform error carried by a failed AgentResult.
// It is immutable once constructed and preserves the original cause.
type AgentError struct {
	Message string         `json:"message"`
	Code    ErrorCode      `json:"code"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

// NewAgentError creates an AgentError wrapping cause. Details may be nil.
func NewAgentError(code ErrorCode, message string, cause error, details map[string]any) *AgentError {
	return &AgentError{
		Message: message,
		Code:    code,
		Details: details,
		cause:   cause,
	}
}

func (e *AgentError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As
func (e *AgentError) Unwrap() error {
	return e.cause
}
