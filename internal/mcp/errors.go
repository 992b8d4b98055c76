package mcp

import (
	"errors"
	"fmt"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, encounter.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "ENCOUNTER_NOT_FOUND", Message: "encounter not found or expired", RecoveryHint: "Start a new encounter"}
	// ErrLimitReached is an ErrSessionEnded variant; match it first.
	case errors.Is(err, encounter.ErrLimitReached):
		return &APIError{Code: "LIMIT_REACHED", Message: "encounter closed by its turn or time limit", RecoveryHint: "Call get_feedback for results"}
	case errors.Is(err, encounter.ErrSessionEnded):
		return &APIError{Code: "ENCOUNTER_ENDED", Message: "encounter already ended", RecoveryHint: "Call get_feedback for results"}
	case errors.Is(err, encounter.ErrSessionActive):
		return &APIError{Code: "ENCOUNTER_ACTIVE", Message: "encounter still active", RecoveryHint: "Call end_encounter first"}
	case errors.Is(err, encounter.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", RecoveryHint: "Check the tool arguments"}
	case errors.Is(err, clinicalcase.ErrCaseNotFound):
		return &APIError{Code: "CASE_NOT_FOUND", Message: "case not found", RecoveryHint: "Call list_cases for available case IDs"}
	case errors.Is(err, clinicalcase.ErrInvalidCase):
		return &APIError{Code: "INVALID_CASE", Message: "case definition is invalid"}
	default:
		return nil
	}
}

// toolError converts a domain error into the error returned to the MCP
// client, preserving the code and recovery hint where one maps.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
