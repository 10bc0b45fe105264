// Package errors provides standardized error handling for BPMN workflow integration.
//
// Expected verification failures never reach this package: they are carried as
// captcha.Error kinds inside a captcha.Result. StandardError is reserved for
// misuse and infrastructure faults (unknown verifier, bad configuration, invalid
// job input, broker or settings store outages).
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeVerifierNotFound ErrorCode = "VERIFIER_NOT_FOUND"
	ErrCodeVerifierDisabled ErrorCode = "VERIFIER_DISABLED"
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	ErrCodeSettingsStoreFailed ErrorCode = "SETTINGS_STORE_FAILED"
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeJobTimeout          ErrorCode = "JOB_TIMEOUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the error with an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError unwraps err into a StandardError when one is present in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewVerifierNotFoundError is returned when no verifier is registered under name.
func NewVerifierNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerifierNotFound,
		Message:   fmt.Sprintf("Verifier %s could not be found", name),
		Retryable: false,
		Metadata:  map[string]interface{}{"verifier": name},
		Timestamp: time.Now().UTC(),
	}
}

// NewVerifierDisabledError is returned when settings explicitly disable a verifier.
func NewVerifierDisabledError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerifierDisabled,
		Message:   fmt.Sprintf("Verifier %s is not enabled", name),
		Retryable: false,
		Metadata:  map[string]interface{}{"verifier": name},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidConfigError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidConfig,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSettingsStoreFailedError wraps a settings backend fault; callers may retry.
func NewSettingsStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSettingsStoreFailed,
		Message:   "Verifier settings store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewProviderUnavailableError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   fmt.Sprintf("Provider '%s' unavailable", provider),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewJobTimeoutError(taskType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobTimeout,
		Message:   fmt.Sprintf("Job '%s' timed out", taskType),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeVerifierNotFound:    "CAPTCHA_VERIFIER_NOT_FOUND",
	ErrCodeVerifierDisabled:    "CAPTCHA_VERIFIER_NOT_FOUND",
	ErrCodeInvalidConfig:       "CAPTCHA_CONFIG_INVALID",
	ErrCodeInvalidInput:        "CAPTCHA_INPUT_INVALID",
	ErrCodeSettingsStoreFailed: "CAPTCHA_SETTINGS_UNAVAILABLE",
	ErrCodeProviderUnavailable: "CAPTCHA_PROVIDER_UNAVAILABLE",
	ErrCodeJobTimeout:          "CAPTCHA_TIMEOUT",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSettingsStoreFailed, ErrCodeProviderUnavailable:
		return 3
	case ErrCodeJobTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VERIFIER"):
		return "VERIFIER"
	case strings.Contains(codeStr, "SETTINGS") || strings.Contains(codeStr, "CONFIG"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "TIMEOUT"):
		return "EXTERNAL"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
