package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Error(t *testing.T) {
	err := NewVerifierDisabledError("Recaptcha")
	assert.Equal(t, "StandardError[VERIFIER_DISABLED]: Verifier Recaptcha is not enabled", err.Error())
	assert.Equal(t, "Recaptcha", err.Metadata["verifier"])
	assert.False(t, err.Retryable)
}

func TestAsStandardError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewVerifierNotFoundError("Turnstile"))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeVerifierNotFound, stdErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeVerifierNotFound))
	assert.False(t, HasCode(stderrors.New("plain"), ErrCodeVerifierNotFound))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"not found", NewVerifierNotFoundError("x"), "CAPTCHA_VERIFIER_NOT_FOUND", 0},
		{"disabled shares code", NewVerifierDisabledError("x"), "CAPTCHA_VERIFIER_NOT_FOUND", 0},
		{"settings store retryable", NewSettingsStoreFailedError(stderrors.New("dial")), "CAPTCHA_SETTINGS_UNAVAILABLE", 3},
		{"timeout", NewJobTimeoutError("captcha.verify", stderrors.New("deadline")), "CAPTCHA_TIMEOUT", 2},
		{"unmapped falls back to code", NewInternalError(stderrors.New("x")), "INTERNAL_ERROR", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(0), RemainingRetries(0, 3))
	assert.Equal(t, int32(0), RemainingRetries(1, 3))
	assert.Equal(t, int32(2), RemainingRetries(3, 3))
	assert.Equal(t, int32(3), RemainingRetries(10, 3))
}

func TestNormalize(t *testing.T) {
	std := NewInvalidInputError("values is required")
	assert.Same(t, std, Normalize(std))

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VERIFIER", GetErrorCategory(ErrCodeVerifierNotFound))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeSettingsStoreFailed))
	assert.Equal(t, "EXTERNAL", GetErrorCategory(ErrCodeProviderUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
