package captcha

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Descriptions(t *testing.T) {
	want := map[Error]string{
		VerifierNotFound:      "Verifier not found",
		InvalidSecret:         "Invalid secret",
		InvalidPayload:        "Invalid payload",
		ConnectionFailed:      "Connection failed",
		VerifierFailed:        "Verifier failed",
		InvalidInput:          "Invalid input",
		HostNameMismatch:      "Host name mismatch",
		ActionMismatch:        "Action mismatch",
		RiskThresholdExceeded: "Risk threshold exceeded",
		Timeout:               "Timeout",
	}
	require.Len(t, AllErrors(), len(want))
	for kind, desc := range want {
		assert.Equal(t, desc, kind.Description())
		assert.Equal(t, desc, kind.Error())
	}
}

func TestError_Reportable(t *testing.T) {
	reportable := map[Error]bool{
		VerifierNotFound: true,
		InvalidPayload:   true,
		ConnectionFailed: true,
		InvalidInput:     true,
		HostNameMismatch: true,
		ActionMismatch:   true,
	}
	for _, kind := range AllErrors() {
		assert.Equal(t, reportable[kind], kind.Reportable(), kind.String())
	}
}

func TestError_CodeRoundTrip(t *testing.T) {
	for _, kind := range AllErrors() {
		got, ok := ErrorFromCode(kind.Code())
		require.True(t, ok)
		assert.Equal(t, kind, got)
	}
	_, ok := ErrorFromCode("NOPE")
	assert.False(t, ok)

	out, err := json.Marshal([]Error{HostNameMismatch, Timeout})
	require.NoError(t, err)
	assert.JSONEq(t, `["HOST_NAME_MISMATCH","TIMEOUT"]`, string(out))
}

func TestNewResult_NoResponse(t *testing.T) {
	p := NewPayload(PayloadOptions{HostNames: []string{"example.com"}, ScoreThreshold: ptr(0.5), Timeout: 10})

	valid := NewResult(p, nil)
	assert.True(t, valid.IsValid())
	assert.Empty(t, valid.Errors())
	assert.Nil(t, valid.Response())

	invalid := NewResult(p, nil, InvalidPayload)
	assert.False(t, invalid.IsValid())
	assert.Equal(t, []Error{InvalidPayload}, invalid.Errors())
}

func TestNewResult_DedupesKeepingOrder(t *testing.T) {
	p := NewPayload(PayloadOptions{HostNames: []string{"example.com"}})
	resp := NewResponse(ResponseFields{HostName: ptr("evil.com")})

	r := NewResult(p, resp, InvalidPayload)
	assert.Equal(t, []Error{InvalidPayload, HostNameMismatch}, r.Errors())

	r = NewResult(p, resp, InvalidPayload, HostNameMismatch, InvalidPayload)
	assert.Equal(t, []Error{InvalidPayload, HostNameMismatch}, r.Errors())
}

func TestNewResult_AllMismatches(t *testing.T) {
	now := time.Now()
	p := NewPayload(PayloadOptions{
		HostNames:      []string{"example.com"},
		Action:         "login",
		ScoreThreshold: ptr(0.5),
		Timeout:        60,
	})
	old := now.Add(-time.Hour)
	resp := NewResponse(ResponseFields{
		HostName:     ptr("other.com"),
		Action:       ptr("signup"),
		Score:        ptr(0.8),
		ChallengedAt: &old,
	})

	r := NewResult(p, resp)
	assert.Equal(t, []Error{HostNameMismatch, ActionMismatch, RiskThresholdExceeded, Timeout}, r.Errors())
	assert.False(t, r.IsValid())
	assert.True(t, r.HasError(Timeout))
	assert.Equal(t, []Error{HostNameMismatch, ActionMismatch}, r.ReportableErrors())
	assert.Equal(t, []string{"HOST_NAME_MISMATCH", "ACTION_MISMATCH", "RISK_THRESHOLD_EXCEEDED", "TIMEOUT"}, r.ErrorCodes())
}

func TestNewResult_IndeterminateNeverAddsErrors(t *testing.T) {
	p := NewPayload(PayloadOptions{})
	resp := NewResponse(ResponseFields{HostName: ptr("anything"), Score: ptr(1.0)})
	assert.True(t, NewResult(p, resp).IsValid())
}

func TestNewResult_ErrorsCopy(t *testing.T) {
	r := NewResult(NewPayload(PayloadOptions{}), nil, InvalidInput)
	errs := r.Errors()
	errs[0] = Timeout
	assert.Equal(t, []Error{InvalidInput}, r.Errors())
}

func TestResponse_Accessors(t *testing.T) {
	var nilResp *Response
	assert.Nil(t, nilResp.HostName())
	assert.Nil(t, nilResp.Score())
	assert.True(t, nilResp.Time().IsZero())

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := NewResponse(ResponseFields{ChallengedAt: &ts, RawScore: "0.7"})
	require.NotNil(t, resp.Timestamp())
	assert.Equal(t, ts.Unix(), *resp.Timestamp())
	assert.Equal(t, ts, resp.Time())
	assert.Equal(t, "0.7", resp.RawScore())

	explicit := NewResponse(ResponseFields{Timestamp: ptr(int64(42)), ChallengedAt: &ts})
	assert.Equal(t, int64(42), *explicit.Timestamp())
}
