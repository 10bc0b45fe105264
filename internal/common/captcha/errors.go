// Package captcha verifies CAPTCHA challenge responses against provider
// siteverify endpoints and checks the provider's assertions against caller policy.
package captcha

// Error is a closed set of verification failure kinds. Kinds travel inside a
// Result; Verify never returns them as a Go error.
type Error int

const (
	VerifierNotFound Error = iota + 1
	InvalidSecret
	InvalidPayload
	ConnectionFailed
	VerifierFailed
	InvalidInput
	HostNameMismatch
	ActionMismatch
	RiskThresholdExceeded
	Timeout
)

type errorInfo struct {
	name        string
	code        string
	description string
	reportable  bool
}

var errorTable = map[Error]errorInfo{
	VerifierNotFound:      {"VerifierNotFound", "VERIFIER_NOT_FOUND", "Verifier not found", true},
	InvalidSecret:         {"InvalidSecret", "INVALID_SECRET", "Invalid secret", false},
	InvalidPayload:        {"InvalidPayload", "INVALID_PAYLOAD", "Invalid payload", true},
	ConnectionFailed:      {"ConnectionFailed", "CONNECTION_FAILED", "Connection failed", true},
	VerifierFailed:        {"VerifierFailed", "VERIFIER_FAILED", "Verifier failed", false},
	InvalidInput:          {"InvalidInput", "INVALID_INPUT", "Invalid input", true},
	HostNameMismatch:      {"HostNameMismatch", "HOST_NAME_MISMATCH", "Host name mismatch", true},
	ActionMismatch:        {"ActionMismatch", "ACTION_MISMATCH", "Action mismatch", true},
	RiskThresholdExceeded: {"RiskThresholdExceeded", "RISK_THRESHOLD_EXCEEDED", "Risk threshold exceeded", false},
	Timeout:               {"Timeout", "TIMEOUT", "Timeout", false},
}

// AllErrors lists every kind in declaration order.
func AllErrors() []Error {
	return []Error{
		VerifierNotFound, InvalidSecret, InvalidPayload, ConnectionFailed, VerifierFailed,
		InvalidInput, HostNameMismatch, ActionMismatch, RiskThresholdExceeded, Timeout,
	}
}

// Description is the fixed human readable text for the kind.
func (e Error) Description() string {
	if info, ok := errorTable[e]; ok {
		return info.description
	}
	return "Unknown error"
}

// Reportable marks kinds worth surfacing to operators. Other kinds are the
// expected noise of bots and stale tokens.
func (e Error) Reportable() bool {
	return errorTable[e].reportable
}

// Code is the upper snake case identifier used in job variables and metrics.
func (e Error) Code() string {
	if info, ok := errorTable[e]; ok {
		return info.code
	}
	return "UNKNOWN"
}

func (e Error) String() string {
	if info, ok := errorTable[e]; ok {
		return info.name
	}
	return "Unknown"
}

func (e Error) Error() string {
	return e.Description()
}

func (e Error) MarshalText() ([]byte, error) {
	return []byte(e.Code()), nil
}

// ErrorFromCode is the inverse of Code.
func ErrorFromCode(code string) (Error, bool) {
	for kind, info := range errorTable {
		if info.code == code {
			return kind, true
		}
	}
	return 0, false
}
