package captchaverify

import "captcha-workers/internal/common/validation"

// InputVariables are fetched from the process instance for each job.
var InputVariables = []string{
	"verifier", "values", "action", "scoreThreshold", "timeout",
	"clientIp", "forwardedFor", "remoteAddr", "hostNames",
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"values"},
		Properties: map[string]validation.Property{
			"verifier": {
				Type:        "string",
				Description: "Verifier name, empty for the first enabled verifier",
				MaxLength:   validation.IntPtr(64),
			},
			"values": {
				Type:        "object",
				Description: "Submitted form values, including the provider response token",
			},
			"action": {
				Type:        "string",
				Description: "Expected action",
				MaxLength:   validation.IntPtr(100),
			},
			"scoreThreshold": {
				Type:        "number",
				Description: "Risk score must stay below this value",
				Minimum:     validation.FloatPtr(0),
				Maximum:     validation.FloatPtr(1),
			},
			"timeout": {
				Type:        "integer",
				Description: "Maximum age of the challenge in seconds",
				Minimum:     validation.FloatPtr(0),
			},
			"clientIp": {
				Type:        "string",
				Description: "Client IP address, wins over the header sources",
				MaxLength:   validation.IntPtr(45),
			},
			"forwardedFor": {
				Type:        "string",
				Description: "Raw X-Forwarded-For header",
				MaxLength:   validation.IntPtr(2048),
			},
			"remoteAddr": {
				Type:        "string",
				Description: "Peer address of the inbound request",
				MaxLength:   validation.IntPtr(64),
			},
			"hostNames": {
				Type:        "array",
				Description: "Extra allowed host names for this verification",
				Items:       &validation.Property{Type: "string"},
			},
		},
		AdditionalProperties: false,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"valid", "verificationId", "verifier", "errors", "errorMessages", "reportable"},
		Properties: map[string]validation.Property{
			"valid": {
				Type:        "boolean",
				Description: "Whether the challenge response was accepted",
			},
			"verificationId": {
				Type:        "string",
				Description: "Identifier of this verification in logs",
			},
			"verifier": {
				Type:        "string",
				Description: "Verifier that produced the result",
			},
			"errors": {
				Type:        "array",
				Description: "Error codes",
				Items:       &validation.Property{Type: "string"},
			},
			"errorMessages": {
				Type:        "array",
				Description: "Error descriptions in the same order as errors",
				Items:       &validation.Property{Type: "string"},
			},
			"reportable": {
				Type:        "boolean",
				Description: "Whether any error is worth surfacing to operators",
			},
			"hostName": {
				Type:        "string",
				Description: "Host name asserted by the provider",
			},
			"action": {
				Type:        "string",
				Description: "Action asserted by the provider",
			},
			"score": {
				Type:        "number",
				Description: "Normalized risk score, higher is riskier",
			},
			"rawScore": {
				Description: "Score as returned by the provider",
			},
			"challengeTs": {
				Type:        "string",
				Description: "Challenge time in RFC 3339",
			},
		},
		AdditionalProperties: false,
	}
}
