package captchaverify

import (
	"context"
	"time"

	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/logger"
	"captcha-workers/internal/common/observability"
)

type Input struct {
	Verifier       string                 `json:"verifier,omitempty" mapstructure:"verifier"`
	Values         map[string]interface{} `json:"values" mapstructure:"values"`
	Action         string                 `json:"action,omitempty" mapstructure:"action"`
	ScoreThreshold *float64               `json:"scoreThreshold,omitempty" mapstructure:"scoreThreshold"`
	Timeout        int                    `json:"timeout,omitempty" mapstructure:"timeout"`
	ClientIP       string                 `json:"clientIp,omitempty" mapstructure:"clientIp"`
	ForwardedFor   string                 `json:"forwardedFor,omitempty" mapstructure:"forwardedFor"`
	RemoteAddr     string                 `json:"remoteAddr,omitempty" mapstructure:"remoteAddr"`
	HostNames      []string               `json:"hostNames,omitempty" mapstructure:"hostNames"`
}

type Output struct {
	Valid          bool        `json:"valid"`
	VerificationID string      `json:"verificationId"`
	Verifier       string      `json:"verifier"`
	Errors         []string    `json:"errors"`
	ErrorMessages  []string    `json:"errorMessages"`
	Reportable     bool        `json:"reportable"`
	HostName       *string     `json:"hostName,omitempty"`
	Action         *string     `json:"action,omitempty"`
	Score          *float64    `json:"score,omitempty"`
	RawScore       interface{} `json:"rawScore,omitempty"`
	ChallengeTs    string      `json:"challengeTs,omitempty"`
}

// ToVariables renders the output as process variables. Provider assertions
// that were absent are left out rather than set to null.
func (o *Output) ToVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"valid":          o.Valid,
		"verificationId": o.VerificationID,
		"verifier":       o.Verifier,
		"errors":         nonNil(o.Errors),
		"errorMessages":  nonNil(o.ErrorMessages),
		"reportable":     o.Reportable,
	}
	if o.HostName != nil {
		vars["hostName"] = *o.HostName
	}
	if o.Action != nil {
		vars["action"] = *o.Action
	}
	if o.Score != nil {
		vars["score"] = *o.Score
	}
	if o.RawScore != nil {
		vars["rawScore"] = o.RawScore
	}
	if o.ChallengeTs != "" {
		vars["challengeTs"] = o.ChallengeTs
	}
	return vars
}

// NewOutput flattens a verification result.
func NewOutput(result *captcha.Result) *Output {
	errs := result.Errors()
	out := &Output{
		Valid:          result.IsValid(),
		VerificationID: result.ID(),
		Verifier:       result.Verifier(),
		Errors:         make([]string, 0, len(errs)),
		ErrorMessages:  make([]string, 0, len(errs)),
		Reportable:     len(result.ReportableErrors()) > 0,
	}
	for _, e := range errs {
		out.Errors = append(out.Errors, e.Code())
		out.ErrorMessages = append(out.ErrorMessages, e.Description())
	}

	if resp := result.Response(); resp != nil {
		out.HostName = resp.HostName()
		out.Action = resp.Action()
		out.Score = resp.Score()
		out.RawScore = resp.RawScore()
		if ts := resp.Time(); !ts.IsZero() {
			out.ChallengeTs = ts.UTC().Format(time.RFC3339)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type ServiceDependencies struct {
	Registry      *captcha.Registry
	Observability *observability.Observability
	Logger        logger.Logger
}

// executor is the handler's view of the service.
type executor interface {
	Execute(ctx context.Context, input *Input) (*Output, error)
}
