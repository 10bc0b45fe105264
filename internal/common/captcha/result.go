package captcha

// Result is the outcome of one verification attempt.
type Result struct {
	payload  *Payload
	response *Response
	errors   []Error

	// verifier names the verifier that produced the result; id is assigned by
	// the Registry.
	verifier string
	id       string
}

// NewResult checks response against the payload policy, appends any mismatch
// to errs and removes duplicates keeping first-seen order.
func NewResult(payload *Payload, response *Response, errs ...Error) *Result {
	if payload == nil {
		payload = NewPayload(PayloadOptions{})
	}

	all := make([]Error, 0, len(errs)+4)
	all = append(all, errs...)

	if payload.ValidateHostName(response.HostName()) == Failed {
		all = append(all, HostNameMismatch)
	}
	if payload.ValidateAction(response.Action()) == Failed {
		all = append(all, ActionMismatch)
	}
	if payload.ValidateScoreThreshold(response.Score()) == Failed {
		all = append(all, RiskThresholdExceeded)
	}
	if payload.ValidateTimeout(response.Timestamp()) == Failed {
		all = append(all, Timeout)
	}

	return &Result{
		payload:  payload,
		response: response,
		errors:   dedupeErrors(all),
	}
}

func dedupeErrors(errs []Error) []Error {
	out := errs[:0]
	seen := make(map[Error]struct{}, len(errs))
	for _, e := range errs {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Verifier is the name of the verifier that produced the result.
func (r *Result) Verifier() string {
	return r.verifier
}

// ID is the verification ID assigned by the Registry, empty otherwise.
func (r *Result) ID() string {
	return r.id
}

func (r *Result) Payload() *Payload {
	return r.payload
}

// Response is nil when the provider never asserted success.
func (r *Result) Response() *Response {
	return r.response
}

func (r *Result) Errors() []Error {
	return append([]Error(nil), r.errors...)
}

func (r *Result) IsValid() bool {
	return len(r.errors) == 0
}

func (r *Result) HasError(kind Error) bool {
	for _, e := range r.errors {
		if e == kind {
			return true
		}
	}
	return false
}

func (r *Result) ReportableErrors() []Error {
	var out []Error
	for _, e := range r.errors {
		if e.Reportable() {
			out = append(out, e)
		}
	}
	return out
}

// ErrorCodes returns Code() of each error in order.
func (r *Result) ErrorCodes() []string {
	codes := make([]string, len(r.errors))
	for i, e := range r.errors {
		codes[i] = e.Code()
	}
	return codes
}
