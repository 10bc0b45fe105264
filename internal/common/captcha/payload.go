package captcha

import (
	"math"
	"net/http"
	"net/netip"
	"sync"
	"time"
)

// DefaultAction is what Payload.Action reports when no action was set.
const DefaultAction = "default"

// Check is the outcome of a single policy check. Only Failed produces an error.
type Check int

const (
	Indeterminate Check = iota
	Passed
	Failed
)

func (c Check) String() string {
	switch c {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "indeterminate"
	}
}

func checkOf(ok bool) Check {
	if ok {
		return Passed
	}
	return Failed
}

// PayloadOptions describes one verification attempt.
type PayloadOptions struct {
	VerifierName string
	Values       map[string]interface{}

	// IP, when it parses, wins over IPSources and Request.
	IP        string
	IPSources IPSources
	Request   *http.Request

	HostNames      []string
	Action         string
	ScoreThreshold *float64
	// Timeout is the maximum age in seconds of the provider's challenge timestamp.
	Timeout int
}

// Payload is the per-attempt request context: submitted values, client IP and
// the acceptance policy the provider's assertions are checked against.
// A Payload must not be copied.
type Payload struct {
	verifierName   string
	values         map[string]interface{}
	hostNames      []string
	action         *string
	scoreThreshold *float64
	timeout        *int

	ipSources IPSources
	ipOnce    sync.Once
	ip        netip.Addr

	now func() time.Time
}

func NewPayload(opts PayloadOptions) *Payload {
	p := &Payload{
		verifierName: opts.VerifierName,
		values:       make(map[string]interface{}, len(opts.Values)),
		hostNames:    PrepareHostNames(opts.HostNames...),
		ipSources:    opts.IPSources,
		now:          time.Now,
	}
	for k, v := range opts.Values {
		p.values[k] = v
	}
	if opts.Request != nil {
		p.ipSources = IPSourcesFromRequest(opts.Request)
	}
	if opts.IP != "" {
		if addr, err := netip.ParseAddr(opts.IP); err == nil {
			p.ip = addr
			p.ipOnce.Do(func() {})
		}
	}
	if opts.Action != "" {
		p.SetAction(opts.Action)
	}
	p.SetScoreThreshold(opts.ScoreThreshold)
	p.SetTimeout(opts.Timeout)
	return p
}

func (p *Payload) VerifierName() string {
	return p.verifierName
}

// Values returns a copy of the submitted values.
func (p *Payload) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Value looks up a submitted value. A key bound to nil counts as absent.
func (p *Payload) Value(name string) (interface{}, bool) {
	v, ok := p.values[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// IP resolves the client address on first use and caches it.
func (p *Payload) IP() netip.Addr {
	p.ipOnce.Do(func() {
		p.ip = p.ipSources.Resolve()
	})
	return p.ip
}

func (p *Payload) HostNames() []string {
	return append([]string(nil), p.hostNames...)
}

func (p *Payload) SetHostNames(names ...string) {
	p.hostNames = PrepareHostNames(names...)
}

func (p *Payload) Action() string {
	if p.action == nil {
		return DefaultAction
	}
	return *p.action
}

// SetAction sets the expected action; an empty string restores the default.
func (p *Payload) SetAction(action string) {
	if action == "" {
		p.action = nil
		return
	}
	p.action = &action
}

func (p *Payload) ScoreThreshold() (float64, bool) {
	if p.scoreThreshold == nil {
		return 0, false
	}
	return *p.scoreThreshold, true
}

// SetScoreThreshold clamps threshold into [0,1]; nil removes the check.
func (p *Payload) SetScoreThreshold(threshold *float64) {
	if threshold == nil {
		p.scoreThreshold = nil
		return
	}
	v := Clamp(*threshold)
	p.scoreThreshold = &v
}

func (p *Payload) Timeout() (int, bool) {
	if p.timeout == nil {
		return 0, false
	}
	return *p.timeout, true
}

// SetTimeout sets the staleness limit in seconds; values <= 0 remove it.
func (p *Payload) SetTimeout(seconds int) {
	if seconds <= 0 {
		p.timeout = nil
		return
	}
	p.timeout = &seconds
}

// ValidateHostName checks hostName against the allow-list after normalization.
func (p *Payload) ValidateHostName(hostName *string) Check {
	if hostName == nil || len(p.hostNames) == 0 {
		return Indeterminate
	}
	candidate := PrepareHostName(*hostName)
	for _, allowed := range p.hostNames {
		if allowed == candidate {
			return Passed
		}
	}
	return Failed
}

func (p *Payload) ValidateAction(action *string) Check {
	if action == nil {
		return Indeterminate
	}
	return checkOf(*action == p.Action())
}

// ValidateTimeout passes when the challenge is at most Timeout seconds old.
func (p *Payload) ValidateTimeout(timestamp *int64) Check {
	if timestamp == nil || p.timeout == nil {
		return Indeterminate
	}
	age := p.now().Unix() - *timestamp
	return checkOf(age <= int64(*p.timeout))
}

// ValidateScoreThreshold passes when score is strictly below the threshold.
// Scores here are risk-like: lower is better.
func (p *Payload) ValidateScoreThreshold(score *float64) Check {
	if score == nil || p.scoreThreshold == nil {
		return Indeterminate
	}
	return checkOf(*score < *p.scoreThreshold)
}

// Clamp limits v to [0,1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
