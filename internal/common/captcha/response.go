package captcha

import "time"

// ResponseFields carries the normalized provider assertions used to build a Response.
type ResponseFields struct {
	HostName *string
	Action   *string
	// Timestamp is unix seconds. ChallengedAt is used when Timestamp is nil.
	Timestamp    *int64
	ChallengedAt *time.Time
	Score        *float64
	RawScore     interface{}
}

// Response is a provider's assertion about a previously issued challenge.
// Accessors are nil safe and return copies.
type Response struct {
	hostName  *string
	action    *string
	timestamp *int64
	score     *float64
	rawScore  interface{}
}

func NewResponse(f ResponseFields) *Response {
	r := &Response{
		hostName: copyString(f.HostName),
		action:   copyString(f.Action),
		score:    copyFloat(f.Score),
		rawScore: f.RawScore,
	}
	switch {
	case f.Timestamp != nil:
		ts := *f.Timestamp
		r.timestamp = &ts
	case f.ChallengedAt != nil && !f.ChallengedAt.IsZero():
		ts := f.ChallengedAt.Unix()
		r.timestamp = &ts
	}
	return r
}

func (r *Response) HostName() *string {
	if r == nil {
		return nil
	}
	return copyString(r.hostName)
}

func (r *Response) Action() *string {
	if r == nil {
		return nil
	}
	return copyString(r.action)
}

func (r *Response) Timestamp() *int64 {
	if r == nil || r.timestamp == nil {
		return nil
	}
	ts := *r.timestamp
	return &ts
}

// Time is Timestamp as a UTC time, zero when absent.
func (r *Response) Time() time.Time {
	ts := r.Timestamp()
	if ts == nil {
		return time.Time{}
	}
	return time.Unix(*ts, 0).UTC()
}

// Score is the normalized risk score in [0,1].
func (r *Response) Score() *float64 {
	if r == nil {
		return nil
	}
	return copyFloat(r.score)
}

// RawScore is the provider's own value, kept for diagnostics.
func (r *Response) RawScore() interface{} {
	if r == nil {
		return nil
	}
	return r.rawScore
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
