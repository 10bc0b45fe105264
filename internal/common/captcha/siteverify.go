package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cast"

	httpclient "captcha-workers/internal/common/http"
	"captcha-workers/internal/common/logger"
	"captcha-workers/internal/common/metrics"
)

// DefaultHTTPTimeout applies to the HTTP client built when none is supplied.
const DefaultHTTPTimeout = 10 * time.Second

// Poster is the outbound HTTP capability SiteVerify needs.
type Poster interface {
	PostForm(ctx context.Context, endpoint string, form url.Values) (*httpclient.Response, error)
}

type SiteVerifyOptions struct {
	SiteKey string
	Secret  string
	// VerifyURL and ScriptURL override the provider defaults when set.
	VerifyURL string
	ScriptURL string
	Client    Poster
	Logger    logger.Logger
}

// SiteVerify verifies tokens against a provider's siteverify endpoint.
type SiteVerify struct {
	provider  Provider
	siteKey   string
	secret    string
	verifyURL string
	scriptURL string
	client    Poster
	logger    logger.Logger
}

func NewSiteVerify(provider Provider, opts SiteVerifyOptions) *SiteVerify {
	v := &SiteVerify{
		provider:  provider,
		siteKey:   opts.SiteKey,
		secret:    opts.Secret,
		verifyURL: provider.VerifyURL,
		scriptURL: provider.ScriptURL,
		client:    opts.Client,
		logger:    opts.Logger,
	}
	if opts.VerifyURL != "" {
		v.verifyURL = opts.VerifyURL
	}
	if opts.ScriptURL != "" {
		v.scriptURL = opts.ScriptURL
	}
	if v.client == nil {
		v.client = httpclient.NewClient(DefaultHTTPTimeout)
	}
	if v.logger == nil {
		v.logger = logger.NewNoOpLogger()
	}
	v.logger = v.logger.With(map[string]interface{}{"verifier": provider.Name})
	return v
}

func NewRecaptcha(opts SiteVerifyOptions) *SiteVerify {
	return NewSiteVerify(Recaptcha, opts)
}

func NewHCaptcha(opts SiteVerifyOptions) *SiteVerify {
	return NewSiteVerify(HCaptcha, opts)
}

func (v *SiteVerify) Name() string {
	return v.provider.Name
}

func (v *SiteVerify) Provider() Provider {
	return v.provider
}

func (v *SiteVerify) SiteKey() string {
	return v.siteKey
}

func (v *SiteVerify) DataKeys() []string {
	return []string{v.provider.ResponseField}
}

func (v *SiteVerify) ComponentData() map[string]interface{} {
	return map[string]interface{}{"siteKey": v.siteKey}
}

func (v *SiteVerify) PrepareAssets(assets AssetCollector) {
	assets.AddHeadScript(Script{
		Src:      v.scriptURL,
		Async:    true,
		Defer:    true,
		Nonce:    assets.Nonce(),
		Priority: 10,
	})
	assets.SetContent(NewElement("div", map[string]string{
		"class":        v.provider.ClientKey,
		"data-sitekey": v.siteKey,
	}))
}

// String omits the secret so the verifier can be printed or logged.
func (v *SiteVerify) String() string {
	return fmt.Sprintf("%s(siteKey=%s)", v.provider.Name, v.siteKey)
}

func (v *SiteVerify) GoString() string {
	return v.String()
}

func (v *SiteVerify) Verify(ctx context.Context, payload *Payload) *Result {
	result := v.verify(ctx, payload)
	result.verifier = v.provider.Name
	return result
}

func (v *SiteVerify) verify(ctx context.Context, payload *Payload) *Result {
	token, ok := payload.Value(v.provider.ResponseField)
	if !ok {
		v.logger.Debug("Captcha response field missing", map[string]interface{}{
			"field": v.provider.ResponseField,
		})
		return NewResult(payload, nil, InvalidPayload)
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {cast.ToString(token)},
		"remoteip": {payload.IP().String()},
	}

	start := time.Now()
	resp, err := v.client.PostForm(ctx, v.verifyURL, form)
	if err != nil {
		metrics.ObserveProviderRequest(v.provider.Name, "transport_error", time.Since(start))
		v.logger.Warn("Siteverify request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return NewResult(payload, nil, ConnectionFailed)
	}
	metrics.ObserveProviderRequest(v.provider.Name, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("Siteverify returned non-OK status", map[string]interface{}{
			"statusCode": resp.StatusCode,
		})
		return NewResult(payload, nil, classifyStatus(resp.StatusCode))
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		v.logger.Warn("Siteverify returned an unreadable body", map[string]interface{}{
			"error": err.Error(),
		})
		return NewResult(payload, nil, VerifierFailed)
	}

	if !cast.ToBool(data["success"]) {
		codes := errorCodes(data["error-codes"])
		if len(codes) == 0 {
			v.logger.Warn("Siteverify rejected the token without error codes", nil)
		}
		errs := make([]Error, 0, len(codes))
		for _, code := range codes {
			errs = append(errs, classifyErrorCode(code))
		}
		return NewResult(payload, nil, errs...)
	}

	return NewResult(payload, v.createResponse(data))
}

func (v *SiteVerify) createResponse(data map[string]interface{}) *Response {
	var f ResponseFields
	if s, ok := stringField(data, "hostname"); ok {
		f.HostName = &s
	}
	if s, ok := stringField(data, "action"); ok {
		f.Action = &s
	}
	if ts, ok := timeField(data, "challenge_ts"); ok {
		f.ChallengedAt = &ts
	}
	if raw, ok := data["score"]; ok && raw != nil {
		f.RawScore = raw
		if score, err := cast.ToFloat64E(raw); err == nil {
			normalized := v.provider.normalizeScore(score)
			f.Score = &normalized
		}
	}
	return NewResponse(f)
}

// classifyStatus maps a non-200 siteverify status onto an error kind.
func classifyStatus(status int) Error {
	switch status {
	case http.StatusNotFound, http.StatusInternalServerError:
		return VerifierFailed
	default:
		return InvalidInput
	}
}

func classifyErrorCode(code string) Error {
	switch code {
	case "missing-input-response":
		return InvalidPayload
	case "invalid-input-response":
		return InvalidInput
	case "invalid-input-secret", "missing-input-secret":
		return InvalidSecret
	case "timeout-or-duplicate":
		return Timeout
	default:
		return VerifierFailed
	}
}

func errorCodes(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, cast.ToString(item))
		}
		return out
	default:
		return cast.ToStringSlice(v)
	}
}

func stringField(data map[string]interface{}, key string) (string, bool) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", false
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", false
	}
	return s, true
}

func timeField(data map[string]interface{}, key string) (time.Time, bool) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return time.Time{}, false
	}
	if seconds, ok := raw.(float64); ok {
		return time.Unix(int64(seconds), 0).UTC(), true
	}
	t, err := cast.ToTimeE(raw)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
