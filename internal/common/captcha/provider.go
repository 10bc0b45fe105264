package captcha

// Provider holds what differs between siteverify style services.
type Provider struct {
	Name      string
	VerifyURL string
	ScriptURL string
	// ClientKey is the CSS class the client widget attaches to.
	ClientKey string
	// ResponseField is the form field the widget fills with the token.
	ResponseField string
	// NormalizeScore maps the provider's native score onto the risk scale.
	NormalizeScore func(raw float64) float64
}

// Recaptcha scores are confidence values, so they are inverted into risk.
var Recaptcha = Provider{
	Name:          "Recaptcha",
	VerifyURL:     "https://www.google.com/recaptcha/api/siteverify",
	ScriptURL:     "https://www.google.com/recaptcha/api.js",
	ClientKey:     "g-recaptcha",
	ResponseField: "g-recaptcha-response",
	NormalizeScore: func(raw float64) float64 {
		return 1 - Clamp(raw)
	},
}

// HCaptcha scores are used as-is after clamping.
var HCaptcha = Provider{
	Name:           "HCaptcha",
	VerifyURL:      "https://api.hcaptcha.com/siteverify",
	ScriptURL:      "https://hcaptcha.com/1/api.js",
	ClientKey:      "h-captcha",
	ResponseField:  "h-captcha-response",
	NormalizeScore: Clamp,
}

func (p Provider) normalizeScore(raw float64) float64 {
	if p.NormalizeScore == nil {
		return Clamp(raw)
	}
	return p.NormalizeScore(raw)
}
