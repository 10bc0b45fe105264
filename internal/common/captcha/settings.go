package captcha

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// SettingsProvider resolves verifier configuration by name.
type SettingsProvider interface {
	// FirstEnabledVerifier returns the first configured verifier, in
	// configuration order, that is enabled.
	FirstEnabledVerifier() (string, bool)
	SettingsFor(name string) map[string]interface{}
}

// VerifierSettings is the decoded form of a settings map. Keys are matched
// ignoring case, '_' and '-', so site_key, siteKey and sitekey are equivalent.
type VerifierSettings struct {
	Enabled   *bool    `mapstructure:"enabled"`
	SiteKey   string   `mapstructure:"sitekey"`
	Secret    string   `mapstructure:"secret"`
	VerifyURL string   `mapstructure:"verifyurl"`
	ScriptURL string   `mapstructure:"scripturl"`
	Verifiers []string `mapstructure:"verifiers"`
}

// DecodeSettings decodes raw into VerifierSettings, tolerating string encoded
// scalars and comma separated lists.
func DecodeSettings(raw map[string]interface{}) (VerifierSettings, error) {
	var s VerifierSettings
	normalized := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		normalized[canonicalKey(k)] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return s, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return s, err
	}
	for i, name := range s.Verifiers {
		s.Verifiers[i] = strings.TrimSpace(name)
	}
	return s, nil
}

// IsEnabled reports the enabled flag of a settings map, true when unspecified.
func IsEnabled(raw map[string]interface{}) bool {
	for k, v := range raw {
		if canonicalKey(k) != "enabled" {
			continue
		}
		enabled, err := cast.ToBoolE(v)
		if err != nil {
			return true
		}
		return enabled
	}
	return true
}

func canonicalKey(key string) string {
	key = strings.ToLower(key)
	return strings.NewReplacer("_", "", "-", "").Replace(key)
}

// NamedSettings is one entry of an ordered verifier list.
type NamedSettings struct {
	Name     string
	Settings map[string]interface{}
}

// StaticSettings is an in-memory SettingsProvider preserving entry order.
type StaticSettings []NamedSettings

func (s StaticSettings) FirstEnabledVerifier() (string, bool) {
	for _, entry := range s {
		if IsEnabled(entry.Settings) {
			return entry.Name, true
		}
	}
	return "", false
}

func (s StaticSettings) SettingsFor(name string) map[string]interface{} {
	for _, entry := range s {
		if strings.EqualFold(entry.Name, name) {
			out := make(map[string]interface{}, len(entry.Settings))
			for k, v := range entry.Settings {
				out[k] = v
			}
			return out
		}
	}
	return map[string]interface{}{}
}
