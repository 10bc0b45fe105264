package captcha

import (
	"context"
	"strings"
)

// CompoundName is the registry name of the compound verifier.
const CompoundName = "Compound"

// Compound dispatches to the first member whose data keys are all present in
// the payload.
type Compound struct {
	verifiers []Verifier
}

// NewCompound keeps members in order; nil members are skipped.
func NewCompound(verifiers ...Verifier) *Compound {
	c := &Compound{}
	for _, v := range verifiers {
		if v != nil {
			c.verifiers = append(c.verifiers, v)
		}
	}
	return c
}

func (c *Compound) Name() string {
	return CompoundName
}

func (c *Compound) Verifiers() []Verifier {
	return append([]Verifier(nil), c.verifiers...)
}

// DataKeys concatenates member keys without removing duplicates.
func (c *Compound) DataKeys() []string {
	var keys []string
	for _, v := range c.verifiers {
		keys = append(keys, v.DataKeys()...)
	}
	return keys
}

// ComponentData merges member data with every key prefixed by the member's
// slugged name. Leading ':' and '@' binding markers stay in front.
func (c *Compound) ComponentData() map[string]interface{} {
	out := make(map[string]interface{})
	for _, v := range c.verifiers {
		slug := Slug(v.Name())
		for key, value := range v.ComponentData() {
			out[prefixKey(slug, key)] = value
		}
	}
	return out
}

func prefixKey(slug, key string) string {
	bare := strings.TrimLeft(key, ":@")
	marker := key[:len(key)-len(bare)]
	return marker + slug + "-" + bare
}

// PrepareAssets only asks the first member for its widget.
func (c *Compound) PrepareAssets(assets AssetCollector) {
	if len(c.verifiers) == 0 {
		return
	}
	c.verifiers[0].PrepareAssets(assets)
}

func (c *Compound) Verify(ctx context.Context, payload *Payload) *Result {
	for _, v := range c.verifiers {
		if hasAllValues(payload, v.DataKeys()) {
			return v.Verify(ctx, payload)
		}
	}
	result := NewResult(payload, nil, VerifierFailed)
	result.verifier = CompoundName
	return result
}

func hasAllValues(payload *Payload, keys []string) bool {
	for _, key := range keys {
		if _, ok := payload.Value(key); !ok {
			return false
		}
	}
	return true
}
