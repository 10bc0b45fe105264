package captcha

import "context"

// Verifier checks a submitted challenge response. Implementations must be safe
// for concurrent use across independent payloads.
type Verifier interface {
	Name() string
	// DataKeys lists the Payload values the verifier needs.
	DataKeys() []string
	// ComponentData is the non-secret data a widget renderer may expose.
	ComponentData() map[string]interface{}
	PrepareAssets(assets AssetCollector)
	// Verify always returns a Result; expected failures are Result errors.
	Verify(ctx context.Context, payload *Payload) *Result
}

// AssetCollector receives the client side widget pieces of a verifier.
type AssetCollector interface {
	Nonce() string
	AddHeadScript(script Script)
	SetContent(element *Element)
}
