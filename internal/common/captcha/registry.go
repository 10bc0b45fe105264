package captcha

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "captcha-workers/internal/common/errors"
	"captcha-workers/internal/common/logger"
	"captcha-workers/internal/common/metrics"
)

// Factory builds a verifier from decoded settings.
type Factory func(r *Registry, settings VerifierSettings) (Verifier, error)

type RegistryOptions struct {
	Settings  SettingsProvider
	Client    Poster
	Logger    logger.Logger
	HostNames []string
}

// Registry resolves verifiers by name, holds the host-name allow-list injected
// into payloads and maps verifier names to renderers. Safe for concurrent use.
type Registry struct {
	settings SettingsProvider
	client   Poster
	logger   logger.Logger

	mu        sync.RWMutex
	factories map[string]Factory
	renderers map[string]Renderer
	hostNames []string
}

func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{
		settings:  opts.Settings,
		client:    opts.Client,
		logger:    opts.Logger,
		factories: make(map[string]Factory),
		renderers: make(map[string]Renderer),
		hostNames: PrepareHostNames(opts.HostNames...),
	}
	if r.settings == nil {
		r.settings = StaticSettings{}
	}
	if r.logger == nil {
		r.logger = logger.NewNoOpLogger()
	}

	r.RegisterFactory(Recaptcha.Name, siteVerifyFactory(Recaptcha))
	r.RegisterFactory(HCaptcha.Name, siteVerifyFactory(HCaptcha))
	r.RegisterFactory(CompoundName, compoundFactory)
	return r
}

func siteVerifyFactory(provider Provider) Factory {
	return func(r *Registry, s VerifierSettings) (Verifier, error) {
		if s.Secret == "" {
			return nil, apperrors.NewInvalidConfigError(provider.Name + " requires a secret")
		}
		return NewSiteVerify(provider, SiteVerifyOptions{
			SiteKey:   s.SiteKey,
			Secret:    s.Secret,
			VerifyURL: s.VerifyURL,
			ScriptURL: s.ScriptURL,
			Client:    r.client,
			Logger:    r.logger,
		}), nil
	}
}

func compoundFactory(r *Registry, s VerifierSettings) (Verifier, error) {
	members := make([]string, 0, len(s.Verifiers))
	for _, name := range s.Verifiers {
		if !strings.EqualFold(name, CompoundName) {
			members = append(members, name)
		}
	}
	return r.NewCompound(members...), nil
}

// RegisterFactory adds or replaces the factory for name. Names are case-insensitive.
func (r *Registry) RegisterFactory(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// LoadVerifier builds the named verifier. An empty name selects the first
// enabled verifier and nil settings are fetched from the SettingsProvider.
// Unknown or disabled verifiers return a StandardError.
func (r *Registry) LoadVerifier(name string, settings map[string]interface{}) (Verifier, error) {
	if name == "" {
		first, ok := r.settings.FirstEnabledVerifier()
		if !ok {
			return nil, apperrors.NewVerifierNotFoundError("default")
		}
		name = first
	}
	if settings == nil {
		settings = r.settings.SettingsFor(name)
	}

	if !IsEnabled(settings) {
		return nil, apperrors.NewVerifierDisabledError(name)
	}

	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewVerifierNotFoundError(name)
	}

	decoded, err := DecodeSettings(settings)
	if err != nil {
		return nil, apperrors.NewInvalidConfigError(err.Error()).WithMetadata("verifier", name)
	}
	return factory(r, decoded)
}

// TryLoadVerifier is LoadVerifier returning nil instead of an error.
func (r *Registry) TryLoadVerifier(name string, settings map[string]interface{}) Verifier {
	v, err := r.LoadVerifier(name, settings)
	if err != nil {
		r.logger.Debug("Verifier not loaded", map[string]interface{}{
			"verifier": name,
			"error":    err.Error(),
		})
		return nil
	}
	return v
}

// NewCompound resolves names through TryLoadVerifier, skipping any that fail.
func (r *Registry) NewCompound(names ...string) *Compound {
	members := make([]Verifier, 0, len(names))
	for _, name := range names {
		if v := r.TryLoadVerifier(name, nil); v != nil {
			members = append(members, v)
		}
	}
	return NewCompound(members...)
}

func (r *Registry) AddHostNames(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hostNames = PrepareHostNames(append(r.hostNames, names...)...)
}

func (r *Registry) RemoveHostNames(names ...string) {
	remove := make(map[string]struct{}, len(names))
	for _, name := range PrepareHostNames(names...) {
		remove[name] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.hostNames[:0]
	for _, name := range r.hostNames {
		if _, ok := remove[name]; !ok {
			kept = append(kept, name)
		}
	}
	r.hostNames = kept
}

func (r *Registry) HostNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.hostNames...)
}

// CreatePayload builds a payload, using the registry allow-list when opts has none.
func (r *Registry) CreatePayload(opts PayloadOptions) *Payload {
	if len(opts.HostNames) == 0 {
		opts.HostNames = r.HostNames()
	}
	return NewPayload(opts)
}

// Verify builds a payload from opts and verifies it.
func (r *Registry) Verify(ctx context.Context, opts PayloadOptions) *Result {
	return r.VerifyPayload(ctx, r.CreatePayload(opts))
}

// VerifyPayload loads the payload's verifier and runs it. A verifier that
// cannot be loaded yields a VerifierNotFound result.
func (r *Registry) VerifyPayload(ctx context.Context, payload *Payload) *Result {
	v, err := r.LoadVerifier(payload.VerifierName(), nil)
	if err != nil {
		r.logger.Warn("Captcha verifier unavailable", map[string]interface{}{
			"verifier": payload.VerifierName(),
			"error":    err.Error(),
		})
		result := NewResult(payload, nil, VerifierNotFound)
		result.verifier = payload.VerifierName()
		result.id = uuid.NewString()
		r.report(result, 0)
		return result
	}
	return r.VerifyWith(ctx, v, payload)
}

// VerifyWith runs an already loaded verifier, assigns the verification id and
// records the outcome.
func (r *Registry) VerifyWith(ctx context.Context, v Verifier, payload *Payload) *Result {
	start := time.Now()
	result := v.Verify(ctx, payload)
	if result.verifier == "" {
		result.verifier = v.Name()
	}
	result.id = uuid.NewString()

	r.report(result, time.Since(start))
	return result
}

func (r *Registry) report(result *Result, elapsed time.Duration) {
	errs := result.Errors()
	codes := make([]string, len(errs))
	reportable := make([]bool, len(errs))
	for i, e := range errs {
		codes[i] = e.Code()
		reportable[i] = e.Reportable()
	}
	metrics.RecordVerification(result.Verifier(), result.IsValid(), codes, reportable)

	fields := map[string]interface{}{
		"verificationId": result.ID(),
		"verifier":       result.Verifier(),
		"valid":          result.IsValid(),
		"durationMs":     elapsed.Milliseconds(),
		"clientIp":       result.Payload().IP().String(),
	}
	if rep := result.ReportableErrors(); len(rep) > 0 {
		fields["errors"] = codes
		r.logger.Warn("Captcha verification reported errors", fields)
		return
	}
	if len(codes) > 0 {
		fields["errors"] = codes
	}
	r.logger.Debug("Captcha verification finished", fields)
}

func (r *Registry) RegisterRenderer(name string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[strings.ToLower(name)] = renderer
}

func (r *Registry) RegisterCustomRenderer(name string, render func(v Verifier) *Element) {
	r.RegisterRenderer(name, RendererFunc(render))
}

func (r *Registry) RegisterDefaultRenderer(renderer Renderer) {
	r.RegisterRenderer(DefaultRendererName, renderer)
}

func (r *Registry) RemoveRenderer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.renderers, strings.ToLower(name))
}

// Renderer returns the renderer for name, then the Default renderer, then GenericRenderer.
func (r *Registry) Renderer(name string) Renderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.renderers[strings.ToLower(name)]; ok {
		return renderer
	}
	if renderer, ok := r.renderers[strings.ToLower(DefaultRendererName)]; ok {
		return renderer
	}
	return GenericRenderer{}
}

// Render loads the named verifier and renders its widget placeholder.
func (r *Registry) Render(name string) (*Element, error) {
	v, err := r.LoadVerifier(name, nil)
	if err != nil {
		return nil, err
	}
	return r.Renderer(v.Name()).Render(v), nil
}

// RenderInline returns the verifier's head scripts followed by its widget markup.
func (r *Registry) RenderInline(name, nonce string) (string, error) {
	v, err := r.LoadVerifier(name, nil)
	if err != nil {
		return "", err
	}
	assets := NewAssets(nonce)
	v.PrepareAssets(assets)
	return assets.HTML(), nil
}
