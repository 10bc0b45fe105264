package captchaverify

import (
	"context"
	stderrors "errors"
	"time"

	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/errors"
	"captcha-workers/internal/common/logger"
	"captcha-workers/internal/common/observability"
)

type Service struct {
	config        *Config
	registry      *captcha.Registry
	observability *observability.Observability
	logger        logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:        config,
		registry:      deps.Registry,
		observability: deps.Observability,
		logger:        log,
	}
}

// Execute verifies one challenge response. A verifier that cannot be loaded
// is returned as a StandardError; every other outcome, valid or not, is an Output.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	name := input.Verifier
	if name == "" {
		name = s.config.DefaultVerifier
	}

	verifier, err := s.registry.LoadVerifier(name, nil)
	if err != nil {
		return nil, err
	}

	payload := s.registry.CreatePayload(s.payloadOptions(verifier.Name(), input))

	s.logger.Debug("Verifying captcha", map[string]interface{}{
		"verifier": verifier.Name(),
		"clientIp": payload.IP().String(),
		"action":   payload.Action(),
	})

	start := time.Now()
	result := s.registry.VerifyWith(ctx, verifier, payload)
	s.observability.RecordVerification(ctx, result.Verifier(), result.IsValid(), time.Since(start))

	if result.HasError(captcha.ConnectionFailed) && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, errors.NewJobTimeoutError(TaskType, ctx.Err()).
			WithMetadata("verificationId", result.ID())
	}

	return NewOutput(result), nil
}

func (s *Service) payloadOptions(verifierName string, input *Input) captcha.PayloadOptions {
	opts := captcha.PayloadOptions{
		VerifierName: verifierName,
		Values:       input.Values,
		IP:           input.ClientIP,
		IPSources: captcha.IPSources{
			ForwardedFor: input.ForwardedFor,
			RemoteAddr:   input.RemoteAddr,
		},
		Action:         input.Action,
		ScoreThreshold: input.ScoreThreshold,
		Timeout:        input.Timeout,
	}

	if opts.Action == "" {
		opts.Action = s.config.DefaultAction
	}
	if opts.ScoreThreshold == nil {
		opts.ScoreThreshold = s.config.ScoreThreshold
	}
	if opts.Timeout == 0 {
		opts.Timeout = s.config.ResultTimeout
	}
	if len(input.HostNames) > 0 {
		opts.HostNames = append(s.registry.HostNames(), input.HostNames...)
	}
	return opts
}

// Ready reports whether the default verifier can currently be loaded.
func (s *Service) Ready() error {
	_, err := s.registry.LoadVerifier(s.config.DefaultVerifier, nil)
	return err
}
