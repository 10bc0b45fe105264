package captchaverify

import (
	"context"
	"fmt"
	"time"

	"captcha-workers/internal/common/camunda"
	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/config"
	"captcha-workers/internal/common/errors"
	"captcha-workers/internal/common/logger"
	"captcha-workers/internal/common/metrics"
	"captcha-workers/internal/common/observability"
	"captcha-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/mitchellh/mapstructure"
)

const (
	TaskType   = "captcha.verify"
	workerName = "captcha-verify"
)

type Handler struct {
	config        *Config
	logger        logger.Logger
	camunda       *camunda.Client
	registry      *captcha.Registry
	observability *observability.Observability
	errorHandler  *errors.ErrorHandler
	service       executor
	ready         func() error
	jobWorker     *camunda.CamundaWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	Registry      *captcha.Registry
	Observability *observability.Observability
	CustomConfig  *Config
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", workerName, err)
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("invalid configuration for %s: verifier registry is required", workerName)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}

	handler := &Handler{
		config:        workerConfig,
		logger:        loggerInstance.WithFields(map[string]interface{}{"worker": TaskType}),
		camunda:       opts.Camunda,
		registry:      opts.Registry,
		observability: opts.Observability,
	}
	handler.errorHandler = errors.NewErrorHandler(handler.logger)

	service := NewService(ServiceDependencies{
		Registry:      handler.registry,
		Observability: handler.observability,
		Logger:        handler.logger,
	}, handler.config)
	handler.service = service
	handler.ready = service.Ready

	return handler, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing captcha verification", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	if !h.config.Enabled {
		h.logger.Info("Worker disabled by configuration", nil)
		h.completeJob(ctx, client, job, &Output{Valid: false})
		return
	}

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.observability.RecordJobProcessed(ctx, "completed")
	h.observability.RecordJobDuration(ctx, time.Since(startTime), "completed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	validationResult := validation.ValidateInput(variables, GetInputSchema())
	if !validationResult.Valid {
		return nil, errors.NewInvalidInputError(
			fmt.Sprintf("Validation errors: %v", validationResult.GetErrorMessages()),
		).WithMetadata("fields", validationResult.GetErrorMessages())
	}

	var input Input
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &input,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := decoder.Decode(variables); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.ToVariables())
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	send := func(ctx context.Context) (interface{}, error) {
		return request.Send(ctx)
	}
	if h.camunda != nil {
		_, err = h.camunda.ExecuteWithRetry(ctx, send, "complete-job")
	} else {
		_, err = send(ctx)
	}
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Completed captcha verification", map[string]interface{}{
		"jobKey":         job.GetKey(),
		"verificationId": output.VerificationID,
		"verifier":       output.Verifier,
		"valid":          output.Valid,
		"errors":         output.Errors,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.observability.RecordJobProcessed(ctx, "failed")
	h.observability.RecordJobDuration(ctx, time.Since(startTime), "failed")

	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is required to register", workerName)
	}

	h.jobWorker = camunda.NewWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:       TaskType,
		MaxJobsActive:  h.config.MaxJobsActive,
		Timeout:        h.config.Timeout,
		FetchVariables: InputVariables,
	}, h, h.logger)

	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", nil)
		h.jobWorker.Stop()
		h.jobWorker = nil
	}
}

// HealthCheck checks the broker and that the default verifier can be loaded.
func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda != nil {
		if err := h.camunda.HealthCheck(ctx); err != nil {
			return fmt.Errorf("camunda health check failed: %w", err)
		}
	}
	if h.ready != nil {
		if err := h.ready(); err != nil {
			return fmt.Errorf("verifier not ready: %w", err)
		}
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		captchaConfig := appConfig.Captcha
		cfg.DefaultVerifier = captchaConfig.DefaultVerifier
		cfg.DefaultAction = captchaConfig.DefaultAction
		cfg.ScoreThreshold = captchaConfig.ScoreThreshold
		cfg.ResultTimeout = captchaConfig.ResultTimeout

		if workerCfg, exists := appConfig.Workers[workerName]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
	}

	return cfg
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}
