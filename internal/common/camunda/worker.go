// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"captcha-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes, fails or throws for every job it receives.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerOptions configures a job worker subscription.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Name          string

	// FetchVariables limits the variables activated with each job.
	FetchVariables []string
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for opts.TaskType that dispatches to handler.
func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, log logger.Logger) *CamundaWorker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("%s-worker", opts.TaskType)
	}

	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler.Handle).
		Name(opts.Name)
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	if len(opts.FetchVariables) > 0 {
		step = step.FetchVariables(opts.FetchVariables...)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: opts.TaskType,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return w
}

// Stop closes the subscription and waits for in-flight jobs to finish.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
