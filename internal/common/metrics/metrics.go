// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	CaptchaVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captcha_verifications_total",
			Help: "Total number of captcha verifications by outcome",
		},
		[]string{"verifier", "outcome"},
	)

	CaptchaErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "captcha_verification_errors_total",
			Help: "Total number of captcha verification errors by kind",
		},
		[]string{"verifier", "error", "reportable"},
	)

	CaptchaProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "captcha_provider_request_duration_seconds",
			Help:    "Duration of siteverify requests to captcha providers",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"verifier", "status"},
	)
)

// Outcome labels for CaptchaVerifications.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
)

// ObserveProviderRequest records one siteverify round trip. status is the HTTP
// status code, or "transport_error" when no reply was received.
func ObserveProviderRequest(verifier, status string, d time.Duration) {
	CaptchaProviderDuration.WithLabelValues(verifier, status).Observe(d.Seconds())
}

// RecordVerification counts a finished verification and each of its error codes.
func RecordVerification(verifier string, valid bool, errorCodes []string, reportable []bool) {
	outcome := OutcomeInvalid
	if valid {
		outcome = OutcomeValid
	}
	CaptchaVerifications.WithLabelValues(verifier, outcome).Inc()

	for i, code := range errorCodes {
		rep := false
		if i < len(reportable) {
			rep = reportable[i]
		}
		CaptchaErrors.WithLabelValues(verifier, code, strconv.FormatBool(rep)).Inc()
	}
}
