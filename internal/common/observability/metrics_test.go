package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captcha-workers/internal/common/logger"
)

func TestObservability_RecordVerification(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := NewWithRegisterer("captcha-workers-test", reg, logger.NewNoOpLogger())
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordVerification(ctx, "Recaptcha", true, 40*time.Millisecond)
	obs.RecordVerification(ctx, "Recaptcha", false, 10*time.Millisecond)
	obs.RecordJobProcessed(ctx, "completed")
	obs.RecordJobDuration(ctx, time.Second, "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "captcha_verifications")
	assert.Contains(t, joined, "jobs_processed")
	assert.NotContains(t, joined, ".")
}

func TestObservability_ZeroValueIsNoop(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordVerification(context.Background(), "HCaptcha", true, time.Millisecond)
		obs.RecordJobProcessed(context.Background(), "failed")
		assert.NoError(t, obs.Shutdown(context.Background()))
	})

	empty := &Observability{}
	assert.NotPanics(t, func() {
		empty.RecordJobDuration(context.Background(), time.Millisecond, "failed")
	})
}
