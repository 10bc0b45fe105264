package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordVerification(t *testing.T) {
	before := testutil.ToFloat64(CaptchaVerifications.WithLabelValues("MetricsTest", OutcomeInvalid))
	beforeErr := testutil.ToFloat64(CaptchaErrors.WithLabelValues("MetricsTest", "HOST_NAME_MISMATCH", "true"))

	RecordVerification("MetricsTest", false, []string{"HOST_NAME_MISMATCH", "TIMEOUT"}, []bool{true, false})

	assert.Equal(t, before+1, testutil.ToFloat64(CaptchaVerifications.WithLabelValues("MetricsTest", OutcomeInvalid)))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(CaptchaErrors.WithLabelValues("MetricsTest", "HOST_NAME_MISMATCH", "true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(CaptchaErrors.WithLabelValues("MetricsTest", "TIMEOUT", "false")))
}

func TestRecordVerification_Valid(t *testing.T) {
	RecordVerification("MetricsTestValid", true, nil, nil)
	assert.Equal(t, float64(1), testutil.ToFloat64(CaptchaVerifications.WithLabelValues("MetricsTestValid", OutcomeValid)))
}

func TestObserveProviderRequest(t *testing.T) {
	ObserveProviderRequest("MetricsTest", "200", 120*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(CaptchaProviderDuration), 1)
}
