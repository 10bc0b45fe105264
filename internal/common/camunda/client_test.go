package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"captcha-workers/internal/common/config"
	"captcha-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	client := newTestClient(3)
	calls := 0

	result, err := client.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	}, "complete-job")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_MapsErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
		calls    int
	}{
		{"unavailable exhausts retries", stderrors.New("connection refused"), errors.ErrCodeProviderUnavailable, 3},
		{"deadline", stderrors.New("context deadline exceeded"), errors.ErrCodeJobTimeout, 3},
		{"permanent", stderrors.New("job not found"), errors.ErrCodeInternal, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(2)
			calls := 0
			_, err := client.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
				calls++
				return nil, tt.err
			}, "complete-job")

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), err.Error())
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	client := &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Second,
		MaxDelay:   time.Second,
	}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("unavailable")
	}, "complete-job")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.CamundaConfig{
		BrokerAddress:  "zeebe:26500",
		Timeout:        5000,
		RequestTimeout: 2000,
		UsePlaintext:   true,
	})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 5*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}
