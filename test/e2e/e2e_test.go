// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captcha-workers/internal/common/camunda"
	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/config"
	"captcha-workers/internal/common/database"
	httpclient "captcha-workers/internal/common/http"
	"captcha-workers/internal/common/logger"

	captchaverify "captcha-workers/internal/workers/auth/captcha-verify"
)

const e2eConfig = `
app:
  name: captcha-workers
  environment: e2e
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: %s
    key_prefix: e2e
workers:
  captcha-verify:
    enabled: true
    timeout: 5000
captcha:
  settings_source: redis
  default_verifier: HCaptcha
  host_names:
    - https://example.com
  verifiers:
    - name: Recaptcha
      enabled: false
      secret: unused
    - name: HCaptcha
      site_key: h-site
      secret: ${E2E_HCAPTCHA_SECRET}
      verify_url: %s
`

// stack is the worker wired the way the worker manager wires it, against
// miniredis and a stub siteverify endpoint.
type stack struct {
	cfg      *config.Config
	store    *database.SettingsStore
	registry *captcha.Registry
	handler  *captchaverify.Handler
}

func newStack(t testing.TB, provider http.HandlerFunc) *stack {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	server := httptest.NewServer(provider)
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(e2eConfig, mr.Addr(), server.URL)), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()))

	log := logger.NewNoOpLogger()
	store := database.NewSettingsStore(rdb.Client, cfg.Database.Redis.KeyPrefix, log)
	for _, entry := range cfg.Captcha.Verifiers {
		require.NoError(t, store.Save(context.Background(), entry.Name, entry.Settings))
	}

	registry := captcha.NewRegistry(captcha.RegistryOptions{
		Settings:  store,
		Client:    httpclient.NewClient(config.GetDuration(cfg.Captcha.HTTPTimeout)),
		Logger:    log,
		HostNames: cfg.Captcha.HostNames,
	})

	handler, err := captchaverify.NewHandler(captchaverify.HandlerOptions{
		AppConfig: cfg,
		Registry:  registry,
		Logger:    log,
	})
	require.NoError(t, err)

	return &stack{cfg: cfg, store: store, registry: registry, handler: handler}
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestCaptchaVerify_EndToEnd(t *testing.T) {
	t.Setenv("E2E_HCAPTCHA_SECRET", "h-secret")

	var gotSecret string
	s := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.PostForm.Get("secret")
		respond(http.StatusOK, `{"success": true, "hostname": "example.com", "challenge_ts": "2024-05-01T10:00:00Z"}`)(w, r)
	})

	assert.Equal(t, config.SettingsSourceRedis, s.cfg.Captcha.SettingsSource)
	require.NoError(t, s.handler.HealthCheck(context.Background()))

	name, ok := s.store.FirstEnabledVerifier()
	require.True(t, ok)
	assert.Equal(t, "HCaptcha", name)

	output, err := s.handler.Execute(context.Background(), &captchaverify.Input{
		Values:   map[string]interface{}{"h-captcha-response": "tok"},
		ClientIP: "203.0.113.9",
	})
	require.NoError(t, err)

	assert.True(t, output.Valid)
	assert.Equal(t, "HCaptcha", output.Verifier)
	assert.NotEmpty(t, output.VerificationID)
	assert.Equal(t, "h-secret", gotSecret)
	assert.Equal(t, "2024-05-01T10:00:00Z", output.ChallengeTs)
}

func TestCaptchaVerify_EndToEndFailures(t *testing.T) {
	t.Setenv("E2E_HCAPTCHA_SECRET", "h-secret")

	tests := []struct {
		name     string
		provider http.HandlerFunc
		input    *captchaverify.Input
		errors   []string
	}{
		{
			name:     "provider rejects response",
			provider: respond(http.StatusOK, `{"success": false, "error-codes": ["invalid-input-response"]}`),
			input:    &captchaverify.Input{Values: map[string]interface{}{"h-captcha-response": "bad"}},
			errors:   []string{captcha.InvalidInput.Code()},
		},
		{
			name:     "host name not allowed",
			provider: respond(http.StatusOK, `{"success": true, "hostname": "evil.test"}`),
			input:    &captchaverify.Input{Values: map[string]interface{}{"h-captcha-response": "tok"}},
			errors:   []string{captcha.HostNameMismatch.Code()},
		},
		{
			name:     "provider outage",
			provider: respond(http.StatusInternalServerError, `oops`),
			input:    &captchaverify.Input{Values: map[string]interface{}{"h-captcha-response": "tok"}},
			errors:   []string{captcha.VerifierFailed.Code()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStack(t, tt.provider)

			output, err := s.handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.False(t, output.Valid)
			assert.Equal(t, tt.errors, output.Errors)
		})
	}
}

func TestCaptchaVerify_VerifierRemoved(t *testing.T) {
	t.Setenv("E2E_HCAPTCHA_SECRET", "h-secret")

	s := newStack(t, respond(http.StatusOK, `{"success": true}`))
	require.NoError(t, s.store.Remove(context.Background(), "HCaptcha"))

	_, err := s.handler.Execute(context.Background(), &captchaverify.Input{
		Values: map[string]interface{}{"h-captcha-response": "tok"},
	})
	require.Error(t, err)
	assert.Error(t, s.handler.HealthCheck(context.Background()))
}

// TestCaptchaVerify_Broker registers the worker against a running broker.
// Set ZEEBE_ADDRESS to run it.
func TestCaptchaVerify_Broker(t *testing.T) {
	address := os.Getenv("ZEEBE_ADDRESS")
	if address == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}
	t.Setenv("E2E_HCAPTCHA_SECRET", "h-secret")

	s := newStack(t, respond(http.StatusOK, `{"success": true}`))

	client, err := camunda.NewClient(address)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.HealthCheck(ctx))

	handler, err := captchaverify.NewHandler(captchaverify.HandlerOptions{
		AppConfig: s.cfg,
		Camunda:   client,
		Registry:  s.registry,
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.NoError(t, handler.Register())
	defer handler.Close()

	assert.NoError(t, handler.HealthCheck(ctx))
}

func BenchmarkHandler_CaptchaVerify(b *testing.B) {
	b.Setenv("E2E_HCAPTCHA_SECRET", "h-secret")

	s := newStack(b, respond(http.StatusOK, `{"success": true, "hostname": "example.com"}`))
	input := &captchaverify.Input{
		Values:   map[string]interface{}{"h-captcha-response": "tok"},
		ClientIP: "203.0.113.9",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.handler.Execute(context.Background(), input)
	}
}
