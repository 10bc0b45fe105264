package database

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/config"
	apperrors "captcha-workers/internal/common/errors"
	"captcha-workers/internal/common/logger"
)

func newMiniredisStore(t *testing.T) (*SettingsStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSettingsStore(client, "test", logger.NewTestLogger(t)), mr
}

// ==========================
// miniredis
// ==========================

func TestSettingsStore_SaveAndLoad(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "Recaptcha", map[string]interface{}{
		"enabled":  false,
		"site_key": "r-site",
		"secret":   "r-secret",
	}))
	require.NoError(t, store.Save(ctx, "HCaptcha", map[string]interface{}{
		"site_key": "h-site",
		"secret":   "h-secret",
	}))
	require.NoError(t, store.Save(ctx, "Compound", map[string]interface{}{
		"verifiers": []string{"HCaptcha", "Recaptcha"},
	}))

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Recaptcha", "HCaptcha", "Compound"}, names)

	assert.Equal(t, "h-site", mr.HGet("test:verifier:hcaptcha", "site_key"))
	assert.Equal(t, "HCaptcha,Recaptcha", mr.HGet("test:verifier:compound", "verifiers"))

	settings := store.SettingsFor("Recaptcha")
	assert.Equal(t, "false", settings["enabled"])
	assert.Equal(t, "r-secret", settings["secret"])
	assert.NotContains(t, settings, "name")

	first, ok := store.FirstEnabledVerifier()
	require.True(t, ok)
	assert.Equal(t, "HCaptcha", first)
}

func TestSettingsStore_SaveReplacesWithoutReordering(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "HCaptcha", map[string]interface{}{"secret": "a", "verify_url": "https://x"}))
	require.NoError(t, store.Save(ctx, "Recaptcha", map[string]interface{}{"secret": "b"}))
	require.NoError(t, store.Save(ctx, "hcaptcha", map[string]interface{}{"secret": "c"}))

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HCaptcha", "Recaptcha"}, names)

	settings := store.SettingsFor("HCaptcha")
	assert.Equal(t, "c", settings["secret"])
	assert.NotContains(t, settings, "verify_url")
}

func TestSettingsStore_Remove(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "HCaptcha", map[string]interface{}{"secret": "a"}))
	require.NoError(t, store.Save(ctx, "Recaptcha", map[string]interface{}{"secret": "b"}))
	require.NoError(t, store.Remove(ctx, "hcaptcha"))

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Recaptcha"}, names)
	assert.Empty(t, store.SettingsFor("HCaptcha"))
}

func TestSettingsStore_NoneEnabled(t *testing.T) {
	store, _ := newMiniredisStore(t)
	require.NoError(t, store.Save(context.Background(), "HCaptcha", map[string]interface{}{"enabled": "false", "secret": "x"}))

	_, ok := store.FirstEnabledVerifier()
	assert.False(t, ok)
}

func TestSettingsStore_SaveRequiresName(t *testing.T) {
	store, _ := newMiniredisStore(t)
	err := store.Save(context.Background(), "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestSettingsStore_FeedsRegistry(t *testing.T) {
	store, _ := newMiniredisStore(t)
	require.NoError(t, store.Save(context.Background(), "HCaptcha", map[string]interface{}{
		"site_key": "h-site",
		"secret":   "h-secret",
	}))

	registry := captcha.NewRegistry(captcha.RegistryOptions{Settings: store})
	v, err := registry.LoadVerifier("", nil)
	require.NoError(t, err)
	assert.Equal(t, "HCaptcha", v.Name())
	assert.Equal(t, map[string]interface{}{"siteKey": "h-site"}, v.ComponentData())
}

// ==========================
// redismock (failure paths)
// ==========================

func TestSettingsStore_RedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewSettingsStore(client, "", logger.NewNoOpLogger())

	mock.ExpectLRange("captcha:verifiers", 0, -1).SetErr(errors.New("connection refused"))
	_, ok := store.FirstEnabledVerifier()
	assert.False(t, ok)

	mock.ExpectHGetAll("captcha:verifier:hcaptcha").SetErr(errors.New("connection refused"))
	assert.Empty(t, store.SettingsFor("HCaptcha"))

	mock.ExpectLRange("captcha:verifiers", 0, -1).SetErr(errors.New("connection refused"))
	_, err := store.Names(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSettingsStoreFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsStore_LoadFromMock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewSettingsStore(client, "captcha", logger.NewNoOpLogger())

	mock.ExpectLRange("captcha:verifiers", 0, -1).SetVal([]string{"Recaptcha"})
	mock.ExpectHGetAll("captcha:verifier:recaptcha").SetVal(map[string]string{
		"name":   "Recaptcha",
		"secret": "s",
	})

	first, ok := store.FirstEnabledVerifier()
	assert.True(t, ok)
	assert.Equal(t, "Recaptcha", first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()))
}
