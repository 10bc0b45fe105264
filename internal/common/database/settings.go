package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"captcha-workers/internal/common/captcha"
	apperrors "captcha-workers/internal/common/errors"
	"captcha-workers/internal/common/logger"
)

// defaultLookupTimeout bounds each settings lookup made through the
// context-free captcha.SettingsProvider methods.
const defaultLookupTimeout = 2 * time.Second

// SettingsStore keeps verifier settings in Redis:
//
//	<prefix>:verifiers          list of verifier names in configuration order
//	<prefix>:verifier:<name>    hash of that verifier's settings
type SettingsStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	logger  logger.Logger
}

var _ captcha.SettingsProvider = (*SettingsStore)(nil)

func NewSettingsStore(client *redis.Client, prefix string, log logger.Logger) *SettingsStore {
	if prefix == "" {
		prefix = "captcha"
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SettingsStore{
		client:  client,
		prefix:  prefix,
		timeout: defaultLookupTimeout,
		logger:  log,
	}
}

func (s *SettingsStore) listKey() string {
	return s.prefix + ":verifiers"
}

func (s *SettingsStore) hashKey(name string) string {
	return s.prefix + ":verifier:" + strings.ToLower(name)
}

// Save replaces the settings of name and appends it to the order list when new.
func (s *SettingsStore) Save(ctx context.Context, name string, settings map[string]interface{}) error {
	if name == "" {
		return apperrors.NewInvalidInputError("verifier name is required")
	}

	fields := map[string]interface{}{"name": name}
	for k, v := range settings {
		fields[k] = encodeSetting(v)
	}

	names, err := s.Names(ctx)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.hashKey(name))
		pipe.HSet(ctx, s.hashKey(name), fields)
		if !containsFold(names, name) {
			pipe.RPush(ctx, s.listKey(), name)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewSettingsStoreFailedError(fmt.Errorf("save %s: %w", name, err))
	}
	return nil
}

// Remove deletes name and its settings.
func (s *SettingsStore) Remove(ctx context.Context, name string) error {
	names, err := s.Names(ctx)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, stored := range names {
			if strings.EqualFold(stored, name) {
				pipe.LRem(ctx, s.listKey(), 0, stored)
			}
		}
		pipe.Del(ctx, s.hashKey(name))
		return nil
	})
	if err != nil {
		return apperrors.NewSettingsStoreFailedError(fmt.Errorf("remove %s: %w", name, err))
	}
	return nil
}

// Names returns the stored verifier names in order.
func (s *SettingsStore) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.LRange(ctx, s.listKey(), 0, -1).Result()
	if err != nil {
		return nil, apperrors.NewSettingsStoreFailedError(err)
	}
	return names, nil
}

// Load returns the stored settings of name, empty when none are stored.
func (s *SettingsStore) Load(ctx context.Context, name string) (map[string]interface{}, error) {
	fields, err := s.client.HGetAll(ctx, s.hashKey(name)).Result()
	if err != nil {
		return nil, apperrors.NewSettingsStoreFailedError(err)
	}
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == "name" {
			continue
		}
		out[k] = v
	}
	return out, nil
}

func (s *SettingsStore) FirstEnabledVerifier() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	names, err := s.Names(ctx)
	if err != nil {
		s.logger.Error("Failed to list verifiers", map[string]interface{}{"error": err.Error()})
		return "", false
	}
	for _, name := range names {
		settings, err := s.Load(ctx, name)
		if err != nil {
			s.logger.Error("Failed to load verifier settings", map[string]interface{}{
				"verifier": name,
				"error":    err.Error(),
			})
			return "", false
		}
		if captcha.IsEnabled(settings) {
			return name, true
		}
	}
	return "", false
}

func (s *SettingsStore) SettingsFor(name string) map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	settings, err := s.Load(ctx, name)
	if err != nil {
		s.logger.Error("Failed to load verifier settings", map[string]interface{}{
			"verifier": name,
			"error":    err.Error(),
		})
		return map[string]interface{}{}
	}
	return settings
}

// encodeSetting flattens lists to comma separated strings for hash storage.
func encodeSetting(v interface{}) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ",")
	case []interface{}:
		return strings.Join(cast.ToStringSlice(t), ",")
	default:
		return cast.ToString(v)
	}
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
