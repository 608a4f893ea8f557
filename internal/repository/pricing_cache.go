package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
)

const (
	settingsCacheKey    = "transfer:pricing:settings"
	overrideCachePrefix = "transfer:pricing:override:"
)

// CachedPricingRepository puts a Redis read-through cache in front of a
// pricing.SettingsStore. Redis errors are logged and fall through to the store.
// Absence is cached too, as JSON null.
type CachedPricingRepository struct {
	store  pricing.SettingsStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedPricingRepository(store pricing.SettingsStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedPricingRepository {
	return &CachedPricingRepository{store: store, client: client, ttl: ttl, logger: logger}
}

func (r *CachedPricingRepository) GetSettings(ctx context.Context) (*pricing.GlobalPricingSettings, error) {
	var cached *pricing.GlobalPricingSettings
	if r.get(ctx, settingsCacheKey, &cached) {
		return cached, nil
	}

	settings, err := r.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	r.set(ctx, settingsCacheKey, settings)
	return settings, nil
}

func (r *CachedPricingRepository) FindOverride(ctx context.Context, providerID uuid.UUID) (*pricing.ProviderPricingOverride, error) {
	key := overrideCachePrefix + providerID.String()
	var cached *pricing.ProviderPricingOverride
	if r.get(ctx, key, &cached) {
		return cached, nil
	}

	override, err := r.store.FindOverride(ctx, providerID)
	if err != nil {
		return nil, err
	}
	r.set(ctx, key, override)
	return override, nil
}

// SaveSettings writes through to the store and evicts the cached settings.
func (r *CachedPricingRepository) SaveSettings(ctx context.Context, settings pricing.GlobalPricingSettings) error {
	if err := r.store.SaveSettings(ctx, settings); err != nil {
		return err
	}
	if err := r.client.Del(ctx, settingsCacheKey).Err(); err != nil {
		r.logger.Warn("failed to evict pricing settings cache", zap.Error(err))
	}
	return nil
}

func (r *CachedPricingRepository) get(ctx context.Context, key string, dest interface{}) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("pricing cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("pricing cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *CachedPricingRepository) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("pricing cache write failed", zap.String("key", key), zap.Error(err))
	}
}
