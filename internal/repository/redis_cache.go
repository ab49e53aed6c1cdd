package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// Префикс ключей подписок
	subscriptionKeyPrefix = "subscription:"

	// TTL для кэша
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository кэш записей подписок на стороне чтения.
// Источник истины - леджер; кэш инвалидируется событиями.
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// NewRedisCacheRepositoryWithClient оборачивает готовый клиент (используется в тестах)
func NewRedisCacheRepositoryWithClient(client *redis.Client, log *logger.Logger) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheSubscription кэширует запись подписки аккаунта
func (r *RedisCacheRepository) CacheSubscription(ctx context.Context, account domain.Address, sub domain.Subscription) error {
	key := fmt.Sprintf("%s%s", subscriptionKeyPrefix, account)

	data, err := json.Marshal(sub)
	if err != nil {
		r.log.Errorw("Failed to marshal subscription for caching", "error", err, "account", account)
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		r.log.Errorw("Failed to cache subscription in Redis", "error", err, "account", account)
		return fmt.Errorf("failed to cache subscription: %w", err)
	}

	r.log.Debugw("Subscription cached successfully", "account", account)
	return nil
}

// GetCachedSubscription получает запись подписки из кэша.
// Отсутствие ключа не является ошибкой.
func (r *RedisCacheRepository) GetCachedSubscription(ctx context.Context, account domain.Address) (*domain.Subscription, error) {
	key := fmt.Sprintf("%s%s", subscriptionKeyPrefix, account)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			r.log.Debugw("Subscription not found in cache", "account", account)
			return nil, nil
		}
		r.log.Errorw("Error getting subscription from Redis", "error", err, "account", account)
		return nil, fmt.Errorf("failed to get subscription from cache: %w", err)
	}

	var sub domain.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		r.log.Errorw("Failed to unmarshal cached subscription", "error", err, "account", account)
		return nil, fmt.Errorf("%w: failed to unmarshal cached subscription: %v", ErrInvalidData, err)
	}

	r.log.Debugw("Subscription retrieved from cache", "account", account)
	return &sub, nil
}

// InvalidateSubscription удаляет запись подписки из кэша
func (r *RedisCacheRepository) InvalidateSubscription(ctx context.Context, account domain.Address) error {
	key := fmt.Sprintf("%s%s", subscriptionKeyPrefix, account)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Errorw("Failed to delete subscription from cache", "error", err, "account", account)
		return fmt.Errorf("failed to delete subscription from cache: %w", err)
	}

	r.log.Debugw("Subscription deleted from cache", "account", account)
	return nil
}
