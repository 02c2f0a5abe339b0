package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

const (
	basketKeyPrefix       = "basket:"
	checkoutLockKeyPrefix = "checkout:lock:"
	basketTTL             = time.Hour
	checkoutLockTTL       = 30 * time.Second
)

// releaseLockScript deletes the lock only while it still holds our token,
// so a checkout that outlived its TTL cannot free a newer holder's lock.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetBasket(ctx context.Context, userName string) (*domain.Basket, error) {
	data, err := r.client.Get(ctx, basketKeyPrefix+userName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get basket: %w", err)
	}

	var basket domain.Basket
	if err := json.Unmarshal(data, &basket); err != nil {
		return nil, fmt.Errorf("decode basket: %w", err)
	}
	return &basket, nil
}

func (r *RedisAdapter) SaveBasket(ctx context.Context, basket *domain.Basket) error {
	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("encode basket: %w", err)
	}
	return r.client.Set(ctx, basketKeyPrefix+basket.UserName, data, basketTTL).Err()
}

func (r *RedisAdapter) DeleteBasket(ctx context.Context, userName string) (bool, error) {
	n, err := r.client.Del(ctx, basketKeyPrefix+userName).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisAdapter) AcquireCheckoutLock(ctx context.Context, userName, token string) (bool, error) {
	ok, err := r.client.SetNX(ctx, checkoutLockKeyPrefix+userName, token, checkoutLockTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseCheckoutLock(ctx context.Context, userName, token string) error {
	return releaseLockScript.Run(ctx, r.client, []string{checkoutLockKeyPrefix + userName}, token).Err()
}
