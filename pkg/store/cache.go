package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/redis/go-redis/v9"
)

// LoanCache is a read-through cache for single-loan lookups.
type LoanCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(key string) error
}

// RedisCache backs LoanCache with a Redis instance. Entries expire so a
// stale status can never outlive a TTL even if an invalidation is missed.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

func NewRedisCache(addr string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: rdb,
		ctx:    context.Background(),
		ttl:    5 * time.Minute,
	}
}

func (r *RedisCache) Get(key string) (string, bool) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(key string, value string) error {
	return r.client.Set(r.ctx, key, value, r.ttl).Err()
}

func (r *RedisCache) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// CachedStorage wraps a Storage with a LoanCache for GetLoan. Writes that
// change a loan's state drop the cached copy. Cache failures are logged and
// ignored; the store remains the source of truth.
type CachedStorage struct {
	Storage
	cache LoanCache
}

// NewCachedStorage wraps s with the cache. When s supports transactional
// settlement the wrapper preserves that capability and invalidates the
// cached loan after a settle.
func NewCachedStorage(s Storage, c LoanCache) Storage {
	cs := &CachedStorage{Storage: s, cache: c}
	if _, ok := s.(Settler); ok {
		return &cachedSettlerStorage{cs}
	}
	return cs
}

func cacheKey(id uuid.UUID) string {
	return "loan:" + id.String()
}

func (c *CachedStorage) GetLoan(id uuid.UUID) (*models.Loan, error) {
	if raw, ok := c.cache.Get(cacheKey(id)); ok {
		var loan models.Loan
		if err := json.Unmarshal([]byte(raw), &loan); err == nil {
			return &loan, nil
		}
		// Unreadable entry, fall through to the store.
	}

	loan, err := c.Storage.GetLoan(id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(loan); err == nil {
		if err := c.cache.Set(cacheKey(id), string(raw)); err != nil {
			log.Printf("Warning: failed to cache loan %s: %v", id, err)
		}
	}
	return loan, nil
}

func (c *CachedStorage) UpdateLoanStatus(id uuid.UUID, status models.LoanStatus) error {
	if err := c.Storage.UpdateLoanStatus(id, status); err != nil {
		return err
	}
	if err := c.cache.Delete(cacheKey(id)); err != nil {
		log.Printf("Warning: failed to invalidate cached loan %s: %v", id, err)
	}
	return nil
}

// cachedSettlerStorage adds SettleLoan when the wrapped store is a Settler.
type cachedSettlerStorage struct {
	*CachedStorage
}

func (c *cachedSettlerStorage) SettleLoan(record *models.CalculationRecord) error {
	if err := c.Storage.(Settler).SettleLoan(record); err != nil {
		return err
	}
	if err := c.cache.Delete(cacheKey(record.LoanID)); err != nil {
		log.Printf("Warning: failed to invalidate cached loan %s: %v", record.LoanID, err)
	}
	return nil
}
