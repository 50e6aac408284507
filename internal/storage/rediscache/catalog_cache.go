// Package rediscache кэширует пакетные поиски каталога в Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

const (
	defaultTTL    = 5 * time.Minute
	productPrefix = "rms:catalog:product:"
	addonPrefix   = "rms:catalog:addon:"
)

// Client — подмножество *redis.Client, которое использует кэш.
type Client interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// CatalogCache — read-through кэш поверх CatalogReader. Ошибки Redis не ломают
// оформление заказа: запрос уходит в источник.
type CatalogCache struct {
	client Client
	source domain.CatalogReader
	ttl    time.Duration
	logger *log.Entry
}

// Option настраивает CatalogCache.
type Option func(*CatalogCache)

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(c *CatalogCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCatalogCache создаёт кэш; ttl<=0 заменяется значением по умолчанию.
func NewCatalogCache(client Client, source domain.CatalogReader, ttl time.Duration, opts ...Option) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &CatalogCache{
		client: client,
		source: source,
		ttl:    ttl,
		logger: log.WithField("component", "catalog-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindProductsByIDs возвращает активные продукты, подгружая промахи из источника.
func (c *CatalogCache) FindProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	return readThrough(ctx, c, productPrefix, ids, c.source.FindProductsByIDs, func(p domain.Product) string { return p.ID })
}

// FindAddonsByIDs возвращает активные добавки, подгружая промахи из источника.
func (c *CatalogCache) FindAddonsByIDs(ctx context.Context, ids []string) ([]domain.Addon, error) {
	return readThrough(ctx, c, addonPrefix, ids, c.source.FindAddonsByIDs, func(a domain.Addon) string { return a.ID })
}

// InvalidateProduct удаляет продукт из кэша после изменения в каталоге.
func (c *CatalogCache) InvalidateProduct(ctx context.Context, id string) error {
	return c.client.Del(ctx, productPrefix+id).Err()
}

// InvalidateAddon удаляет добавку из кэша после изменения в каталоге.
func (c *CatalogCache) InvalidateAddon(ctx context.Context, id string) error {
	return c.client.Del(ctx, addonPrefix+id).Err()
}

// Ping проверяет доступность Redis (используется readiness-проверкой).
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func readThrough[T any](
	ctx context.Context,
	c *CatalogCache,
	prefix string,
	ids []string,
	load func(context.Context, []string) ([]T, error),
	idOf func(T) string,
) ([]T, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []T{}, nil
	}

	found := make(map[string]T, len(unique))
	misses := lookupCached(ctx, c, prefix, unique, found)

	if len(misses) > 0 {
		loaded, err := load(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, value := range loaded {
			id := idOf(value)
			found[id] = value
			c.store(ctx, prefix+id, value)
		}
	}

	result := make([]T, 0, len(found))
	for _, id := range ids {
		if value, ok := found[id]; ok {
			result = append(result, value)
			delete(found, id)
		}
	}
	return result, nil
}

// lookupCached читает все ключи одним MGET и раскладывает попадания в found.
// Возвращает id, которые нужно загрузить из источника.
func lookupCached[T any](ctx context.Context, c *CatalogCache, prefix string, ids []string, found map[string]T) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil || len(values) != len(ids) {
		if err != nil {
			c.logger.WithError(err).WithField("keys", len(keys)).Warn("catalog cache read failed")
		}
		return ids
	}

	misses := make([]string, 0, len(ids))
	for i, raw := range values {
		encoded, ok := raw.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var value T
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			c.logger.WithError(err).WithField("key", keys[i]).Warn("catalog cache entry is corrupted")
			misses = append(misses, ids[i])
			continue
		}
		found[ids[i]] = value
	}
	return misses
}

func (c *CatalogCache) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("catalog cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("catalog cache write failed")
	}
}

var _ domain.CatalogReader = (*CatalogCache)(nil)
