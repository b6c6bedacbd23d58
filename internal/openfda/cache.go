package openfda

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/inventory-management/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "openfda:udi:"

// CachedSearcher is a read-through cache in front of a Searcher. Cache
// failures degrade to a direct upstream call.
type CachedSearcher struct {
	next   Searcher
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSearcher(next Searcher, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

type cachedPage struct {
	Total   *int64   `json:"total"`
	Results []Record `json:"results"`
}

func cacheKey(q Query) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", q.Search, q.Limit, q.Skip)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedSearcher) Search(ctx context.Context, q Query) (*Page, error) {
	q = q.Normalize()
	key := cacheKey(q)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cp cachedPage
		if jerr := json.Unmarshal(raw, &cp); jerr == nil {
			metrics.ObserveCache("openfda", true)
			return &Page{Total: cp.Total, Results: cp.Results}, nil
		}
		c.logger.Warn("discarding undecodable openFDA cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("openFDA cache read failed", "error", err)
	}
	metrics.ObserveCache("openfda", false)

	page, err := c.next.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(cachedPage{Total: page.Total, Results: page.Results}); jerr == nil {
		if serr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.logger.Warn("openFDA cache write failed", "error", serr)
		}
	}
	return page, nil
}

// NewRedisClient connects to addr (host:port or redis:// URL). It returns nil
// when Redis is unreachable so callers can run without the cache.
func NewRedisClient(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	if addr == "" {
		return nil
	}
	var opts *redis.Options
	if parsed, err := redis.ParseURL(addr); err == nil {
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without openFDA cache", "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", opts.Addr)
	return client
}
