package intent

import (
	"context"
	"strconv"
	"time"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

const cacheName = "intent"

// CacheKey is the cache key of query.
func CacheKey(query string) string {
	return "intent:" + strconv.FormatUint(review.Fingerprint(query), 16)
}

// CachedNormalizer memoizes successful normalizations in Redis. Fallback
// results are returned but never stored.
type CachedNormalizer struct {
	inner   Translator
	cache   redis.Cache
	ttl     time.Duration
	logger  logging.Logger
	metrics *prometheus.ReviewMetrics
}

var _ Normalizer = (*CachedNormalizer)(nil)

func NewCachedNormalizer(inner Translator, cache redis.Cache, ttl time.Duration, logger logging.Logger, metrics *prometheus.ReviewMetrics) *CachedNormalizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CachedNormalizer{inner: inner, cache: cache, ttl: ttl, logger: logger.Named("intent_cache"), metrics: metrics}
}

func (c *CachedNormalizer) Normalize(ctx context.Context, query string) review.IntentResult {
	var out review.IntentResult
	hit, err := c.cache.GetOrSet(ctx, CacheKey(query), &out, c.ttl, func(ctx context.Context) (interface{}, bool, error) {
		res := c.inner.Translate(ctx, query)
		return res.Value, res.Ok, nil
	})
	if err != nil {
		c.logger.Warn("intent cache unusable, normalizing directly", logging.Err(err))
		return c.inner.Translate(ctx, query).Value
	}
	c.metrics.RecordCacheAccess(cacheName, hit)
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if out.ChapterHints == nil {
		out.ChapterHints = []string{}
	}
	return out
}

//Personal.AI order the ending
