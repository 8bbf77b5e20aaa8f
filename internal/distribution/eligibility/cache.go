package eligibility

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smallbiznis/leadflow/internal/cache"
)

// Member is one eligible subscription within a level.
type Member struct {
	SubscriptionID snowflake.ID `json:"subscription_id"`
	ProviderID     snowflake.ID `json:"provider_id"`
}

// EligibleSet groups eligible subscriptions by competition level.
type EligibleSet map[snowflake.ID][]Member

// Cache memoizes eligibility resolution per lead. Advisory only: a miss or a
// backend failure just means the resolver recomputes.
type Cache interface {
	Get(ctx context.Context, leadID snowflake.ID) (EligibleSet, bool)
	Set(ctx context.Context, leadID snowflake.ID, set EligibleSet)
}

type memoryCache struct {
	inner cache.Cache[snowflake.ID, EligibleSet]
	ttl   time.Duration
}

// NewMemoryCache returns a process-local eligibility cache.
func NewMemoryCache(ttl time.Duration) Cache {
	return &memoryCache{
		inner: cache.NewTTLCache[snowflake.ID, EligibleSet](),
		ttl:   ttl,
	}
}

func (c *memoryCache) Get(ctx context.Context, leadID snowflake.ID) (EligibleSet, bool) {
	return c.inner.Get(leadID)
}

func (c *memoryCache) Set(ctx context.Context, leadID snowflake.ID, set EligibleSet) {
	c.inner.Set(leadID, set, c.ttl)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCache returns an eligibility cache shared across engine instances.
// Redis errors degrade to cache misses.
func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) Cache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("eligibility_cache"),
	}
}

func redisKey(leadID snowflake.ID) string {
	return "leadflow:eligibility:" + leadID.String()
}

func (c *redisCache) Get(ctx context.Context, leadID snowflake.ID) (EligibleSet, bool) {
	payload, err := c.client.Get(ctx, redisKey(leadID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("eligibility cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var set EligibleSet
	if err := json.Unmarshal(payload, &set); err != nil {
		c.log.Warn("eligibility cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return set, true
}

func (c *redisCache) Set(ctx context.Context, leadID snowflake.ID, set EligibleSet) {
	payload, err := json.Marshal(set)
	if err != nil {
		c.log.Warn("eligibility cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKey(leadID), payload, c.ttl).Err(); err != nil {
		c.log.Warn("eligibility cache write failed", zap.Error(err))
	}
}
