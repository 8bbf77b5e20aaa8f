package distribution

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/leadflow/internal/config"
	"github.com/smallbiznis/leadflow/internal/distribution/eligibility"
	"github.com/smallbiznis/leadflow/internal/distribution/repository"
	"github.com/smallbiznis/leadflow/internal/distribution/service"
)

// eligibilityCacheTTL bounds how long a lead's resolved eligibility may be
// reused before recomputation.
const eligibilityCacheTTL = 5 * time.Minute

func newEligibilityCache(cfg config.Config, log *zap.Logger) eligibility.Cache {
	if cfg.RedisAddr == "" {
		return eligibility.NewMemoryCache(eligibilityCacheTTL)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return eligibility.NewRedisCache(client, eligibilityCacheTTL, log)
}

var Module = fx.Module("distribution",
	fx.Provide(
		repository.Provide,
		newEligibilityCache,
		eligibility.NewResolver,
		service.NewService,
	),
)
