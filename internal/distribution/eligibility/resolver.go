package eligibility

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
)

// Resolver computes, per competition level, which subscriptions may receive a
// given lead. Results are cached per lead; the cache is advisory and the
// fairness selector plus the unique assignment constraint stay authoritative.
type Resolver struct {
	db        *gorm.DB
	log       *zap.Logger
	nicheRepo nichedomain.Repository
	subRepo   subscriptiondomain.Repository
	cache     Cache
}

func NewResolver(
	db *gorm.DB,
	log *zap.Logger,
	nicheRepo nichedomain.Repository,
	subRepo subscriptiondomain.Repository,
	cache Cache,
) *Resolver {
	return &Resolver{
		db:        db,
		log:       log.Named("eligibility"),
		nicheRepo: nicheRepo,
		subRepo:   subRepo,
		cache:     cache,
	}
}

// Resolve returns the eligible subscriptions for the lead grouped by level.
// A subscription whose rules cannot be decoded or evaluated is ineligible;
// only repository failures surface as errors.
func (r *Resolver) Resolve(ctx context.Context, lead *leaddomain.Lead) (EligibleSet, error) {
	if set, ok := r.cache.Get(ctx, lead.ID); ok {
		return set, nil
	}

	fields, err := r.nicheRepo.ListActiveFields(ctx, r.db, lead.NicheID)
	if err != nil {
		return nil, err
	}
	schema := SchemaFromFields(fields)

	candidates, err := r.subRepo.ListCandidatesByNiche(ctx, r.db, lead.NicheID)
	if err != nil {
		return nil, err
	}

	values := map[string]any(lead.FieldValues)
	set := make(EligibleSet)
	for _, candidate := range candidates {
		rules, err := DecodeRules(candidate.FilterRules)
		if err != nil {
			r.log.Warn("subscription has undecodable filter rules",
				zap.Int64("subscription_id", int64(candidate.SubscriptionID)),
				zap.Error(err),
			)
			continue
		}
		outcome := Evaluate(values, rules, schema)
		if !outcome.Eligible {
			if outcome.Reason == "evaluator panic" {
				r.log.Warn("rule evaluation panicked",
					zap.Int64("subscription_id", int64(candidate.SubscriptionID)),
					zap.Int64("lead_id", int64(lead.ID)),
				)
			}
			continue
		}
		set[candidate.LevelID] = append(set[candidate.LevelID], Member{
			SubscriptionID: candidate.SubscriptionID,
			ProviderID:     candidate.ProviderID,
		})
	}

	r.cache.Set(ctx, lead.ID, set)
	return set, nil
}
