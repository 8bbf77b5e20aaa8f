// Package service implements the distribution engine: rotation, traversal
// planning, fairness selection, and the atomic assignment+charge.
package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/leadflow/internal/audit/domain"
	"github.com/smallbiznis/leadflow/internal/clock"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	"github.com/smallbiznis/leadflow/internal/distribution/eligibility"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	ledgerdomain "github.com/smallbiznis/leadflow/internal/ledger/domain"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	"github.com/smallbiznis/leadflow/internal/notification"
	"github.com/smallbiznis/leadflow/internal/observability/metrics"
	providerdomain "github.com/smallbiznis/leadflow/internal/provider/domain"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
)

// Config tunes the retry policy for the assignment+charge transaction.
type Config struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxJitter time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 100 * time.Millisecond
	}
	if c.RetryMaxJitter <= 0 {
		c.RetryMaxJitter = 100 * time.Millisecond
	}
	return c
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	GenID        *snowflake.Node
	LeadRepo     leaddomain.Repository
	NicheRepo    nichedomain.Repository
	ProviderRepo providerdomain.Repository
	SubRepo      subscriptiondomain.Repository
	LedgerRepo   ledgerdomain.Repository
	AssignRepo   distributiondomain.Repository
	Resolver     *eligibility.Resolver
	AuditSvc     auditdomain.Service
	Notifier     notification.Notifier
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	cfg          Config
	leadRepo     leaddomain.Repository
	nicheRepo    nichedomain.Repository
	providerRepo providerdomain.Repository
	subRepo      subscriptiondomain.Repository
	ledgerRepo   ledgerdomain.Repository
	assignRepo   distributiondomain.Repository
	resolver     *eligibility.Resolver
	auditSvc     auditdomain.Service
	notifier     notification.Notifier
	metrics      *metrics.Metrics
}

func NewService(p Params) distributiondomain.Service {
	return NewServiceWithConfig(p, Config{})
}

func NewServiceWithConfig(p Params, cfg Config) distributiondomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("distribution.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		cfg:          cfg.withDefaults(),
		leadRepo:     p.LeadRepo,
		nicheRepo:    p.NicheRepo,
		providerRepo: p.ProviderRepo,
		subRepo:      p.SubRepo,
		ledgerRepo:   p.LedgerRepo,
		assignRepo:   p.AssignRepo,
		resolver:     p.Resolver,
		auditSvc:     p.AuditSvc,
		notifier:     p.Notifier,
		metrics:      p.Metrics,
	}
}

// Distribute runs one distribution for the lead: claim a rotation slot,
// resolve eligibility, walk the levels charging fairness-ordered providers,
// then finalize the lead. Per-provider failures become skips; only errors
// that abort the run before any provider is considered are returned.
func (s *Service) Distribute(ctx context.Context, leadID snowflake.ID, trigger distributiondomain.TriggeredBy) (*distributiondomain.Result, error) {
	startedAt := s.clock.Now()
	result := &distributiondomain.Result{LeadID: leadID, Status: distributiondomain.StatusFailed}

	lead, err := s.leadRepo.FindByID(ctx, s.db, leadID)
	if err != nil {
		s.observe(result, startedAt)
		return result, err
	}

	if lead.Status != leaddomain.LeadStatusApproved {
		s.bumpAttempts(ctx, leadID)
		s.observe(result, startedAt)
		return result, leaddomain.ErrLeadNotApproved
	}

	s.audit(ctx, trigger, "distribution.started", leadID, map[string]any{
		"niche_id": lead.NicheID.String(),
	})

	rotation, err := s.getAndAdvanceStart(ctx, lead.NicheID)
	if err != nil {
		s.bumpAttempts(ctx, leadID)
		if err == distributiondomain.ErrNoActiveLevels || err == nichedomain.ErrNicheNotFound {
			result.Status = distributiondomain.StatusNoEligible
			s.finishAudit(ctx, trigger, lead, result, err.Error())
			s.observe(result, startedAt)
			return result, nil
		}
		s.audit(ctx, trigger, "distribution.failed", leadID, map[string]any{"error": err.Error()})
		s.observe(result, startedAt)
		return result, err
	}

	eligible, err := s.resolver.Resolve(ctx, lead)
	if err != nil {
		// Fail safe: a resolver failure means nobody can be proven eligible.
		s.log.Warn("eligibility resolution failed",
			zap.Int64("lead_id", int64(leadID)),
			zap.Error(err),
		)
		s.bumpAttempts(ctx, leadID)
		result.Status = distributiondomain.StatusNoEligible
		s.finishAudit(ctx, trigger, lead, result, err.Error())
		s.observe(result, startedAt)
		return result, nil
	}

	plan := planTraversal(rotation.levels, rotation.start)
	assignedProviders := make([]snowflake.ID, 0, 4)

	for _, level := range plan {
		members := eligible[level.ID]
		if len(members) == 0 {
			continue
		}
		eligibleIDs := make([]snowflake.ID, 0, len(members))
		for _, member := range members {
			eligibleIDs = append(eligibleIDs, member.SubscriptionID)
		}

		picks, err := s.subRepo.SelectForLevel(ctx, s.db, level.ID, level.MaxRecipients, assignedProviders, eligibleIDs)
		if err != nil {
			s.log.Warn("fairness selection failed, skipping level",
				zap.Int64("level_id", int64(level.ID)),
				zap.Error(err),
			)
			continue
		}

		for _, pick := range picks {
			rec, err := s.chargeWithRetry(ctx, lead, pick, level)
			if err != nil {
				skip := distributiondomain.Skip{
					ProviderID:     pick.ProviderID,
					SubscriptionID: pick.SubscriptionID,
					Reason:         skipReasonFor(err),
					Detail:         err.Error(),
				}
				result.Skipped = append(result.Skipped, skip)
				s.metrics.IncSkip(string(skip.Reason))
				s.audit(ctx, trigger, "distribution.provider_skipped", leadID, map[string]any{
					"provider_id":     pick.ProviderID.String(),
					"subscription_id": pick.SubscriptionID.String(),
					"reason":          string(skip.Reason),
				})
				s.log.Info("provider skipped",
					zap.Int64("lead_id", int64(leadID)),
					zap.Int64("provider_id", int64(pick.ProviderID)),
					zap.String("reason", string(skip.Reason)),
				)
				continue
			}

			result.Assignments = append(result.Assignments, distributiondomain.AssignmentDetail{
				AssignmentID:   rec.assignment.ID,
				ProviderID:     rec.assignment.ProviderID,
				SubscriptionID: rec.assignment.SubscriptionID,
				LevelID:        rec.assignment.LevelID,
				PriceCharged:   rec.assignment.PriceCharged,
			})
			assignedProviders = append(assignedProviders, rec.assignment.ProviderID)
			s.afterCommit(ctx, trigger, lead, rotation.niche, rec)
		}
	}

	if len(result.Assignments) > 0 {
		if err := s.leadRepo.MarkDistributed(ctx, s.db, leadID, s.clock.Now()); err != nil {
			s.log.Warn("failed to mark lead distributed", zap.Int64("lead_id", int64(leadID)), zap.Error(err))
		}
	}
	s.bumpAttempts(ctx, leadID)

	result.Status = finalStatus(result, countEligible(eligible))
	s.metrics.AddAssignments(len(result.Assignments))
	s.finishAudit(ctx, trigger, lead, result, "")
	s.observe(result, startedAt)

	s.log.Info("distribution completed",
		zap.Int64("lead_id", int64(leadID)),
		zap.String("status", string(result.Status)),
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (s *Service) chargeWithRetry(
	ctx context.Context,
	lead *leaddomain.Lead,
	pick subscriptiondomain.Pick,
	level nichedomain.CompetitionLevel,
) (*receipt, error) {
	var rec *receipt
	err := s.withRetry(ctx, func() error {
		var err error
		rec, err = s.assignAndCharge(ctx, lead, pick, level)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// afterCommit runs the side effects of one committed assignment. Both are
// fire-and-forget: the charge already stands.
func (s *Service) afterCommit(
	ctx context.Context,
	trigger distributiondomain.TriggeredBy,
	lead *leaddomain.Lead,
	niche *nichedomain.Niche,
	rec *receipt,
) {
	s.audit(ctx, trigger, "distribution.assignment_created", lead.ID, map[string]any{
		"assignment_id":   rec.assignment.ID.String(),
		"provider_id":     rec.assignment.ProviderID.String(),
		"subscription_id": rec.assignment.SubscriptionID.String(),
		"level_id":        rec.assignment.LevelID.String(),
		"price_charged":   rec.assignment.PriceCharged,
		"balance_after":   rec.newBalance,
	})
	s.notifier.AssignmentCreated(ctx, notification.Assignment{
		ProviderEmail: rec.providerEmail,
		ProviderName:  rec.providerName,
		LeadID:        lead.ID.String(),
		NicheName:     niche.Name,
		PriceCharged:  rec.assignment.PriceCharged,
	})
}

func (s *Service) bumpAttempts(ctx context.Context, leadID snowflake.ID) {
	if err := s.leadRepo.IncrementAttempts(ctx, s.db, leadID); err != nil {
		s.log.Warn("failed to increment distribution attempts",
			zap.Int64("lead_id", int64(leadID)),
			zap.Error(err),
		)
	}
}

func (s *Service) audit(ctx context.Context, trigger distributiondomain.TriggeredBy, action string, leadID snowflake.ID, metadata map[string]any) {
	actorType := auditdomain.ActorTypeSystem
	actorID := trigger.ActorID
	if trigger.ActorRole == "user" {
		actorType = auditdomain.ActorTypeUser
	}
	if err := s.auditSvc.AuditLog(ctx, actorType, actorID, action, "lead", leadID.String(), metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) finishAudit(ctx context.Context, trigger distributiondomain.TriggeredBy, lead *leaddomain.Lead, result *distributiondomain.Result, detail string) {
	metadata := map[string]any{
		"status":      string(result.Status),
		"assignments": len(result.Assignments),
		"skipped":     len(result.Skipped),
	}
	if detail != "" {
		metadata["detail"] = detail
	}
	s.audit(ctx, trigger, "distribution.completed", lead.ID, metadata)
}

func (s *Service) observe(result *distributiondomain.Result, startedAt time.Time) {
	elapsed := s.clock.Now().Sub(startedAt)
	result.DurationMs = elapsed.Milliseconds()
	s.metrics.ObserveRun(string(result.Status), elapsed)
}

func skipReasonFor(err error) distributiondomain.SkipReason {
	switch err {
	case distributiondomain.ErrInsufficientBalance:
		return distributiondomain.SkipInsufficientBalance
	case distributiondomain.ErrDuplicateAssignment:
		return distributiondomain.SkipDuplicate
	}
	return distributiondomain.SkipEligibilityError
}

func countEligible(set eligibility.EligibleSet) int {
	total := 0
	for _, members := range set {
		total += len(members)
	}
	return total
}

// finalStatus: success needs at least one assignment and zero skips; any skip
// downgrades to partial. A run that found nobody eligible is no_eligible, and
// one that found eligible providers but assigned none is partial.
func finalStatus(result *distributiondomain.Result, totalEligible int) distributiondomain.Status {
	switch {
	case len(result.Assignments) > 0 && len(result.Skipped) == 0:
		return distributiondomain.StatusSuccess
	case len(result.Assignments) > 0:
		return distributiondomain.StatusPartial
	case totalEligible == 0:
		return distributiondomain.StatusNoEligible
	default:
		return distributiondomain.StatusPartial
	}
}
