package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdomain "github.com/smallbiznis/leadflow/internal/audit/domain"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
)

var systemTrigger = distributiondomain.TriggeredBy{ActorID: "test", ActorRole: "system"}

func TestDistribute_FullSuccess(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 2, 1000)

	p1 := f.createProvider(5000)
	p2 := f.createProvider(5000)
	f.createSubscription(levelID, p1, nil)
	f.createSubscription(levelID, p2, nil)

	leadID := f.createLead(leaddomain.LeadStatusApproved, map[string]any{"city": "austin"})

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusSuccess, result.Status)
	assert.Len(t, result.Assignments, 2)
	assert.Empty(t, result.Skipped)

	lead := f.reloadLead(leadID)
	assert.NotNil(t, lead.DistributedAt)
	assert.Equal(t, 1, lead.DistributionAttempts)

	assert.Equal(t, int64(4000), f.reloadProvider(p1).Balance)
	assert.Equal(t, int64(4000), f.reloadProvider(p2).Balance)
	assert.Len(t, f.assignments(leadID), 2)
}

func TestDistribute_CapacityCapsAssignments(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 2, 1000)

	for i := 0; i < 5; i++ {
		f.createSubscription(levelID, f.createProvider(5000), nil)
	}

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	// Eligible providers beyond capacity are not skips; the run is clean.
	assert.Equal(t, distributiondomain.StatusSuccess, result.Status)
	assert.Len(t, result.Assignments, 2)
	assert.Empty(t, result.Skipped)
}

func TestDistribute_InsufficientBalanceIsPartial(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 2, 1000)

	broke := f.createProvider(500)
	f.createSubscription(levelID, broke, nil)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusPartial, result.Status)
	assert.Empty(t, result.Assignments)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, distributiondomain.SkipInsufficientBalance, result.Skipped[0].Reason)
	assert.Equal(t, broke, result.Skipped[0].ProviderID)

	// Nothing was charged and the lead stays undistributed, but the attempt
	// is still counted.
	lead := f.reloadLead(leadID)
	assert.Nil(t, lead.DistributedAt)
	assert.Equal(t, 1, lead.DistributionAttempts)
	assert.Equal(t, int64(500), f.reloadProvider(broke).Balance)
	assert.Empty(t, f.ledgerEntries(broke))
}

func TestDistribute_MixedOutcomes(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 3, 1000)

	funded := f.createProvider(5000)
	broke := f.createProvider(100)
	f.createSubscription(levelID, funded, nil)
	f.createSubscription(levelID, broke, nil)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusPartial, result.Status)
	assert.Len(t, result.Assignments, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, distributiondomain.SkipInsufficientBalance, result.Skipped[0].Reason)

	// A partial run with at least one assignment still marks the lead.
	lead := f.reloadLead(leadID)
	assert.NotNil(t, lead.DistributedAt)
}

func TestDistribute_NoActiveLevels(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusNoEligible, result.Status)
	assert.Empty(t, result.Assignments)

	lead := f.reloadLead(leadID)
	assert.Nil(t, lead.DistributedAt)
	assert.Equal(t, 1, lead.DistributionAttempts)
}

func TestDistribute_NoEligibleSubscriptions(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 2, 1000)

	provider := f.createProvider(5000)
	f.createSubscriptionWithRules(levelID, provider, `[{"field": "city", "operator": "equals", "value": "dallas"}]`)

	leadID := f.createLead(leaddomain.LeadStatusApproved, map[string]any{"city": "austin"})

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusNoEligible, result.Status)
	assert.Equal(t, int64(5000), f.reloadProvider(provider).Balance)
}

func TestDistribute_RerunSkipsAlreadyAssigned(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 2, 1000)

	provider := f.createProvider(5000)
	f.createSubscription(levelID, provider, nil)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusSuccess, result.Status)

	result, err = f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusPartial, result.Status)
	assert.Empty(t, result.Assignments)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, distributiondomain.SkipDuplicate, result.Skipped[0].Reason)

	// Re-running never double-charges.
	assert.Equal(t, int64(4000), f.reloadProvider(provider).Balance)
	assert.Len(t, f.assignments(leadID), 1)
	assert.Equal(t, 2, f.reloadLead(leadID).DistributionAttempts)
}

func TestDistribute_ProviderAssignedOncePerLead(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	level1 := f.createLevel(1, 2, 1000)
	level2 := f.createLevel(2, 2, 2000)

	provider := f.createProvider(10000)
	f.createSubscription(level1, provider, nil)
	f.createSubscription(level2, provider, nil)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	assert.Equal(t, distributiondomain.StatusSuccess, result.Status)
	assert.Len(t, result.Assignments, 1)
	assert.Len(t, f.assignments(leadID), 1)
	assert.Equal(t, int64(9000), f.reloadProvider(provider).Balance)
}

func TestDistribute_FairnessPrefersLeastRecentlyServed(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 2, 1000)

	now := f.clock.Now()
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)
	oneHourAgo := now.Add(-time.Hour)

	never := f.createProvider(5000)
	stale := f.createProvider(5000)
	fresh := f.createProvider(5000)
	f.createSubscription(levelID, never, nil)
	f.createSubscription(levelID, stale, &tenDaysAgo)
	f.createSubscription(levelID, fresh, &oneHourAgo)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 2)

	assigned := map[int64]bool{}
	for _, a := range result.Assignments {
		assigned[int64(a.ProviderID)] = true
	}
	assert.True(t, assigned[int64(never)], "never-served provider must be picked first")
	assert.True(t, assigned[int64(stale)], "least recently served provider wins the second slot")
	assert.False(t, assigned[int64(fresh)])
}

func TestDistribute_RotationSpreadsFirstPick(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	level1 := f.createLevel(1, 1, 1000)
	level2 := f.createLevel(2, 1, 2000)

	p1 := f.createProvider(10000)
	p2 := f.createProvider(10000)
	f.createSubscription(level1, p1, nil)
	f.createSubscription(level2, p2, nil)

	lead1 := f.createLead(leaddomain.LeadStatusApproved, nil)
	lead2 := f.createLead(leaddomain.LeadStatusApproved, nil)

	// Both leads reach both levels; rotation decides traversal order, which
	// shows up in assignment order.
	result1, err := f.svc.Distribute(context.Background(), lead1, systemTrigger)
	require.NoError(t, err)
	require.Len(t, result1.Assignments, 2)
	assert.Equal(t, level1, result1.Assignments[0].LevelID)

	result2, err := f.svc.Distribute(context.Background(), lead2, systemTrigger)
	require.NoError(t, err)
	require.Len(t, result2.Assignments, 2)
	assert.Equal(t, level2, result2.Assignments[0].LevelID)
}

func TestDistribute_RejectsUnapprovedLead(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	f.createLevel(1, 2, 1000)

	leadID := f.createLead(leaddomain.LeadStatusPending, nil)

	result, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	assert.ErrorIs(t, err, leaddomain.ErrLeadNotApproved)
	assert.Equal(t, distributiondomain.StatusFailed, result.Status)
	assert.Equal(t, 1, f.reloadLead(leadID).DistributionAttempts)
}

func TestDistribute_MissingLead(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)

	result, err := f.svc.Distribute(context.Background(), f.node.Generate(), systemTrigger)
	assert.ErrorIs(t, err, leaddomain.ErrLeadNotFound)
	assert.Equal(t, distributiondomain.StatusFailed, result.Status)
}

func TestDistribute_WritesAuditTrail(t *testing.T) {
	f := newFixture(t)
	f.createNiche(1)
	levelID := f.createLevel(1, 1, 1000)
	f.createSubscription(levelID, f.createProvider(5000), nil)

	leadID := f.createLead(leaddomain.LeadStatusApproved, nil)

	_, err := f.svc.Distribute(context.Background(), leadID, systemTrigger)
	require.NoError(t, err)

	var actions []string
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).
		Where("target_id = ?", leadID.String()).
		Order("created_at asc, id asc").
		Pluck("action", &actions).Error)
	assert.Contains(t, actions, "distribution.started")
	assert.Contains(t, actions, "distribution.assignment_created")
	assert.Contains(t, actions, "distribution.completed")
}
