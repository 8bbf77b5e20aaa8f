package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	nicherepository "github.com/smallbiznis/leadflow/internal/niche/repository"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/leadflow/internal/subscription/repository"
)

type resolverFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	resolver *Resolver

	nicheID snowflake.ID
	levelID snowflake.ID
}

func newResolverFixture(t *testing.T, ttl time.Duration) *resolverFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&nichedomain.Niche{},
		&nichedomain.CompetitionLevel{},
		&nichedomain.NicheField{},
		&leaddomain.Lead{},
		&subscriptiondomain.Subscription{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &resolverFixture{
		db:      db,
		node:    node,
		nicheID: node.Generate(),
		levelID: node.Generate(),
	}
	f.resolver = NewResolver(
		db,
		zap.NewNop(),
		nicherepository.Provide(),
		subscriptionrepository.Provide(),
		NewMemoryCache(ttl),
	)

	require.NoError(t, db.Create(&nichedomain.Niche{
		ID:               f.nicheID,
		Name:             "plumbing",
		RotationPosition: 1,
		Active:           true,
	}).Error)
	require.NoError(t, db.Create(&nichedomain.CompetitionLevel{
		ID:            f.levelID,
		NicheID:       f.nicheID,
		Position:      1,
		MaxRecipients: 3,
		PricePerLead:  1500,
		Active:        true,
	}).Error)
	require.NoError(t, db.Create(&nichedomain.NicheField{
		ID:        node.Generate(),
		NicheID:   f.nicheID,
		Key:       "city",
		Label:     "City",
		FieldType: nichedomain.FieldTypeText,
		Required:  true,
		Active:    true,
	}).Error)

	return f
}

func (f *resolverFixture) addSubscription(t *testing.T, rules string) snowflake.ID {
	t.Helper()
	sub := subscriptiondomain.Subscription{
		ID:           f.node.Generate(),
		ProviderID:   f.node.Generate(),
		LevelID:      f.levelID,
		Active:       true,
		FiltersValid: true,
	}
	if rules != "" {
		sub.FilterRules = datatypes.JSON(rules)
	}
	require.NoError(t, f.db.Create(&sub).Error)
	return sub.ID
}

func (f *resolverFixture) lead(values map[string]any) *leaddomain.Lead {
	return &leaddomain.Lead{
		ID:          f.node.Generate(),
		NicheID:     f.nicheID,
		Status:      leaddomain.LeadStatusApproved,
		FieldValues: values,
	}
}

func TestResolver_FiltersBySubscriptionRules(t *testing.T) {
	f := newResolverFixture(t, 0)

	matching := f.addSubscription(t, `[{"field": "city", "operator": "equals", "value": "austin"}]`)
	f.addSubscription(t, `[{"field": "city", "operator": "equals", "value": "dallas"}]`)
	unfiltered := f.addSubscription(t, "")

	set, err := f.resolver.Resolve(context.Background(), f.lead(map[string]any{"city": "austin"}))
	require.NoError(t, err)
	require.Len(t, set[f.levelID], 2)

	got := []snowflake.ID{set[f.levelID][0].SubscriptionID, set[f.levelID][1].SubscriptionID}
	assert.ElementsMatch(t, []snowflake.ID{matching, unfiltered}, got)
}

func TestResolver_UndecodableRulesAreIneligible(t *testing.T) {
	f := newResolverFixture(t, 0)

	f.addSubscription(t, `{"not": "a list"}`)
	ok := f.addSubscription(t, "")

	set, err := f.resolver.Resolve(context.Background(), f.lead(map[string]any{"city": "austin"}))
	require.NoError(t, err)
	require.Len(t, set[f.levelID], 1)
	assert.Equal(t, ok, set[f.levelID][0].SubscriptionID)
}

func TestResolver_CachesPerLead(t *testing.T) {
	f := newResolverFixture(t, time.Minute)

	f.addSubscription(t, "")
	lead := f.lead(map[string]any{"city": "austin"})

	set, err := f.resolver.Resolve(context.Background(), lead)
	require.NoError(t, err)
	require.Len(t, set[f.levelID], 1)

	// A new subscription does not appear while the cached entry is fresh.
	f.addSubscription(t, "")
	set, err = f.resolver.Resolve(context.Background(), lead)
	require.NoError(t, err)
	assert.Len(t, set[f.levelID], 1)

	// A different lead resolves fresh.
	other := f.lead(map[string]any{"city": "austin"})
	set, err = f.resolver.Resolve(context.Background(), other)
	require.NoError(t, err)
	assert.Len(t, set[f.levelID], 2)
}
